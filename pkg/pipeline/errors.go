package pipeline

import (
	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet  = errors.New("p must be set")
	ErrStageNameRequired  = errors.New("stage name must be set")
	ErrWorkRequired       = errors.New("stage work must be set")
	ErrDuplicateStage     = errors.New("duplicate stage name")
	ErrStageNotFound      = errors.New("stage not found in collection")
	ErrSetupIncomplete    = errors.New("pipeline setup not completed")
	ErrSetupAlreadyCalled = errors.New("setup stage already registered")
	ErrStageResult        = errors.New("stage degraded the build result")
	ErrAlreadyRun         = errors.New("pipeline already ran")
)

// StageError ties a failure to the stage it was captured on.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return "stage " + e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Cause keeps StageError compatible with errors.Cause.
func (e *StageError) Cause() error {
	return e.Err
}
