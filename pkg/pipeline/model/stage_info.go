package model

import (
	"time"

	"github.com/pkg/errors"
)

// Status is the lifecycle state of a single stage.
type Status string

const (
	StatusCreate  Status = "CREATE"
	StatusExecute Status = "EXECUTE"
	StatusSuccess Status = "SUCCESS"
	StatusSkip    Status = "SKIP"
	StatusFail    Status = "FAIL"
)

// IsTerminal reports whether the status can no longer change during a run.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusSkip || s == StatusFail
}

// StageInfo is a read-only snapshot of a stage handed to pipeline options.
type StageInfo struct {
	Name       string
	Order      int
	Status     Status
	SkipReason string
	Err        error
	Duration   time.Duration
}

// Names of the stages the pipeline creates on its own.
const (
	SetupStageName    = "Setup"
	CompleteStageName = "Complete"
)

// Names of the steps pipeline options draw and measure around the stages.
const (
	StartStepName = "start"
	EndStepName   = "end"
)

// ErrReservedStageName is returned by a pipeline option for a stage named after one of its steps.
var ErrReservedStageName = errors.New("stage name is reserved")
