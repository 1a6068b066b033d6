package model

import "time"

// PipelineOption defines the interface for options hooked into a pipeline run.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStage runs when a stage is registered. previous is nil for the first stage.
	PrepareStage(previous, stage *StageInfo) error
	// OnStageDone runs once a stage reached a terminal status.
	OnStageDone(stage *StageInfo) error
	// Finish runs after the pipeline is finished, whatever its outcome.
	Finish(result Result, totalDuration time.Duration) error
}
