package measure

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// EndStepName is the metric holding the duration of the whole run.
const EndStepName = model.EndStepName

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(EndStepName, -1)

	return nil
}

// PrepareStage refuses a stage named after the total duration metric.
func (pm *pipelineMeasure) PrepareStage(_, stage *model.StageInfo) error {
	if stage.Name == EndStepName {
		return errors.Wrapf(model.ErrReservedStageName, "%q", stage.Name)
	}
	pm.AddMetric(stage.Name, stage.Order)

	return nil
}

func (pm *pipelineMeasure) OnStageDone(stage *model.StageInfo) error {
	if stage.Name == EndStepName {
		return nil
	}
	mt := pm.GetMetric(stage.Name)
	if mt == nil {
		mt = pm.AddMetric(stage.Name, stage.Order)
	}
	mt.SetOutcome(stage.Status, stage.Duration)

	return nil
}

func (pm *pipelineMeasure) Finish(_ model.Result, totalDuration time.Duration) error {
	pm.GetMetric(EndStepName).SetTotalDuration(totalDuration)

	return nil
}

// PipelineMeasure records the outcome and duration of every stage into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
