package drawer

import (
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-stages/pkg/pipeline/measure"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

const (
	StartStepName = model.StartStepName
	EndStepName   = model.EndStepName
)

type pipelineDrawer struct {
	Drawer
	m    measure.Measure
	last string
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(StartStepName)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(EndStepName)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}
	pd.last = StartStepName

	return nil
}

// PrepareStage chains stage after the previously registered one. A stage name registered
// twice is drawn once, a stage named after the start or end step is not drawn.
func (pd *pipelineDrawer) PrepareStage(_, stage *model.StageInfo) error {
	if stage.Name == StartStepName || stage.Name == EndStepName {
		return errors.Wrapf(model.ErrReservedStageName, "%q", stage.Name)
	}

	err := pd.AddStep(stage.Name)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return err
	}

	if pd.last != stage.Name {
		err = pd.AddLink(pd.last, stage.Name)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return err
		}
	}
	pd.last = stage.Name

	return nil
}

func (pd *pipelineDrawer) OnStageDone(_ *model.StageInfo) error {
	return nil
}

func (pd *pipelineDrawer) Finish(_ model.Result, totalDuration time.Duration) error {
	err := pd.AddLink(pd.last, EndStepName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrap(err, "unable to link end step")
	}

	err = pd.SetTotalTime(EndStepName, totalDuration)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the stage chain once the run finishes. measure may be nil, when set it
// should also be hooked into the pipeline so it holds the stage outcomes.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure}
}
