package drawer

import (
	"time"

	"github.com/askiada/go-stages/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a stage chain.
type Drawer interface {
	// AddStep adds a stage to the drawer.
	AddStep(stepname string) error
	// AddLink adds a link between a stage and the one running after it.
	AddLink(parentStepName, childrenStepName string) error
	// Draw writes the graph out.
	Draw() error
	// SetTotalTime sets the total time of the run on the given step.
	SetTotalTime(stepName string, totalTime time.Duration) error
	// AddMeasure decorates the stages with the measured status and durations.
	AddMeasure(measure measure.Measure) error
}
