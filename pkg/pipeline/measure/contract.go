package measure

import (
	"time"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

type Measure interface {
	AddMetric(name string, order int) Metric
	GetMetric(name string) Metric
	AllMetrics() []Metric
}

type Metric interface {
	Name() string
	Order() int
	SetOutcome(status model.Status, elapsed time.Duration)
	Status() model.Status
	Duration() time.Duration
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
