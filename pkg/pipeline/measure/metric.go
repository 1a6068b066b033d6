package measure

import (
	"sync"
	"time"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

type DefaultMetric struct {
	mu          *sync.Mutex
	name        string
	order       int
	status      model.Status
	stepElapsed time.Duration
	EndDuration time.Duration
}

func (mt *DefaultMetric) Name() string { return mt.name }

func (mt *DefaultMetric) Order() int { return mt.order }

func (mt *DefaultMetric) SetOutcome(status model.Status, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.status = status
	mt.stepElapsed = elapsed
}

func (mt *DefaultMetric) Status() model.Status {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.status == "" {
		return model.StatusCreate
	}

	return mt.status
}

func (mt *DefaultMetric) Duration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return Round(mt.stepElapsed)
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.EndDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.EndDuration
}

// Round trims a duration to a precision that reads well next to its magnitude.
func Round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Minute)
	case d > time.Minute:
		d = d.Round(time.Second)
	case d > time.Second:
		d = d.Round(time.Millisecond)
	case d > time.Millisecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
