package measure

import (
	"sync"
)

// DefaultMeasure keeps one metric per stage, in registration order.
type DefaultMeasure struct {
	mu    sync.Mutex
	Steps map[string]Metric
	order []string
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

// AddMetric registers a metric for name. A name seen before keeps its metric.
func (m *DefaultMeasure) AddMetric(name string, order int) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.Steps[name]; ok {
		return mt
	}

	mt := &DefaultMetric{
		mu:    &sync.Mutex{},
		name:  name,
		order: order,
	}
	m.Steps[name] = mt
	m.order = append(m.order, name)

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[name]
}

func (m *DefaultMeasure) AllMetrics() []Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]Metric, 0, len(m.order))
	for _, name := range m.order {
		res = append(res, m.Steps[name])
	}

	return res
}

var _ Measure = (*DefaultMeasure)(nil)
