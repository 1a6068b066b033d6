package pipeline

import (
	"context"

	"github.com/pkg/errors"
)

// Stages is an ordered collection of stages. Registration order is execution order.
//
// The collection owns its stages: chain holds every registered stage, duplicates included,
// so the walk always covers every registration. byName only maps the first stage of a name.
type Stages struct {
	chain             []*Stage
	byName            map[string]*Stage
	firstFailingStage *Stage
}

// NewStages creates an empty collection.
func NewStages() *Stages {
	return &Stages{
		byName: make(map[string]*Stage),
	}
}

// Add appends stage to the chain.
//
// A duplicate name is still chained but not mapped. The duplicate error is recorded on the
// first registered stage, so it surfaces when the walk reaches it, and returned so the
// caller may fail fast instead.
func (s *Stages) Add(stage *Stage) error {
	if stage == nil || stage.Name == "" {
		return ErrStageNameRequired
	}

	stage.order = len(s.chain)
	s.chain = append(s.chain, stage)

	if _, ok := s.byName[stage.Name]; ok {
		err := errors.Wrapf(ErrDuplicateStage, "%q registered at position %d", stage.Name, stage.order)
		s.chain[0].setErr(err)

		return err
	}
	s.byName[stage.Name] = stage

	return nil
}

// Get returns the stage registered under name.
func (s *Stages) Get(name string) (*Stage, bool) {
	stage, ok := s.byName[name]

	return stage, ok
}

// Size is the number of distinct stage names.
func (s *Stages) Size() int {
	return len(s.byName)
}

// Len is the length of the execution chain.
func (s *Stages) Len() int {
	return len(s.chain)
}

// All returns the chain in execution order.
func (s *Stages) All() []*Stage {
	res := make([]*Stage, len(s.chain))
	copy(res, s.chain)

	return res
}

// First is the head of the chain, nil when empty.
func (s *Stages) First() *Stage {
	if len(s.chain) == 0 {
		return nil
	}

	return s.chain[0]
}

// Last is the tail of the chain, nil when empty.
func (s *Stages) Last() *Stage {
	if len(s.chain) == 0 {
		return nil
	}

	return s.chain[len(s.chain)-1]
}

// Next returns the stage executed after stage, nil at the end of the chain.
func (s *Stages) Next(stage *Stage) *Stage {
	if !s.contains(stage) || stage.order+1 >= len(s.chain) {
		return nil
	}

	return s.chain[stage.order+1]
}

// FirstFailingStage is the first stage whose body or post-check failed.
func (s *Stages) FirstFailingStage() *Stage {
	return s.firstFailingStage
}

// SetFirstFailingStage records stage as the first failure. Only the first call wins,
// later calls are no-ops. stage must belong to the collection.
func (s *Stages) SetFirstFailingStage(stage *Stage) error {
	if !s.contains(stage) {
		name := "<nil>"
		if stage != nil {
			name = stage.Name
		}

		return errors.Wrapf(ErrStageNotFound, "cannot mark %q as failing", name)
	}
	if s.firstFailingStage == nil {
		s.firstFailingStage = stage
	}

	return nil
}

// Execute walks the chain, invoking every stage exactly once and in order.
// It does no skip logic: each stage guards itself. The walk does not stop on failure so that
// later stages still get to record their skip. The first raised error is returned at the end.
func (s *Stages) Execute(ctx context.Context) error {
	var first error

	for _, stage := range s.chain {
		if stage.execute == nil {
			continue
		}
		err := stage.execute(ctx)
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

func (s *Stages) contains(stage *Stage) bool {
	if stage == nil || stage.order < 0 || stage.order >= len(s.chain) {
		return false
	}

	return s.chain[stage.order] == stage
}
