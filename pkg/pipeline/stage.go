package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// Runnable is the body of a stage. Any returned error fails the stage.
// Bodies should honour ctx, it is cancelled when the stage times out or the run is aborted.
type Runnable func(ctx context.Context, sc *StageContext) error

// Predicate decides whether a stage should execute.
type Predicate func(ctx context.Context, sc *StageContext) bool

// StageConfig is the declarative configuration of a stage.
type StageConfig struct {
	// Name must be unique within a pipeline.
	Name string
	// Work is the stage body.
	Work Runnable
	// ResultThreshold is the worst aggregate result this stage still runs on.
	// The zero value is model.ResultSuccess.
	ResultThreshold model.Result
	// IsSkippable exposes a "Skip Stage: <name>" parameter for this stage.
	IsSkippable bool
	// DoesIgnoreSkipAll lets the stage run after an upstream failure.
	DoesIgnoreSkipAll bool
	// ShouldExecute is an optional caller predicate, evaluated last.
	ShouldExecute Predicate
	// Timeout bounds the body. Zero uses the pipeline default.
	Timeout time.Duration
	// Environment is overlaid on the pipeline environment while the body runs.
	Environment map[string]string
	// BaseDirectory is the working directory of the body.
	BaseDirectory string
}

// StageContext is what a stage body sees of the run.
type StageContext struct {
	Name   string
	Env    map[string]string
	Dir    string
	Logger *slog.Logger
	Run    *RunContext
}

// Environ returns the environment as sorted KEY=VALUE pairs, the form os/exec expects.
func (sc *StageContext) Environ() []string {
	res := make([]string, 0, len(sc.Env))
	for k, v := range sc.Env {
		res = append(res, k+"="+v)
	}
	sort.Strings(res)

	return res
}

// Stage is a single named unit of work.
type Stage struct {
	Name             string
	Args             StageConfig
	IsSkippedByParam bool

	order      int
	status     model.Status
	skipReason string
	err        error
	startedAt  time.Time
	duration   time.Duration

	execute func(ctx context.Context) error
}

func newStage(cfg StageConfig) *Stage {
	return &Stage{
		Name:   cfg.Name,
		Args:   cfg,
		order:  -1,
		status: model.StatusCreate,
	}
}

// Order is the position of the stage in its collection.
func (s *Stage) Order() int { return s.order }

// Status is the current lifecycle state.
func (s *Stage) Status() model.Status { return s.status }

// SkipReason explains a SKIP status, empty otherwise.
func (s *Stage) SkipReason() string { return s.skipReason }

// Err is the first failure captured on the stage.
func (s *Stage) Err() error { return s.err }

// StartedAt is when the stage began executing.
func (s *Stage) StartedAt() time.Time { return s.startedAt }

// Duration is how long the stage took, skip decisions included.
func (s *Stage) Duration() time.Duration { return s.duration }

// setErr records err unless a failure is already recorded.
func (s *Stage) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

// setStatus moves the stage forward. Terminal stages never change again.
func (s *Stage) setStatus(status model.Status) {
	if s.status.IsTerminal() {
		return
	}
	s.status = status
}

func (s *Stage) info() *model.StageInfo {
	return &model.StageInfo{
		Name:       s.Name,
		Order:      s.order,
		Status:     s.status,
		SkipReason: s.skipReason,
		Err:        s.err,
		Duration:   s.duration,
	}
}
