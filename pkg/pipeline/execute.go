package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// Reasons a stage was skipped, in the order they are checked.
const (
	SkipReasonThreshold = "result below threshold"
	SkipReasonParameter = "skipped by parameter"
	SkipReasonSkipAll   = "all remaining skipped"
	SkipReasonPredicate = "predicate returned false"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// bind returns the closure the chain walk invokes for stage.
func (p *Pipeline) bind(stage *Stage) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if stage.status.IsTerminal() {
			return nil
		}

		logger := p.logger.With("stage", stage.Name, "order", stage.order)
		stage.startedAt = time.Now()
		stage.setStatus(model.StatusExecute)

		if ctx.Err() != nil {
			p.run.SetResult(model.ResultAborted)
			p.run.SkipRemainingStages()
		}

		err := p.runStageSafely(ctx, stage, logger)
		if err != nil {
			err = p.fail(ctx, stage, err, logger)
		}
		stage.duration = time.Since(stage.startedAt)

		if stage == p.setupStage && stage.status == model.StatusSuccess {
			p.run.markSetupSucceeded()
		}

		for _, opt := range p.opts {
			optErr := opt.OnStageDone(stage.info())
			if optErr != nil {
				logger.Error("unable to run stage done option", "error", optErr)
			}
		}

		return err
	}
}

// runStageSafely turns a panic in the cascade, a predicate included, into a stage failure.
func (p *Pipeline) runStageSafely(ctx context.Context, stage *Stage, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("stage panicked: %v", r)
		}
	}()

	return p.runStage(ctx, stage, logger)
}

// runStage applies the skip cascade then runs the body. A returned error fails the stage.
//
// A body returning nil still fails when the build result degraded to UNSTABLE or worse while
// it ran. A result that was already degraded before the stage started does not count, so a
// stage running after an UNSTABLE stage, Complete included, ends in SUCCESS.
func (p *Pipeline) runStage(ctx context.Context, stage *Stage, logger *slog.Logger) error {
	if stage.err != nil {
		return stage.err
	}

	if p.setupMissing(ctx, stage) {
		return errors.Wrapf(ErrSetupIncomplete, "stage %q cannot run", stage.Name)
	}

	sc := p.stageContext(stage, logger)

	if reason, skip := p.skipReason(ctx, stage, sc); skip {
		stage.skipReason = reason
		stage.setStatus(model.StatusSkip)
		logger.Info("stage skipped", "reason", reason, "result", p.run.Result().String())

		return nil
	}

	before := p.run.Result()
	logger.Info("stage started")

	err := p.runWork(ctx, stage, sc)
	if err != nil {
		return err
	}

	after := p.run.Result()
	if after.IsWorseOrEqualTo(model.ResultUnstable) && after.IsWorseThan(before) {
		stage.setErr(errors.Wrapf(ErrStageResult, "stage %q left the build %s", stage.Name, after))
		stage.setStatus(model.StatusFail)
		setErr := p.stages.SetFirstFailingStage(stage)
		if setErr != nil {
			logger.Error("unable to record failing stage", "error", setErr)
		}
		logger.Warn("stage completed with a degraded result", "result", after.String())

		return nil
	}

	stage.setStatus(model.StatusSuccess)
	logger.Info("stage succeeded")

	return nil
}

// setupMissing reports whether stage must fail because Setup did not succeed.
// Once a failure is recorded or the run is aborted, the cascade skips the stage instead.
func (p *Pipeline) setupMissing(ctx context.Context, stage *Stage) bool {
	switch {
	case stage == p.setupStage, p.run.setupSucceeded():
		return false
	case p.stages.FirstFailingStage() != nil, ctx.Err() != nil:
		return false
	case p.run.Result().IsWorseOrEqualTo(model.ResultNotBuilt):
		return false
	}

	return true
}

// skipReason walks the skip cascade. The first matching condition wins.
func (p *Pipeline) skipReason(ctx context.Context, stage *Stage, sc *StageContext) (string, bool) {
	if p.run.Result().IsWorseThan(stage.Args.ResultThreshold) {
		return SkipReasonThreshold, true
	}

	if stage.Args.IsSkippable && p.params.Bool(SkipParameterName(stage.Name)) {
		stage.IsSkippedByParam = true

		return SkipReasonParameter, true
	}

	if p.run.SkipAll() && !stage.Args.DoesIgnoreSkipAll {
		return SkipReasonSkipAll, true
	}

	if stage.Args.ShouldExecute != nil && !stage.Args.ShouldExecute(ctx, sc) {
		return SkipReasonPredicate, true
	}

	return "", false
}

// runWork runs the body inside the stage timeout. A body ignoring its context is abandoned
// once the deadline fires.
func (p *Pipeline) runWork(ctx context.Context, stage *Stage, sc *StageContext) error {
	timeout := stage.Args.Timeout
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}

	sCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errC := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errC <- errors.Errorf("stage panicked: %v", r)
			}
		}()
		errC <- stage.Args.Work(sCtx, sc)
	}()

	select {
	case err := <-errC:
		return err
	case <-sCtx.Done():
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "pipeline aborted")
		}

		return errors.Wrapf(sCtx.Err(), "stage timed out after %s", timeout)
	}
}

// fail captures err on the stage and on the run, then returns it decorated with the stage.
func (p *Pipeline) fail(ctx context.Context, stage *Stage, err error, logger *slog.Logger) error {
	if _, ok := err.(stackTracer); !ok { //nolint:errorlint
		err = errors.WithStack(err)
	}

	stage.setErr(err)
	stage.setStatus(model.StatusFail)

	setErr := p.stages.SetFirstFailingStage(stage)
	if setErr != nil {
		logger.Error("unable to record failing stage", "error", setErr)
	}

	p.run.SetResult(model.ResultFailure)
	if ctx.Err() != nil {
		p.run.SetResult(model.ResultAborted)
	}
	p.run.SkipRemainingStages()

	logger.Error("stage failed", "error", stage.err)

	return &StageError{Stage: stage.Name, Err: stage.err}
}

func (p *Pipeline) stageContext(stage *Stage, logger *slog.Logger) *StageContext {
	env := make(map[string]string, len(p.env)+len(stage.Args.Environment))
	for k, v := range p.env {
		env[k] = v
	}
	for k, v := range stage.Args.Environment {
		env[k] = v
	}

	dir := p.baseDir
	if stage.Args.BaseDirectory != "" {
		dir = stage.Args.BaseDirectory
		if p.baseDir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(p.baseDir, dir)
		}
	}

	return &StageContext{
		Name:   stage.Name,
		Env:    env,
		Dir:    dir,
		Logger: logger,
		Run:    p.run,
	}
}
