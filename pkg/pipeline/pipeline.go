package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-stages/pkg/pipeline/admin"
	"github.com/askiada/go-stages/pkg/pipeline/branch"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// DefaultTimeout bounds a stage when neither the stage nor the pipeline sets a timeout.
const DefaultTimeout = time.Hour

// Pipeline is an ordered chain of stages sharing one run context.
type Pipeline struct {
	stages *Stages
	run    *RunContext
	opts   []model.PipelineOption

	logger   *slog.Logger
	params   Parameters
	notifier Notifier
	branches *branch.Branches
	admins   *admin.Admins
	jobProps JobProperties

	branchName     string
	jobName        string
	buildNumber    int
	recipients     []string
	env            map[string]string
	baseDir        string
	defaultTimeout time.Duration

	skipParams []SkipParameter
	setupStage *Stage
	branch     *branch.Branch
	ran        bool
}

// EndConfig configures the end of a run.
type EndConfig struct {
	// Always runs after the stages, whatever their outcome, before the notification is sent.
	Always func(ctx context.Context, rc *RunContext)
}

// New creates a new pipeline.
func New(opts ...Option) (*Pipeline, error) {
	pipe := &Pipeline{
		stages:         NewStages(),
		logger:         slog.Default(),
		params:         noParameters{},
		jobProps:       noJobProperties{},
		env:            make(map[string]string),
		defaultTimeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(pipe)
	}

	pipe.run = newRunContext(pipe.branchName)

	for _, opt := range pipe.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// Stages returns the stage collection.
func (p *Pipeline) Stages() *Stages {
	return p.stages
}

// RunContext returns the state shared by the stages.
func (p *Pipeline) RunContext() *RunContext {
	return p.run
}

// SkipParameters lists the toggles the host must expose for skippable stages,
// in registration order.
func (p *Pipeline) SkipParameters() []SkipParameter {
	res := make([]SkipParameter, len(p.skipParams))
	copy(res, p.skipParams)

	return res
}

// Setup registers the Setup stage every other stage depends on.
// work may be nil when there is nothing to prepare.
func (p *Pipeline) Setup(cfg StageConfig) (*Stage, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if p.setupStage != nil {
		return nil, ErrSetupAlreadyCalled
	}

	cfg.Name = model.SetupStageName
	cfg.ResultThreshold = model.ResultFailure
	cfg.DoesIgnoreSkipAll = true
	cfg.IsSkippable = false
	if cfg.Work == nil {
		cfg.Work = func(context.Context, *StageContext) error { return nil }
	}

	stage, err := p.CreateStage(cfg)
	if stage != nil {
		p.setupStage = stage
	}

	return stage, err
}

// CreateStage registers a stage and binds its skip-decision cascade.
//
// A duplicate name returns the stage along with an ErrDuplicateStage error. The same error
// is recorded on the first stage, so a caller ignoring it still sees the run fail.
func (p *Pipeline) CreateStage(cfg StageConfig) (*Stage, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if cfg.Name == "" {
		return nil, ErrStageNameRequired
	}
	if cfg.Work == nil {
		return nil, errors.Wrapf(ErrWorkRequired, "stage %q", cfg.Name)
	}

	stage := newStage(cfg)
	previous := p.stages.Last()

	addErr := p.stages.Add(stage)
	if addErr != nil {
		p.logger.Warn("stage registered twice", "stage", cfg.Name, "error", addErr)
	}

	stage.execute = p.bind(stage)

	if cfg.IsSkippable && addErr == nil {
		p.skipParams = append(p.skipParams, newSkipParameter(cfg.Name))
	}

	var previousInfo *model.StageInfo
	if previous != nil {
		previousInfo = previous.info()
	}

	for _, opt := range p.opts {
		err := opt.PrepareStage(previousInfo, stage.info())
		if err != nil {
			return stage, errors.Wrapf(err, "unable to prepare stage %q", cfg.Name)
		}
	}

	return stage, addErr
}

// End appends the Complete stage, runs the chain and sends the completion notification.
//
// The notification is sent whatever happened to the stages, cancellation and panics included.
// The returned error is the first stage failure, or the cancellation error when the run was
// aborted. Notification problems are only logged.
func (p *Pipeline) End(ctx context.Context, cfg EndConfig) (report *Report, err error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if p.ran {
		return nil, ErrAlreadyRun
	}
	p.ran = true

	_, err = p.CreateStage(StageConfig{
		Name:              model.CompleteStageName,
		ResultThreshold:   model.ResultFailure,
		DoesIgnoreSkipAll: true,
		Work: func(_ context.Context, sc *StageContext) error {
			sc.Logger.Info("pipeline complete", "result", sc.Run.Result().String())

			return nil
		},
	})
	if err != nil && !errors.Is(err, ErrDuplicateStage) {
		return nil, errors.Wrap(err, "unable to add complete stage")
	}

	p.applyBranchPolicy()

	start := time.Now()
	defer func() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.run.SetResult(model.ResultAborted)
			if !errors.Is(err, ctxErr) {
				err = errors.Wrap(ctxErr, "pipeline aborted")
			}
		}
		report = p.finish(ctx, cfg, time.Since(start))
	}()

	return nil, p.stages.Execute(ctx)
}

func (p *Pipeline) finish(ctx context.Context, cfg EndConfig, elapsed time.Duration) *Report {
	// the run may have been cancelled, the epilogue must still go through
	ctx = context.WithoutCancel(ctx)

	p.always(ctx, cfg)

	report := p.report(elapsed)
	p.notify(ctx, report)

	for _, opt := range p.opts {
		err := opt.Finish(report.Result, elapsed)
		if err != nil {
			p.logger.Error("unable to finish pipeline option", "error", err)
		}
	}

	return report
}

// always runs the Always hook. A panicking hook fails the build but never stops the report.
func (p *Pipeline) always(ctx context.Context, cfg EndConfig) {
	if cfg.Always == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.run.SetResult(model.ResultFailure)
			p.logger.Error("always hook panicked", "panic", r)
		}
	}()

	cfg.Always(ctx, p.run)
}

func (p *Pipeline) applyBranchPolicy() {
	if p.branches == nil {
		return
	}

	resolved, ok := p.branches.Resolve(p.branchName)
	if !ok {
		p.logger.Debug("no branch policy", "branch", p.branchName)

		return
	}
	p.branch = resolved

	if resolved.BuildHistory > 0 {
		p.jobProps.SetBuildHistory(resolved.BuildHistory)
	}
	p.jobProps.DisableConcurrentBuilds(resolved.IsProtected)

	p.logger.Info("branch policy applied",
		"branch", p.branchName,
		"pattern", resolved.Name,
		"protected", resolved.IsProtected,
		"build_history", resolved.BuildHistory,
	)
}

func (p *Pipeline) isProtected() bool {
	return p.branch != nil && p.branch.IsProtected
}
