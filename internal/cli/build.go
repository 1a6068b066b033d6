package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"

	"github.com/pkg/errors"

	"github.com/askiada/go-stages/internal/config"
	"github.com/askiada/go-stages/pkg/pipeline"
	"github.com/askiada/go-stages/pkg/pipeline/admin"
	"github.com/askiada/go-stages/pkg/pipeline/branch"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// build holds what a config turns into.
type build struct {
	cfg      *config.Config
	branches *branch.Branches
	admins   *admin.Admins
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
}

func newBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) (*build, error) {
	branches, err := buildBranches(cfg)
	if err != nil {
		return nil, err
	}

	users := make([]admin.User, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		users = append(users, admin.User{ID: u.ID, Email: u.Email, Name: u.Name})
	}

	admins := admin.New(admin.NewStaticDirectory(users...))
	err = admins.Add(ctx, cfg.Admins...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to register admins")
	}

	return &build{
		cfg:      cfg,
		branches: branches,
		admins:   admins,
		stdout:   stdout,
		stderr:   stderr,
		logger:   logger,
	}, nil
}

func buildBranches(cfg *config.Config) (*branch.Branches, error) {
	policies := make([]branch.Branch, 0, len(cfg.Branches))
	for _, b := range cfg.Branches {
		policies = append(policies, branch.Branch{
			Name:               b.Name,
			IsProtected:        b.Protected,
			BuildHistory:       b.BuildHistory,
			AllowRelease:       b.AllowRelease,
			AllowFormalRelease: b.AllowFormalRelease,
			ReleaseTag:         b.ReleaseTag,
		})
	}

	branches := branch.New()
	err := branches.AddPattern(policies...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to register branch policy")
	}

	return branches, nil
}

// pipeline creates the pipeline and registers every configured stage.
func (b *build) pipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	base := []pipeline.Option{
		pipeline.WithLogger(b.logger),
		pipeline.WithBranch(b.cfg.Branch),
		pipeline.WithJob(b.cfg.Job, b.cfg.BuildNumber),
		pipeline.WithRecipients(b.cfg.Recipients...),
		pipeline.WithEnvironment(b.cfg.Environment),
		pipeline.WithBaseDirectory(b.cfg.BaseDirectory),
		pipeline.WithBranches(b.branches),
		pipeline.WithAdmins(b.admins),
		pipeline.WithNotifier(&logNotifier{logger: b.logger, w: b.stdout}),
		pipeline.WithJobProperties(&logJobProperties{logger: b.logger}),
	}
	if b.cfg.DefaultTimeout.Duration > 0 {
		base = append(base, pipeline.WithDefaultTimeout(b.cfg.DefaultTimeout.Duration))
	}

	pipe, err := pipeline.New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	setup := pipeline.StageConfig{}
	if b.cfg.Setup != "" {
		setup.Work = b.shell(b.cfg.Setup, false)
	}
	_, err = pipe.Setup(setup)
	if err != nil {
		return nil, errors.Wrap(err, "unable to register setup")
	}

	for _, st := range b.cfg.Stages {
		predicate, err := branchPredicate(st.Branches)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %q", st.Name)
		}

		_, err = pipe.CreateStage(pipeline.StageConfig{
			Name:              st.Name,
			Work:              b.shell(st.Run, st.UnstableOnError),
			ResultThreshold:   st.ResultThreshold(),
			IsSkippable:       st.Skippable,
			DoesIgnoreSkipAll: st.IgnoreSkipAll,
			ShouldExecute:     predicate,
			Timeout:           st.Timeout.Duration,
			Environment:       st.Environment,
			BaseDirectory:     st.Directory,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "unable to register stage %q", st.Name)
		}
	}

	return pipe, nil
}

// shell runs command with sh. With unstableOnError a failing command marks the build
// UNSTABLE instead of failing the stage.
func (b *build) shell(command string, unstableOnError bool) pipeline.Runnable {
	return func(ctx context.Context, sc *pipeline.StageContext) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = sc.Dir
		cmd.Env = append(os.Environ(), sc.Environ()...)
		cmd.Stdout = b.stdout
		cmd.Stderr = b.stderr

		err := cmd.Run()
		if err == nil {
			return nil
		}

		if unstableOnError && ctx.Err() == nil {
			sc.Logger.Warn("command failed, marking build unstable", "error", err)
			sc.Run.SetResult(model.ResultUnstable)

			return nil
		}

		return errors.Wrapf(err, "command %q", command)
	}
}

// branchPredicate runs a stage only on branches matching one of patterns.
// No pattern means every branch.
func branchPredicate(patterns []string) (pipeline.Predicate, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(`^(?:` + pattern + `)$`)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid branch pattern %q", pattern)
		}
		res = append(res, re)
	}

	return func(_ context.Context, sc *pipeline.StageContext) bool {
		for _, re := range res {
			if re.MatchString(sc.Run.Branch()) {
				return true
			}
		}

		return false
	}, nil
}
