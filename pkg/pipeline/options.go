package pipeline

import (
	"log/slog"
	"time"

	"github.com/askiada/go-stages/pkg/pipeline/admin"
	"github.com/askiada/go-stages/pkg/pipeline/branch"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

type Option func(p *Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithParameters(params Parameters) Option {
	return func(p *Pipeline) {
		p.params = params
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

func WithBranches(branches *branch.Branches) Option {
	return func(p *Pipeline) {
		p.branches = branches
	}
}

func WithAdmins(admins *admin.Admins) Option {
	return func(p *Pipeline) {
		p.admins = admins
	}
}

func WithJobProperties(props JobProperties) Option {
	return func(p *Pipeline) {
		p.jobProps = props
	}
}

// WithBranch sets the branch being built. It is read once per run.
func WithBranch(name string) Option {
	return func(p *Pipeline) {
		p.branchName = name
	}
}

// WithJob names the job and build in notifications.
func WithJob(name string, buildNumber int) Option {
	return func(p *Pipeline) {
		p.jobName = name
		p.buildNumber = buildNumber
	}
}

// WithRecipients sets who receives the completion notification.
func WithRecipients(recipients ...string) Option {
	return func(p *Pipeline) {
		p.recipients = append(p.recipients, recipients...)
	}
}

// WithEnvironment sets the base environment every stage overlay is applied on.
func WithEnvironment(env map[string]string) Option {
	return func(p *Pipeline) {
		for k, v := range env {
			p.env[k] = v
		}
	}
}

// WithBaseDirectory is the working directory of stages without their own.
func WithBaseDirectory(dir string) Option {
	return func(p *Pipeline) {
		p.baseDir = dir
	}
}

// WithDefaultTimeout bounds stages that do not set a timeout.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.defaultTimeout = timeout
	}
}

// WithPipelineOptions hooks measure, drawer or other options into the run.
func WithPipelineOptions(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}
