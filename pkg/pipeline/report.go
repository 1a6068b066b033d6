package pipeline

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-stages/pkg/pipeline/admin"
	"github.com/askiada/go-stages/pkg/pipeline/measure"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// Notification is a completion message ready to hand to a transport.
type Notification struct {
	Subject   string
	Body      string
	To        []string
	CC        []string
	AttachLog bool
}

// RecipientList formats recipients as a single "a@x, cc: b@y" field.
func (n Notification) RecipientList() string {
	parts := []string{}
	if to := admin.FormatAddresses(n.To, ""); to != "" {
		parts = append(parts, to)
	}
	if cc := admin.FormatAddresses(n.CC, admin.CCPrefix); cc != "" {
		parts = append(parts, cc)
	}

	return strings.Join(parts, ", ")
}

// Notifier delivers notifications. Send errors are logged, never propagated.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Report is the outcome of a run.
type Report struct {
	Job               string
	BuildNumber       int
	Branch            string
	Protected         bool
	Result            model.Result
	Duration          time.Duration
	Stages            []*model.StageInfo
	FirstFailingStage *model.StageInfo
}

// Subject is the notification subject, tagged with the result.
func (r *Report) Subject() string {
	return fmt.Sprintf("[%s] %s #%d", r.Result, r.Job, r.BuildNumber)
}

// Stage returns the named stage of the report.
func (r *Report) Stage(name string) (*model.StageInfo, bool) {
	for _, st := range r.Stages {
		if st.Name == name {
			return st, true
		}
	}

	return nil, false
}

const reportTemplate = `{{.Job}} #{{.BuildNumber}} on branch {{.Branch}} finished with {{.Result}} in {{.Duration}}.

Stages:
{{range .Stages}}  {{printf "%2d" .Order}}. {{printf "%-8s" .Status}} {{.Name}} ({{.Duration}}){{if .SkipReason}}: {{.SkipReason}}{{end}}
{{end}}{{with .FirstFailingStage}}
First failing stage: {{.Name}}
Error: {{.Err}}

{{stack .Err}}
{{end}}`

var bodyTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"stack": func(err error) string {
		if err == nil {
			return ""
		}

		return fmt.Sprintf("%+v", err)
	},
}).Parse(reportTemplate))

// Body renders the plain text notification body.
func (r *Report) Body() (string, error) {
	var sb strings.Builder

	err := bodyTemplate.Execute(&sb, r)
	if err != nil {
		return "", errors.Wrap(err, "unable to render report")
	}

	return sb.String(), nil
}

func (p *Pipeline) report(elapsed time.Duration) *Report {
	report := &Report{
		Job:         p.jobName,
		BuildNumber: p.buildNumber,
		Branch:      p.branchName,
		Protected:   p.isProtected(),
		Result:      p.run.Result(),
		Duration:    measure.Round(elapsed),
	}

	for _, stage := range p.stages.All() {
		info := stage.info()
		info.Duration = measure.Round(info.Duration)
		report.Stages = append(report.Stages, info)

		if stage == p.stages.FirstFailingStage() {
			report.FirstFailingStage = info
		}
	}

	return report
}

func (p *Pipeline) notification(report *Report) Notification {
	body, err := report.Body()
	if err != nil {
		p.logger.Error("unable to render notification body", "error", err)
		body = report.Subject()
	}

	n := Notification{
		Subject:   report.Subject(),
		Body:      body,
		To:        append([]string{}, p.recipients...),
		AttachLog: report.Result.IsWorseThan(model.ResultSuccess),
	}

	if report.Protected && p.admins != nil {
		if len(n.To) == 0 {
			n.To = p.admins.Emails()
		} else {
			n.CC = p.admins.Emails()
		}
	}

	return n
}

func (p *Pipeline) notify(ctx context.Context, report *Report) {
	n := p.notification(report)

	if p.notifier == nil {
		p.logger.Info("no notifier configured", "subject", n.Subject)

		return
	}

	err := p.notifier.Send(ctx, n)
	if err != nil {
		p.logger.Error("unable to send notification", "subject", n.Subject, "error", err)

		return
	}

	p.logger.Info("notification sent", "subject", n.Subject, "recipients", n.RecipientList())
}
