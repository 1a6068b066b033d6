package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/askiada/go-stages/pkg/pipeline"
)

// logNotifier prints the completion report instead of mailing it.
type logNotifier struct {
	logger *slog.Logger
	w      io.Writer
}

func (n *logNotifier) Send(_ context.Context, notification pipeline.Notification) error {
	n.logger.Info("notification",
		"subject", notification.Subject,
		"recipients", notification.RecipientList(),
		"attach_log", notification.AttachLog,
	)

	_, err := fmt.Fprintf(n.w, "\n%s\n\n%s", notification.Subject, notification.Body)
	if err != nil {
		return errors.Wrap(err, "unable to print notification")
	}

	return nil
}

// logJobProperties reports the branch policy applied to the job.
type logJobProperties struct {
	logger *slog.Logger
}

func (p *logJobProperties) SetBuildHistory(count int) {
	p.logger.Info("build history", "keep", count)
}

func (p *logJobProperties) DisableConcurrentBuilds(disable bool) {
	p.logger.Info("concurrent builds", "disabled", disable)
}

var (
	_ pipeline.Notifier      = (*logNotifier)(nil)
	_ pipeline.JobProperties = (*logJobProperties)(nil)
)
