// Package notifier announces candidates newly added to a pipeline.
package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/shortlist/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes pipeline additions to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each event via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each event. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, events []model.LinkEvent) error {
	for _, e := range events {
		args := []any{
			"position", e.Position.ID,
			"title", e.Position.Title,
			"candidate", e.Candidate.ID,
			"name", e.Candidate.Name,
			"stage", e.Submission.Stage,
			"score", e.Match.Score,
		}
		if e.Position.Client != "" {
			args = append(args, "client", e.Position.Client)
		}
		n.logger.Info("candidate added to pipeline", args...)
	}
	return nil
}
