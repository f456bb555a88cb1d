package adapters

import (
	"context"
	"log/slog"

	"praxis/internal/profile/models"
)

// LogAdapter stands in for a downstream system that is not configured. It
// accepts every change and logs it, keeping dev instances fully runnable
// without search, booking, Redis or Kafka endpoints.
type LogAdapter struct {
	system models.System
	logger *slog.Logger
}

// NewLogAdapter constructs a logging stand-in for the given system.
func NewLogAdapter(system models.System, logger *slog.Logger) *LogAdapter {
	return &LogAdapter{system: system, logger: logger}
}

func (a *LogAdapter) System() models.System {
	return a.system
}

func (a *LogAdapter) Apply(ctx context.Context, change models.SectionChange) error {
	a.logger.InfoContext(ctx, "downstream apply (log adapter)",
		"system", a.system,
		"operation_id", change.OperationID,
		"subject_id", change.SubjectID,
		"section", change.Section,
	)
	return nil
}
