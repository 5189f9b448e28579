package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

// LogNotifier stands in when no broker is configured: it records the
// notification in the service log and nothing else.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) NotifyAssignment(ctx context.Context, providerID string, msg models.AssignmentNotification) error {
	n.Logger.Info().
		Str("provider_id", providerID).
		Str("case_id", msg.CaseID).
		Str("pillar", msg.Pillar).
		Str("priority", msg.Priority).
		Str("case_type", msg.CaseType).
		Msg("assignment notification (no broker configured)")
	return nil
}
