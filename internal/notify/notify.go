// Package notify defines the match notification contract. The engine only
// decides that a notification must fire and what it carries; delivery is
// delegated to whichever Notifier is wired in.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Party is one side of a mutual match, with the contact data the other
// side should receive.
type Party struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// MatchEvent is produced exactly once per detected mutual match. It is
// never persisted; both parties must be informed from this single value.
type MatchEvent struct {
	ID    string `json:"id"`
	UserA Party  `json:"user_a"`
	UserB Party  `json:"user_b"`
}

type Notifier interface {
	NotifyMatch(ctx context.Context, event MatchEvent) error
}

// LogNotifier is the default sink when no delivery channel is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyMatch(_ context.Context, event MatchEvent) error {
	n.log.Info("mutual match detected",
		zap.String("event_id", event.ID),
		zap.Int64("user_a", event.UserA.UserID),
		zap.Int64("user_b", event.UserB.UserID),
	)
	return nil
}
