package feed

import (
	"context"
	"log/slog"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
)

// LogFeed writes events to the structured log. Default backend for runs
// without a broker; the log line carries the full event so the audit trail is
// still recorded somewhere durable.
type LogFeed struct {
	logger *slog.Logger
}

func NewLogFeed(logger *slog.Logger) *LogFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogFeed{logger: logger}
}

func (f *LogFeed) Publish(ctx context.Context, ev domain.Event) error {
	f.logger.InfoContext(ctx, "ledger event",
		"event_id", ev.ID,
		"type", ev.Type,
		"item_id", ev.ItemID,
		"buyer", ev.Buyer,
		"operator", ev.Operator,
		"quantity", ev.Quantity,
		"amount", ev.Amount,
		"status", ev.Status,
	)
	return nil
}
