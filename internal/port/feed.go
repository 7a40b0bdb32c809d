package port

import (
	"context"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
)

// EventFeed is the one-way, append-only notification stream consumed by
// external observers. The core never reads it back; publish failures are
// logged by the caller and never fail the originating operation.
type EventFeed interface {
	Publish(ctx context.Context, ev domain.Event) error
}
