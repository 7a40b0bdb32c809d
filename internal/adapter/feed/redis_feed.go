package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
)

const defaultStream = "ledger:events"

// RedisFeed publishes events to a Redis stream via XADD. Streams are
// append-only, which matches the feed contract: the core only ever writes,
// external consumers read with XREAD/consumer groups.
type RedisFeed struct {
	client *redis.Client
	stream string
}

func NewRedisFeed(client *redis.Client, stream string) *RedisFeed {
	if stream == "" {
		stream = defaultStream
	}
	return &RedisFeed{client: client, stream: stream}
}

func (f *RedisFeed) Publish(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]interface{}{
			"id":      ev.ID,
			"type":    string(ev.Type),
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", f.stream, err)
	}
	return nil
}
