package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// defaultStreamMaxLen caps streams via XADD MAXLEN ~ when no limit is set.
const defaultStreamMaxLen int64 = 10000

// SignalBus implements domain.SignalBus with Redis Pub/Sub for live fan-out
// and Redis Streams for a durable, trimmed history.
type SignalBus struct {
	rdb       *redis.Client
	streamMax int64
}

// NewSignalBus creates a SignalBus backed by the given Client. A
// non-positive streamMax uses the default cap.
func NewSignalBus(c *Client, streamMax int64) *SignalBus {
	if streamMax <= 0 {
		streamMax = defaultStreamMaxLen
	}
	return &SignalBus{rdb: c.Underlying(), streamMax: streamMax}
}

// Publish sends payload to a Pub/Sub channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns a channel of payloads published to channel (or to a
// glob pattern). The subscription and the returned channel are closed when
// ctx is cancelled.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if strings.ContainsAny(channel, "*?[") {
		pubsub = sb.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = sb.rdb.Subscribe(ctx, channel)
	}

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// StreamAppend adds payload to a stream, trimming it to roughly streamMax
// entries.
func (sb *SignalBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: sb.streamMax,
		Approx: true,
		Values: map[string]any{"payload": payload},
	}
	if err := sb.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

var _ domain.SignalBus = (*SignalBus)(nil)
