package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/aeon/internal/learning"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stream is the Redis Stream carrying agent lifecycle events.
const Stream = "aeon:events"

// Event is one entry on the event stream. Payload is the JSON-encoded
// body for the given type.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"` // "agent.episode", "agent.goal", "learning.cycle"
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Bus publishes agent events to Redis Streams for external monitoring.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewBus connects to Redis and verifies the connection.
func NewBus(redisURL string, logger *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Bus{rdb: rdb, logger: logger}, nil
}

// Publish appends an event to the stream. A nil bus drops events, so
// callers never need to guard for a missing Redis.
func (b *Bus) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	ev := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   body,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	b.logger.Debug("event published", zap.String("type", eventType))
	return nil
}

// PublishCycle implements learning.Publisher. Failures are logged, never
// surfaced, so a Redis outage cannot stall the learning loop.
func (b *Bus) PublishCycle(ctx context.Context, cycle learning.CycleResult) {
	if b == nil {
		return
	}
	if err := b.Publish(ctx, "learning.cycle", cycle); err != nil {
		b.logger.Warn("learning cycle event dropped", zap.Error(err))
	}
}

// Subscribe tails the event stream. Returns a channel that emits events
// published after the subscription starts. Cancel the context to stop.
func (b *Bus) Subscribe(ctx context.Context) <-chan *Event {
	ch := make(chan *Event, 16)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			results, err := b.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{Stream, lastID},
				Count:   10,
				Block:   time.Second * 2,
			}).Result()
			if err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					return
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev Event
					if json.Unmarshal([]byte(data), &ev) != nil {
						continue
					}
					// A stalled consumer must not pin this goroutine
					// past cancellation.
					select {
					case ch <- &ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.rdb.Close()
}
