// internal/events/redis.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// RedisPublisher broadcasts domain events as JSON on a Redis pub/sub
// channel. Delivery is at-most-once: a failed publish is logged and dropped.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "printforge.events"
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
	}
}

type envelope struct {
	Event      string                 `json:"event"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (p *RedisPublisher) Emit(event string, payload map[string]interface{}) {
	msg, err := json.Marshal(envelope{
		Event:      event,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to encode event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
			logrus.WithError(err).WithField("event", event).Error("Failed to publish event")
		}
	}()
}
