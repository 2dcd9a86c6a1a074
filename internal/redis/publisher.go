package redis

import (
	"context"
	"encoding/json"

	"livedesk/pkg/events"

	"github.com/redis/go-redis/v9"
)

// Publisher implements events.Publisher over Redis pub/sub.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, channel string, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, channel, data).Err()
}
