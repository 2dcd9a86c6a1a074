package redis

import (
	"context"

	"livedesk/pkg/events"

	"github.com/redis/go-redis/v9"
)

// Subscriber implements events.Subscriber over Redis pattern subscriptions.
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, handler events.Handler) error {
	sub := s.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
