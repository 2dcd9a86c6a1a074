package events

import "context"

// Event is the wire envelope carried on every broadcast channel.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

type Handler func(channel string, payload []byte)

// Publisher delivers events to named channels, best effort. Implementations
// must not retain the event after Publish returns.
type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// Subscriber consumes events from channel patterns until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler Handler) error
}

type Broker interface {
	Publisher
	Subscriber
}
