package services

import (
	"context"
	"time"

	"livedesk/pkg/events"
	"livedesk/pkg/logger"
)

const notifyTimeout = 2 * time.Second

// Notifier fans events out to broadcast channels after the owning
// transaction has committed. Delivery is best effort: failures are logged
// and swallowed, never propagated to the write path.
type Notifier struct {
	publisher events.Publisher
	log       *logger.Logger
}

func NewNotifier(publisher events.Publisher, log *logger.Logger) *Notifier {
	return &Notifier{publisher: publisher, log: log}
}

// Notify publishes one event to each channel in order. A fresh bounded
// context is used so a slow broker cannot hold the caller hostage.
func (n *Notifier) Notify(eventType string, payload interface{}, channels ...string) {
	if n == nil || n.publisher == nil {
		return
	}

	event := events.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, channel := range channels {
		if err := n.publisher.Publish(ctx, channel, event); err != nil && n.log != nil {
			n.log.Warnf("broadcast to %s failed: %v", channel, err)
		}
	}
}
