package delivery

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Message is the channel-agnostic payload handed to a transport.
type Message struct {
	NotificationID notification.ID
	UserID         string
	Channel        notification.Channel
	Address        string
	Title          string
	Body           string
	Priority       notification.Priority
	Metadata       map[string]any
}

// Receipt is a transport's acknowledgement of an accepted message.
type Receipt struct {
	DeliveryID  string
	DeliveredAt time.Time
}

// Transport sends messages through one delivery channel. Implementations
// must be safe for concurrent use; the orchestrator bounds each Send with a
// per-channel timeout through ctx.
type Transport interface {
	Channel() notification.Channel
	Send(ctx context.Context, msg Message) (Receipt, error)
}
