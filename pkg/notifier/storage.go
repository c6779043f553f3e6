package notifier

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

// ListOptions controls pagination and filtering for notification listings.
// A zero Limit means no limit.
type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// Storage persists notifications, templates, and subscriptions. Save is an
// upsert keyed by the entity's identity; Get returns the package sentinel
// when the key is unknown. Subscriptions are keyed by (user, notification
// type), one per pair.
type Storage interface {
	SaveNotification(ctx context.Context, n *notification.Notification) error
	GetNotification(ctx context.Context, id notification.ID) (*notification.Notification, error)
	ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]*notification.Notification, error)

	SaveTemplate(ctx context.Context, t *template.Template) error
	GetTemplate(ctx context.Context, id string) (*template.Template, error)

	SaveSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, userID string, typ notification.Type) (*subscription.Subscription, error)
}
