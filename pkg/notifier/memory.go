package notifier

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

// MemoryStorage is an in-memory Storage implementation for development and
// testing. Entities are stored as persistence records, so callers never
// share mutable state with the store.
type MemoryStorage struct {
	mu            sync.RWMutex
	notifications map[notification.ID]notification.Record
	byUser        map[string][]notification.ID
	templates     map[string]template.Record
	subscriptions map[string]subscription.Record
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[notification.ID]notification.Record),
		byUser:        make(map[string][]notification.ID),
		templates:     make(map[string]template.Record),
		subscriptions: make(map[string]subscription.Record),
	}
}

func subscriptionKey(userID string, typ notification.Type) string {
	return userID + ":" + string(typ)
}

func (s *MemoryStorage) SaveNotification(_ context.Context, n *notification.Notification) error {
	if n == nil {
		return ErrNilNotification
	}
	rec := n.Snapshot()
	id := notification.ID(rec.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notifications[id]; !exists {
		s.byUser[rec.UserID] = append(s.byUser[rec.UserID], id)
	}
	s.notifications[id] = rec
	return nil
}

func (s *MemoryStorage) GetNotification(_ context.Context, id notification.ID) (*notification.Notification, error) {
	s.mu.RLock()
	rec, ok := s.notifications[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return notification.FromRecord(rec)
}

// ListNotifications returns a user's notifications newest-first.
func (s *MemoryStorage) ListNotifications(_ context.Context, userID string, opts ListOptions) ([]*notification.Notification, error) {
	s.mu.RLock()
	ids := s.byUser[userID]
	recs := make([]notification.Record, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		recs = append(recs, s.notifications[ids[i]])
	}
	s.mu.RUnlock()

	out := make([]*notification.Notification, 0, len(recs))
	skipped := 0
	for _, rec := range recs {
		if opts.UnreadOnly && rec.ReadAt != nil {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		n, err := notification.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStorage) SaveTemplate(_ context.Context, t *template.Template) error {
	if t == nil {
		return ErrNilTemplate
	}
	rec := t.Snapshot()

	s.mu.Lock()
	s.templates[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) GetTemplate(_ context.Context, id string) (*template.Template, error) {
	s.mu.RLock()
	rec, ok := s.templates[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return template.FromRecord(rec)
}

func (s *MemoryStorage) SaveSubscription(_ context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ErrNilSubscription
	}
	rec := sub.Snapshot()

	s.mu.Lock()
	s.subscriptions[subscriptionKey(rec.UserID, notification.Type(rec.NotificationType))] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) GetSubscription(_ context.Context, userID string, typ notification.Type) (*subscription.Subscription, error) {
	s.mu.RLock()
	rec, ok := s.subscriptions[subscriptionKey(userID, typ)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return subscription.FromRecord(rec)
}
