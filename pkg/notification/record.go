package notification

import (
	"fmt"
	"slices"
	"time"
)

// Record is the persistence shape of a notification. Storage implementations
// marshal and unmarshal this type; entity internals never leak.
type Record struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Type        string            `json:"type"`
	Priority    string            `json:"priority"`
	Channels    []string          `json:"channels"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	SentAt      *time.Time        `json:"sent_at,omitempty"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	Attempts    []DeliveryAttempt `json:"attempts,omitempty"`
	RetryCount  int               `json:"retry_count"`
}

// Snapshot produces the persistence record for the notification.
func (n *Notification) Snapshot() Record {
	channels := make([]string, len(n.channels))
	for i, c := range n.channels {
		channels[i] = string(c)
	}
	return Record{
		ID:          string(n.id),
		UserID:      n.userID,
		Title:       n.title,
		Content:     n.content,
		Type:        string(n.typ),
		Priority:    string(n.priority),
		Channels:    channels,
		Status:      string(n.status),
		CreatedAt:   n.createdAt,
		ScheduledAt: n.scheduledAt,
		SentAt:      n.sentAt,
		DeliveredAt: n.deliveredAt,
		ReadAt:      n.readAt,
		ExpiresAt:   n.expiresAt,
		Metadata:    n.Metadata(),
		Attempts:    slices.Clone(n.attempts),
		RetryCount:  n.retryCount,
	}
}

// FromRecord restores a notification from its persistence record. Shape is
// validated, but creation-time business rules are not re-derived: a stored
// ScheduledAt in the past is legal for an entity loaded mid-lifecycle.
func FromRecord(r Record) (*Notification, error) {
	id, err := ParseID(r.ID)
	if err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, ErrUserIDRequired
	}
	typ, err := ParseType(r.Type)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(r.Priority)
	if err != nil {
		return nil, err
	}
	if len(r.Channels) == 0 {
		return nil, ErrNoChannels
	}
	channels := make([]Channel, 0, len(r.Channels))
	for _, raw := range r.Channels {
		c, err := ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(channels, c) {
			channels = append(channels, c)
		}
	}

	status := Status(r.Status)
	switch status {
	case StatusPending, StatusSent, StatusDelivered, StatusRead, StatusFailed:
	default:
		// Expired is computed, never stored; anything else is corrupt.
		return nil, fmt.Errorf("invalid stored status %q", r.Status)
	}

	metadata := r.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Notification{
		id:          id,
		userID:      r.UserID,
		title:       r.Title,
		content:     r.Content,
		typ:         typ,
		priority:    priority,
		channels:    channels,
		status:      status,
		createdAt:   r.CreatedAt,
		scheduledAt: r.ScheduledAt,
		sentAt:      r.SentAt,
		deliveredAt: r.DeliveredAt,
		readAt:      r.ReadAt,
		expiresAt:   r.ExpiresAt,
		metadata:    metadata,
		attempts:    slices.Clone(r.Attempts),
		retryCount:  r.RetryCount,
	}, nil
}
