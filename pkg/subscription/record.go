package subscription

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Record is the persistence shape of a subscription.
type Record struct {
	ID                 string                       `json:"id"`
	UserID             string                       `json:"user_id"`
	NotificationType   string                       `json:"notification_type"`
	Status             string                       `json:"status"`
	Preferences        map[string]ChannelPreference `json:"preferences"`
	QuietHours         QuietHours                   `json:"quiet_hours"`
	FilterRules        []FilterRule                 `json:"filter_rules,omitempty"`
	LastNotificationAt *time.Time                   `json:"last_notification_at,omitempty"`
	CreatedAt          time.Time                    `json:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at"`
}

// Snapshot produces the persistence record for the subscription.
func (s *Subscription) Snapshot() Record {
	prefs := make(map[string]ChannelPreference, len(s.preferences))
	for c, p := range s.preferences {
		prefs[string(c)] = p
	}
	return Record{
		ID:                 s.id,
		UserID:             s.userID,
		NotificationType:   string(s.notificationType),
		Status:             string(s.status),
		Preferences:        prefs,
		QuietHours:         s.quietHours,
		FilterRules:        slices.Clone(s.filterRules),
		LastNotificationAt: s.lastNotificationAt,
		CreatedAt:          s.createdAt,
		UpdatedAt:          s.updatedAt,
	}
}

// FromRecord restores a subscription from its persistence record. Shape is
// validated; a stored subscription with every channel disabled is accepted
// (it may have been unsubscribed before the invariant applied).
func FromRecord(r Record) (*Subscription, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("subscription record: missing id")
	}
	if r.UserID == "" {
		return nil, ErrUserIDRequired
	}
	typ, err := notification.ParseType(r.NotificationType)
	if err != nil {
		return nil, err
	}

	status := Status(r.Status)
	switch status {
	case StatusActive, StatusPaused, StatusUnsubscribed:
	default:
		return nil, fmt.Errorf("invalid stored subscription status %q", r.Status)
	}

	prefs := make(map[notification.Channel]ChannelPreference, len(r.Preferences))
	for raw, p := range r.Preferences {
		c, err := notification.ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		if p.Frequency == "" {
			p.Frequency = FrequencyImmediate
		}
		if !p.Frequency.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, p.Frequency)
		}
		prefs[c] = p
	}

	for _, rule := range r.FilterRules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
	}

	return &Subscription{
		id:                 r.ID,
		userID:             r.UserID,
		notificationType:   typ,
		status:             status,
		preferences:        prefs,
		quietHours:         r.QuietHours,
		filterRules:        slices.Clone(r.FilterRules),
		lastNotificationAt: r.LastNotificationAt,
		createdAt:          r.CreatedAt,
		updatedAt:          r.UpdatedAt,
	}, nil
}
