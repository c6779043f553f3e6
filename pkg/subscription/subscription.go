package subscription

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Status is the overall state of a subscription.
type Status string

const (
	StatusActive       Status = "active"
	StatusPaused       Status = "paused"
	StatusUnsubscribed Status = "unsubscribed"
)

// Subscription is one user's delivery policy for one notification type.
type Subscription struct {
	id               string
	userID           string
	notificationType notification.Type
	status           Status

	preferences map[notification.Channel]ChannelPreference
	quietHours  QuietHours
	filterRules []FilterRule

	lastNotificationAt *time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

// Option configures a subscription at creation time.
type Option func(*Subscription) error

// WithID sets a caller-supplied subscription id.
func WithID(id string) Option {
	return func(s *Subscription) error {
		if id == "" {
			return fmt.Errorf("subscription id cannot be empty")
		}
		s.id = id
		return nil
	}
}

// WithChannel configures a channel preference. The first enabled channel
// satisfies the creation invariant.
func WithChannel(c notification.Channel, pref ChannelPreference) Option {
	return func(s *Subscription) error {
		return s.setPreference(c, pref)
	}
}

// WithQuietHours configures the quiet-hours window.
func WithQuietHours(q QuietHours) Option {
	return func(s *Subscription) error {
		return s.SetQuietHours(q)
	}
}

// WithFilterRules sets the ordered filter rule list.
func WithFilterRules(rules ...FilterRule) Option {
	return func(s *Subscription) error {
		for _, r := range rules {
			if err := s.AddFilterRule(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// New creates an active subscription. When no channel preference is supplied
// the in_app channel is enabled with immediate frequency, preserving the
// at-least-one-enabled invariant from the start.
func New(userID string, typ notification.Type, opts ...Option) (*Subscription, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", notification.ErrInvalidType, typ)
	}

	now := time.Now().UTC()
	s := &Subscription{
		id:               uuid.New().String(),
		userID:           userID,
		notificationType: typ,
		status:           StatusActive,
		preferences:      make(map[notification.Channel]ChannelPreference),
		createdAt:        now,
		updatedAt:        now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if len(s.preferences) == 0 {
		s.preferences[notification.ChannelInApp] = ChannelPreference{
			Enabled:   true,
			Frequency: FrequencyImmediate,
		}
	}
	if len(s.EnabledChannels()) == 0 {
		return nil, ErrNoEnabledChannels
	}

	return s, nil
}

func (s *Subscription) ID() string                              { return s.id }
func (s *Subscription) UserID() string                          { return s.userID }
func (s *Subscription) NotificationType() notification.Type     { return s.notificationType }
func (s *Subscription) Status() Status                          { return s.status }
func (s *Subscription) QuietHours() QuietHours                  { return s.quietHours }
func (s *Subscription) CreatedAt() time.Time                    { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time                    { return s.updatedAt }
func (s *Subscription) LastNotificationAt() *time.Time          { return s.lastNotificationAt }

// FilterRules returns a copy of the ordered rule list.
func (s *Subscription) FilterRules() []FilterRule {
	return slices.Clone(s.filterRules)
}

// Preference returns the preference configured for a channel.
func (s *Subscription) Preference(c notification.Channel) (ChannelPreference, bool) {
	pref, ok := s.preferences[c]
	return pref, ok
}

// EnabledChannels returns all enabled channels in the fixed channel order.
func (s *Subscription) EnabledChannels() []notification.Channel {
	var out []notification.Channel
	for _, c := range notification.Channels() {
		if pref, ok := s.preferences[c]; ok && pref.Enabled {
			out = append(out, c)
		}
	}
	return out
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
}

func (s *Subscription) setPreference(c notification.Channel, pref ChannelPreference) error {
	if pref.Frequency == "" {
		pref.Frequency = FrequencyImmediate
	}
	if err := validatePreference(c, pref); err != nil {
		return err
	}
	s.preferences[c] = pref
	s.touch()
	return nil
}

// SetChannelPreference adds or replaces a channel preference. An update that
// would disable the last enabled channel fails.
func (s *Subscription) SetChannelPreference(c notification.Channel, pref ChannelPreference) error {
	if !pref.Enabled && s.isLastEnabled(c) {
		return ErrLastEnabledChannel
	}
	return s.setPreference(c, pref)
}

// RemoveChannelPreference removes a channel's preference entirely. Removing
// the last enabled channel fails.
func (s *Subscription) RemoveChannelPreference(c notification.Channel) error {
	if _, ok := s.preferences[c]; !ok {
		return fmt.Errorf("%w: %s", ErrPreferenceNotFound, c)
	}
	if s.isLastEnabled(c) {
		return ErrLastEnabledChannel
	}
	delete(s.preferences, c)
	s.touch()
	return nil
}

// DisableChannel disables a configured channel, preserving the invariant.
func (s *Subscription) DisableChannel(c notification.Channel) error {
	pref, ok := s.preferences[c]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPreferenceNotFound, c)
	}
	if s.isLastEnabled(c) {
		return ErrLastEnabledChannel
	}
	pref.Enabled = false
	s.preferences[c] = pref
	s.touch()
	return nil
}

// EnableChannel enables a configured channel, re-validating its address.
func (s *Subscription) EnableChannel(c notification.Channel) error {
	pref, ok := s.preferences[c]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPreferenceNotFound, c)
	}
	pref.Enabled = true
	return s.setPreference(c, pref)
}

func (s *Subscription) isLastEnabled(c notification.Channel) bool {
	enabled := s.EnabledChannels()
	return len(enabled) == 1 && enabled[0] == c
}

// SetQuietHours replaces the quiet-hours window.
func (s *Subscription) SetQuietHours(q QuietHours) error {
	if err := q.validate(); err != nil {
		return err
	}
	s.quietHours = q
	s.touch()
	return nil
}

// AddFilterRule appends a rule to the ordered rule list.
func (s *Subscription) AddFilterRule(r FilterRule) error {
	if err := r.validate(); err != nil {
		return err
	}
	s.filterRules = append(s.filterRules, r)
	s.touch()
	return nil
}

// ClearFilterRules removes all filter rules.
func (s *Subscription) ClearFilterRules() {
	s.filterRules = nil
	s.touch()
}

// Pause suspends delivery without losing configuration.
func (s *Subscription) Pause() {
	s.status = StatusPaused
	s.touch()
}

// Resume re-activates a paused subscription.
func (s *Subscription) Resume() {
	s.status = StatusActive
	s.touch()
}

// Unsubscribe permanently opts the user out of this notification type.
func (s *Subscription) Unsubscribe() {
	s.status = StatusUnsubscribed
	s.touch()
}

// RecordNotification stamps the time a notification was last delivered.
func (s *Subscription) RecordNotification(at time.Time) {
	at = at.UTC()
	s.lastNotificationAt = &at
	s.touch()
}

// CanReceiveNotifications reports whether the subscription is active with at
// least one enabled channel.
func (s *Subscription) CanReceiveNotifications() bool {
	return s.status == StatusActive && len(s.EnabledChannels()) > 0
}

// IsInQuietHours reports whether now falls inside the quiet-hours window.
func (s *Subscription) IsInQuietHours() bool {
	return s.IsInQuietHoursAt(time.Now())
}

// IsInQuietHoursAt is the fixed-clock variant of IsInQuietHours.
func (s *Subscription) IsInQuietHoursAt(now time.Time) bool {
	return s.quietHours.Contains(now)
}

// ShouldReceiveImmediately reports whether a notification on the given
// channel should be delivered right away: the subscription is eligible, the
// clock is outside quiet hours, and the channel's frequency is immediate.
func (s *Subscription) ShouldReceiveImmediately(c notification.Channel) bool {
	return s.ShouldReceiveImmediatelyAt(c, time.Now())
}

// ShouldReceiveImmediatelyAt is the fixed-clock variant of ShouldReceiveImmediately.
func (s *Subscription) ShouldReceiveImmediatelyAt(c notification.Channel, now time.Time) bool {
	if !s.CanReceiveNotifications() || s.IsInQuietHoursAt(now) {
		return false
	}
	pref, ok := s.preferences[c]
	return ok && pref.Enabled && pref.Frequency == FrequencyImmediate
}

// MatchesFilters applies all filter rules with AND semantics. A subscription
// with no rules matches everything.
func (s *Subscription) MatchesFilters(payload map[string]any) bool {
	for _, r := range s.filterRules {
		if !r.Matches(payload) {
			return false
		}
	}
	return true
}
