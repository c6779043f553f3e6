package notification

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"
)

// Type classifies what a notification is about.
type Type string

const (
	TypeWelcome           Type = "welcome"
	TypeAlert             Type = "alert"
	TypeReminder          Type = "reminder"
	TypeReport            Type = "report"
	TypeWorkflowStatus    Type = "workflow_status"
	TypeIntegrationStatus Type = "integration_status"
	TypeSystemUpdate      Type = "system_update"
	TypeSecurity          Type = "security"
)

// ParseType converts a string into a notification Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// Valid reports whether the type is one of the known classifications.
func (t Type) Valid() bool {
	switch t {
	case TypeWelcome, TypeAlert, TypeReminder, TypeReport,
		TypeWorkflowStatus, TypeIntegrationStatus, TypeSystemUpdate, TypeSecurity:
		return true
	}
	return false
}

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"

	// StatusExpired is computed from ExpiresAt, never stored.
	StatusExpired Status = "expired"
)

// DeliveryAttempt is one recorded try to deliver a notification on one
// channel, with outcome and timing. The attempt log is append-only.
type DeliveryAttempt struct {
	Channel      Channel       `json:"channel"`
	AttemptedAt  time.Time     `json:"attempted_at"`
	Success      bool          `json:"success"`
	ResponseTime time.Duration `json:"response_time"`
	ErrorMessage string        `json:"error_message,omitempty"`
	DeliveryID   string        `json:"delivery_id,omitempty"`
}

// Metadata keys maintained by the delivery orchestration.
const (
	MetaFailureReason  = "failureReason"
	MetaNextRetryAt    = "nextRetryAt"
	MetaRetryScheduled = "retryScheduled"
)

const (
	maxTitleLength   = 200
	maxContentLength = 10000
)

// Notification is the unit of work: what is being sent, to whom, on which
// channels, at what priority, and its delivery history. All fields are
// unexported; invariants are enforced by the constructor and mutators.
type Notification struct {
	id       ID
	userID   string
	title    string
	content  string
	typ      Type
	priority Priority
	channels []Channel
	status   Status

	createdAt   time.Time
	scheduledAt *time.Time
	sentAt      *time.Time
	deliveredAt *time.Time
	readAt      *time.Time
	expiresAt   *time.Time

	metadata   map[string]any
	attempts   []DeliveryAttempt
	retryCount int
}

// Option configures a notification at creation time.
type Option func(*Notification) error

// WithID sets a caller-supplied id instead of generating one.
func WithID(id string) Option {
	return func(n *Notification) error {
		parsed, err := ParseID(id)
		if err != nil {
			return err
		}
		n.id = parsed
		return nil
	}
}

// WithPriority sets the priority tier.
func WithPriority(p Priority) Option {
	return func(n *Notification) error {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidPriority, p)
		}
		n.priority = p
		return nil
	}
}

// WithChannels replaces the default channel set. Duplicates are collapsed.
func WithChannels(channels ...Channel) Option {
	return func(n *Notification) error {
		if len(channels) == 0 {
			return ErrNoChannels
		}
		set := make([]Channel, 0, len(channels))
		for _, c := range channels {
			if !c.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidChannel, c)
			}
			if !slices.Contains(set, c) {
				set = append(set, c)
			}
		}
		n.channels = set
		return nil
	}
}

// WithScheduledAt defers delivery until the given time, which must be
// strictly in the future.
func WithScheduledAt(t time.Time) Option {
	return func(n *Notification) error {
		if !t.After(time.Now()) {
			return ErrScheduledInPast
		}
		n.scheduledAt = &t
		return nil
	}
}

// WithExpiresAt sets the expiry deadline.
func WithExpiresAt(t time.Time) Option {
	return func(n *Notification) error {
		n.expiresAt = &t
		return nil
	}
}

// WithMetadata merges free-form metadata into the notification.
func WithMetadata(md map[string]any) Option {
	return func(n *Notification) error {
		for k, v := range md {
			n.metadata[k] = v
		}
		return nil
	}
}

// New creates a pending notification. The default priority is normal and the
// default channel set is in_app only.
func New(userID, title, content string, typ Type, opts ...Option) (*Notification, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}

	n := &Notification{
		id:        NewID(),
		userID:    userID,
		title:     title,
		content:   content,
		typ:       typ,
		priority:  PriorityNormal,
		channels:  []Channel{ChannelInApp},
		status:    StatusPending,
		createdAt: time.Now().UTC(),
		metadata:  make(map[string]any),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if n := utf8.RuneCountInString(title); n > maxTitleLength {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrTitleTooLong, n, maxTitleLength)
	}
	return nil
}

func validateContent(content string) error {
	if content == "" {
		return ErrContentRequired
	}
	if n := utf8.RuneCountInString(content); n > maxContentLength {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrContentTooLong, n, maxContentLength)
	}
	return nil
}

func (n *Notification) ID() ID             { return n.id }
func (n *Notification) UserID() string     { return n.userID }
func (n *Notification) Title() string      { return n.title }
func (n *Notification) Content() string    { return n.content }
func (n *Notification) Type() Type         { return n.typ }
func (n *Notification) Priority() Priority { return n.priority }

// Channels returns a copy of the channel set.
func (n *Notification) Channels() []Channel {
	return slices.Clone(n.channels)
}

// HasChannel reports whether the notification targets the given channel.
func (n *Notification) HasChannel(c Channel) bool {
	return slices.Contains(n.channels, c)
}

func (n *Notification) CreatedAt() time.Time    { return n.createdAt }
func (n *Notification) ScheduledAt() *time.Time { return n.scheduledAt }
func (n *Notification) SentAt() *time.Time      { return n.sentAt }
func (n *Notification) DeliveredAt() *time.Time { return n.deliveredAt }
func (n *Notification) ReadAt() *time.Time      { return n.readAt }
func (n *Notification) ExpiresAt() *time.Time   { return n.expiresAt }

// Metadata returns a shallow copy of the free-form metadata map.
func (n *Notification) Metadata() map[string]any {
	md := make(map[string]any, len(n.metadata))
	for k, v := range n.metadata {
		md[k] = v
	}
	return md
}

// Status returns the effective status: a pending notification whose expiry
// has passed reports StatusExpired.
func (n *Notification) Status() Status {
	return n.StatusAt(time.Now())
}

// StatusAt returns the effective status at a given time. Useful for tests
// with fixed clocks.
func (n *Notification) StatusAt(now time.Time) Status {
	if n.status == StatusPending && n.isExpiredAt(now) {
		return StatusExpired
	}
	return n.status
}

// IsExpired reports whether the expiry deadline has passed.
func (n *Notification) IsExpired() bool {
	return n.isExpiredAt(time.Now())
}

func (n *Notification) isExpiredAt(now time.Time) bool {
	if n.expiresAt == nil {
		return false
	}
	return !now.Before(*n.expiresAt)
}

// SetTitle updates the title. Legal only while pending.
func (n *Notification) SetTitle(title string) error {
	if n.status != StatusPending {
		return ErrNotPending
	}
	if err := validateTitle(title); err != nil {
		return err
	}
	n.title = title
	return nil
}

// SetContent updates the content. Legal only while pending.
func (n *Notification) SetContent(content string) error {
	if n.status != StatusPending {
		return ErrNotPending
	}
	if err := validateContent(content); err != nil {
		return err
	}
	n.content = content
	return nil
}

// SetPriority updates the priority. Legal only while pending.
func (n *Notification) SetPriority(p Priority) error {
	if n.status != StatusPending {
		return ErrNotPending
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, p)
	}
	n.priority = p
	return nil
}

// AddChannel adds a channel to the set. Adding an already-present channel is
// a no-op. Legal only while pending.
func (n *Notification) AddChannel(c Channel) error {
	if n.status != StatusPending {
		return ErrNotPending
	}
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, c)
	}
	if !slices.Contains(n.channels, c) {
		n.channels = append(n.channels, c)
	}
	return nil
}

// RemoveChannel removes a channel from the set. Removing the last channel
// fails: the set is never empty. Legal only while pending.
func (n *Notification) RemoveChannel(c Channel) error {
	if n.status != StatusPending {
		return ErrNotPending
	}
	idx := slices.Index(n.channels, c)
	if idx < 0 {
		return nil
	}
	if len(n.channels) == 1 {
		return ErrLastChannel
	}
	n.channels = slices.Delete(n.channels, idx, idx+1)
	return nil
}

// MarkSent transitions pending -> sent and stamps SentAt.
func (n *Notification) MarkSent() error {
	if n.status != StatusPending {
		return &TransitionError{From: n.status, To: StatusSent}
	}
	now := time.Now().UTC()
	n.status = StatusSent
	n.sentAt = &now
	return nil
}

// MarkDelivered transitions sent -> delivered and stamps DeliveredAt.
func (n *Notification) MarkDelivered() error {
	if n.status != StatusSent {
		return &TransitionError{From: n.status, To: StatusDelivered}
	}
	now := time.Now().UTC()
	n.status = StatusDelivered
	n.deliveredAt = &now
	return nil
}

// MarkRead transitions sent or delivered -> read and stamps ReadAt. Read is
// terminal: no further transition is possible.
func (n *Notification) MarkRead() error {
	if n.status != StatusSent && n.status != StatusDelivered {
		return &TransitionError{From: n.status, To: StatusRead}
	}
	now := time.Now().UTC()
	n.status = StatusRead
	n.readAt = &now
	return nil
}

// MarkFailed transitions to failed from any state except read, recording the
// reason in metadata when provided.
func (n *Notification) MarkFailed(reason string) error {
	if n.status == StatusRead {
		return &TransitionError{From: n.status, To: StatusFailed}
	}
	n.status = StatusFailed
	if reason != "" {
		n.metadata[MetaFailureReason] = reason
	}
	return nil
}

// FailureReason returns the recorded failure reason, if any.
func (n *Notification) FailureReason() string {
	reason, _ := n.metadata[MetaFailureReason].(string)
	return reason
}

// RecordAttempt appends a delivery attempt to the log. AttemptedAt defaults
// to now when unset.
func (n *Notification) RecordAttempt(a DeliveryAttempt) {
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now().UTC()
	}
	n.attempts = append(n.attempts, a)
}

// Attempts returns a copy of the append-only delivery-attempt log.
func (n *Notification) Attempts() []DeliveryAttempt {
	return slices.Clone(n.attempts)
}

// RetryCount returns the number of retries scheduled so far. A multi-channel
// fan-out records one attempt per channel but counts as a single delivery
// round, so the counter tracks scheduled retries rather than raw attempts.
func (n *Notification) RetryCount() int {
	return n.retryCount
}

// ScheduleRetry records that the next delivery round is due at the given
// time. The schedule lives in metadata for an external scheduler to pick up;
// this core never busy-waits.
func (n *Notification) ScheduleRetry(at time.Time) {
	n.retryCount++
	n.metadata[MetaNextRetryAt] = at.UTC().Format(time.RFC3339)
	n.metadata[MetaRetryScheduled] = true
}

// CanRetry reports whether another delivery round is allowed: the
// notification must not be terminally read or delivered, and the priority's
// retry ceiling must not be exhausted.
func (n *Notification) CanRetry() bool {
	if n.status != StatusPending && n.status != StatusFailed {
		return false
	}
	return n.retryCount < n.priority.MaxRetries()
}

// IsReadyToSend reports whether the notification is pending, unexpired, and
// past its scheduled time (if any).
func (n *Notification) IsReadyToSend() bool {
	return n.IsReadyToSendAt(time.Now())
}

// IsReadyToSendAt is the fixed-clock variant of IsReadyToSend.
func (n *Notification) IsReadyToSendAt(now time.Time) bool {
	if n.status != StatusPending || n.isExpiredAt(now) {
		return false
	}
	if n.scheduledAt != nil && n.scheduledAt.After(now) {
		return false
	}
	return true
}

// ValidateForDelivery returns every violated delivery invariant without
// failing on the first one. An empty slice means the notification is
// deliverable. Used as a pre-flight check by the delivery service.
func (n *Notification) ValidateForDelivery() []string {
	var violations []string
	if n.title == "" {
		violations = append(violations, "title is empty")
	}
	if n.content == "" {
		violations = append(violations, "content is empty")
	}
	if len(n.channels) == 0 {
		violations = append(violations, "no delivery channels assigned")
	}
	if n.IsExpired() {
		violations = append(violations, "notification has expired")
	}
	for _, c := range n.channels {
		if max := c.Capabilities().MaxMessageSize; max > 0 && len(n.content) > max {
			violations = append(violations,
				fmt.Sprintf("content exceeds %s maximum message size of %d bytes", c, max))
		}
	}
	return violations
}
