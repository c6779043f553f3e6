package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/renderer"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

// Deliverer dispatches a notification across its subscription's channels.
// *delivery.Service satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, n *notification.Notification, sub *subscription.Subscription, opts ...delivery.DeliverOption) ([]delivery.DeliveryResult, error)
}

// Renderer produces channel-ready content from a template and variable
// bindings. *renderer.Service satisfies it.
type Renderer interface {
	Render(ctx context.Context, req renderer.Request) (template.Rendered, error)
}

// SendCommand describes one notification to create and deliver. When
// TemplateID is set, Title and Content are produced by rendering; otherwise
// they are used directly.
type SendCommand struct {
	UserID            string
	Title             string
	Content           string
	Type              notification.Type
	Priority          notification.Priority
	Channels          []notification.Channel
	TemplateID        string
	TemplateVariables map[string]any
	Locale            string
	Timezone          string
	ScheduledAt       *time.Time
	ExpiresAt         *time.Time
	Metadata          map[string]any
}

// SendData is the payload of a successful send.
type SendData struct {
	NotificationID  notification.ID           `json:"notification_id"`
	Status          notification.Status       `json:"status"`
	DeliveryResults []delivery.DeliveryResult `json:"delivery_results"`
}

// SendResult is the outbound shape of Send. Success reports whether the
// notification was created and persisted; ErrorMessage carries the delivery
// error when the notification was stored but could not be dispatched.
type SendResult struct {
	Success      bool      `json:"success"`
	Data         *SendData `json:"data,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Manager is the command entry point: it renders templated content, creates
// and persists notifications, and hands them to the deliverer.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	renderer  Renderer
	log       *slog.Logger
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRenderer enables template-based sends.
func WithRenderer(r Renderer) ManagerOption {
	return func(m *Manager) {
		m.renderer = r
	}
}

// WithManagerClock overrides the time source, for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a notification manager. Storage is mandatory; a nil
// deliverer means notifications are persisted without dispatch.
func NewManager(storage Storage, deliverer Deliverer, opts ...ManagerOption) (*Manager, error) {
	if storage == nil {
		return nil, ErrStorageRequired
	}

	m := &Manager{
		storage:   storage,
		deliverer: deliverer,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Send creates, persists, and dispatches one notification. The notification
// is stored before delivery is attempted, so a delivery failure never loses
// it: the stored entity carries the retry schedule instead.
func (m *Manager) Send(ctx context.Context, cmd SendCommand) SendResult {
	title, content, err := m.resolveContent(ctx, cmd)
	if err != nil {
		return SendResult{ErrorMessage: err.Error()}
	}

	n, err := m.createNotification(cmd, title, content)
	if err != nil {
		return SendResult{ErrorMessage: err.Error()}
	}

	if err := m.storage.SaveNotification(ctx, n); err != nil {
		return SendResult{ErrorMessage: fmt.Sprintf("failed to store notification: %v", err)}
	}

	data := &SendData{NotificationID: n.ID(), Status: n.Status()}
	if m.deliverer == nil {
		return SendResult{Success: true, Data: data}
	}

	sub, err := m.storage.GetSubscription(ctx, cmd.UserID, n.Type())
	if err != nil {
		m.log.LogAttrs(ctx, slog.LevelWarn, "notification stored but not dispatched",
			logger.NotificationID(string(n.ID())),
			logger.UserID(cmd.UserID),
			logger.Error(err),
		)
		return SendResult{Success: true, Data: data, ErrorMessage: err.Error()}
	}

	results, err := m.deliverer.Deliver(ctx, n, sub)
	data.Status = n.Status()
	data.DeliveryResults = results
	if err != nil {
		m.log.LogAttrs(ctx, slog.LevelWarn, "notification stored but delivery failed",
			logger.NotificationID(string(n.ID())),
			logger.UserID(cmd.UserID),
			logger.Error(err),
		)
		if saveErr := m.storage.SaveNotification(ctx, n); saveErr != nil {
			m.log.LogAttrs(ctx, slog.LevelError, "failed to persist notification after delivery",
				logger.NotificationID(string(n.ID())),
				logger.Error(saveErr),
			)
		}
		return SendResult{Success: true, Data: data, ErrorMessage: err.Error()}
	}

	sub.RecordNotification(m.now())
	if err := m.storage.SaveSubscription(ctx, sub); err != nil {
		m.log.LogAttrs(ctx, slog.LevelWarn, "failed to persist subscription activity",
			logger.UserID(cmd.UserID),
			logger.Error(err),
		)
	}
	if err := m.storage.SaveNotification(ctx, n); err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "failed to persist notification after delivery",
			logger.NotificationID(string(n.ID())),
			logger.Error(err),
		)
		return SendResult{Success: true, Data: data, ErrorMessage: err.Error()}
	}

	return SendResult{Success: true, Data: data}
}

// SendToUsers fans one command out to several users. Each user gets an
// independent notification and an independent result, in input order.
func (m *Manager) SendToUsers(ctx context.Context, userIDs []string, cmd SendCommand) []SendResult {
	results := make([]SendResult, 0, len(userIDs))
	for _, userID := range userIDs {
		c := cmd
		c.UserID = userID
		results = append(results, m.Send(ctx, c))
	}
	return results
}

// Get loads one notification, refusing to return another user's entity.
func (m *Manager) Get(ctx context.Context, userID string, id notification.ID) (*notification.Notification, error) {
	n, err := m.storage.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID() != userID {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

// List returns a user's notifications newest-first.
func (m *Manager) List(ctx context.Context, userID string, opts ListOptions) ([]*notification.Notification, error) {
	return m.storage.ListNotifications(ctx, userID, opts)
}

// MarkRead marks delivered notifications as read and persists them.
func (m *Manager) MarkRead(ctx context.Context, userID string, ids ...notification.ID) error {
	for _, id := range ids {
		n, err := m.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := n.MarkRead(); err != nil {
			return fmt.Errorf("mark %s read: %w", id, err)
		}
		if err := m.storage.SaveNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// CountUnread counts a user's notifications without a read timestamp.
func (m *Manager) CountUnread(ctx context.Context, userID string) (int, error) {
	unread, err := m.storage.ListNotifications(ctx, userID, ListOptions{UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// Storage exposes the underlying store for administrative callers.
func (m *Manager) Storage() Storage {
	return m.storage
}

func (m *Manager) resolveContent(ctx context.Context, cmd SendCommand) (title, content string, err error) {
	if cmd.TemplateID == "" {
		return cmd.Title, cmd.Content, nil
	}
	if m.renderer == nil {
		return "", "", ErrRendererRequired
	}

	tpl, err := m.storage.GetTemplate(ctx, cmd.TemplateID)
	if err != nil {
		return "", "", err
	}

	channel := notification.ChannelInApp
	if len(cmd.Channels) > 0 {
		channel = cmd.Channels[0]
	}

	rendered, err := m.renderer.Render(ctx, renderer.Request{
		Template:  tpl,
		Channel:   channel,
		Variables: cmd.TemplateVariables,
		Locale:    cmd.Locale,
		Timezone:  cmd.Timezone,
	})
	if err != nil {
		return "", "", err
	}

	title = cmd.Title
	if rendered.Subject != "" {
		title = rendered.Subject
	}
	return title, rendered.Body, nil
}

func (m *Manager) createNotification(cmd SendCommand, title, content string) (*notification.Notification, error) {
	opts := make([]notification.Option, 0, 5)
	if cmd.Priority != "" {
		opts = append(opts, notification.WithPriority(cmd.Priority))
	}
	if len(cmd.Channels) > 0 {
		opts = append(opts, notification.WithChannels(cmd.Channels...))
	}
	if cmd.ScheduledAt != nil {
		opts = append(opts, notification.WithScheduledAt(*cmd.ScheduledAt))
	}
	if cmd.ExpiresAt != nil {
		opts = append(opts, notification.WithExpiresAt(*cmd.ExpiresAt))
	}
	if len(cmd.Metadata) > 0 {
		opts = append(opts, notification.WithMetadata(cmd.Metadata))
	}

	n, err := notification.New(cmd.UserID, title, content, cmd.Type, opts...)
	if err != nil {
		return nil, errors.Join(errors.New("failed to create notification"), err)
	}
	return n, nil
}
