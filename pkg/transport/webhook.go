package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// webhookPayload is the JSON body posted to the subscriber's endpoint.
type webhookPayload struct {
	NotificationID string         `json:"notification_id"`
	UserID         string         `json:"user_id"`
	Type           string         `json:"type,omitempty"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Priority       string         `json:"priority"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	SentAt         time.Time      `json:"sent_at"`
}

// WebhookTransport delivers notifications as JSON POST requests to the
// address configured in the user's webhook channel preference.
type WebhookTransport struct {
	client *http.Client
}

// WebhookOption configures the webhook transport.
type WebhookOption func(*WebhookTransport)

// WithHTTPClient replaces the default HTTP client. The delivery service
// already bounds each Send through ctx, so the default client carries no
// timeout of its own.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(t *WebhookTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// NewWebhook creates a webhook transport.
func NewWebhook(opts ...WebhookOption) *WebhookTransport {
	t := &WebhookTransport{client: &http.Client{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *WebhookTransport) Channel() notification.Channel { return notification.ChannelWebhook }

// Send posts the notification payload. Any non-2xx response is a delivery
// failure; the response body is drained so connections can be reused.
func (t *WebhookTransport) Send(ctx context.Context, msg delivery.Message) (delivery.Receipt, error) {
	if msg.Address == "" {
		return delivery.Receipt{}, ErrAddressRequired
	}

	body, err := json.Marshal(webhookPayload{
		NotificationID: string(msg.NotificationID),
		UserID:         msg.UserID,
		Title:          msg.Title,
		Body:           msg.Body,
		Priority:       string(msg.Priority),
		Metadata:       msg.Metadata,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return delivery.Receipt{}, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.Address, bytes.NewReader(body))
	if err != nil {
		return delivery.Receipt{}, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-ID", string(msg.NotificationID))

	resp, err := t.client.Do(req)
	if err != nil {
		return delivery.Receipt{}, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return delivery.Receipt{}, fmt.Errorf("%w: webhook returned %d", ErrSendFailed, resp.StatusCode)
	}

	return delivery.Receipt{
		DeliveryID:  "whk_" + uuid.NewString(),
		DeliveredAt: time.Now(),
	}, nil
}
