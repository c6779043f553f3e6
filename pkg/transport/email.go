package transport

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

var emailAddressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailConfig holds the Postmark transport configuration.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
}

// postmarkSender is the subset of the Postmark client the transport uses.
// Narrowed to an interface so tests can swap in a fake.
type postmarkSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// EmailTransport delivers notifications through Postmark's transactional
// email API.
type EmailTransport struct {
	client postmarkSender
	sender string
}

// NewEmail creates a Postmark-backed email transport. All config fields are
// required so a misconfigured transport fails at startup, not at send time.
func NewEmail(cfg EmailConfig) (*EmailTransport, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !emailAddressPattern.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	return &EmailTransport{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender: cfg.SenderEmail,
	}, nil
}

func (t *EmailTransport) Channel() notification.Channel { return notification.ChannelEmail }

// Send submits the message to Postmark. Opens are tracked for delivery
// statistics; link tracking stays off for plain notification bodies.
func (t *EmailTransport) Send(ctx context.Context, msg delivery.Message) (delivery.Receipt, error) {
	if msg.Address == "" {
		return delivery.Receipt{}, ErrAddressRequired
	}

	resp, err := t.client.SendEmail(ctx, postmark.Email{
		From:       t.sender,
		To:         msg.Address,
		Subject:    msg.Title,
		TextBody:   msg.Body,
		Tag:        string(msg.Priority),
		TrackOpens: true,
	})
	if err != nil {
		return delivery.Receipt{}, errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return delivery.Receipt{}, errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}

	return delivery.Receipt{
		DeliveryID:  resp.MessageID,
		DeliveredAt: time.Now(),
	}, nil
}
