package renderer

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

var (
	// ErrNilTemplate is returned when a render request carries no template.
	ErrNilTemplate = errors.New("template is required")

	// ErrInvalidLocale is returned when a locale tag cannot be parsed.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrInvalidTimezone is returned when a timezone name cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// RenderingError wraps any failure encountered while rendering a single
// request, carrying enough context to report the failing item in bulk
// operations.
type RenderingError struct {
	TemplateID string
	Channel    notification.Channel
	Err        error
}

func (e *RenderingError) Error() string {
	return fmt.Sprintf("render template %s for channel %s: %v", e.TemplateID, e.Channel, e.Err)
}

func (e *RenderingError) Unwrap() error { return e.Err }

func renderErr(templateID string, channel notification.Channel, err error) *RenderingError {
	return &RenderingError{TemplateID: templateID, Channel: channel, Err: err}
}
