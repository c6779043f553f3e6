package notification

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyID is returned when an empty notification id is supplied.
	ErrEmptyID = errors.New("notification id cannot be empty")

	// ErrIDTooLong is returned when an id exceeds the maximum length.
	ErrIDTooLong = errors.New("notification id exceeds maximum length")

	// ErrInvalidIDFormat is returned when an id contains illegal characters.
	ErrInvalidIDFormat = errors.New("notification id may contain only letters, digits, underscores and hyphens")

	// ErrInvalidPriority is returned when parsing an unknown priority string.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidChannel is returned when parsing an unknown channel string.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidType is returned when parsing an unknown notification type.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrUserIDRequired is returned when a notification is created without an owner.
	ErrUserIDRequired = errors.New("user id is required")

	// ErrTitleRequired is returned when the title is empty.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong is returned when the title exceeds the maximum length.
	ErrTitleTooLong = errors.New("title exceeds maximum length")

	// ErrContentRequired is returned when the content is empty.
	ErrContentRequired = errors.New("content is required")

	// ErrContentTooLong is returned when the content exceeds the maximum length.
	ErrContentTooLong = errors.New("content exceeds maximum length")

	// ErrNoChannels is returned when the channel set would become empty.
	ErrNoChannels = errors.New("notification must have at least one channel")

	// ErrLastChannel is returned when removing the last remaining channel.
	ErrLastChannel = errors.New("cannot remove the last delivery channel")

	// ErrNotPending is returned when mutating a notification past the pending state.
	ErrNotPending = errors.New("notification can only be modified while pending")

	// ErrScheduledInPast is returned when the scheduled time is not in the future.
	ErrScheduledInPast = errors.New("scheduled time must be in the future")
)

// TransitionError indicates an illegal status transition attempt.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %q to %q", e.From, e.To)
}

// IsTransitionError reports whether err is a TransitionError.
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}
