package transport

import "errors"

var (
	// ErrInvalidConfig marks a transport constructed with incomplete configuration.
	ErrInvalidConfig = errors.New("invalid transport config")

	// ErrAddressRequired is returned when a message lacks the destination
	// address the channel needs.
	ErrAddressRequired = errors.New("destination address is required")

	// ErrSendFailed wraps provider-reported delivery failures.
	ErrSendFailed = errors.New("failed to send message")
)
