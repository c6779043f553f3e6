package subscription

import "errors"

var (
	// ErrUserIDRequired is returned when a subscription is created without an owner.
	ErrUserIDRequired = errors.New("user id is required")

	// ErrLastEnabledChannel is returned when an update would leave the
	// subscription with no enabled channel.
	ErrLastEnabledChannel = errors.New("at least one channel must remain enabled")

	// ErrNoEnabledChannels is returned when a subscription is created without
	// any enabled channel preference.
	ErrNoEnabledChannels = errors.New("subscription needs at least one enabled channel")

	// ErrAddressRequired is returned when a channel that requires an address
	// is enabled without one.
	ErrAddressRequired = errors.New("channel requires a delivery address")

	// ErrInvalidAddress is returned when an address fails its channel's
	// format validation.
	ErrInvalidAddress = errors.New("invalid delivery address")

	// ErrInvalidFrequency is returned for unknown delivery frequencies.
	ErrInvalidFrequency = errors.New("invalid delivery frequency")

	// ErrInvalidTimeOfDay is returned when a quiet-hours boundary is not HH:MM.
	ErrInvalidTimeOfDay = errors.New("time of day must be in HH:MM format")

	// ErrInvalidTimezone is returned for unknown IANA timezone names.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidFilterOperator is returned for unknown filter rule operators.
	ErrInvalidFilterOperator = errors.New("invalid filter operator")

	// ErrPreferenceNotFound is returned when updating an unconfigured channel.
	ErrPreferenceNotFound = errors.New("no preference configured for channel")
)
