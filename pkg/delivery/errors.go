package delivery

import "errors"

var (
	// ErrNilNotification is returned when delivery is invoked without a notification.
	ErrNilNotification = errors.New("notification is required")

	// ErrNilSubscription is returned when delivery is invoked without a subscription.
	ErrNilSubscription = errors.New("subscription is required")

	// ErrNotificationInvalid is returned when pre-flight validation finds issues.
	ErrNotificationInvalid = errors.New("notification is not valid for delivery")

	// ErrNotReady is returned when the notification is scheduled for a future time
	// or is no longer pending.
	ErrNotReady = errors.New("notification is not ready to send")

	// ErrSubscriptionInactive is returned when the subscription cannot receive
	// notifications (paused, unsubscribed, or no enabled channels).
	ErrSubscriptionInactive = errors.New("subscription cannot receive notifications")

	// ErrQuietHours is returned when delivery falls inside the user's quiet
	// hours and the notification is not urgent.
	ErrQuietHours = errors.New("user is in quiet hours")

	// ErrFilteredOut is returned when the subscription's filter rules reject
	// the notification.
	ErrFilteredOut = errors.New("notification rejected by subscription filters")

	// ErrNoEligibleChannels is returned when the notification's channels and
	// the subscription's enabled channels do not intersect.
	ErrNoEligibleChannels = errors.New("no eligible delivery channels")

	// ErrTransportNotConfigured is returned when no transport is registered
	// for an eligible channel.
	ErrTransportNotConfigured = errors.New("transport not configured for channel")

	// ErrDeliveryTimeout marks an attempt that exceeded its channel timeout.
	ErrDeliveryTimeout = errors.New("delivery timed out")
)
