package notifier

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrNilNotification = errors.New("notification is required")
	ErrNilTemplate     = errors.New("template is required")
	ErrNilSubscription = errors.New("subscription is required")

	ErrStorageRequired  = errors.New("storage is required")
	ErrRendererRequired = errors.New("renderer is required for template-based sends")

	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
)
