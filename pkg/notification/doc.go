// Package notification provides the core domain model for the notification
// delivery engine: the Notification entity with its delivery state machine,
// and the Priority and Channel value objects that carry the fixed constants
// (timeouts, retry ceilings, message-size limits, latency and cost
// characteristics) the delivery orchestration depends on.
//
// # Lifecycle
//
// A notification is created in the pending state and moves through a strict
// state machine:
//
//	pending -> sent -> delivered -> read
//
// The failed state is reachable from every state except read. Expiry is a
// computed state: a pending notification whose ExpiresAt has passed reports
// StatusExpired from Status(), but no stored transition ever takes place.
//
// # Basic Usage
//
//	n, err := notification.New("user-123", "Build finished", "Pipeline #42 is green",
//	    notification.TypeWorkflowStatus,
//	    notification.WithPriority(notification.PriorityHigh),
//	    notification.WithChannels(notification.ChannelEmail, notification.ChannelInApp),
//	)
//	if err != nil {
//	    // handle validation error
//	}
//
//	if violations := n.ValidateForDelivery(); len(violations) == 0 {
//	    // hand off to the delivery service
//	}
//
// Content, priority, and the channel set may only be mutated while the
// notification is still pending; the channel set can never become empty.
//
// # Persistence
//
// Entities round-trip through the exported Record type: Snapshot produces a
// storable record and FromRecord restores an entity, validating shape but
// skipping creation-time business rules (a stored ScheduledAt in the past is
// legal).
package notification
