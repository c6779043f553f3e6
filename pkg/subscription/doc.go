// Package subscription models per-user delivery policy: which channels a
// user has enabled for a notification type, at what frequency, behind which
// quiet-hours window, and filtered by which content rules.
//
// One subscription exists per (user, notification type) pair. The entity
// guards a single hard invariant: at least one channel preference stays
// enabled at all times. Disabling or removing the last enabled channel
// fails rather than silently leaving the user unreachable.
//
// Channel addresses (email address, phone number, webhook URL) are validated
// at write time, per channel type, so delivery never has to re-validate.
//
// Quiet hours are evaluated in the subscription's own timezone and support
// overnight windows (start > end wraps past midnight). Filter rules apply
// with AND semantics: a notification payload must satisfy every rule to
// match; an invalid regex fails its rule without failing evaluation.
package subscription
