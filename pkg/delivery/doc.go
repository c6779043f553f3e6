// Package delivery orchestrates notification delivery across transport
// channels.
//
// The Service takes a notification and the owning user's subscription,
// computes the eligible channels (the intersection of the notification's
// requested channels and the subscription's enabled channels), and fans out
// to the registered transports concurrently, each dispatch bounded by its
// own timeout. Every attempt is appended to the notification's delivery log
// and folded into per-channel statistics.
//
// Status handling follows a first-success rule: one successful channel moves
// the notification from pending to sent (and on to delivered for external
// channels); only when every channel fails does the retry path engage,
// scheduling an exponential-backoff retry until the priority's retry ceiling
// is exhausted.
//
// Quiet hours are a hard stop for anything below urgent priority: the
// delivery fails with ErrQuietHours rather than being silently queued.
//
// DeliverBulk processes many notifications grouped by user in bounded
// batches with an inter-batch delay to throttle pressure on external
// transports. A single item's failure never aborts the batch.
//
// Retries are never busy-waited. A scheduled retry is recorded in the
// notification's metadata for an external scheduler to re-invoke delivery.
package delivery
