// Package transport provides delivery.Transport implementations: a
// Postmark-backed email transport, a JSON webhook transport, and a
// configurable mock for tests and local development.
//
// Each transport serves exactly one channel and is safe for concurrent use.
// The delivery service bounds every Send with a per-channel timeout through
// the context, so transports only need to respect ctx cancellation.
package transport
