package transport

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// MockTransport simulates a delivery channel for tests and local
// development. Failure behavior is driven by a seeded random source so runs
// are reproducible.
type MockTransport struct {
	channel     notification.Channel
	failureRate float64
	latency     time.Duration

	mu   sync.Mutex
	rng  *rand.Rand
	sent []delivery.Message
	seq  int
}

// MockOption configures a MockTransport.
type MockOption func(*MockTransport)

// WithFailureRate makes the given fraction of sends fail (0 never, 1 always).
func WithFailureRate(rate float64) MockOption {
	return func(t *MockTransport) {
		if rate >= 0 && rate <= 1 {
			t.failureRate = rate
		}
	}
}

// WithLatency adds a fixed delay to every send.
func WithLatency(d time.Duration) MockOption {
	return func(t *MockTransport) {
		if d > 0 {
			t.latency = d
		}
	}
}

// WithSeed fixes the random source for reproducible failure sequences.
func WithSeed(seed uint64) MockOption {
	return func(t *MockTransport) {
		t.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// NewMock creates a mock transport for the given channel.
func NewMock(channel notification.Channel, opts ...MockOption) *MockTransport {
	t := &MockTransport{
		channel: channel,
		rng:     rand.New(rand.NewPCG(1, 1)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *MockTransport) Channel() notification.Channel { return t.channel }

// Send records the message and succeeds or fails per the configured rate.
func (t *MockTransport) Send(ctx context.Context, msg delivery.Message) (delivery.Receipt, error) {
	if t.latency > 0 {
		select {
		case <-ctx.Done():
			return delivery.Receipt{}, ctx.Err()
		case <-time.After(t.latency):
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = append(t.sent, msg)
	t.seq++

	if t.failureRate > 0 && t.rng.Float64() < t.failureRate {
		return delivery.Receipt{}, fmt.Errorf("%w: simulated %s failure", ErrSendFailed, t.channel)
	}

	return delivery.Receipt{
		DeliveryID:  fmt.Sprintf("mock_%s_%d", t.channel, t.seq),
		DeliveredAt: time.Now(),
	}, nil
}

// Sent returns a copy of every message accepted so far, including ones that
// were answered with a simulated failure.
func (t *MockTransport) Sent() []delivery.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]delivery.Message, len(t.sent))
	copy(out, t.sent)
	return out
}

// Reset clears recorded messages and the send counter.
func (t *MockTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = nil
	t.seq = 0
}
