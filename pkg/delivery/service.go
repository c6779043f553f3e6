package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
)

const (
	defaultBaseRetryDelay = time.Minute
	defaultBatchSize      = 100
	defaultBatchDelay     = time.Second
	defaultWorkers        = 10
)

// DeliveryResult reports one channel dispatch outcome.
type DeliveryResult struct {
	Channel      notification.Channel
	Success      bool
	DeliveryID   string
	ResponseTime time.Duration
	ErrorMessage string
	Timestamp    time.Time
}

// Service orchestrates notification delivery across registered transports.
// It is safe for concurrent use; the notification and subscription entities
// passed to a single Deliver call must not be mutated concurrently by the
// caller.
type Service struct {
	transports     map[notification.Channel]Transport
	stats          *StatsCollector
	log            *slog.Logger
	baseRetryDelay time.Duration
	batchSize      int
	batchDelay     time.Duration
	workers        int
	channelTimeout time.Duration
	now            func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithTransport registers a transport for its channel, replacing any
// previous registration for the same channel.
func WithTransport(t Transport) Option {
	return func(s *Service) {
		if t != nil {
			s.transports[t.Channel()] = t
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithConfig applies environment-derived tunables in one call.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.BaseRetryDelay > 0 {
			s.baseRetryDelay = cfg.BaseRetryDelay
		}
		if cfg.BatchSize > 0 {
			s.batchSize = cfg.BatchSize
		}
		if cfg.BatchDelay > 0 {
			s.batchDelay = cfg.BatchDelay
		}
		if cfg.Workers > 0 {
			s.workers = cfg.Workers
		}
		if cfg.ChannelTimeout > 0 {
			s.channelTimeout = cfg.ChannelTimeout
		}
	}
}

// WithBaseRetryDelay sets the first exponential backoff step.
func WithBaseRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.baseRetryDelay = d
		}
	}
}

// WithBatchSize bounds how many user groups DeliverBulk processes per batch.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between bulk batches.
func WithBatchDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.batchDelay = d
		}
	}
}

// WithWorkers bounds per-batch concurrency in DeliverBulk.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithChannelTimeout overrides the per-channel dispatch timeout for every
// delivery. Zero keeps the default of twice the channel's typical latency.
func WithChannelTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.channelTimeout = d
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a delivery service. Transports are registered through
// WithTransport; channels without a transport fail their dispatch with
// ErrTransportNotConfigured.
func New(opts ...Option) *Service {
	s := &Service{
		transports:     make(map[notification.Channel]Transport),
		stats:          NewStatsCollector(),
		log:            slog.Default(),
		baseRetryDelay: defaultBaseRetryDelay,
		batchSize:      defaultBatchSize,
		batchDelay:     defaultBatchDelay,
		workers:        defaultWorkers,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats exposes the per-channel delivery statistics accumulator.
func (s *Service) Stats() *StatsCollector { return s.stats }

type deliverOptions struct {
	timeout        time.Duration
	retryOnFailure bool
	channel        notification.Channel
}

// DeliverOption adjusts a single Deliver or DeliverBulk call.
type DeliverOption func(*deliverOptions)

// WithTimeout overrides the per-channel dispatch timeout for this call.
func WithTimeout(d time.Duration) DeliverOption {
	return func(o *deliverOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithoutRetry disables retry scheduling when every channel fails.
func WithoutRetry() DeliverOption {
	return func(o *deliverOptions) { o.retryOnFailure = false }
}

// ToChannel restricts delivery to a single channel instead of fanning out to
// every requested one.
func ToChannel(c notification.Channel) DeliverOption {
	return func(o *deliverOptions) { o.channel = c }
}

// Deliver runs the full orchestration for one notification: pre-flight
// checks, eligible-channel computation, concurrent fan-out, attempt and
// stats recording, status promotion, and retry scheduling.
func (s *Service) Deliver(ctx context.Context, n *notification.Notification, sub *subscription.Subscription, opts ...DeliverOption) ([]DeliveryResult, error) {
	cfg := deliverOptions{retryOnFailure: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if n == nil {
		return nil, ErrNilNotification
	}
	if sub == nil {
		return nil, ErrNilSubscription
	}

	now := s.now()
	if issues := n.ValidateForDelivery(); len(issues) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotificationInvalid, strings.Join(issues, "; "))
	}
	if !n.IsReadyToSendAt(now) {
		return nil, ErrNotReady
	}
	if !sub.CanReceiveNotifications() {
		return nil, ErrSubscriptionInactive
	}
	if sub.IsInQuietHoursAt(now) && n.Priority() != notification.PriorityUrgent {
		return nil, ErrQuietHours
	}
	if !sub.MatchesFilters(filterPayload(n)) {
		return nil, ErrFilteredOut
	}

	eligible := eligibleChannels(n, sub, cfg.channel)
	if len(eligible) == 0 {
		return nil, ErrNoEligibleChannels
	}

	results := s.fanOut(ctx, n, sub, eligible, cfg.timeout)
	s.settle(ctx, n, results, cfg.retryOnFailure, now)

	return results, nil
}

// fanOut dispatches to every eligible channel concurrently, then folds the
// collected results into the notification's attempt log and the stats
// accumulator. The entity is only touched after all goroutines finish.
func (s *Service) fanOut(ctx context.Context, n *notification.Notification, sub *subscription.Subscription, channels []notification.Channel, timeout time.Duration) []DeliveryResult {
	results := make([]DeliveryResult, len(channels))

	var wg sync.WaitGroup
	for i, channel := range channels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.dispatch(ctx, n, sub, channel, timeout)
		}()
	}
	wg.Wait()

	for _, res := range results {
		n.RecordAttempt(notification.DeliveryAttempt{
			Channel:      res.Channel,
			AttemptedAt:  res.Timestamp,
			Success:      res.Success,
			ResponseTime: res.ResponseTime,
			ErrorMessage: res.ErrorMessage,
			DeliveryID:   res.DeliveryID,
		})
		s.stats.Record(res.Channel, res.Success, res.ResponseTime)
	}
	return results
}

// dispatch sends through one channel's transport with a bounded timeout.
func (s *Service) dispatch(ctx context.Context, n *notification.Notification, sub *subscription.Subscription, channel notification.Channel, timeout time.Duration) DeliveryResult {
	res := DeliveryResult{Channel: channel, Timestamp: s.now()}

	transport, ok := s.transports[channel]
	if !ok {
		res.ErrorMessage = ErrTransportNotConfigured.Error()
		return res
	}

	if timeout <= 0 {
		timeout = s.channelTimeout
	}
	if timeout <= 0 {
		timeout = 2 * channel.Capabilities().TypicalLatency
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pref, _ := sub.Preference(channel)
	msg := Message{
		NotificationID: n.ID(),
		UserID:         n.UserID(),
		Channel:        channel,
		Address:        pref.Address,
		Title:          n.Title(),
		Body:           n.Content(),
		Priority:       n.Priority(),
		Metadata:       n.Metadata(),
	}

	start := time.Now()
	receipt, err := transport.Send(dctx, msg)
	res.ResponseTime = time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			res.ErrorMessage = ErrDeliveryTimeout.Error()
		} else {
			res.ErrorMessage = err.Error()
		}
		s.log.LogAttrs(ctx, slog.LevelWarn, "channel dispatch failed",
			logger.NotificationID(n.ID()),
			logger.UserID(n.UserID()),
			logger.Channel(channel),
			logger.Error(err),
		)
		return res
	}

	res.Success = true
	res.DeliveryID = receipt.DeliveryID
	return res
}

// settle decides the notification's aggregate status from the collected
// results: first success promotes pending to sent (and delivered for
// external channels); total failure engages the retry path.
func (s *Service) settle(ctx context.Context, n *notification.Notification, results []DeliveryResult, retryOnFailure bool, now time.Time) {
	var succeeded, external bool
	for _, res := range results {
		if res.Success {
			succeeded = true
			if res.Channel != notification.ChannelInApp {
				external = true
			}
		}
	}

	if succeeded {
		if err := n.MarkSent(); err == nil && external {
			_ = n.MarkDelivered()
		}
		s.log.LogAttrs(ctx, slog.LevelInfo, "notification delivered",
			logger.NotificationID(n.ID()),
			logger.UserID(n.UserID()),
			logger.Priority(n.Priority()),
		)
		return
	}

	if !retryOnFailure {
		s.log.LogAttrs(ctx, slog.LevelWarn, "all channels failed, retry disabled",
			logger.NotificationID(n.ID()),
		)
		return
	}

	if n.CanRetry() {
		delay := s.baseRetryDelay * time.Duration(1<<n.RetryCount())
		n.ScheduleRetry(now.Add(delay))
		s.log.LogAttrs(ctx, slog.LevelInfo, "retry scheduled",
			logger.NotificationID(n.ID()),
			logger.RetryCount(n.RetryCount()),
			logger.Duration(delay),
		)
		return
	}

	_ = n.MarkFailed("Maximum retry attempts exceeded")
	s.log.LogAttrs(ctx, slog.LevelError, "notification failed permanently",
		logger.NotificationID(n.ID()),
		logger.Priority(n.Priority()),
	)
}

// OptimalChannel scores each eligible channel and returns the best one:
// 40% historical success rate, 30% inverse typical latency, 20% inverse
// cost, 10% notification priority rank.
func (s *Service) OptimalChannel(n *notification.Notification, sub *subscription.Subscription) (notification.Channel, error) {
	if n == nil {
		return "", ErrNilNotification
	}
	if sub == nil {
		return "", ErrNilSubscription
	}

	eligible := eligibleChannels(n, sub, "")
	if len(eligible) == 0 {
		return "", ErrNoEligibleChannels
	}

	var best notification.Channel
	bestScore := -1.0
	for _, channel := range eligible {
		caps := channel.Capabilities()
		score := 0.4*s.stats.Channel(channel).SuccessRate() +
			0.3*(1.0/(1.0+caps.TypicalLatency.Seconds())) +
			0.2*(1.0/(1.0+caps.CostFactor)) +
			0.1*(float64(n.Priority().Rank())/4.0)
		if score > bestScore {
			best = channel
			bestScore = score
		}
	}
	return best, nil
}

// eligibleChannels intersects the notification's requested channels with the
// subscription's enabled channels, preserving the notification's channel
// order. A non-empty only value restricts the set to that single channel.
func eligibleChannels(n *notification.Notification, sub *subscription.Subscription, only notification.Channel) []notification.Channel {
	var out []notification.Channel
	for _, channel := range n.Channels() {
		if only != "" && channel != only {
			continue
		}
		if pref, ok := sub.Preference(channel); ok && pref.Enabled {
			out = append(out, channel)
		}
	}
	return out
}

// filterPayload projects the notification onto the attribute map the
// subscription's filter rules match against.
func filterPayload(n *notification.Notification) map[string]any {
	payload := map[string]any{
		"type":     string(n.Type()),
		"priority": string(n.Priority()),
		"title":    n.Title(),
		"content":  n.Content(),
	}
	for k, v := range n.Metadata() {
		payload[k] = v
	}
	return payload
}
