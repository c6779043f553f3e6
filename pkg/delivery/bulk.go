package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
)

// BulkItem pairs a notification with its owner's subscription for bulk
// delivery.
type BulkItem struct {
	Notification *notification.Notification
	Subscription *subscription.Subscription
}

// DeliverBulk delivers many notifications, grouped by user and processed in
// batches with a delay between batches to throttle external transports.
// Items within a batch run on a bounded worker pool; one user's
// notifications are delivered sequentially in submission order.
//
// The returned map has one entry per input notification. Items that fail
// pre-flight (or panic) still get an entry with a single failed
// DeliveryResult, so a bad item never aborts the batch. The one exception is
// an item with a nil Notification: it has no id to key a result under, so it
// is skipped and logged instead of aborting the batch.
func (s *Service) DeliverBulk(ctx context.Context, items []BulkItem, opts ...DeliverOption) (map[notification.ID][]DeliveryResult, error) {
	results := make(map[notification.ID][]DeliveryResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	// Group by user, preserving first-appearance order so batching is
	// deterministic.
	groups := make(map[string][]BulkItem)
	var order []string
	for i, item := range items {
		if item.Notification == nil {
			s.log.LogAttrs(ctx, slog.LevelWarn, "bulk item has no notification, skipping",
				slog.Int("index", i),
			)
			continue
		}
		userID := item.Notification.UserID()
		if _, ok := groups[userID]; !ok {
			order = append(order, userID)
		}
		groups[userID] = append(groups[userID], item)
	}

	var mu sync.Mutex
	record := func(id notification.ID, res []DeliveryResult) {
		mu.Lock()
		results[id] = res
		mu.Unlock()
	}

	for start := 0; start < len(order); start += s.batchSize {
		end := min(start+s.batchSize, len(order))

		if start > 0 && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}

		sem := make(chan struct{}, s.workers)
		var wg sync.WaitGroup
		for _, userID := range order[start:end] {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				for _, item := range groups[userID] {
					s.deliverBulkItem(ctx, item, record, opts)
				}
			}()
		}
		wg.Wait()
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "bulk delivery finished",
		slog.Int("notifications", len(items)),
		slog.Int("users", len(order)),
	)
	return results, nil
}

// deliverBulkItem runs one item through Deliver, converting any error or
// panic into a failed DeliveryResult entry.
func (s *Service) deliverBulkItem(ctx context.Context, item BulkItem, record func(notification.ID, []DeliveryResult), opts []DeliverOption) {
	id := item.Notification.ID()

	defer func() {
		if r := recover(); r != nil {
			record(id, []DeliveryResult{{
				Success:      false,
				ErrorMessage: fmt.Sprintf("panic: %v", r),
				Timestamp:    s.now(),
			}})
			s.log.LogAttrs(ctx, slog.LevelError, "bulk item panic recovered",
				logger.NotificationID(id),
				slog.Any("panic", r),
			)
		}
	}()

	res, err := s.Deliver(ctx, item.Notification, item.Subscription, opts...)
	if err != nil {
		record(id, []DeliveryResult{{
			Success:      false,
			ErrorMessage: err.Error(),
			Timestamp:    s.now(),
		}})
		return
	}
	record(id, res)
}
