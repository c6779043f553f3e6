package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

// RedisConfig holds the connection settings for Redis-backed storage.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// ConnectRedis establishes a Redis connection, retrying up to
// cfg.RetryAttempts times with cfg.RetryInterval between attempts. The whole
// sequence is bounded by cfg.ConnectTimeout.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisStorage is a Redis-backed Storage implementation. Entities are stored
// as JSON persistence records; per-user notification listings are kept in a
// sorted set scored by creation time.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithKeyPrefix overrides the default "notifykit" key prefix.
func WithKeyPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStorage creates a Storage backed by the given Redis client.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		prefix: "notifykit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) notificationKey(id notification.ID) string {
	return fmt.Sprintf("%s:notification:%s", s.prefix, id)
}

func (s *RedisStorage) userIndexKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:notifications", s.prefix, userID)
}

func (s *RedisStorage) templateKey(id string) string {
	return fmt.Sprintf("%s:template:%s", s.prefix, id)
}

func (s *RedisStorage) subscriptionKey(userID string, typ notification.Type) string {
	return fmt.Sprintf("%s:subscription:%s:%s", s.prefix, userID, typ)
}

func (s *RedisStorage) SaveNotification(ctx context.Context, n *notification.Notification) error {
	if n == nil {
		return ErrNilNotification
	}
	rec := n.Snapshot()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", rec.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.notificationKey(notification.ID(rec.ID)), payload, 0)
	pipe.ZAdd(ctx, s.userIndexKey(rec.UserID), redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStorage) GetNotification(ctx context.Context, id notification.ID) (*notification.Notification, error) {
	payload, err := s.client.Get(ctx, s.notificationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec notification.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal notification %s: %w", id, err)
	}
	return notification.FromRecord(rec)
}

// ListNotifications returns a user's notifications newest-first. When
// UnreadOnly is set the unread filter is applied before pagination.
func (s *RedisStorage) ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]*notification.Notification, error) {
	ids, err := s.client.ZRevRange(ctx, s.userIndexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*notification.Notification, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		n, err := s.GetNotification(ctx, notification.ID(id))
		if errors.Is(err, ErrNotificationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if opts.UnreadOnly && n.ReadAt() != nil {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, n)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *RedisStorage) SaveTemplate(ctx context.Context, t *template.Template) error {
	if t == nil {
		return ErrNilTemplate
	}
	rec := t.Snapshot()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal template %s: %w", rec.ID, err)
	}
	return s.client.Set(ctx, s.templateKey(rec.ID), payload, 0).Err()
}

func (s *RedisStorage) GetTemplate(ctx context.Context, id string) (*template.Template, error) {
	payload, err := s.client.Get(ctx, s.templateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec template.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal template %s: %w", id, err)
	}
	return template.FromRecord(rec)
}

func (s *RedisStorage) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ErrNilSubscription
	}
	rec := sub.Snapshot()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal subscription %s: %w", rec.ID, err)
	}
	key := s.subscriptionKey(rec.UserID, notification.Type(rec.NotificationType))
	return s.client.Set(ctx, key, payload, 0).Err()
}

func (s *RedisStorage) GetSubscription(ctx context.Context, userID string, typ notification.Type) (*subscription.Subscription, error) {
	payload, err := s.client.Get(ctx, s.subscriptionKey(userID, typ)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec subscription.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal subscription %s/%s: %w", userID, typ, err)
	}
	return subscription.FromRecord(rec)
}
