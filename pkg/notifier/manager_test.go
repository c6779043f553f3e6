package notifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
	"github.com/dmitrymomot/notifykit/pkg/renderer"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

type fakeDeliverer struct {
	err   error
	calls int
}

func (d *fakeDeliverer) Deliver(_ context.Context, n *notification.Notification, _ *subscription.Subscription, _ ...delivery.DeliverOption) ([]delivery.DeliveryResult, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if err := n.MarkSent(); err != nil {
		return nil, err
	}
	return []delivery.DeliveryResult{{
		Channel:    notification.ChannelInApp,
		Success:    true,
		DeliveryID: "dlv_1",
		Timestamp:  time.Now(),
	}}, nil
}

func saveSubscription(t *testing.T, store notifier.Storage, userID string) *subscription.Subscription {
	t.Helper()

	sub, err := subscription.New(userID, notification.TypeAlert,
		subscription.WithChannel(notification.ChannelInApp, subscription.ChannelPreference{Enabled: true}),
	)
	require.NoError(t, err)
	require.NoError(t, store.SaveSubscription(context.Background(), sub))
	return sub
}

func alertCommand(userID string) notifier.SendCommand {
	return notifier.SendCommand{
		UserID:  userID,
		Title:   "Deploy finished",
		Content: "Build 1234 is live",
		Type:    notification.TypeAlert,
	}
}

func TestManagerSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stores and delivers", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		saveSubscription(t, store, "user-1")
		deliverer := &fakeDeliverer{}
		mgr, err := notifier.NewManager(store, deliverer)
		require.NoError(t, err)

		res := mgr.Send(ctx, alertCommand("user-1"))
		require.True(t, res.Success)
		require.NotNil(t, res.Data)
		assert.Empty(t, res.ErrorMessage)
		assert.Equal(t, notification.StatusSent, res.Data.Status)
		require.Len(t, res.Data.DeliveryResults, 1)
		assert.Equal(t, "dlv_1", res.Data.DeliveryResults[0].DeliveryID)
		assert.Equal(t, 1, deliverer.calls)

		stored, err := store.GetNotification(ctx, res.Data.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, stored.Status())

		sub, err := store.GetSubscription(ctx, "user-1", notification.TypeAlert)
		require.NoError(t, err)
		assert.NotNil(t, sub.LastNotificationAt())
	})

	t.Run("delivery failure keeps the stored notification", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		saveSubscription(t, store, "user-1")
		mgr, err := notifier.NewManager(store, &fakeDeliverer{err: errors.New("smtp unreachable")})
		require.NoError(t, err)

		res := mgr.Send(ctx, alertCommand("user-1"))
		require.True(t, res.Success)
		assert.Equal(t, "smtp unreachable", res.ErrorMessage)
		assert.Equal(t, notification.StatusPending, res.Data.Status)

		stored, err := store.GetNotification(ctx, res.Data.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusPending, stored.Status())
	})

	t.Run("missing subscription skips dispatch", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		deliverer := &fakeDeliverer{}
		mgr, err := notifier.NewManager(store, deliverer)
		require.NoError(t, err)

		res := mgr.Send(ctx, alertCommand("user-1"))
		require.True(t, res.Success)
		assert.Equal(t, notifier.ErrSubscriptionNotFound.Error(), res.ErrorMessage)
		assert.Zero(t, deliverer.calls)

		_, err = store.GetNotification(ctx, res.Data.NotificationID)
		assert.NoError(t, err)
	})

	t.Run("nil deliverer persists without dispatch", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		mgr, err := notifier.NewManager(store, nil)
		require.NoError(t, err)

		res := mgr.Send(ctx, alertCommand("user-1"))
		require.True(t, res.Success)
		assert.Equal(t, notification.StatusPending, res.Data.Status)
		assert.Empty(t, res.Data.DeliveryResults)
	})

	t.Run("invalid command fails without storing", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		mgr, err := notifier.NewManager(store, nil)
		require.NoError(t, err)

		cmd := alertCommand("user-1")
		cmd.Title = ""
		res := mgr.Send(ctx, cmd)
		assert.False(t, res.Success)
		assert.Nil(t, res.Data)
		assert.Contains(t, res.ErrorMessage, "title is required")

		all, err := store.ListNotifications(ctx, "user-1", notifier.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("nil storage is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := notifier.NewManager(nil, nil)
		assert.ErrorIs(t, err, notifier.ErrStorageRequired)
	})
}

func TestManagerTemplatedSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newStoredTemplate := func(t *testing.T, store notifier.Storage) *template.Template {
		t.Helper()

		tpl, err := template.New("deploy-finished", notification.TypeAlert, "ops@example.com")
		require.NoError(t, err)
		require.NoError(t, tpl.SetChannelTemplate(notification.ChannelInApp, template.ChannelTemplate{
			Subject: "Deploy {{build}} done",
			Body:    "Build {{build}} is live on {{env}}",
			Format:  template.FormatText,
			Enabled: true,
		}))
		require.NoError(t, store.SaveTemplate(ctx, tpl))
		return tpl
	}

	t.Run("renders title and content", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		tpl := newStoredTemplate(t, store)
		saveSubscription(t, store, "user-1")
		mgr, err := notifier.NewManager(store, &fakeDeliverer{}, notifier.WithRenderer(renderer.New()))
		require.NoError(t, err)

		res := mgr.Send(ctx, notifier.SendCommand{
			UserID:            "user-1",
			Type:              notification.TypeAlert,
			TemplateID:        tpl.ID(),
			TemplateVariables: map[string]any{"build": "1234", "env": "production"},
		})
		require.True(t, res.Success, res.ErrorMessage)

		stored, err := store.GetNotification(ctx, res.Data.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, "Deploy 1234 done", stored.Title())
		assert.Equal(t, "Build 1234 is live on production", stored.Content())
	})

	t.Run("requires a renderer", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		tpl := newStoredTemplate(t, store)
		mgr, err := notifier.NewManager(store, nil)
		require.NoError(t, err)

		res := mgr.Send(ctx, notifier.SendCommand{
			UserID:     "user-1",
			Type:       notification.TypeAlert,
			TemplateID: tpl.ID(),
		})
		assert.False(t, res.Success)
		assert.Equal(t, notifier.ErrRendererRequired.Error(), res.ErrorMessage)
	})

	t.Run("unknown template id", func(t *testing.T) {
		t.Parallel()

		store := notifier.NewMemoryStorage()
		mgr, err := notifier.NewManager(store, nil, notifier.WithRenderer(renderer.New()))
		require.NoError(t, err)

		res := mgr.Send(ctx, notifier.SendCommand{
			UserID:     "user-1",
			Type:       notification.TypeAlert,
			TemplateID: "tpl_missing",
		})
		assert.False(t, res.Success)
		assert.Equal(t, notifier.ErrTemplateNotFound.Error(), res.ErrorMessage)
	})
}

func TestManagerSendToUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifier.NewMemoryStorage()
	saveSubscription(t, store, "user-1")
	saveSubscription(t, store, "user-2")
	mgr, err := notifier.NewManager(store, &fakeDeliverer{})
	require.NoError(t, err)

	results := mgr.SendToUsers(ctx, []string{"user-1", "user-2"}, alertCommand(""))
	require.Len(t, results, 2)
	for i, res := range results {
		require.True(t, res.Success, "result %d: %s", i, res.ErrorMessage)
	}

	for _, userID := range []string{"user-1", "user-2"} {
		list, err := store.ListNotifications(ctx, userID, notifier.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
}

func TestManagerReadTracking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifier.NewMemoryStorage()
	saveSubscription(t, store, "user-1")
	mgr, err := notifier.NewManager(store, &fakeDeliverer{})
	require.NoError(t, err)

	first := mgr.Send(ctx, alertCommand("user-1"))
	second := mgr.Send(ctx, alertCommand("user-1"))
	require.True(t, first.Success)
	require.True(t, second.Success)

	unread, err := mgr.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	require.NoError(t, mgr.MarkRead(ctx, "user-1", first.Data.NotificationID))

	unread, err = mgr.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	t.Run("wrong user cannot read", func(t *testing.T) {
		err := mgr.MarkRead(ctx, "user-2", second.Data.NotificationID)
		assert.ErrorIs(t, err, notifier.ErrNotificationNotFound)

		_, err = mgr.Get(ctx, "user-2", second.Data.NotificationID)
		assert.ErrorIs(t, err, notifier.ErrNotificationNotFound)
	})
}
