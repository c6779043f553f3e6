// Package notifier ties the notification core together behind a single
// command entry point.
//
// Manager accepts SendCommand values, renders templated content when a
// template id is supplied, creates the notification entity, persists it, and
// hands it to a Deliverer. Persistence always happens before dispatch, so a
// delivery failure never loses a notification; the stored entity carries the
// retry schedule for a later attempt.
//
//	store := notifier.NewMemoryStorage()
//	mgr, err := notifier.NewManager(store, deliverySvc,
//		notifier.WithRenderer(renderSvc),
//	)
//	if err != nil {
//		return err
//	}
//
//	res := mgr.Send(ctx, notifier.SendCommand{
//		UserID:   "user_123",
//		Title:    "Deploy finished",
//		Content:  "Build 1234 is live",
//		Type:     notification.TypeAlert,
//		Channels: []notification.Channel{notification.ChannelEmail},
//	})
//
// Two Storage implementations ship with the package: MemoryStorage for
// development and tests, and RedisStorage for shared deployments. Both store
// entities as their persistence records, so swapping one for the other
// changes no calling code.
package notifier
