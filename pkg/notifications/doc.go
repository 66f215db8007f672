// Package notifications provides user notification routing, persistence and
// delivery for the realtime platform.
//
// The Dispatcher is the single entry point for producing notifications. Each
// send runs an ordered pipeline: the recipient's delivery preferences are
// consulted first, then quiet hours, then the record is persisted, then
// realtime delivery is attempted, and finally any requested secondary
// channels (email, SMS) are dispatched fire-and-forget. Blocked or deferred
// notifications are always persisted so that history survives preference
// changes.
//
//	store := notifications.NewMemoryStorage()
//	prefs := notifications.NewMemoryPreferenceStore()
//	dispatcher := notifications.NewDispatcher(store, prefs, gw,
//		notifications.WithLogger(log),
//		notifications.WithSecondaryChannels(emailChannel),
//	)
//	defer dispatcher.Close()
//
//	id, err := dispatcher.Send(ctx, notifications.Input{
//		UserID:   "user-123",
//		Type:     notifications.TypeInvestorInterest,
//		Category: notifications.CategoryInvestor,
//		Priority: notifications.PriorityUrgent,
//		Title:    "New investor interest",
//		Message:  "An investor wants to connect.",
//	})
//
// Storage and PreferenceStore are interfaces with in-memory and Redis
// implementations; the Redis variants cap each user's history and expire
// records after thirty days.
package notifications
