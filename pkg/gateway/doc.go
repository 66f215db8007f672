// Package gateway implements the realtime connection core: authenticated
// client connections, logical rooms with per-kind access control, best-effort
// event fan-out, and periodic stale-connection eviction.
//
// A single Gateway instance owns all connection and room state for the
// process. External producers address clients through SendToUser, SendToRoom
// and BroadcastAll; all sends are fire-and-forget with at-most-once
// semantics, and an absent target is a silent no-op.
//
// Room membership is tracked per connection. A user with several
// simultaneous connections (multi-device) remains a room participant until
// their last connection leaves. Private per-user rooms persist when empty;
// every other room is created lazily on first join and deleted when the last
// participant leaves.
//
//	gw := gateway.New(authenticator,
//		gateway.WithLogger(log),
//		gateway.WithRoomAuthorizer(sessions),
//	)
//	defer gw.Shutdown(context.Background())
//
//	conn, err := gw.Connect(ctx, gateway.Credentials{Token: token}, meta)
//	if err != nil {
//		// authentication failed, no state was created
//	}
//	for ev := range conn.Events() {
//		// forward to the client transport
//	}
package gateway
