// Package transport exposes the realtime gateway over websockets.
//
// Handler is an http.Handler that upgrades requests, authenticates the
// bearer token through the gateway, and runs one read and one write pump
// per session. Inbound frames are JSON envelopes with a type and payload:
//
//	{"type": "join_room", "data": {"room_id": "sse_updates"}}
//
// Outbound frames are the gateway's events in the same shape. Slow readers
// are not allowed to stall fan-out: events that cannot be queued are
// dropped and the connection eventually reaped as stale.
//
//	handler := transport.NewHandler(gw, dispatcher,
//		transport.WithLogger(log),
//		transport.WithCheckOrigin(originPolicy),
//	)
//	router.Handle("/ws", handler)
package transport
