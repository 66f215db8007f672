// Package logger provides a small factory around Go's slog package plus
// helper attribute constructors used across the realtime core.
//
// The factory exposes a single constructor, New, configured through
// functional options:
//
//	log := logger.New(
//		logger.WithService("realtime"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
// Helper constructors such as Error, UserID, ConnectionID and RoomID return
// commonly-used slog.Attr values so attribute naming stays consistent across
// the gateway, dispatcher and transport layers.
package logger
