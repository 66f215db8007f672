package notifications

import (
	"errors"
)

var (
	// ErrNotificationNotFound is returned by lookups for absent records.
	// Leave/mark operations treat absence as an idempotent no-op instead.
	ErrNotificationNotFound = errors.New("notifications: notification not found")

	// ErrMissingID is returned when persisting a record without an id.
	ErrMissingID = errors.New("notifications: notification ID is required")

	// ErrMissingUserID is returned when a record or preference document has
	// no target user.
	ErrMissingUserID = errors.New("notifications: user ID is required")

	// ErrDispatcherClosed is returned when sending through a closed
	// dispatcher.
	ErrDispatcherClosed = errors.New("notifications: dispatcher is closed")

	// ErrNoAddress is returned by address books that cannot resolve a
	// contact address for the user.
	ErrNoAddress = errors.New("notifications: no contact address for user")
)
