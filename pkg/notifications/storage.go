package notifications

import (
	"context"
	"time"
)

// ListOptions filters and paginates notification listings. The zero value
// returns everything non-expired, newest first.
type ListOptions struct {
	Status   ReadStatus // filter by read status when non-empty
	Type     Type       // filter by type when non-empty
	Category Category   // filter by category when non-empty
	Limit    int        // 0 = no limit
	Offset   int
}

// Storage persists notifications in a bounded per-user index, newest first.
// Implementations must enforce forward-only status transitions and evict the
// oldest records past the per-user cap.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification.
	Get(ctx context.Context, userID, notifID string) (*Notification, error)

	// List returns the user's notifications, newest first. An empty page
	// for no matches is valid, not an error.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// SetDeliveryStatus applies a forward-only delivery transition.
	// Illegal transitions are silently ignored.
	SetDeliveryStatus(ctx context.Context, userID, notifID string, status DeliveryStatus, at time.Time) error

	// SetReadStatus applies a read-state transition to the given ids.
	// Repeats and unknown ids are no-ops.
	SetReadStatus(ctx context.Context, userID string, status ReadStatus, notifIDs ...string) error

	// CountUnread returns the user's unread, non-expired count.
	CountUnread(ctx context.Context, userID string) (int, error)

	// PurgeExpired marks pending and unread-delivered notifications past
	// their TTL as expired, returning how many were transitioned.
	PurgeExpired(ctx context.Context) (int, error)
}
