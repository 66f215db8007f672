package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultUserCap bounds each user's notification index; the oldest records
// are evicted past the cap.
const DefaultUserCap = 1000

// MemoryStorage is an in-memory Storage implementation. Suitable for
// single-node deployments and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	byUser  map[string][]Notification // newest first
	userCap int
}

// MemoryStorageOption configures a MemoryStorage.
type MemoryStorageOption func(*MemoryStorage)

// WithUserCap overrides the per-user index bound.
func WithUserCap(limit int) MemoryStorageOption {
	return func(s *MemoryStorage) {
		if limit > 0 {
			s.userCap = limit
		}
	}
}

// NewMemoryStorage creates an empty in-memory notification store.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	s := &MemoryStorage{
		byUser:  make(map[string][]Notification),
		userCap: DefaultUserCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	if notif.UserID == "" {
		return ErrMissingUserID
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append([]Notification{notif}, s.byUser[notif.UserID]...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if len(list) > s.userCap {
		list = list[:s.userCap]
	}
	s.byUser[notif.UserID] = list
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.byUser[userID] {
		if n.ID == notifID {
			found := n
			return &found, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.byUser[userID] {
		if n.DeliveryStatus == DeliveryExpired || n.IsExpired() {
			continue
		}
		if opts.Status != "" && n.ReadStatus != opts.Status {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		if opts.Category != "" && n.Category != opts.Category {
			continue
		}
		filtered = append(filtered, n)
	}

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return filtered[start:end], nil
}

func (s *MemoryStorage) SetDeliveryStatus(ctx context.Context, userID, notifID string, status DeliveryStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		if list[i].ID != notifID {
			continue
		}
		if !list[i].DeliveryStatus.CanTransition(status) {
			return nil
		}
		if list[i].DeliveryStatus == status {
			return nil
		}
		list[i].DeliveryStatus = status
		if status == DeliveryDelivered {
			t := at
			list[i].DeliveredAt = &t
		}
		return nil
	}
	return nil
}

func (s *MemoryStorage) SetReadStatus(ctx context.Context, userID string, status ReadStatus, notifIDs ...string) error {
	ids := make(map[string]bool, len(notifIDs))
	for _, id := range notifIDs {
		ids[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		if !ids[list[i].ID] {
			continue
		}
		if list[i].ReadStatus == status || !list[i].ReadStatus.CanTransition(status) {
			continue
		}
		list[i].ReadStatus = status
		if status == ReadRead && list[i].ReadAt == nil {
			now := time.Now()
			list[i].ReadAt = &now
		}
	}
	return nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if n.ReadStatus == ReadUnread && n.DeliveryStatus != DeliveryExpired && !n.IsExpired() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) PurgeExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for userID, list := range s.byUser {
		for i := range list {
			n := &list[i]
			if !n.IsExpired() || n.DeliveryStatus == DeliveryExpired {
				continue
			}
			// Only pending and unread-delivered records expire; a read
			// notification keeps its final status.
			if n.DeliveryStatus == DeliveryPending ||
				(n.DeliveryStatus == DeliveryDelivered && n.ReadStatus == ReadUnread) {
				n.DeliveryStatus = DeliveryExpired
				purged++
			}
		}
		s.byUser[userID] = list
	}
	return purged, nil
}
