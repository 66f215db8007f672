package notifications

import (
	"time"
)

// Type identifies what happened. The set mirrors the platform's producer
// vocabulary.
type Type string

const (
	TypeScoreUpdate          Type = "sse_update"
	TypeInvestorInterest     Type = "investor_interest"
	TypePartnership          Type = "partnership_opportunity"
	TypePaymentReminder      Type = "payment_reminder"
	TypeAchievementUnlocked  Type = "achievement_unlocked"
	TypeChallengeCompleted   Type = "challenge_completed"
	TypeMilestoneAchieved    Type = "milestone_achieved"
	TypeSystemAlert          Type = "system_alert"
	TypeSecurityAlert        Type = "security_alert"
	TypeFeatureAnnouncement  Type = "feature_announcement"
	TypeMaintenanceNotice    Type = "maintenance_notice"
	TypeWelcome              Type = "welcome"
	TypeReminder             Type = "reminder"
	TypeWarning              Type = "warning"
	TypeError                Type = "error"
)

// Category groups types for preference toggles.
type Category string

const (
	CategorySystem    Category = "system"
	CategoryBusiness  Category = "business"
	CategorySocial    Category = "social"
	CategoryFinancial Category = "financial"
	CategorySecurity  Category = "security"
	CategoryProduct   Category = "product"
	CategoryMarketing Category = "marketing"
	CategorySupport   Category = "support"
)

// Priority orders urgency. SMS dispatch is restricted to urgent and
// critical notifications.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// Channel names a delivery path.
type Channel string

const (
	ChannelRealtime Channel = "realtime"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelPush     Channel = "push"
	ChannelInApp    Channel = "in_app"
)

// DeliveryStatus transitions only forward: pending -> delivered|failed, and
// expired is reachable from pending or unread-delivered after TTL.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryExpired   DeliveryStatus = "expired"
)

// deliveryTransitions encodes the allowed forward moves.
var deliveryTransitions = map[DeliveryStatus]map[DeliveryStatus]bool{
	DeliveryPending: {
		DeliveryDelivered: true,
		DeliveryFailed:    true,
		DeliveryExpired:   true,
	},
	DeliveryDelivered: {
		DeliveryExpired: true,
	},
}

// CanTransition reports whether from -> to is a legal delivery transition.
// A transition to the current status is a legal no-op.
func (from DeliveryStatus) CanTransition(to DeliveryStatus) bool {
	if from == to {
		return true
	}
	return deliveryTransitions[from][to]
}

// ReadStatus tracks the user's interaction with a stored notification.
type ReadStatus string

const (
	ReadUnread    ReadStatus = "unread"
	ReadRead      ReadStatus = "read"
	ReadArchived  ReadStatus = "archived"
	ReadDismissed ReadStatus = "dismissed"
)

// readTransitions: unread -> read -> archived; dismissal from unread or
// read. Archived and dismissed are terminal.
var readTransitions = map[ReadStatus]map[ReadStatus]bool{
	ReadUnread: {
		ReadRead:      true,
		ReadArchived:  true,
		ReadDismissed: true,
	},
	ReadRead: {
		ReadArchived:  true,
		ReadDismissed: true,
	},
}

// CanTransition reports whether from -> to is a legal read transition.
// Repeating the current status is a legal no-op.
func (from ReadStatus) CanTransition(to ReadStatus) bool {
	if from == to {
		return true
	}
	return readTransitions[from][to]
}

// Notification is the core stored record.
type Notification struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Type           Type           `json:"type"`
	Category       Category       `json:"category"`
	Priority       Priority       `json:"priority"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	ActionURL      string         `json:"action_url,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	Channels       []Channel      `json:"channels"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	ReadStatus     ReadStatus     `json:"read_status"`
	CreatedAt      time.Time      `json:"created_at"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
}

// IsExpired reports whether the notification has passed its TTL.
func (n *Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*n.ExpiresAt)
}

// HasChannel reports whether the notification requested the given channel.
func (n *Notification) HasChannel(ch Channel) bool {
	for _, c := range n.Channels {
		if c == ch {
			return true
		}
	}
	return false
}
