package notifications

import (
	"context"
	"fmt"
	"time"
)

// FrequencyBucket controls how often notifications of a type reach the user.
type FrequencyBucket string

const (
	FrequencyImmediate FrequencyBucket = "immediate"
	FrequencyBatched   FrequencyBucket = "batched"
	FrequencyDaily     FrequencyBucket = "daily"
	FrequencyWeekly    FrequencyBucket = "weekly"
)

// QuietHours is a per-user window suppressing immediate delivery. Start and
// End use HH:MM in the user's timezone; a window wrapping midnight
// (e.g. 22:00-08:00) is supported.
type QuietHours struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// Contains reports whether t falls inside the quiet window.
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled {
		return false
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	now := local.Hour()*60 + local.Minute()

	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}

	if start <= end {
		return now >= start && now < end
	}
	// Window wraps midnight.
	return now >= start || now < end
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return h*60 + m, nil
}

// Preferences holds a user's delivery toggles. Maps are sparse: a missing
// key means enabled, so newly introduced types stay on by default.
type Preferences struct {
	UserID     string                   `json:"user_id"`
	Channels   map[Channel]bool         `json:"channels"`
	Types      map[Type]bool            `json:"types"`
	Categories map[Category]bool        `json:"categories"`
	Priorities map[Priority]bool        `json:"priorities"`
	QuietHours QuietHours               `json:"quiet_hours"`
	Frequency  map[Type]FrequencyBucket `json:"frequency"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// DefaultPreferences returns the permissive defaults applied on first
// access: everything enabled, quiet hours off, immediate delivery for
// actionable types and digests for progress chatter.
func DefaultPreferences(userID string) Preferences {
	now := time.Now()
	return Preferences{
		UserID:     userID,
		Channels:   map[Channel]bool{},
		Types:      map[Type]bool{},
		Categories: map[Category]bool{},
		Priorities: map[Priority]bool{},
		QuietHours: QuietHours{
			Enabled:  false,
			Start:    "22:00",
			End:      "08:00",
			Timezone: "UTC",
		},
		Frequency: map[Type]FrequencyBucket{
			TypeInvestorInterest:    FrequencyImmediate,
			TypePaymentReminder:     FrequencyImmediate,
			TypeSecurityAlert:       FrequencyImmediate,
			TypeSystemAlert:         FrequencyImmediate,
			TypeScoreUpdate:         FrequencyBatched,
			TypeAchievementUnlocked: FrequencyBatched,
			TypePartnership:         FrequencyDaily,
			TypeFeatureAnnouncement: FrequencyDaily,
			TypeChallengeCompleted:  FrequencyWeekly,
			TypeMilestoneAchieved:   FrequencyWeekly,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// enabled treats a missing map entry as true.
func enabled[K comparable](m map[K]bool, key K) bool {
	v, ok := m[key]
	if !ok {
		return true
	}
	return v
}

// Allows reports whether the notification passes the user's type, category,
// priority and channel toggles.
func (p Preferences) Allows(n Notification) bool {
	if !enabled(p.Types, n.Type) {
		return false
	}
	if !enabled(p.Categories, n.Category) {
		return false
	}
	if !enabled(p.Priorities, n.Priority) {
		return false
	}
	if n.HasChannel(ChannelRealtime) && !enabled(p.Channels, ChannelRealtime) {
		return false
	}
	return true
}

// ChannelEnabled reports whether the user allows the given channel.
func (p Preferences) ChannelEnabled(ch Channel) bool {
	return enabled(p.Channels, ch)
}

// BucketFor returns the frequency bucket for a type, defaulting to
// immediate.
func (p Preferences) BucketFor(t Type) FrequencyBucket {
	if bucket, ok := p.Frequency[t]; ok {
		return bucket
	}
	return FrequencyImmediate
}

// PreferenceStore persists per-user delivery preferences. Get must return
// defaults for users without a stored record; preferences are never
// deleted by this core.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (Preferences, error)
	Put(ctx context.Context, prefs Preferences) error
}
