package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/auxeira/realtime/pkg/logger"
)

// ScoreUpdate carries a recomputed SSE score for a startup.
type ScoreUpdate struct {
	NewScore        float64            `json:"new_score"`
	PreviousScore   float64            `json:"previous_score"`
	Components      map[string]float64 `json:"components,omitempty"`
	Improvements    []string           `json:"improvements,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// SendScoreUpdate delivers a score change to the user's private room and a
// compact summary to the shared score-updates topic.
func (g *Gateway) SendScoreUpdate(ctx context.Context, userID string, update ScoreUpdate) {
	var changePct float64
	if update.PreviousScore != 0 {
		changePct = (update.NewScore - update.PreviousScore) / update.PreviousScore * 100
	}

	g.SendToUser(ctx, userID, EventScoreUpdate, map[string]any{
		"new_score":         update.NewScore,
		"previous_score":    update.PreviousScore,
		"change_percentage": changePct,
		"components":        update.Components,
		"improvements":      update.Improvements,
		"recommendations":   update.Recommendations,
	})
	g.SendToRoom(ctx, RoomScoreUpdates, EventScoreBroadcast, map[string]any{
		"user_id":     userID,
		"new_score":   update.NewScore,
		"improvement": update.NewScore - update.PreviousScore,
	})

	g.logger.LogAttrs(ctx, slog.LevelInfo, "score update sent",
		logger.UserID(userID),
		slog.Float64("new_score", update.NewScore),
	)
}

// GamificationEvent carries points, tokens and achievement progress.
type GamificationEvent struct {
	EventType   string `json:"event_type"`
	Points      int    `json:"points"`
	AuxTokens   int    `json:"aux_tokens"`
	Level       int    `json:"level,omitempty"`
	Achievement string `json:"achievement,omitempty"`
	Challenge   string `json:"challenge,omitempty"`
	Message     string `json:"message"`
}

// SendGamificationEvent delivers to the user's private room and broadcasts a
// leaderboard summary to the gamification topic.
func (g *Gateway) SendGamificationEvent(ctx context.Context, userID string, event GamificationEvent) {
	g.SendToUser(ctx, userID, EventGamification, event)
	g.SendToRoom(ctx, RoomGamification, EventGamificationBroadcast, map[string]any{
		"user_id":    userID,
		"event_type": event.EventType,
		"points":     event.Points,
		"aux_tokens": event.AuxTokens,
	})
}

// InvestorInterest signals an investor engaging with a startup.
type InvestorInterest struct {
	InvestorID       string  `json:"investor_id"`
	InvestorName     string  `json:"investor_name"`
	InterestLevel    string  `json:"interest_level"`
	InvestmentAmount float64 `json:"investment_amount,omitempty"`
	Message          string  `json:"message,omitempty"`
}

// SendInvestorInterest alerts the startup directly and publishes a summary
// to the investor-matching room.
func (g *Gateway) SendInvestorInterest(ctx context.Context, startupUserID string, interest InvestorInterest) {
	g.SendToUser(ctx, startupUserID, EventInvestorInterest, map[string]any{
		"investor_id":       interest.InvestorID,
		"investor_name":     interest.InvestorName,
		"interest_level":    interest.InterestLevel,
		"investment_amount": interest.InvestmentAmount,
		"message":           interest.Message,
		"urgent":            interest.InterestLevel == "ready_to_invest",
	})
	g.SendToRoom(ctx, RoomInvestorMatching, EventInvestorInterestBroadcast, map[string]any{
		"startup_user_id": startupUserID,
		"investor_id":     interest.InvestorID,
		"interest_level":  interest.InterestLevel,
	})

	g.logger.LogAttrs(ctx, slog.LevelInfo, "investor interest sent",
		logger.UserID(startupUserID),
		slog.String("investor_id", interest.InvestorID),
		slog.String("interest_level", interest.InterestLevel),
	)
}

// SystemAlert is an operational broadcast.
type SystemAlert struct {
	AlertID       string         `json:"alert_id"`
	Type          string         `json:"type"`
	Severity      string         `json:"severity"`
	Message       string         `json:"message"`
	AffectedUsers []string       `json:"affected_users,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	IssuedAt      time.Time      `json:"issued_at"`
}

// BroadcastSystemAlert delivers an alert to the affected users, or to
// everyone when no targets are named, plus a copy to the admin dashboard.
func (g *Gateway) BroadcastSystemAlert(ctx context.Context, alert SystemAlert) {
	if alert.IssuedAt.IsZero() {
		alert.IssuedAt = time.Now()
	}

	if len(alert.AffectedUsers) > 0 {
		for _, userID := range alert.AffectedUsers {
			g.SendToUser(ctx, userID, EventSystemAlert, alert)
		}
	} else {
		g.BroadcastAll(ctx, EventSystemAlert, alert)
	}
	g.SendToRoom(ctx, RoomAdminDashboard, EventSystemAlertAdmin, alert)

	g.logger.LogAttrs(ctx, slog.LevelInfo, "system alert broadcast",
		slog.String("alert_id", alert.AlertID),
		slog.String("severity", alert.Severity),
		slog.Int("affected_users", len(alert.AffectedUsers)),
	)
}
