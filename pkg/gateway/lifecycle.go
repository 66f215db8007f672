package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/auxeira/realtime/pkg/logger"
)

// sweepLoop runs the periodic connection health sweep until the gateway
// shuts down. Each tick evicts stale connections and recomputes metrics
// from authoritative registry and room state.
func (g *Gateway) sweepLoop(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// sweep force-disconnects connections whose last activity exceeds the
// staleness threshold. Eviction uses the normal disconnect path, so room
// membership teardown is identical to a client-initiated close.
func (g *Gateway) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-g.config.StaleThreshold)

	for _, conn := range g.registry.all() {
		if conn.LastActivity().Before(cutoff) {
			g.logger.LogAttrs(ctx, slog.LevelWarn, "stale connection evicted",
				logger.ConnectionID(conn.ID),
				logger.UserID(conn.UserID),
				slog.Time("last_activity", conn.LastActivity()),
			)
			g.Disconnect(conn, "stale_connection")
		}
	}

	g.metrics.recompute(g.registry, g.rooms)
}
