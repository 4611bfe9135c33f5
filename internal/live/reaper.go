package live

import (
	"context"
	"log/slog"
	"time"
)

// StartIdleReaper runs a background goroutine that periodically closes
// sessions idle for longer than ttl.
func StartIdleReaper(ctx context.Context, sm *SessionManager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Idle reaper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case now := <-ticker.C:
				if n := sm.CloseIdle(now, ttl); n > 0 {
					slog.Info("Idle reaper closed sessions", "count", n, "remaining", sm.Count())
				}
			case <-ctx.Done():
				slog.Info("Idle reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
