package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Run sweeps on a fixed cadence until ctx is canceled. Each tick uses the
// ticker's timestamp as the single consistent "now" for the whole pass.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("sweeper started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case now := <-ticker.C:
			if _, err := s.Sweep(ctx, now); err != nil {
				slog.Error("sweep tick failed", "error", err)
			}
		}
	}
}
