package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/credvault"
)

type purger interface {
	PurgeExpired(ctx context.Context) (credvault.PurgeResult, error)
}

// runSweeper calls PurgeExpired every interval until ctx is done. Failures are logged
// and retried on the next tick.
func runSweeper(ctx context.Context, p purger, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := p.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("purge expired failed", "error", err)
				continue
			}
			log.Info("purge expired",
				"blocklist_entries", res.BlocklistEntries,
				"refresh_records", res.RefreshRecords,
				"duration", res.Duration.String(),
			)
		}
	}
}
