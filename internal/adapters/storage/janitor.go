package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	clockport "github.com/cardshare/digital-card-api/internal/ports/out/clock"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

// PurgeExpired removes idempotency records older than ttl as of clk.Now().
func PurgeExpired(ctx context.Context, store idempotencyport.Store, clk clockport.Clock, ttl time.Duration) (int64, error) {
	return store.Purge(ctx, clk.Now().Add(-ttl))
}

// RunIdempotencyJanitor purges expired records every interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func RunIdempotencyJanitor(ctx context.Context, store idempotencyport.Store, clk clockport.Clock, ttl, interval time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := PurgeExpired(ctx, store, clk, ttl)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warn("idempotency purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired idempotency records", zap.Int64("count", n), zap.Duration("ttl", ttl))
			}
		}
	}
}
