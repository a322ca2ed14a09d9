package maintenance

import (
	"context"
	"log/slog"
	"time"
)

type TokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type LimiterCleaner interface {
	Cleanup() int
}

// PurgeRevokedTokens drops revocations for tokens that have expired anyway.
func PurgeRevokedTokens(p TokenPurger, interval time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:     "purge revoked tokens",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := p.DeleteExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged revoked tokens", "count", n)
			}
			return nil
		},
	}
}

// CleanRateLimiter evicts rate limiter windows that have closed.
func CleanRateLimiter(l LimiterCleaner, interval time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:     "clean rate limiter",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := l.Cleanup(); n > 0 {
				logger.Debug("cleaned rate limiter", "count", n)
			}
			return nil
		},
	}
}
