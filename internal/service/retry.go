package service

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/config"

	"github.com/cenkalti/backoff/v5"
)

// withRetry runs op under the configured exponential schedule. Transcription
// and stage calls share it so transient upstream failures get the same
// treatment everywhere. Wrap an error in backoff.Permanent to stop early.
func withRetry[T any](ctx context.Context, cfg config.RetryConfig, op backoff.Operation[T]) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = 2

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
	)
}
