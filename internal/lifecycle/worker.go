package lifecycle

import (
	"context"
	"time"
)

const DefaultPollInterval = 5 * time.Second

// Run ticks immediately and then every interval, or sooner when wake fires,
// until ctx is cancelled. A nil wake channel disables early wake-ups.
func (e *Engine) Run(ctx context.Context, interval time.Duration, wake <-chan struct{}) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	e.logger.Info().
		Dur("interval", interval).
		Int("batch_size", e.batchSize).
		Int("max_attempts", e.maxAttempts).
		Msg("worker: started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = e.Tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
			e.logger.Debug().Msg("worker: woken by notification")
			ticker.Reset(interval)
		}
	}
}
