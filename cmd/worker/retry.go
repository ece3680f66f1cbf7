package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

const (
	maxAttempts  = 5
	initialDelay = 500 * time.Millisecond
)

type eventHandler interface {
	Execute(ctx context.Context, ev service.ProfileEvent) error
}

// processWithRetry runs h on ev until it succeeds, the attempts run out or
// ctx ends. The delay doubles after every failed attempt. The last handler
// error is returned, or ctx.Err() when cancelled while waiting.
func processWithRetry(ctx context.Context, h eventHandler, ev service.ProfileEvent, attempts int, delay time.Duration, log logger.Logger) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = h.Execute(ctx, ev); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		log.Warn("Retrying event",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.String("user_id", ev.UserID),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
