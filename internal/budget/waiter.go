package budget

import (
	"context"
	"time"
)

// WaiterLogger receives countdown notifications while a wait is in
// progress. Implementations may render a live counter or log once per
// interval; nil disables notifications.
type WaiterLogger interface {
	LogRateLimitCountdown(remaining, total time.Duration)
}

// RateLimitWaiter decides whether a rate limit reset is worth waiting for
// and, if so, blocks until it passes.
type RateLimitWaiter struct {
	maxWait      time.Duration // Longest reset worth waiting for
	announceInt  time.Duration // Countdown notification interval
	safetyBuffer time.Duration // Extra wait after the stated reset time
	logger       WaiterLogger
}

// NewRateLimitWaiter creates a waiter with the given configuration.
func NewRateLimitWaiter(maxWait, announceInterval, safetyBuffer time.Duration, logger WaiterLogger) *RateLimitWaiter {
	return &RateLimitWaiter{
		maxWait:      maxWait,
		announceInt:  announceInterval,
		safetyBuffer: safetyBuffer,
		logger:       logger,
	}
}

// ShouldWait returns true if the reset is near enough to wait out rather
// than surface the failure. A nil info means no detected limit.
func (w *RateLimitWaiter) ShouldWait(info *RateLimitInfo) bool {
	if info == nil {
		return false
	}
	return info.TimeUntilReset() <= w.maxWait
}

// WaitForReset blocks until the rate limit reset plus the safety buffer,
// emitting periodic countdown notifications. Returns the context error if
// cancelled mid-wait.
func (w *RateLimitWaiter) WaitForReset(ctx context.Context, info *RateLimitInfo) error {
	if info == nil {
		return nil
	}

	if info.IsExpired() {
		// The stated reset already passed; only the safety buffer remains.
		select {
		case <-time.After(w.safetyBuffer):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	totalWait := w.TimeUntilResume(info)
	endTime := time.Now().Add(totalWait)

	ticker := time.NewTicker(w.announceInt)
	defer ticker.Stop()

	if w.logger != nil {
		w.logger.LogRateLimitCountdown(totalWait, totalWait)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			remaining := endTime.Sub(now)
			if remaining <= 0 {
				return nil
			}
			if w.logger != nil {
				w.logger.LogRateLimitCountdown(remaining, totalWait)
			}

		case <-time.After(time.Until(endTime)):
			return nil
		}
	}
}

// TimeUntilResume returns the total time to wait including the safety
// buffer.
func (w *RateLimitWaiter) TimeUntilResume(info *RateLimitInfo) time.Duration {
	if info == nil {
		return 0
	}
	if info.IsExpired() {
		return w.safetyBuffer
	}
	return info.TimeUntilReset() + w.safetyBuffer
}
