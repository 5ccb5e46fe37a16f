package bridge

import (
	"context"
	"log/slog"
	"time"
)

// Poller waits for a pending call by checking it at a fixed interval for a
// bounded number of attempts.
type Poller struct {
	Interval time.Duration
	Attempts int
	Logger   *slog.Logger
}

// Wait blocks until p receives a result, the attempt budget is exhausted or
// ctx is done. It reports whether a result arrived.
func (w Poller) Wait(ctx context.Context, p *Pending) (any, bool) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 0; attempt < w.Attempts; attempt++ {
		if result, ok := p.Result(); ok {
			return result, true
		}
		select {
		case <-ctx.Done():
			logger.Warn("pyexec: wait for browser result cancelled", "id", p.ID, "err", ctx.Err())
			return nil, false
		case <-ticker.C:
		}
	}
	if result, ok := p.Result(); ok {
		return result, true
	}
	logger.Warn("pyexec: no data received from browser", "id", p.ID,
		"attempts", w.Attempts, "interval", interval)
	return nil, false
}
