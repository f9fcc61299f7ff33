package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-hq/helpdesk/internal/assistant/session"
)

// SessionSweeper periodically removes conversation sessions whose last
// activity is older than maxAge.
type SessionSweeper struct {
	store    *session.Store
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewSessionSweeper constructs the sweeper. A zero interval disables it.
func NewSessionSweeper(store *session.Store, maxAge, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick. Callers start
// it in a goroutine.
func (w *SessionSweeper) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if removed := w.store.Sweep(w.maxAge); removed > 0 {
				w.logger.Info("swept idle sessions", zap.Int("removed", removed))
			}
		}
	}
}
