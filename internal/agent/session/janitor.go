package session

import (
	"context"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
)

// StartJanitor begins sweeping idle sessions in the background. Calling it
// again while the janitor runs is a no-op, as is calling it with idle
// eviction disabled.
func (m *Manager) StartJanitor(ctx context.Context) {
	if m.cfg.IdleTTL <= 0 {
		m.logger.Info("session janitor disabled")
		return
	}

	m.janitorMu.Lock()
	defer m.janitorMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.logger.Info("session janitor started",
		logger.Field{Key: "idle_ttl", Value: m.cfg.IdleTTL.String()},
		logger.Field{Key: "interval", Value: m.cfg.JanitorInterval.String()})

	go m.runJanitor(ctx, m.done)
}

// StopJanitor stops the janitor and waits for it to exit.
func (m *Manager) StopJanitor() {
	m.janitorMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.janitorMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Manager) runJanitor(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.logger.Info("idle sessions evicted",
					logger.Field{Key: "evicted", Value: n},
					logger.Field{Key: "remaining", Value: m.Len()})
			}
		case <-ctx.Done():
			m.logger.Info("session janitor stopped")
			return
		}
	}
}
