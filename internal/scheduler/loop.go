package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
)

// DefaultPollInterval is how often the loop checks for due jobs.
const DefaultPollInterval = 60 * time.Second

// Loop polls a Store on a fixed interval from one background goroutine.
// Start is idempotent; only Stop ends the loop.
type Loop struct {
	store    *Store
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLoop creates a stopped loop. A non-positive interval means DefaultPollInterval.
func NewLoop(store *Store, interval time.Duration, log *logger.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Loop{
		store:    store,
		interval: interval,
		logger:   log,
	}
}

// Start launches the worker and reports whether this call started it.
// Calling Start on a running loop is a no-op. The loop does not inherit
// cancellation from ctx: use Stop to end it.
func (l *Loop) Start(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.run(loopCtx, l.done)

	l.logger.Info("scheduler loop started",
		logger.Field{Key: "interval", Value: l.interval.String()})
	return true
}

// Stop ends the loop and waits for the worker to exit. Stopping a loop that
// is not running is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done

	l.logger.Info("scheduler loop stopped")
}

// Running reports whether the worker is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	results := l.store.Tick(ctx)
	if len(results) > 0 {
		l.logger.DebugCtx(ctx, "scheduler tick",
			logger.Field{Key: "fired", Value: len(results)},
			logger.Field{Key: "remaining", Value: l.store.Len()})
	}
}
