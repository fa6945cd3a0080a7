package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
)

func testLogger() *logger.Logger {
	log, err := logger.New(logger.Config{Level: "debug", Format: "text", Output: "discard"})
	if err != nil {
		panic(err)
	}
	return log
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingRunner remembers every job it ran and can be told to fail or panic.
type recordingRunner struct {
	mu      sync.Mutex
	ran     []Job
	failFor map[string]bool
	panicOn map[string]bool
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{
		failFor: make(map[string]bool),
		panicOn: make(map[string]bool),
	}
}

func (r *recordingRunner) Run(_ context.Context, job Job) (Outcome, error) {
	r.mu.Lock()
	r.ran = append(r.ran, job)
	fail := r.failFor[job.Tag]
	boom := r.panicOn[job.Tag]
	r.mu.Unlock()

	if boom {
		panic("smtp exploded")
	}
	if fail {
		return OutcomeFailed, errors.New("delivery failed")
	}
	return OutcomeDelivered, nil
}

func (r *recordingRunner) tags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ran))
	for i, j := range r.ran {
		out[i] = j.Tag
	}
	return out
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ran)
}
