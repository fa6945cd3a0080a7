// Package scheduler holds delivery jobs in memory and fires them when due.
//
// A Store keeps one-shot and recurring jobs; a Loop drives Store.Tick on a
// fixed interval from a single background goroutine. Job actions report an
// Outcome and never influence the lifetime of the Loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wasilibs/go-re2"
)

// Kind distinguishes one-shot from recurring jobs.
type Kind string

const (
	KindRecurring Kind = "recurring"
	KindOneshot   Kind = "oneshot"
)

// State is the lifecycle state of a job.
type State string

const (
	StatePending   State = "pending"
	StateFired     State = "fired"
	StateCancelled State = "cancelled"
)

// Outcome is what a job action reports back to the store.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrNegativeDelay    = errors.New("delay must not be negative")
	ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM")
)

// Payload describes the email a job delivers.
type Payload struct {
	Recipient   string
	Subject     string
	Body        string
	Attachments []string
}

// Job is a snapshot of a scheduled delivery.
type Job struct {
	ID        string
	Kind      Kind
	Tag       string
	Owner     string    // user the job belongs to, empty for config-defined jobs
	TimeOfDay string    // HH:MM, recurring jobs only
	FireAt    time.Time // next instant the job is due
	Payload   Payload
	State     State
	CreatedAt time.Time
	Runs      int

	seq      uint64
	schedule cron.Schedule
}

// Due reports whether the job should fire at now.
func (j Job) Due(now time.Time) bool {
	return j.State == StatePending && !now.Before(j.FireAt)
}

// Runner executes a job's action.
type Runner interface {
	Run(ctx context.Context, job Job) (Outcome, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, job Job) (Outcome, error)

func (f RunnerFunc) Run(ctx context.Context, job Job) (Outcome, error) {
	return f(ctx, job)
}

// Clock abstracts time.Now so tests can simulate days.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

var timeOfDayPattern = re2.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ParseTimeOfDay validates "HH:MM" and returns a daily cron schedule for it.
func ParseTimeOfDay(s string) (cron.Schedule, error) {
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return nil, fmt.Errorf("build daily schedule: %w", err)
	}
	return sched, nil
}
