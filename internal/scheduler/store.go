package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/metrics"
	"github.com/google/uuid"
)

// Result reports what happened to one job during a Tick.
type Result struct {
	JobID   string
	Tag     string
	Kind    Kind
	Outcome Outcome
	Err     error
}

// Store is the in-memory job registry. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	nextSeq uint64

	runner  Runner
	clock   Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates an empty store whose jobs are executed by runner.
func NewStore(runner Runner, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		jobs:   make(map[string]*Job),
		runner: runner,
		clock:  SystemClock{},
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// ScheduleRecurring registers a job due every day at timeOfDay ("HH:MM").
func (s *Store) ScheduleRecurring(timeOfDay, tag string, payload Payload) (string, error) {
	sched, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	job := &Job{
		Kind:      KindRecurring,
		Tag:       tag,
		TimeOfDay: timeOfDay,
		FireAt:    sched.Next(now),
		Payload:   payload,
		schedule:  sched,
	}
	s.add(job, now)

	s.logger.Info("recurring job scheduled",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "tag", Value: tag},
		logger.Field{Key: "time_of_day", Value: timeOfDay},
		logger.Field{Key: "next_run", Value: job.FireAt})

	return job.ID, nil
}

// ScheduleOnce registers a job due once, delay from now. The caller resolves
// the target instant; delay must not be negative.
func (s *Store) ScheduleOnce(delay time.Duration, tag, owner string, payload Payload) (string, error) {
	if delay < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegativeDelay, delay)
	}

	now := s.clock.Now()
	job := &Job{
		Kind:    KindOneshot,
		Tag:     tag,
		Owner:   owner,
		FireAt:  now.Add(delay),
		Payload: payload,
	}
	s.add(job, now)

	s.logger.Info("one-shot job scheduled",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "tag", Value: tag},
		logger.Field{Key: "owner", Value: owner},
		logger.Field{Key: "fire_at", Value: job.FireAt},
		logger.Field{Key: "recipient", Value: payload.Recipient})

	return job.ID, nil
}

func (s *Store) add(job *Job, now time.Time) {
	job.ID = uuid.NewString()
	job.State = StatePending
	job.CreatedAt = now

	s.mu.Lock()
	s.nextSeq++
	job.seq = s.nextSeq
	s.jobs[job.ID] = job
	pending := s.pendingLocked()
	s.mu.Unlock()

	s.metrics.JobScheduled(string(job.Kind))
	s.metrics.SetJobsPending(pending)
}

// Cancel removes every job carrying tag and returns how many were removed.
func (s *Store) Cancel(tag string) int {
	return s.CancelWhere(func(j Job) bool { return j.Tag == tag })
}

// CancelOwner removes every job that belongs to owner.
func (s *Store) CancelOwner(owner string) int {
	return s.CancelWhere(func(j Job) bool { return owner != "" && j.Owner == owner })
}

// CancelWhere removes the pending jobs matching pred. A one-shot job that
// is already running cannot be cancelled and is not counted.
func (s *Store) CancelWhere(pred func(Job) bool) int {
	s.mu.Lock()
	removed := 0
	for id, job := range s.jobs {
		if job.State == StateFired {
			continue
		}
		if pred(*job) {
			job.State = StateCancelled
			delete(s.jobs, id)
			removed++
		}
	}
	pending := s.pendingLocked()
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.SetJobsPending(pending)
		s.logger.Info("jobs cancelled", logger.Field{Key: "count", Value: removed})
	}
	return removed
}

// Get returns a snapshot of the job with the given id.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of the pending jobs in registration order. One-shot
// jobs that are being delivered are left out.
func (s *Store) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedLocked(func(j *Job) bool { return j.State == StatePending })
}

// Len returns the number of pending jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Store) pendingLocked() int {
	n := 0
	for _, job := range s.jobs {
		if job.State == StatePending {
			n++
		}
	}
	return n
}

func (s *Store) sortedLocked(keep func(*Job) bool) []Job {
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if keep(job) {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].seq < out[k].seq })
	return out
}

// Tick fires every due job in registration order. One-shot jobs are removed
// once their action returns, whatever the outcome; recurring jobs move on to
// their next daily slot. A job cancelled while an earlier one in the same
// batch is still running is skipped.
func (s *Store) Tick(ctx context.Context) []Result {
	now := s.clock.Now()

	s.mu.Lock()
	due := s.sortedLocked(func(j *Job) bool { return j.Due(now) })
	s.mu.Unlock()

	if len(due) == 0 {
		return nil
	}

	results := make([]Result, 0, len(due))
	for _, snap := range due {
		job, ok := s.claim(snap.ID, now)
		if !ok {
			s.logger.DebugCtx(ctx, "skipping cancelled job",
				logger.Field{Key: "job_id", Value: snap.ID},
				logger.Field{Key: "tag", Value: snap.Tag})
			continue
		}
		if job.Kind == KindOneshot {
			s.metrics.SetJobsPending(s.Len())
		}

		outcome, err := s.execute(ctx, job)
		results = append(results, Result{
			JobID:   job.ID,
			Tag:     job.Tag,
			Kind:    job.Kind,
			Outcome: outcome,
			Err:     err,
		})

		if job.Kind == KindOneshot {
			s.mu.Lock()
			delete(s.jobs, job.ID)
			s.mu.Unlock()
		}
	}

	s.metrics.SetJobsPending(s.Len())
	return results
}

// claim marks a due job as running and returns its snapshot. It fails when
// the job has been cancelled since the batch was collected.
func (s *Store) claim(id string, now time.Time) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.State != StatePending {
		return Job{}, false
	}

	snap := *job
	job.Runs++
	switch job.Kind {
	case KindOneshot:
		job.State = StateFired
	case KindRecurring:
		job.FireAt = job.schedule.Next(now)
	}
	return snap, true
}

// execute runs a single job, converting panics into failed outcomes.
func (s *Store) execute(ctx context.Context, job Job) (outcome Outcome, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFailed
			err = fmt.Errorf("job panic: %v", r)
		}

		fields := []logger.Field{
			{Key: "job_id", Value: job.ID},
			{Key: "tag", Value: job.Tag},
			{Key: "kind", Value: job.Kind},
			{Key: "outcome", Value: outcome.String()},
			{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
		}
		if err != nil || outcome == OutcomeFailed {
			s.logger.ErrorCtx(ctx, "job failed", err, fields...)
		} else {
			s.logger.InfoCtx(ctx, "job fired", fields...)
		}
		s.metrics.JobFired(outcome.String(), time.Since(start))
	}()

	outcome, err = s.runner.Run(ctx, job)
	if err != nil {
		outcome = OutcomeFailed
	}
	return outcome, err
}
