package builders

import (
	"context"
	"fmt"
	"strings"

	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/mail"
	"github.com/aatumaykin/mailbot/internal/metrics"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

type SchedulerBuilder struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	opts    []scheduler.Option
}

func NewSchedulerBuilder(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, opts ...scheduler.Option) *SchedulerBuilder {
	return &SchedulerBuilder{
		config:  cfg,
		logger:  log,
		metrics: m,
		opts:    opts,
	}
}

// Build creates the job store delivering through sender, registers the
// daily jobs from config and returns the loop driving the store. The loop
// is not started.
func (b *SchedulerBuilder) Build(sender mail.Sender) (*scheduler.Store, *scheduler.Loop, error) {
	opts := append([]scheduler.Option{scheduler.WithMetrics(b.metrics)}, b.opts...)
	store := scheduler.NewStore(DeliveryRunner(sender), b.logger, opts...)

	for i, daily := range b.config.Scheduler.Daily {
		recipient := daily.Recipient
		if recipient == "" {
			recipient = b.config.Conversation.DefaultRecipient
		}
		if _, err := store.ScheduleRecurring(daily.Time, DailyTag(i, daily.Time), scheduler.Payload{
			Recipient: recipient,
			Subject:   daily.Subject,
			Body:      daily.Body,
		}); err != nil {
			return nil, nil, fmt.Errorf("failed to register daily job %d: %w", i, err)
		}
	}

	loop := scheduler.NewLoop(store, b.config.Scheduler.PollInterval(), b.logger)
	return store, loop, nil
}

// DailyTag names the i-th configured daily job.
func DailyTag(i int, timeOfDay string) string {
	return fmt.Sprintf("daily_%d_%s", i, strings.ReplaceAll(timeOfDay, ":", ""))
}

// DeliveryRunner turns a fired job into one email. Delivery errors are
// reported as failed outcomes and never retried.
func DeliveryRunner(sender mail.Sender) scheduler.RunnerFunc {
	return func(ctx context.Context, job scheduler.Job) (scheduler.Outcome, error) {
		err := sender.Send(ctx, mail.Message{
			To:          job.Payload.Recipient,
			Subject:     job.Payload.Subject,
			Body:        job.Payload.Body,
			Attachments: job.Payload.Attachments,
		})
		if err != nil {
			return scheduler.OutcomeFailed, fmt.Errorf("failed to deliver email to %s: %w", job.Payload.Recipient, err)
		}
		return scheduler.OutcomeDelivered, nil
	}
}
