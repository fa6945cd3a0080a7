package app

import (
	"context"
	"fmt"

	"github.com/aatumaykin/mailbot/internal/app/builders"
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/commands"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/metrics"
)

// Initialize initializes all application components.
// It sets up the message bus, metrics, LLM provider, SMTP sender, job store,
// conversation engine, command handler and the Telegram connector.
func (a *App) Initialize(ctx context.Context) error {
	// 1. Create application context
	a.ctx, a.cancel = context.WithCancel(ctx)

	// 2. Metrics are always collected; the endpoint is optional
	a.metrics = metrics.New()

	// 3. Initialize message bus
	a.messageBus = bus.New(a.config.MessageBus.Capacity, a.logger)
	if err := a.messageBus.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start message bus: %w", err)
	}

	// 4. Initialize LLM provider and transcriber
	if a.provider == nil {
		provider, transcriber, err := builders.NewLLMBuilder(a.config, a.logger).Build()
		if err != nil {
			return fmt.Errorf("failed to create LLM provider: %w", err)
		}
		a.provider = provider
		if a.transcriber == nil {
			a.transcriber = transcriber
		}
	}

	// 5. Initialize SMTP sender
	if a.sender == nil {
		a.sender = builders.NewMailBuilder(a.config, a.logger).Build()
	}

	// 6. Initialize job store and scheduler loop
	store, loop, err := builders.NewSchedulerBuilder(a.config, a.logger.Component("scheduler"), a.metrics).Build(a.sender)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	a.store, a.loop = store, loop
	if a.store.Len() > 0 {
		a.loop.Start(a.ctx)
	}

	// 7. Initialize conversation components
	agentBuilder := builders.NewAgentBuilder(a.config, a.logger, a.provider, a.metrics)
	a.sessions = agentBuilder.BuildSessions()
	a.sessions.StartJanitor(a.ctx)

	a.engine, err = agentBuilder.BuildEngine(a.sessions, a.store, a.loop)
	if err != nil {
		return err
	}
	a.correlator = agentBuilder.BuildCorrelator(a.sessions, a.engine)

	// 8. Create command handler
	a.commandHandler = commands.NewHandler(
		a.sessions,
		a.store,
		a.messageBus,
		a.logger.Component("commands"),
		commands.Info{
			DefaultRecipient: a.config.Conversation.DefaultRecipient,
			LLMConfigured:    a.config.LLM.APIKey != "",
		},
	)

	// 9. Initialize the messaging channel
	factory := a.channelFactory
	if factory == nil {
		factory = func(ctx context.Context, mb *bus.MessageBus) (Channel, error) {
			tg, err := builders.NewTelegramBuilder(a.config, a.logger, mb).Build(ctx)
			if err != nil {
				return nil, err
			}
			return tg, nil
		}
	}
	a.channel, err = factory(a.ctx, a.messageBus)
	if err != nil {
		return err
	}

	// 10. Expose metrics if enabled
	if a.config.Metrics.Enabled {
		a.metricsServer = metrics.NewServer(a.config.Metrics.Listen, a.metrics, a.logger.Component("metrics"))
		a.metricsServer.Start()
	}

	// 11. Mark as started
	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	a.logger.Info("Application initialized",
		logger.Field{Key: "daily_jobs", Value: a.store.Len()},
		logger.Field{Key: "metrics", Value: a.config.Metrics.Enabled})

	return nil
}
