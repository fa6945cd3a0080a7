// Package app provides the main application structure for Mailbot.
// It coordinates all components including the message bus, the Telegram
// channel, the conversation engine, the email scheduler and command handlers.
package app

import (
	"context"
	"sync"

	"github.com/aatumaykin/mailbot/internal/agent/engine"
	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/attachment"
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/commands"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/mail"
	"github.com/aatumaykin/mailbot/internal/metrics"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

// Channel is the messaging transport the bot talks through. It is started
// by its factory and consumes outbound replies from the message bus.
type Channel interface {
	Stop() error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// ChannelFactory creates and starts a Channel on a running message bus.
type ChannelFactory func(ctx context.Context, mb *bus.MessageBus) (Channel, error)

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	// Configuration and core services
	config *config.Config
	logger *logger.Logger

	// Communication infrastructure
	messageBus *bus.MessageBus

	// Observability
	metrics       *metrics.Metrics
	metricsServer *metrics.Server

	// External capabilities
	provider    llm.Provider
	transcriber llm.Transcriber
	sender      mail.Sender

	// Scheduling
	store *scheduler.Store
	loop  *scheduler.Loop

	// Conversation
	sessions       *session.Manager
	engine         *engine.Engine
	correlator     *attachment.Correlator
	commandHandler *commands.Handler

	// Channels
	channel        Channel
	channelFactory ChannelFactory

	// Context management
	ctx        context.Context
	cancel     context.CancelFunc
	processing sync.WaitGroup

	// Thread-safety
	mu      sync.RWMutex
	started bool
}

// Option overrides a collaborator that Initialize would otherwise build
// from config.
type Option func(*App)

// WithProvider sets the LLM provider.
func WithProvider(p llm.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithTranscriber sets the voice transcriber.
func WithTranscriber(t llm.Transcriber) Option {
	return func(a *App) { a.transcriber = t }
}

// WithSender sets the email sender.
func WithSender(s mail.Sender) Option {
	return func(a *App) { a.sender = s }
}

// WithChannel replaces the Telegram connector.
func WithChannel(f ChannelFactory) Option {
	return func(a *App) { a.channelFactory = f }
}

// New creates a new App instance with the provided configuration and logger.
// Components are created in Initialize.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *App {
	a := &App{
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until the context is cancelled.
// It performs the following steps:
//  1. Initializes all components via Initialize()
//  2. Starts message processing via StartMessageProcessing()
//  3. Waits for the context to be cancelled
//  4. Performs graceful shutdown via Shutdown()
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		a.shutdownPartial()
		return err
	}

	if err := a.StartMessageProcessing(a.ctx); err != nil {
		_ = a.Shutdown()
		return err
	}

	a.logger.Info("Application is running")

	<-ctx.Done()

	return a.Shutdown()
}

// IsStarted reports whether Initialize completed and Shutdown has not run.
func (a *App) IsStarted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.started
}

// Store returns the job store, or nil before Initialize.
func (a *App) Store() *scheduler.Store {
	return a.store
}

// Sessions returns the session manager, or nil before Initialize.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}
