package builders

import (
	"fmt"

	agentcontext "github.com/aatumaykin/mailbot/internal/agent/context"
	"github.com/aatumaykin/mailbot/internal/agent/engine"
	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/attachment"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/metrics"
	"github.com/aatumaykin/mailbot/internal/scheduler"
	"github.com/aatumaykin/mailbot/internal/tools"
)

type AgentBuilder struct {
	config   *config.Config
	logger   *logger.Logger
	provider llm.Provider
	metrics  *metrics.Metrics
}

func NewAgentBuilder(cfg *config.Config, log *logger.Logger, provider llm.Provider, m *metrics.Metrics) *AgentBuilder {
	return &AgentBuilder{
		config:   cfg,
		logger:   log,
		provider: provider,
		metrics:  m,
	}
}

func (b *AgentBuilder) BuildSessions() *session.Manager {
	conv := b.config.Conversation
	return session.NewManager(session.Config{
		MaxHistory:   conv.MaxHistory,
		IdleTTL:      conv.IdleTTL(),
		DefaultEmail: conv.DefaultRecipient,
	}, b.logger.Component("sessions"), session.WithMetrics(b.metrics))
}

// BuildEngine wires the conversation engine to the job store. The engine
// starts loop on its first scheduled email.
func (b *AgentBuilder) BuildEngine(sessions *session.Manager, store *scheduler.Store, loop engine.LoopStarter) (*engine.Engine, error) {
	builder, err := agentcontext.NewBuilder(agentcontext.Config{
		PromptFile: b.config.Conversation.PromptFile,
		Now:        store.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context builder: %w", err)
	}

	eng, err := engine.New(engine.Config{
		Provider:    b.provider,
		Sessions:    sessions,
		Builder:     builder,
		Tools:       tools.NewDefaultRegistry(store.Now, b.config.Conversation.DefaultRecipient),
		Store:       store,
		Loop:        loop,
		Logger:      b.logger,
		Metrics:     b.metrics,
		Model:       b.config.LLM.Model,
		MaxTokens:   b.config.LLM.MaxTokens,
		Temperature: b.config.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation engine: %w", err)
	}
	return eng, nil
}

func (b *AgentBuilder) BuildCorrelator(sessions *session.Manager, planner attachment.Planner) *attachment.Correlator {
	return attachment.NewCorrelator(b.config.Conversation.AttachmentsDir, sessions, planner, b.logger)
}
