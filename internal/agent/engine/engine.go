// Package engine turns one user message into one bot reply: it asks the LLM,
// runs at most one round of tool calls, decodes the response protocol and
// dispatches the resulting action.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	agentcontext "github.com/aatumaykin/mailbot/internal/agent/context"
	"github.com/aatumaykin/mailbot/internal/agent/protocol"
	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/metrics"
	"github.com/aatumaykin/mailbot/internal/retry"
	"github.com/aatumaykin/mailbot/internal/scheduler"
	"github.com/aatumaykin/mailbot/internal/tools"
)

// Fixed replies.
const (
	ReplyEmptyMessage = "Nie otrzymalem zadnej wiadomosci. Napisz cos lub nagraj wiadomosc glosowa."
	ReplyNoAnswer     = "Nie otrzymalem odpowiedzi od AI. Sprobuj ponownie."
	ReplyApology      = "Przepraszam, wystapil blad podczas analizy wiadomosci. Sprobuj ponownie."
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// LoopStarter starts the scheduler loop. Start must be idempotent.
type LoopStarter interface {
	Start(ctx context.Context) bool
}

// Config holds the engine's collaborators and request settings.
type Config struct {
	Provider llm.Provider
	Sessions *session.Manager
	Builder  *agentcontext.Builder
	Tools    *tools.Registry
	Store    *scheduler.Store
	Loop     LoopStarter
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	Model       string
	MaxTokens   int
	Temperature float64
	ToolTimeout time.Duration
	Retry       retry.Config
}

// Engine is the conversation engine. Process is meant to be called from a
// single goroutine; the collaborators it shares with the scheduler are safe
// for concurrent use.
type Engine struct {
	provider llm.Provider
	sessions *session.Manager
	builder  *agentcontext.Builder
	tools    *tools.Registry
	store    *scheduler.Store
	loop     LoopStarter
	logger   *logger.Logger
	metrics  *metrics.Metrics
	cfg      Config
}

// New validates cfg and creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("LLM provider cannot be nil")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if cfg.Builder == nil {
		return nil, fmt.Errorf("context builder cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("job store cannot be nil")
	}
	if cfg.Loop == nil {
		return nil, fmt.Errorf("scheduler loop cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Tools == nil {
		cfg.Tools = tools.NewRegistry()
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.GetDefaultModel()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	return &Engine{
		provider: cfg.Provider,
		sessions: cfg.Sessions,
		builder:  cfg.Builder,
		tools:    cfg.Tools,
		store:    cfg.Store,
		loop:     cfg.Loop,
		logger:   cfg.Logger.Component("engine"),
		metrics:  cfg.Metrics,
		cfg:      cfg,
	}, nil
}

// Process handles one text message from userID and returns the reply.
// Failures never escape: they are logged and answered with a fixed reply.
func (e *Engine) Process(ctx context.Context, userID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ReplyEmptyMessage
	}

	sess := e.sessions.Get(userID)
	sess.Append(llm.RoleUser, text)

	e.logger.DebugCtx(ctx, "processing user message",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "message_length", Value: len(text)})

	answer, err := e.complete(ctx, sess)
	if err != nil {
		e.logger.ErrorCtx(ctx, "failed to get LLM response", err,
			logger.Field{Key: "user_id", Value: userID})
		return ReplyApology
	}
	if strings.TrimSpace(answer) == "" {
		e.logger.WarnCtx(ctx, "empty LLM response", logger.Field{Key: "user_id", Value: userID})
		return ReplyNoAnswer
	}

	sess.Append(llm.RoleAssistant, answer)
	return e.dispatch(ctx, sess, protocol.Parse(answer))
}

// complete asks the LLM for the final answer. When the first response
// requests tools, they are executed and the model is asked once more without
// tools. Tool round trips are not recorded in the session.
func (e *Engine) complete(ctx context.Context, sess *session.Session) (string, error) {
	target := sess.TargetEmail()
	ctx = tools.WithTargetEmail(ctx, target)

	messages, err := e.builder.BuildMessages(target, sess.Messages())
	if err != nil {
		return "", fmt.Errorf("failed to build context: %w", err)
	}

	req := llm.ChatRequest{
		Messages:    messages,
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	}
	if e.provider.SupportsToolCalling() {
		req.Tools = e.tools.ToSchema()
	}

	resp, err := e.chat(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.ToolCalls) == 0 {
		return resp.Content, nil
	}

	e.logger.DebugCtx(ctx, "LLM requested tool calls",
		logger.Field{Key: "tool_call_count", Value: len(resp.ToolCalls)})

	req.Messages = append(req.Messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})
	for _, tc := range resp.ToolCalls {
		result := e.executeTool(ctx, tc)
		req.Messages = append(req.Messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    result.Text(),
			ToolCallID: tc.ID,
		})
	}
	req.Tools = nil

	resp, err = e.chat(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (e *Engine) chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := retry.Do(ctx, e.logger, e.cfg.Retry, func(ctx context.Context) (*llm.ChatResponse, error) {
		return e.provider.Chat(ctx, req)
	})
	if err != nil {
		e.metrics.LLMRequest("error")
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	e.metrics.LLMRequest("ok")

	e.logger.DebugCtx(ctx, "LLM response received",
		logger.Field{Key: "finish_reason", Value: resp.FinishReason},
		logger.Field{Key: "content_length", Value: len(resp.Content)},
		logger.Field{Key: "tool_calls_count", Value: len(resp.ToolCalls)})
	return resp, nil
}

func (e *Engine) executeTool(ctx context.Context, tc llm.ToolCall) tools.Result {
	start := time.Now()
	result := e.tools.Execute(ctx, tc, e.cfg.ToolTimeout)
	duration := time.Since(start)

	if result.Err != nil {
		fields := append([]logger.Field{
			{Key: "tool_name", Value: tc.Name},
			{Key: "tool_call_id", Value: tc.ID},
			{Key: "duration_ms", Value: duration.Milliseconds()},
		}, result.Err.LogFields()...)
		e.logger.WarnCtx(ctx, "tool execution failed", fields...)
		return result
	}

	e.logger.DebugCtx(ctx, "tool execution completed",
		logger.Field{Key: "tool_name", Value: tc.Name},
		logger.Field{Key: "tool_call_id", Value: tc.ID},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()})
	return result
}
