package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is used when the config leaves the model empty.
	DefaultModel = openai.GPT3Dot5Turbo
	// DefaultTranscriptionModel is the speech-to-text model.
	DefaultTranscriptionModel = openai.Whisper1
	// DefaultRequestTimeout bounds a single API call.
	DefaultRequestTimeout = 60 * time.Second
)

// OpenAIConfig contains configuration for OpenAI-compatible providers.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string // optional, for OpenAI-compatible endpoints
	Model              string
	TranscriptionModel string
	TimeoutSeconds     int
}

func (c OpenAIConfig) client() *openai.Client {
	cfg := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIProvider implements Provider on top of the OpenAI chat completion API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// NewOpenAIProvider creates a new OpenAIProvider instance.
func NewOpenAIProvider(cfg OpenAIConfig, log *logger.Logger) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &OpenAIProvider{
		client: cfg.client(),
		model:  cfg.Model,
		logger: log,
	}
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	p.logger.DebugCtx(ctx, "Sending chat request",
		logger.Field{Key: "model", Value: model},
		logger.Field{Key: "messages_count", Value: len(req.Messages)},
		logger.Field{Key: "tools_count", Value: len(req.Tools)})

	resp, err := p.client.CreateChatCompletion(ctx, mapChatRequest(model, req))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", wrapAPIError(err))
	}

	out := mapChatResponse(resp)
	p.logger.DebugCtx(ctx, "LLM response",
		logger.Field{Key: "model", Value: out.Model},
		logger.Field{Key: "finish_reason", Value: string(out.FinishReason)},
		logger.Field{Key: "tool_calls_count", Value: len(out.ToolCalls)},
		logger.Field{Key: "content_length", Value: len(out.Content)})

	return out, nil
}

// SupportsToolCalling returns true: every supported chat model takes tools.
func (p *OpenAIProvider) SupportsToolCalling() bool {
	return true
}

// GetDefaultModel returns the configured model.
func (p *OpenAIProvider) GetDefaultModel() string {
	return p.model
}

func mapChatRequest(model string, req ChatRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		msgs = append(msgs, msg)
	}

	oaiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}

	for _, t := range req.Tools {
		oaiReq.Tools = append(oaiReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(oaiReq.Tools) > 0 {
		oaiReq.ToolChoice = "auto"
	}

	return oaiReq
}

func mapChatResponse(resp openai.ChatCompletionResponse) *ChatResponse {
	out := &ChatResponse{
		Model: resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if len(resp.Choices) == 0 {
		out.FinishReason = FinishReasonError
		return out
	}

	choice := resp.Choices[0]
	out.Content = choice.Message.Content
	out.FinishReason = FinishReason(choice.FinishReason)
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// wrapAPIError attaches the HTTP status of API failures so that retry
// classification does not depend on error text.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{Code: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{Code: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

// OpenAITranscriber implements Transcriber with the audio transcription API.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// NewOpenAITranscriber creates a transcriber sharing the provider config.
func NewOpenAITranscriber(cfg OpenAIConfig, log *logger.Logger) *OpenAITranscriber {
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = DefaultTranscriptionModel
	}
	return &OpenAITranscriber{
		client: cfg.client(),
		model:  cfg.TranscriptionModel,
		logger: log,
	}
}

// Transcribe uploads audioPath and returns the recognized text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", wrapAPIError(err))
	}

	t.logger.DebugCtx(ctx, "Transcription complete",
		logger.Field{Key: "model", Value: t.model},
		logger.Field{Key: "text_length", Value: len(resp.Text)})

	return resp.Text, nil
}
