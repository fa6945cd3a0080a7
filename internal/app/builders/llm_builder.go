package builders

import (
	"fmt"

	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/logger"
)

type LLMBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewLLMBuilder(cfg *config.Config, log *logger.Logger) *LLMBuilder {
	return &LLMBuilder{
		config: cfg,
		logger: log,
	}
}

// Build returns the chat provider and the voice transcriber. Both talk to
// the same OpenAI-compatible endpoint.
func (b *LLMBuilder) Build() (llm.Provider, llm.Transcriber, error) {
	if b.config.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("llm.api_key is required")
	}

	openaiConfig := llm.OpenAIConfig{
		APIKey:             b.config.LLM.APIKey,
		BaseURL:            b.config.LLM.BaseURL,
		Model:              b.config.LLM.Model,
		TranscriptionModel: b.config.LLM.TranscriptionModel,
		TimeoutSeconds:     b.config.LLM.TimeoutSeconds,
	}
	provider := llm.NewOpenAIProvider(openaiConfig, b.logger)
	transcriber := llm.NewOpenAITranscriber(openaiConfig, b.logger)

	b.logger.Info("LLM provider initialized",
		logger.Field{Key: "provider", Value: "openai"},
		logger.Field{Key: "model", Value: provider.GetDefaultModel()})
	return provider, transcriber, nil
}
