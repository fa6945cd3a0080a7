package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) OpenAIConfig {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", TimeoutSeconds: 5}
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k"}, logger.Nop())
	assert.Equal(t, DefaultModel, p.GetDefaultModel())
	assert.True(t, p.SupportsToolCalling())
}

func TestOpenAIProvider_Chat(t *testing.T) {
	var got map[string]any
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "gpt-3.5-turbo",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "GOTOWE: a|b|c"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	})

	p := NewOpenAIProvider(cfg, logger.Nop())
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		MaxTokens:   100,
		Temperature: 0.5,
		Tools: []ToolDefinition{{
			Name:        "get_current_time",
			Description: "now",
			Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "GOTOWE: a|b|c", resp.Content)
	assert.Equal(t, FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	assert.Equal(t, "auto", got["tool_choice"])
	assert.Len(t, got["messages"], 2)
	assert.Len(t, got["tools"], 1)
}

func TestOpenAIProvider_ChatToolCalls(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "get_target_email", "arguments": "{}"}}]
				},
				"finish_reason": "tool_calls"
			}]
		}`))
	})

	p := NewOpenAIProvider(cfg, logger.Nop())
	resp, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.NoError(t, err)

	assert.Equal(t, FinishReasonToolCalls, resp.FinishReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_1", Name: "get_target_email", Arguments: "{}"}, resp.ToolCalls[0])
}

func TestOpenAIProvider_ChatNoChoices(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	resp, err := NewOpenAIProvider(cfg, logger.Nop()).Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
	assert.Equal(t, FinishReasonError, resp.FinishReason)
}

func TestOpenAIProvider_ChatStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			cfg := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "test"}}`))
			})

			_, err := NewOpenAIProvider(cfg, logger.Nop()).Chat(context.Background(), ChatRequest{})
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr), "got %v", err)
			assert.Equal(t, tt.status, statusErr.HTTPStatus())
			assert.Equal(t, tt.retryable, retry.IsRetryable(err))
		})
	}
}

func TestOpenAITranscriber_Transcribe(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, DefaultTranscriptionModel, r.FormValue("model"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "wyślij raport jutro o 9"}`))
	})

	audio := filepath.Join(t.TempDir(), "voice.ogg")
	require.NoError(t, os.WriteFile(audio, []byte("OggS"), 0o644))

	text, err := NewOpenAITranscriber(cfg, logger.Nop()).Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "wyślij raport jutro o 9", text)
}

func TestOpenAITranscriber_MissingFile(t *testing.T) {
	tr := NewOpenAITranscriber(OpenAIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, logger.Nop())
	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.ogg"))
	assert.Error(t, err)
}
