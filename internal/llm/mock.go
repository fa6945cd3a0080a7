package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mu            sync.Mutex
	responses     []string       // Pre-defined responses (rotates through them)
	script        []ChatResponse // Scripted responses, consumed in order
	responseIndex int            // Current index in responses
	mode          MockMode
	errorAfter    int // Number of successful calls before returning errors
	callCount     int
	requests      []ChatRequest
}

// MockMode defines the operation mode of the mock provider.
type MockMode int

const (
	// MockModeEcho returns the user's message (echo mode)
	MockModeEcho MockMode = iota

	// MockModeFixed returns a fixed response
	MockModeFixed

	// MockModeFixtures returns pre-defined responses in rotation
	MockModeFixtures

	// MockModeError always returns an error
	MockModeError

	// MockModeScript replays full responses, tool calls included, then
	// returns empty content once the script is exhausted.
	MockModeScript
)

// MockConfig holds configuration for the mock provider.
type MockConfig struct {
	Mode       MockMode
	Responses  []string
	Script     []ChatResponse
	ErrorAfter int
}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider(cfg MockConfig) *MockProvider {
	return &MockProvider{
		mode:       cfg.Mode,
		responses:  cfg.Responses,
		script:     cfg.Script,
		errorAfter: cfg.ErrorAfter,
	}
}

// NewEchoProvider creates a mock provider that echoes user messages.
func NewEchoProvider() *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeEcho})
}

// NewFixedProvider creates a mock provider that always returns a fixed response.
func NewFixedProvider(response string) *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeFixed, Responses: []string{response}})
}

// NewFixturesProvider creates a mock provider that cycles through pre-defined responses.
func NewFixturesProvider(responses []string) *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeFixtures, Responses: responses})
}

// NewErrorProvider creates a mock provider that always returns errors.
func NewErrorProvider() *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeError})
}

// NewScriptProvider creates a mock provider that replays script in order.
func NewScriptProvider(script ...ChatResponse) *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeScript, Script: script})
}

// Chat implements the Provider interface.
func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.requests = append(m.requests, cloneRequest(req))

	if m.errorAfter > 0 && m.callCount > m.errorAfter {
		return nil, fmt.Errorf("mock provider error after %d calls", m.errorAfter)
	}

	var userMessage string
	if len(req.Messages) > 0 {
		lastMsg := req.Messages[len(req.Messages)-1]
		if lastMsg.Role == RoleUser {
			userMessage = lastMsg.Content
		}
	}

	var response string
	switch m.mode {
	case MockModeError:
		return nil, fmt.Errorf("mock provider error")
	case MockModeScript:
		if len(m.script) == 0 {
			return &ChatResponse{Model: req.Model, FinishReason: FinishReasonStop}, nil
		}
		next := m.script[0]
		m.script = m.script[1:]
		if next.Model == "" {
			next.Model = req.Model
		}
		return &next, nil
	case MockModeEcho:
		if userMessage != "" {
			response = fmt.Sprintf("Echo: %s", userMessage)
		} else {
			response = "Echo: (no user message)"
		}
	case MockModeFixed:
		if len(m.responses) > 0 {
			response = m.responses[0]
		} else {
			response = "Fixed response: no responses configured"
		}
	case MockModeFixtures:
		if len(m.responses) > 0 {
			response = m.responses[m.responseIndex]
			m.responseIndex = (m.responseIndex + 1) % len(m.responses)
		} else {
			response = "Fixtures: no responses configured"
		}
	default:
		response = "Unknown mock mode"
	}

	return &ChatResponse{
		Content:      response,
		Model:        req.Model,
		FinishReason: FinishReasonStop,
		Usage: Usage{
			PromptTokens:     len(userMessage),
			CompletionTokens: len(response),
			TotalTokens:      len(userMessage) + len(response),
		},
	}, nil
}

// SupportsToolCalling implements the Provider interface.
// Only scripted mocks can produce tool calls.
func (m *MockProvider) SupportsToolCalling() bool {
	return m.mode == MockModeScript
}

// GetDefaultModel implements the Provider interface.
func (m *MockProvider) GetDefaultModel() string {
	return "mock-model"
}

// GetCallCount returns the number of Chat() calls made to this provider.
func (m *MockProvider) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, if any.
func (m *MockProvider) LastRequest() (ChatRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ChatRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// SetErrorAfter configures the provider to return errors after N calls.
func (m *MockProvider) SetErrorAfter(n int) {
	m.mu.Lock()
	m.errorAfter = n
	m.mu.Unlock()
}

// SetResponses sets the list of responses.
func (m *MockProvider) SetResponses(responses []string) {
	m.mu.Lock()
	m.responses = responses
	m.responseIndex = 0
	m.mu.Unlock()
}

func cloneRequest(req ChatRequest) ChatRequest {
	msgs := make([]Message, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	return req
}

// MockTranscriber returns a fixed transcript or error.
type MockTranscriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	paths []string
}

// Transcribe implements Transcriber.
func (t *MockTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	t.mu.Lock()
	t.paths = append(t.paths, audioPath)
	t.mu.Unlock()
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// Paths returns the audio files passed to Transcribe.
func (t *MockTranscriber) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.paths...)
}
