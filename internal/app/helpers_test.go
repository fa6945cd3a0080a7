package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/mail"
)

const testTimeout = 2 * time.Second

var errFileNotFound = errors.New("file not found")

// Helper function to create test logger
func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	cfg := logger.Config{
		Level:  "info",
		Format: "text",
		Output: "discard",
	}
	log, err := logger.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return log
}

// Helper function to create test config
func createTestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		LLM: config.LLMConfig{
			APIKey: "sk-test-key",
			Model:  "test-model",
		},
		Conversation: config.ConversationConfig{
			DefaultRecipient: "biuro@example.com",
			MaxHistory:       10,
			IdleTTLMinutes:   30,
			AttachmentsDir:   t.TempDir(),
		},
		Scheduler: config.SchedulerConfig{
			PollIntervalSeconds: 3600,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "discard",
		},
		MessageBus: config.MessageBusConfig{
			Capacity: 100,
		},
	}
}

// fakeChannel serves files from memory.
type fakeChannel struct {
	mu      sync.Mutex
	files   map[string][]byte
	stopped int
}

func newFakeChannel(files map[string][]byte) *fakeChannel {
	return &fakeChannel{files: files}
}

func (c *fakeChannel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped++
	return nil
}

func (c *fakeChannel) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.files[fileID]
	if !ok {
		return nil, errFileNotFound
	}
	return data, nil
}

func (c *fakeChannel) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func channelOption(ch Channel) Option {
	return WithChannel(func(context.Context, *bus.MessageBus) (Channel, error) {
		return ch, nil
	})
}

func stop(content string) llm.ChatResponse {
	return llm.ChatResponse{Content: content, FinishReason: llm.FinishReasonStop}
}

// harness is an initialized App with message processing running and a
// subscription to everything it sends back.
type harness struct {
	app      *App
	channel  *fakeChannel
	sender   *mail.MockSender
	outbound <-chan bus.OutboundMessage
	events   <-chan bus.Event
}

func newHarness(t *testing.T, cfg *config.Config, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		channel: newFakeChannel(map[string][]byte{}),
		sender:  &mail.MockSender{},
	}
	opts = append([]Option{channelOption(h.channel), WithSender(h.sender)}, opts...)
	h.app = New(cfg, createTestLogger(t), opts...)

	if err := h.app.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	t.Cleanup(func() { _ = h.app.Shutdown() })

	h.outbound = h.app.messageBus.SubscribeOutbound(h.app.ctx)
	h.events = h.app.messageBus.SubscribeEvent(h.app.ctx)

	if err := h.app.StartMessageProcessing(h.app.ctx); err != nil {
		t.Fatalf("StartMessageProcessing() failed: %v", err)
	}
	return h
}

func (h *harness) send(t *testing.T, msg bus.InboundMessage) {
	t.Helper()
	if err := h.app.messageBus.PublishInbound(msg); err != nil {
		t.Fatalf("PublishInbound() failed: %v", err)
	}
}

func (h *harness) reply(t *testing.T) bus.OutboundMessage {
	t.Helper()
	select {
	case out := <-h.outbound:
		return out
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for outbound message")
		return bus.OutboundMessage{}
	}
}

func (h *harness) event(t *testing.T) bus.Event {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for event")
		return bus.Event{}
	}
}
