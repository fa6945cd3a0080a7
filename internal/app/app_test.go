package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/llm"
)

func TestNew(t *testing.T) {
	cfg := createTestConfig(t)
	log := createTestLogger(t)
	provider := llm.NewEchoProvider()

	app := New(cfg, log, WithProvider(provider))

	if app.config != cfg {
		t.Error("config not set")
	}
	if app.logger != log {
		t.Error("logger not set")
	}
	if app.provider != provider {
		t.Error("provider option not applied")
	}
	if app.IsStarted() {
		t.Error("new app must not be started")
	}
}

func TestApp_Initialize(t *testing.T) {
	h := newHarness(t, createTestConfig(t), WithProvider(llm.NewEchoProvider()))

	if !h.app.IsStarted() {
		t.Fatal("app not started after Initialize")
	}
	if h.app.Store().Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", h.app.Store().Len())
	}
	if h.app.loop.Running() {
		t.Error("loop must stay idle without jobs")
	}
	if h.app.Sessions() == nil {
		t.Error("sessions not initialized")
	}
	if h.app.transcriber != nil {
		t.Error("transcriber must stay nil when only a provider is injected")
	}
}

func TestApp_Initialize_DailyJobsStartLoop(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Scheduler.Daily = []config.DailyJob{{Time: "08:00", Subject: "Raport"}}

	h := newHarness(t, cfg, WithProvider(llm.NewEchoProvider()))

	if h.app.Store().Len() != 1 {
		t.Fatalf("store.Len() = %d, want 1", h.app.Store().Len())
	}
	if !h.app.loop.Running() {
		t.Error("loop must run when daily jobs exist")
	}
	if got := h.app.Store().List()[0].Payload.Recipient; got != "biuro@example.com" {
		t.Errorf("daily recipient = %q, want default", got)
	}
}

func TestApp_Initialize_BuildsOpenAIProvider(t *testing.T) {
	h := newHarness(t, createTestConfig(t))

	if h.app.provider == nil || h.app.transcriber == nil {
		t.Fatal("provider and transcriber must be built from config")
	}
	if h.app.provider.GetDefaultModel() != "test-model" {
		t.Errorf("model = %q", h.app.provider.GetDefaultModel())
	}
}

func TestApp_Run_MissingAPIKey(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.LLM.APIKey = ""
	app := New(cfg, createTestLogger(t), channelOption(newFakeChannel(nil)))

	err := app.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error without api key")
	}
	if !strings.Contains(err.Error(), "failed to create LLM provider") {
		t.Errorf("error = %v", err)
	}
	if app.IsStarted() {
		t.Error("app must not be started after failed Initialize")
	}
	if app.messageBus.IsStarted() {
		t.Error("message bus left running after failed Initialize")
	}
}

func TestApp_Run_ChannelError(t *testing.T) {
	errConnect := errors.New("telegram unreachable")
	app := New(createTestConfig(t), createTestLogger(t),
		WithProvider(llm.NewEchoProvider()),
		WithChannel(func(context.Context, *bus.MessageBus) (Channel, error) {
			return nil, errConnect
		}))

	err := app.Run(context.Background())
	if !errors.Is(err, errConnect) {
		t.Fatalf("Run() error = %v, want %v", err, errConnect)
	}
	if app.messageBus.IsStarted() {
		t.Error("message bus left running after failed Initialize")
	}
}

func TestApp_Run_UntilCancelled(t *testing.T) {
	channel := newFakeChannel(nil)
	app := New(createTestConfig(t), createTestLogger(t),
		WithProvider(llm.NewEchoProvider()), channelOption(channel))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.Now().Add(testTimeout)
	for !app.IsStarted() {
		if time.Now().After(deadline) {
			t.Fatal("app did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("Run() did not return after cancel")
	}
	if channel.Stops() != 1 {
		t.Errorf("channel stopped %d times, want 1", channel.Stops())
	}
}
