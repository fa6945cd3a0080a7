package app

import (
	"testing"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/llm"
)

func TestApp_Shutdown_NotStarted(t *testing.T) {
	app := New(createTestConfig(t), createTestLogger(t))

	if err := app.Shutdown(); err != nil {
		t.Errorf("Shutdown() on a new app = %v", err)
	}
}

func TestApp_Shutdown_StopsComponents(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Scheduler.Daily = []config.DailyJob{{Time: "08:00", Subject: "Raport"}}
	h := newHarness(t, cfg, WithProvider(llm.NewEchoProvider()))

	if err := h.app.Shutdown(); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if h.app.IsStarted() {
		t.Error("app still marked as started")
	}
	if h.app.loop.Running() {
		t.Error("scheduler loop still running")
	}
	if h.app.messageBus.IsStarted() {
		t.Error("message bus still running")
	}
	if h.channel.Stops() != 1 {
		t.Errorf("channel stopped %d times, want 1", h.channel.Stops())
	}
	if h.app.ctx.Err() == nil {
		t.Error("application context not cancelled")
	}
	if err := h.app.messageBus.PublishInbound(bus.NewTextMessage(1, 1, "x")); err == nil {
		t.Error("publishing after shutdown must fail")
	}
}

func TestApp_Shutdown_Idempotent(t *testing.T) {
	h := newHarness(t, createTestConfig(t), WithProvider(llm.NewEchoProvider()))

	for i := 0; i < 3; i++ {
		if err := h.app.Shutdown(); err != nil {
			t.Fatalf("Shutdown() #%d failed: %v", i+1, err)
		}
	}
	if h.app.channel.(*fakeChannel).Stops() != 1 {
		t.Errorf("channel stopped %d times, want 1", h.channel.Stops())
	}
}

func TestApp_Shutdown_Concurrent(t *testing.T) {
	h := newHarness(t, createTestConfig(t), WithProvider(llm.NewEchoProvider()))

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() { errs <- h.app.Shutdown() }()
	}
	for i := 0; i < 5; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Shutdown() failed: %v", err)
		}
	}
	if h.channel.Stops() != 1 {
		t.Errorf("channel stopped %d times, want 1", h.channel.Stops())
	}
}
