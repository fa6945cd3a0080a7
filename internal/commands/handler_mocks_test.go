package commands

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

// MockMessageBus records outbound messages.
type MockMessageBus struct {
	mu         sync.Mutex
	published  []bus.OutboundMessage
	publishErr error
}

func (m *MockMessageBus) PublishOutbound(msg bus.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, msg)
	return nil
}

// Last returns the most recent message; it fails the test when there is none.
func (m *MockMessageBus) Last(t *testing.T) bus.OutboundMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.published) == 0 {
		t.Fatal("no outbound message published")
	}
	return m.published[len(m.published)-1]
}

var errPublish = errors.New("bus is down")

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type testEnv struct {
	handler  *Handler
	bus      *MockMessageBus
	sessions *session.Manager
	store    *scheduler.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Nop()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	sessions := session.NewManager(session.Config{DefaultEmail: "biuro@example.com"}, log,
		session.WithClock(func() time.Time { return now }))
	store := scheduler.NewStore(scheduler.RunnerFunc(nil), log, scheduler.WithClock(fixedClock{now}))
	mb := &MockMessageBus{}

	return &testEnv{
		handler: NewHandler(sessions, store, mb, log, Info{
			DefaultRecipient: "biuro@example.com",
			LLMConfigured:    true,
		}),
		bus:      mb,
		sessions: sessions,
		store:    store,
	}
}
