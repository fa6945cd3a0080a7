package mail

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSender is a testify mock for Sender.
type MockSender struct {
	mock.Mock
}

// Send records the call and returns the configured error.
func (m *MockSender) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
