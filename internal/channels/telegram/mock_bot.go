package telegram

import (
	"context"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/mock"
)

// MockBot is a mock implementation of BotInterface for testing.
// It uses testify/mock to record and verify method calls.
type MockBot struct {
	mock.Mock
}

func (m *MockBot) GetMe(ctx context.Context) (*telego.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telego.User), args.Error(1)
}

func (m *MockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telego.Message), args.Error(1)
}

func (m *MockBot) SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, opts ...telego.LongPollingOption) (<-chan telego.Update, error) {
	args := m.Called(ctx, params, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(chan telego.Update), args.Error(1)
}

func (m *MockBot) SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) GetFile(ctx context.Context, params *telego.GetFileParams) (*telego.File, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telego.File), args.Error(1)
}

func (m *MockBot) FileDownloadURL(filepath string) string {
	args := m.Called(filepath)
	if fn, ok := args.Get(0).(func(string) string); ok {
		return fn(filepath)
	}
	return args.String(0)
}

// NewMockBotSuccess creates a MockBot that returns success for all operations.
// All expectations are optional (.Maybe()), so only called methods are checked.
func NewMockBotSuccess() *MockBot {
	mockBot := new(MockBot)

	mockBot.On("GetMe", mock.Anything).Return(&telego.User{
		ID:        123456789,
		FirstName: "Test",
		Username:  "mail_test_bot",
	}, nil).Maybe()

	mockBot.On("SendMessage", mock.Anything, mock.Anything).Return(&telego.Message{
		MessageID: 1,
		Text:      "test message",
	}, nil).Maybe()

	mockBot.On("SetMyCommands", mock.Anything, mock.Anything).Return(nil).Maybe()
	mockBot.On("SendChatAction", mock.Anything, mock.Anything).Return(nil).Maybe()

	return mockBot
}

// NewMockBotError creates a MockBot that returns the specified error for all operations.
func NewMockBotError(err error) *MockBot {
	mockBot := new(MockBot)

	mockBot.On("GetMe", mock.Anything).Return((*telego.User)(nil), err).Maybe()
	mockBot.On("SendMessage", mock.Anything, mock.Anything).Return((*telego.Message)(nil), err).Maybe()
	mockBot.On("SetMyCommands", mock.Anything, mock.Anything).Return(err).Maybe()
	mockBot.On("SendChatAction", mock.Anything, mock.Anything).Return(err).Maybe()
	mockBot.On("GetFile", mock.Anything, mock.Anything).Return((*telego.File)(nil), err).Maybe()

	return mockBot
}

// NewMockBotWithUpdates creates a MockBot whose long polling yields updates
// and then closes the channel.
func NewMockBotWithUpdates(updates ...telego.Update) *MockBot {
	mockBot := NewMockBotSuccess()

	updateCh := make(chan telego.Update, len(updates))
	for _, update := range updates {
		updateCh <- update
	}
	close(updateCh)

	mockBot.On("UpdatesViaLongPolling", mock.Anything, mock.Anything, mock.Anything).Return(updateCh, nil)

	return mockBot
}
