package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/mymmrac/telego"
)

// Telegram shows a chat action for about five seconds.
const defaultTypingInterval = 4 * time.Second

// TypingManager handles typing indicator logic for Telegram connector.
type TypingManager struct {
	bot          BotInterface
	logger       *logger.Logger
	ctx          context.Context
	interval     time.Duration
	typingLock   sync.Mutex
	typingCancel map[int64]context.CancelFunc
}

// NewTypingManager creates a new typing manager.
func NewTypingManager(bot BotInterface, logger *logger.Logger) *TypingManager {
	return &TypingManager{
		bot:          bot,
		logger:       logger,
		interval:     defaultTypingInterval,
		typingCancel: make(map[int64]context.CancelFunc),
	}
}

// SetContext sets the context for the typing manager.
func (tm *TypingManager) SetContext(ctx context.Context) {
	tm.ctx = ctx
}

// Start starts a periodic typing indicator for the event's chat. A chat that
// is already typing is left alone.
func (tm *TypingManager) Start(event bus.Event) {
	ctx := tm.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	tm.typingLock.Lock()
	if _, exists := tm.typingCancel[event.ChatID]; exists {
		tm.typingLock.Unlock()
		return
	}
	typingCtx, cancel := context.WithCancel(ctx)
	tm.typingCancel[event.ChatID] = cancel
	tm.typingLock.Unlock()

	go func() {
		ticker := time.NewTicker(tm.interval)
		defer ticker.Stop()

		tm.Send(typingCtx, event)

		for {
			select {
			case <-typingCtx.Done():
				return
			case <-ticker.C:
				tm.Send(typingCtx, event)
			}
		}
	}()
}

// Stop stops the typing indicator for the event's chat.
func (tm *TypingManager) Stop(event bus.Event) {
	tm.typingLock.Lock()
	defer tm.typingLock.Unlock()

	if cancel, exists := tm.typingCancel[event.ChatID]; exists {
		cancel()
		delete(tm.typingCancel, event.ChatID)
	}
}

// StopAll stops all typing indicators.
func (tm *TypingManager) StopAll() {
	tm.typingLock.Lock()
	defer tm.typingLock.Unlock()

	for chatID, cancel := range tm.typingCancel {
		cancel()
		delete(tm.typingCancel, chatID)
	}
}

// Active reports how many chats currently show the indicator.
func (tm *TypingManager) Active() int {
	tm.typingLock.Lock()
	defer tm.typingLock.Unlock()
	return len(tm.typingCancel)
}

// Send sends a single typing indicator to the event's chat.
func (tm *TypingManager) Send(ctx context.Context, event bus.Event) {
	if tm.bot == nil {
		tm.logger.WarnCtx(ctx, "bot is nil, skipping typing indicator")
		return
	}

	err := tm.bot.SendChatAction(ctx, &telego.SendChatActionParams{
		ChatID: telego.ChatID{ID: event.ChatID},
		Action: telego.ChatActionTyping,
	})
	if err != nil {
		if ctx.Err() == nil {
			tm.logger.ErrorCtx(ctx, "failed to send typing indicator", err,
				logger.Field{Key: "chat_id", Value: event.ChatID})
		}
		return
	}

	tm.logger.DebugCtx(ctx, "typing indicator sent",
		logger.Field{Key: "chat_id", Value: event.ChatID},
		logger.Field{Key: "user_id", Value: event.UserID})
}
