package telegram

import (
	"context"

	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/mymmrac/telego"
)

// longPollTimeout is the server-side wait of a single getUpdates call, in seconds.
const longPollTimeout = 30

// LongPollManager handles long polling for Telegram updates.
type LongPollManager struct {
	connector *Connector
	logger    *logger.Logger
}

// NewLongPollManager creates a new long poll manager.
func NewLongPollManager(connector *Connector, logger *logger.Logger) *LongPollManager {
	return &LongPollManager{
		connector: connector,
		logger:    logger,
	}
}

// Start polls Telegram and hands every update to the update handler until
// ctx is cancelled or the update channel closes.
func (lpm *LongPollManager) Start(ctx context.Context) {
	lpm.logger.Info("starting long polling for telegram updates")

	updates, err := lpm.connector.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        longPollTimeout,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		lpm.logger.ErrorCtx(ctx, "failed to start long polling", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			lpm.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				lpm.logger.Info("updates channel closed")
				return
			}

			if err := lpm.connector.updateHandler.Handle(ctx, update); err != nil {
				lpm.logger.ErrorCtx(ctx, "failed to handle update", err)
			}
		}
	}
}
