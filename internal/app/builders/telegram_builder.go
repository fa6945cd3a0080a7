package builders

import (
	"context"
	"fmt"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/channels/telegram"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/logger"
)

type TelegramBuilder struct {
	config     *config.Config
	logger     *logger.Logger
	messageBus *bus.MessageBus
}

func NewTelegramBuilder(cfg *config.Config, log *logger.Logger, mb *bus.MessageBus) *TelegramBuilder {
	return &TelegramBuilder{
		config:     cfg,
		logger:     log,
		messageBus: mb,
	}
}

// Build creates and starts the connector. The message bus must already be
// running.
func (b *TelegramBuilder) Build(ctx context.Context) (*telegram.Connector, error) {
	tg := telegram.New(
		b.config.Telegram,
		b.logger,
		b.messageBus,
	)
	if err := tg.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start telegram connector: %w", err)
	}

	if len(b.config.Telegram.AllowedUsers) == 0 {
		b.logger.Warn("telegram allow-list is empty, every user can talk to the bot")
	}
	return tg, nil
}
