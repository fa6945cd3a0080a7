package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/mymmrac/telego"
)

// UpdateHandler handles processing of Telegram updates.
type UpdateHandler struct {
	connector *Connector
	logger    *logger.Logger
	bus       *bus.MessageBus
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(connector *Connector, logger *logger.Logger, bus *bus.MessageBus) *UpdateHandler {
	return &UpdateHandler{
		connector: connector,
		logger:    logger,
		bus:       bus,
	}
}

// Handle converts a Telegram update into an inbound message and publishes it
// to the message bus. Updates that carry nothing the bot understands are
// dropped silently.
func (uh *UpdateHandler) Handle(ctx context.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	inbound, ok := toInbound(msg)
	if !ok {
		uh.logger.DebugCtx(ctx, "unsupported message skipped",
			logger.Field{Key: "message_id", Value: msg.MessageID})
		return nil
	}

	if !uh.connector.isAllowedUser(inbound.UserID) {
		uh.logger.WarnCtx(ctx, "message blocked - user not in whitelist",
			logger.Field{Key: "user_id", Value: inbound.UserID},
			logger.Field{Key: "username", Value: msg.From.Username})
		uh.connector.notify(inbound.ChatID, ReplyUnauthorized)
		return nil
	}

	if !uh.connector.limiter.Allow(inbound.UserID) {
		uh.logger.WarnCtx(ctx, "message rate limited",
			logger.Field{Key: "user_id", Value: inbound.UserID})
		uh.connector.notify(inbound.ChatID, ReplyRateLimited)
		return nil
	}

	if err := uh.bus.PublishInbound(inbound); err != nil {
		return fmt.Errorf("failed to publish inbound message: %w", err)
	}

	uh.logger.DebugCtx(ctx, "inbound message published",
		logger.Field{Key: "user_id", Value: inbound.UserID},
		logger.Field{Key: "kind", Value: inbound.Kind})

	return nil
}

// toInbound maps a Telegram message onto the bus representation.
func toInbound(msg *telego.Message) (bus.InboundMessage, bool) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch {
	case strings.HasPrefix(msg.Text, "/"):
		command, args := parseCommand(msg.Text)
		if command == "" {
			return bus.NewTextMessage(userID, chatID, msg.Text), true
		}
		return bus.NewCommandMessage(userID, chatID, command, args), true
	case msg.Text != "":
		return bus.NewTextMessage(userID, chatID, msg.Text), true
	case msg.Voice != nil:
		return bus.NewVoiceMessage(userID, chatID, msg.Voice.FileID), true
	case msg.Document != nil:
		return bus.NewDocumentMessage(userID, chatID, msg.Document.FileID, msg.Document.FileName, msg.Document.FileSize), true
	}
	return bus.InboundMessage{}, false
}

// parseCommand splits "/set@my_bot jan@example.com" into "set" and its
// arguments. The command name is lower-cased.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	command := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}
	return strings.ToLower(command), fields[1:]
}
