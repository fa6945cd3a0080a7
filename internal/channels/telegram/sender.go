package telegram

import (
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/mymmrac/telego"
)

// prepareMessage builds send parameters for an outbound message.
func prepareMessage(msg bus.OutboundMessage) telego.SendMessageParams {
	params := telego.SendMessageParams{
		ChatID: telego.ChatID{ID: msg.ChatID},
		Text:   msg.Text,
	}
	if msg.Format == bus.FormatMarkdown {
		params.ParseMode = telego.ModeMarkdown
	}
	return params
}

// send delivers msg to Telegram. A Markdown message rejected by Telegram is
// retried once as plain text with the markup stripped.
func (c *Connector) send(msg bus.OutboundMessage) {
	if msg.Text == "" {
		return
	}

	ctx, cancel := c.sendContext()
	defer cancel()

	params := prepareMessage(msg)
	_, err := c.bot.SendMessage(ctx, &params)
	if err != nil && params.ParseMode != "" {
		c.logger.WarnCtx(ctx, "markdown send failed, retrying as plain text",
			logger.Field{Key: "chat_id", Value: msg.ChatID},
			logger.Field{Key: "error", Value: err.Error()})

		params.ParseMode = ""
		params.Text = StripMarkdown(msg.Text)
		_, err = c.bot.SendMessage(ctx, &params)
	}
	if err != nil {
		c.logger.ErrorCtx(ctx, "failed to send message", err,
			logger.Field{Key: "chat_id", Value: msg.ChatID},
			logger.Field{Key: "user_id", Value: msg.UserID})
		return
	}

	c.logger.DebugCtx(ctx, "message sent",
		logger.Field{Key: "chat_id", Value: msg.ChatID},
		logger.Field{Key: "format", Value: msg.Format})
}

// notify sends a plain-text notice straight to a chat, bypassing the bus.
func (c *Connector) notify(chatID int64, text string) {
	c.send(bus.OutboundMessage{ChatID: chatID, Text: text})
}
