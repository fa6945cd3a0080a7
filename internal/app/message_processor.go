// Package app provides message processing logic for Mailbot.
// This file implements StartMessageProcessing and processMessage methods.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aatumaykin/mailbot/internal/attachment"
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/messages"
)

// StartMessageProcessing starts the message processing loop.
// Messages are handled one at a time on a single goroutine.
func (a *App) StartMessageProcessing(ctx context.Context) error {
	inboundCh := a.messageBus.SubscribeInbound(ctx)
	if inboundCh == nil {
		return fmt.Errorf("failed to subscribe to inbound messages: %w", bus.ErrNotStarted)
	}

	a.processing.Add(1)
	go func() {
		defer a.processing.Done()
		a.logger.Info("Message processing started")
		for {
			select {
			case <-ctx.Done():
				a.logger.Info("Message processing stopped")
				return
			case msg, ok := <-inboundCh:
				if !ok {
					a.logger.Info("Inbound channel closed")
					return
				}
				a.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage handles a single inbound message. Commands are answered
// directly; everything else runs between processing start and end events so
// the channel can show a typing indicator.
func (a *App) processMessage(ctx context.Context, msg bus.InboundMessage) {
	a.logger.InfoCtx(ctx, "Processing message",
		logger.Field{Key: "user_id", Value: msg.UserID},
		logger.Field{Key: "kind", Value: msg.Kind})
	a.metrics.MessageReceived(string(msg.Kind))

	if msg.Kind == bus.KindCommand {
		if err := a.commandHandler.HandleCommand(ctx, msg); err != nil {
			a.logger.ErrorCtx(ctx, "Failed to handle command", err,
				logger.Field{Key: "command", Value: msg.Command},
				logger.Field{Key: "user_id", Value: msg.UserID})
		}
		return
	}

	a.publishEvent(ctx, bus.NewProcessingStartEvent(msg.UserID, msg.ChatID))
	defer a.publishEvent(ctx, bus.NewProcessingEndEvent(msg.UserID, msg.ChatID))

	switch msg.Kind {
	case bus.KindText:
		a.handleText(ctx, msg, msg.Text)
	case bus.KindVoice:
		a.handleVoice(ctx, msg)
	case bus.KindDocument:
		a.handleDocument(ctx, msg)
	default:
		a.logger.WarnCtx(ctx, "Unsupported message kind",
			logger.Field{Key: "kind", Value: msg.Kind})
	}
}

func (a *App) handleText(ctx context.Context, msg bus.InboundMessage, text string) {
	response := a.engine.Process(ctx, msg.UserID, text)
	a.reply(ctx, msg.Reply(messages.CleanContent(response)))
}

// handleVoice transcribes the recording, echoes the transcription and then
// treats it as a text message.
func (a *App) handleVoice(ctx context.Context, msg bus.InboundMessage) {
	if a.transcriber == nil {
		a.reply(ctx, msg.Reply(constants.MsgVoiceUnconfigured))
		return
	}

	text, err := a.transcribe(ctx, msg.FileID)
	if err != nil {
		a.logger.ErrorCtx(ctx, "Failed to process voice message", err,
			logger.Field{Key: "user_id", Value: msg.UserID})
		a.reply(ctx, msg.Reply(constants.MsgVoiceFailed))
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		a.reply(ctx, msg.Reply(constants.MsgVoiceEmpty))
		return
	}

	a.reply(ctx, msg.Reply(messages.FormatTranscription(text)))
	a.handleText(ctx, msg, text)
}

// transcribe downloads the voice file into a temporary file, which is
// removed once the transcriber is done with it.
func (a *App) transcribe(ctx context.Context, fileID string) (string, error) {
	data, err := a.channel.DownloadFile(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("failed to download voice file: %w", err)
	}

	f, err := os.CreateTemp("", "mailbot-voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write voice file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write voice file: %w", err)
	}

	return a.transcriber.Transcribe(ctx, f.Name())
}

func (a *App) handleDocument(ctx context.Context, msg bus.InboundMessage) {
	response := a.correlator.Accept(ctx, msg.UserID, attachment.Document{
		FileName: msg.FileName,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return a.channel.DownloadFile(ctx, msg.FileID)
		},
	})
	a.reply(ctx, msg.Reply(response))
}

func (a *App) reply(ctx context.Context, out bus.OutboundMessage) {
	if strings.TrimSpace(out.Text) == "" {
		return
	}
	if err := a.messageBus.PublishOutbound(out); err != nil {
		a.logger.ErrorCtx(ctx, "Failed to publish outbound message", err,
			logger.Field{Key: "user_id", Value: out.UserID})
	}
}

func (a *App) publishEvent(ctx context.Context, event bus.Event) {
	if err := a.messageBus.PublishEvent(event); err != nil {
		a.logger.ErrorCtx(ctx, "Failed to publish processing event", err,
			logger.Field{Key: "type", Value: event.Type},
			logger.Field{Key: "user_id", Value: event.UserID})
	}
}
