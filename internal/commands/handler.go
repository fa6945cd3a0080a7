// Package commands provides command handling for Telegram messages.
package commands

import (
	"context"
	"fmt"

	"github.com/aatumaykin/mailbot/internal/agent/engine"
	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/mail"
	"github.com/aatumaykin/mailbot/internal/messages"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

// SessionStore defines the session operations needed by Handler
type SessionStore interface {
	Get(userID int64) *session.Session
	TargetEmail(userID int64) string
	Evict(userID int64) bool
	Len() int
}

// JobStore defines the job operations needed by Handler
type JobStore interface {
	List() []scheduler.Job
	CancelOwner(owner string) int
	Len() int
}

// MessageBusInterface defines the interface for message bus operations needed by Handler
type MessageBusInterface interface {
	PublishOutbound(msg bus.OutboundMessage) error
}

// Info is static data shown by /status.
type Info struct {
	DefaultRecipient string
	LLMConfigured    bool
}

// Handler handles bot commands.
type Handler struct {
	sessions   SessionStore
	jobs       JobStore
	messageBus MessageBusInterface
	logger     *logger.Logger
	info       Info
}

// NewHandler creates a new command handler.
func NewHandler(
	sessions SessionStore,
	jobs JobStore,
	messageBus MessageBusInterface,
	log *logger.Logger,
	info Info,
) *Handler {
	return &Handler{
		sessions:   sessions,
		jobs:       jobs,
		messageBus: messageBus,
		logger:     log,
		info:       info,
	}
}

// HandleCommand answers one command message. Unknown commands get a hint
// instead of an error.
func (h *Handler) HandleCommand(ctx context.Context, msg bus.InboundMessage) error {
	h.logger.InfoCtx(ctx, "command received",
		logger.Field{Key: "command", Value: msg.Command},
		logger.Field{Key: "user_id", Value: msg.UserID})

	switch msg.Command {
	case constants.CommandStart:
		return h.reply(msg.ReplyMarkdown(constants.MsgWelcome))
	case constants.CommandHelp:
		return h.reply(msg.ReplyMarkdown(constants.MsgHelp))
	case constants.CommandStatus:
		return h.handleStatus(msg)
	case constants.CommandSet:
		return h.handleSet(ctx, msg)
	case constants.CommandJobs:
		return h.handleJobs(msg)
	case constants.CommandCancel:
		return h.handleCancel(ctx, msg)
	case constants.CommandReset:
		return h.handleReset(ctx, msg)
	default:
		h.logger.WarnCtx(ctx, "unknown command",
			logger.Field{Key: "command", Value: msg.Command},
			logger.Field{Key: "user_id", Value: msg.UserID})
		return h.reply(msg.Reply(constants.MsgUnknownCommand))
	}
}

func (h *Handler) handleStatus(msg bus.InboundMessage) error {
	status := messages.FormatStatusMessage(messages.Status{
		DefaultRecipient: h.info.DefaultRecipient,
		LLMConfigured:    h.info.LLMConfigured,
		Conversations:    h.sessions.Len(),
		PendingJobs:      h.jobs.Len(),
		UserEmail:        h.sessions.TargetEmail(msg.UserID),
	})
	return h.reply(msg.ReplyMarkdown(status))
}

// handleSet shows the target email, or replaces it when an argument is given.
func (h *Handler) handleSet(ctx context.Context, msg bus.InboundMessage) error {
	if len(msg.Args) == 0 {
		return h.reply(msg.ReplyMarkdown(messages.FormatEmailCurrent(h.sessions.TargetEmail(msg.UserID))))
	}

	email := msg.Args[0]
	if !mail.ValidAddress(email) {
		return h.reply(msg.ReplyMarkdown(constants.MsgEmailInvalid))
	}

	h.sessions.Get(msg.UserID).SetTargetEmail(email)
	h.logger.InfoCtx(ctx, "target email updated",
		logger.Field{Key: "user_id", Value: msg.UserID})

	return h.reply(msg.ReplyMarkdown(messages.FormatEmailSet(email)))
}

func (h *Handler) handleJobs(msg bus.InboundMessage) error {
	owner := engine.Owner(msg.UserID)

	var own []scheduler.Job
	for _, job := range h.jobs.List() {
		if job.Owner == owner {
			own = append(own, job)
		}
	}
	return h.reply(msg.ReplyMarkdown(messages.FormatJobsList(own)))
}

func (h *Handler) handleCancel(ctx context.Context, msg bus.InboundMessage) error {
	n := h.jobs.CancelOwner(engine.Owner(msg.UserID))
	h.logger.InfoCtx(ctx, "user jobs cancelled",
		logger.Field{Key: "user_id", Value: msg.UserID},
		logger.Field{Key: "count", Value: n})
	return h.reply(msg.Reply(messages.FormatCancelled(n)))
}

// handleReset drops the conversation, including a custom target email.
func (h *Handler) handleReset(ctx context.Context, msg bus.InboundMessage) error {
	if !h.sessions.Evict(msg.UserID) {
		return h.reply(msg.Reply(constants.MsgNothingToReset))
	}

	h.logger.InfoCtx(ctx, "session cleared",
		logger.Field{Key: "user_id", Value: msg.UserID})
	return h.reply(msg.Reply(constants.MsgSessionCleared))
}

func (h *Handler) reply(out bus.OutboundMessage) error {
	if err := h.messageBus.PublishOutbound(out); err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}
	return nil
}
