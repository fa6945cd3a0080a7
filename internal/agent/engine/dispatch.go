package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aatumaykin/mailbot/internal/agent/protocol"
	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/scheduler"
	"github.com/aatumaykin/mailbot/internal/timeparse"
)

// bodyPreviewRunes caps the body shown in the scheduling confirmation.
const bodyPreviewRunes = 100

// ErrNoRecipient is returned when neither the user nor the config provides
// a target address.
var ErrNoRecipient = errors.New("no recipient address configured")

// Owner is the job owner key for a Telegram user.
func Owner(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// OneshotTag is the tag of a one-shot job created from a conversation.
func OneshotTag(userID int64, recipient string, unix int64) string {
	return fmt.Sprintf("once_%d_%s_%d", userID, recipient, unix)
}

// AttachmentPrompt is the reply to a request for a file.
func AttachmentPrompt(info string) string {
	return fmt.Sprintf("📎 %s\n\nWyslij zalacznik jako plik.", info)
}

func (e *Engine) dispatch(ctx context.Context, sess *session.Session, action protocol.Action) string {
	switch a := action.(type) {
	case protocol.ScheduleEmail:
		e.logger.InfoCtx(ctx, "action: schedule email",
			logger.Field{Key: "user_id", Value: sess.UserID},
			logger.Field{Key: "subject", Value: a.Subject},
			logger.Field{Key: "time_expression", Value: a.TimeExpression})
		sess.ClearAttachmentRequest()
		reply, _ := e.SchedulePlan(ctx, sess, a, nil)
		return reply

	case protocol.RequestAttachment:
		e.logger.InfoCtx(ctx, "action: request attachment",
			logger.Field{Key: "user_id", Value: sess.UserID},
			logger.Field{Key: "info", Value: a.Info})
		sess.ExpectAttachment(a.Info)
		return AttachmentPrompt(a.Info)

	case protocol.PlainText:
		e.logger.InfoCtx(ctx, "action: text response",
			logger.Field{Key: "user_id", Value: sess.UserID},
			logger.Field{Key: "length", Value: len(a.Message)})
		sess.ClearAttachmentRequest()
		return a.Message

	default:
		e.logger.ErrorCtx(ctx, "unknown action", fmt.Errorf("unexpected action %T", action))
		return ReplyApology
	}
}

// SchedulePlan registers a one-shot delivery of plan to the session's target
// address and makes sure the scheduler loop runs. On success any pending
// attachment request is cleared. The returned reply is meant for the user in
// both cases.
func (e *Engine) SchedulePlan(ctx context.Context, sess *session.Session, plan protocol.ScheduleEmail, attachments []string) (string, error) {
	recipient := sess.TargetEmail()
	if recipient == "" {
		e.logger.WarnCtx(ctx, "cannot schedule email without recipient",
			logger.Field{Key: "user_id", Value: sess.UserID})
		return schedulingFailed(ErrNoRecipient), ErrNoRecipient
	}

	now := e.store.Now()
	fireAt := timeparse.Parse(plan.TimeExpression, now)

	_, err := e.store.ScheduleOnce(fireAt.Sub(now), OneshotTag(sess.UserID, recipient, fireAt.Unix()), Owner(sess.UserID), scheduler.Payload{
		Recipient:   recipient,
		Subject:     plan.Subject,
		Body:        plan.Body,
		Attachments: attachments,
	})
	if err != nil {
		e.logger.ErrorCtx(ctx, "failed to schedule email", err,
			logger.Field{Key: "user_id", Value: sess.UserID},
			logger.Field{Key: "subject", Value: plan.Subject},
			logger.Field{Key: "fire_at", Value: fireAt})
		return schedulingFailed(err), err
	}

	e.loop.Start(ctx)
	sess.ClearAttachmentRequest()

	return confirmation(plan, recipient, timeparse.Format(fireAt)), nil
}

func schedulingFailed(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrNegativeDelay):
		return "❌ Błąd podczas planowania emaila: Data wysyłki musi być w przyszłości"
	case errors.Is(err, ErrNoRecipient):
		return "❌ Błąd podczas planowania emaila: brak adresu odbiorcy. Ustaw go komendą /set"
	default:
		return fmt.Sprintf("❌ Błąd podczas planowania emaila: %v", err)
	}
}

func confirmation(plan protocol.ScheduleEmail, recipient, when string) string {
	var sb strings.Builder
	sb.WriteString("✅ Email zaplanowany pomyślnie!\n\n")
	fmt.Fprintf(&sb, "📧 Temat: %s\n", plan.Subject)
	fmt.Fprintf(&sb, "📧 Odbiorca: %s\n", recipient)
	fmt.Fprintf(&sb, "📅 Data wysyłki: %s\n", when)
	fmt.Fprintf(&sb, "📝 Treść: %s", preview(plan.Body, bodyPreviewRunes))
	return sb.String()
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
