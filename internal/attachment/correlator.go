// Package attachment matches uploaded files with the email plan the user is
// preparing.
package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aatumaykin/mailbot/internal/agent/protocol"
	"github.com/aatumaykin/mailbot/internal/agent/session"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/logger"
)

// Fixed replies.
const (
	ReplyUnexpected = "❌ Nie oczekuję żadnego załącznika. Najpierw opisz email, który chcesz zaplanować."
	ReplyStored     = "✅ Załącznik otrzymany. Teraz opisz szczegóły emaila."
	ReplyFailed     = "❌ Błąd podczas przetwarzania załącznika."
)

// DefaultDir is where attachments are stored when no directory is configured.
const DefaultDir = "./attachments"

// Planner schedules a finished plan with the given attachments and returns
// the reply for the user.
type Planner interface {
	SchedulePlan(ctx context.Context, sess *session.Session, plan protocol.ScheduleEmail, attachments []string) (string, error)
}

// Document is an uploaded file. Fetch is only called once the upload has
// been accepted.
type Document struct {
	FileName string
	Fetch    func(ctx context.Context) ([]byte, error)
}

// Correlator stores expected uploads and finalizes the pending plan.
type Correlator struct {
	dir      string
	sessions *session.Manager
	planner  Planner
	logger   *logger.Logger
	now      func() time.Time
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithClock replaces the clock used in stored file names.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// NewCorrelator creates a correlator writing files under dir.
func NewCorrelator(dir string, sessions *session.Manager, planner Planner, log *logger.Logger, opts ...Option) *Correlator {
	if dir == "" {
		dir = DefaultDir
	}
	c := &Correlator{
		dir:      dir,
		sessions: sessions,
		planner:  planner,
		logger:   log.Component("attachment"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Accept handles a file from userID and returns the reply. Files nobody asked
// for are rejected without touching the disk or the session.
func (c *Correlator) Accept(ctx context.Context, userID int64, doc Document) string {
	sess, ok := c.sessions.Peek(userID)
	if !ok {
		return c.reject(ctx, userID, doc)
	}
	if waiting, _ := sess.WaitingForAttachment(); !waiting {
		return c.reject(ctx, userID, doc)
	}

	path, err := c.store(ctx, userID, doc)
	if err != nil {
		c.logger.ErrorCtx(ctx, "failed to store attachment", err,
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "file_name", Value: doc.FileName})
		return ReplyFailed
	}

	c.logger.InfoCtx(ctx, "attachment stored",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "path", Value: path})

	plan, ok := latestPlan(sess.History())
	if !ok {
		sess.ClearAttachmentRequest()
		return ReplyStored
	}

	reply, err := c.planner.SchedulePlan(ctx, sess, plan, []string{path})
	if err != nil {
		c.logger.WarnCtx(ctx, "attachment plan not scheduled",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "error", Value: err.Error()})
	}
	return reply
}

func (c *Correlator) reject(ctx context.Context, userID int64, doc Document) string {
	c.logger.WarnCtx(ctx, "unexpected attachment",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "file_name", Value: doc.FileName})
	return ReplyUnexpected
}

func (c *Correlator) store(ctx context.Context, userID int64, doc Document) (string, error) {
	if doc.Fetch == nil {
		return "", fmt.Errorf("document has no content")
	}
	data, err := doc.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to download attachment: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachments directory: %w", err)
	}

	path := filepath.Join(c.dir, FileName(userID, c.now(), doc.FileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	return path, nil
}

// FileName is the stored name of an upload: attachment_<user>_<unixnano>_<base>.
func FileName(userID int64, at time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("attachment_%d_%d_%s", userID, at.UnixNano(), base)
}

// latestPlan returns the newest assistant turn that is a complete plan.
func latestPlan(history []session.Turn) (protocol.ScheduleEmail, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != llm.RoleAssistant {
			continue
		}
		if plan, ok := protocol.ParsePlan(history[i].Content); ok {
			return plan, true
		}
	}
	return protocol.ScheduleEmail{}, false
}
