// Package mail composes MIME messages and delivers them over SMTP.
package mail

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
	gomail "github.com/emersion/go-message/mail"
	"github.com/wasilibs/go-re2"
)

// addressPattern requires a local part, an @ and a dot inside the domain.
var addressPattern = re2.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidAddress is a lightweight sanity check for user-supplied addresses.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// Message is one outbound email.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []string // file paths
}

// Validate checks the fields every delivery needs.
func (m Message) Validate() error {
	var errs []error
	if m.From == "" {
		errs = append(errs, errors.New("sender is empty"))
	}
	if m.To == "" {
		errs = append(errs, errors.New("recipient is empty"))
	}
	if m.Subject == "" && m.Body == "" {
		errs = append(errs, errors.New("subject and body are both empty"))
	}
	return errors.Join(errs...)
}

// WriteTo renders m as a multipart/mixed MIME message. Attachment paths that
// do not exist are skipped with a warning; the list of attached files is
// returned.
func (m Message) WriteTo(w io.Writer, date time.Time, log *logger.Logger) ([]string, error) {
	var h gomail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*gomail.Address{{Address: m.From}})
	h.SetAddressList("To", []*gomail.Address{{Address: m.To}})
	h.SetSubject(m.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	mw, err := gomail.CreateWriter(w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	if err := m.writeText(mw); err != nil {
		return nil, err
	}

	var attached []string
	for _, path := range m.Attachments {
		ok, err := writeAttachment(mw, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Warn("attachment not found, skipping", logger.Field{Key: "path", Value: path})
			continue
		}
		attached = append(attached, path)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return attached, nil
}

func (m Message) writeText(mw *gomail.Writer) error {
	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("failed to create inline part: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", m.Body},
		{"text/html", m.HTMLBody},
	}
	for i, p := range parts {
		if i > 0 && p.body == "" {
			continue
		}
		var ph gomail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		pw, err := tw.CreatePart(ph)
		if err != nil {
			return fmt.Errorf("failed to create %s part: %w", p.contentType, err)
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			return fmt.Errorf("failed to write %s part: %w", p.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("failed to close %s part: %w", p.contentType, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close inline part: %w", err)
	}
	return nil
}

// writeAttachment reports false when path does not exist.
func writeAttachment(mw *gomail.Writer, path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open attachment %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var ah gomail.AttachmentHeader
	ah.Set("Content-Type", contentType)
	ah.SetFilename(name)

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return false, fmt.Errorf("failed to create attachment part: %w", err)
	}
	if _, err := io.Copy(aw, f); err != nil {
		return false, fmt.Errorf("failed to write attachment %s: %w", path, err)
	}
	if err := aw.Close(); err != nil {
		return false, fmt.Errorf("failed to close attachment part: %w", err)
	}
	return true, nil
}
