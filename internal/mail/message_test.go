package mail

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2024, 12, 24, 9, 0, 0, 0, time.UTC)

type parsedPart struct {
	contentType string
	filename    string
	body        string
}

func parseMessage(t *testing.T, raw []byte) (*gomail.Header, []parsedPart) {
	t.Helper()

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	var parts []parsedPart
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)

		switch h := p.Header.(type) {
		case *gomail.InlineHeader:
			ct, _, _ := h.ContentType()
			parts = append(parts, parsedPart{contentType: ct, body: string(body)})
		case *gomail.AttachmentHeader:
			ct, _, _ := h.ContentType()
			name, _ := h.Filename()
			parts = append(parts, parsedPart{contentType: ct, filename: name, body: string(body)})
		}
	}
	return &mr.Header, parts
}

func TestMessage_WriteTo(t *testing.T) {
	msg := Message{
		From:    "bot@example.com",
		To:      "jan@example.com",
		Subject: "Przypomnienie o spotkaniu",
		Body:    "Spotkanie w sali konferencyjnej ąęś",
	}

	var buf bytes.Buffer
	attached, err := msg.WriteTo(&buf, sentAt, logger.Nop())
	require.NoError(t, err)
	assert.Empty(t, attached)

	h, parts := parseMessage(t, buf.Bytes())

	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Przypomnienie o spotkaniu", subject)

	to, err := h.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "jan@example.com", to[0].Address)

	date, err := h.Date()
	require.NoError(t, err)
	assert.True(t, sentAt.Equal(date))

	id, err := h.MessageID()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, parts, 1)
	assert.Equal(t, "text/plain", parts[0].contentType)
	assert.Equal(t, "Spotkanie w sali konferencyjnej ąęś", parts[0].body)
}

func TestMessage_WriteToWithHTMLAndAttachments(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "raport.pdf")
	require.NoError(t, os.WriteFile(report, []byte("%PDF-1.4 fake"), 0o644))
	blob := filepath.Join(dir, "data.unknownext")
	require.NoError(t, os.WriteFile(blob, []byte{0x00, 0x01, 0x02}, 0o644))

	msg := Message{
		From:        "bot@example.com",
		To:          "jan@example.com",
		Subject:     "Raport",
		Body:        "W załączniku",
		HTMLBody:    "<p>W załączniku</p>",
		Attachments: []string{report, filepath.Join(dir, "missing.txt"), blob},
	}

	var buf bytes.Buffer
	attached, err := msg.WriteTo(&buf, sentAt, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{report, blob}, attached, "missing files are skipped")

	_, parts := parseMessage(t, buf.Bytes())
	require.Len(t, parts, 4)

	assert.Equal(t, "text/plain", parts[0].contentType)
	assert.Equal(t, "text/html", parts[1].contentType)
	assert.Equal(t, "<p>W załączniku</p>", parts[1].body)

	assert.Equal(t, "application/pdf", parts[2].contentType)
	assert.Equal(t, "raport.pdf", parts[2].filename)
	assert.Equal(t, "%PDF-1.4 fake", parts[2].body)

	assert.Equal(t, "application/octet-stream", parts[3].contentType)
	assert.Equal(t, "data.unknownext", parts[3].filename)
	assert.Equal(t, string([]byte{0x00, 0x01, 0x02}), parts[3].body)
}

func TestMessage_Validate(t *testing.T) {
	assert.NoError(t, Message{From: "a@b.pl", To: "c@d.pl", Subject: "s"}.Validate())
	assert.NoError(t, Message{From: "a@b.pl", To: "c@d.pl", Body: "b"}.Validate())

	err := Message{}.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "sender is empty")
	assert.ErrorContains(t, err, "recipient is empty")
	assert.ErrorContains(t, err, "subject and body are both empty")
}

func TestValidAddress(t *testing.T) {
	valid := []string{"jan@example.com", "jan.kowalski@gmail.com", "a+b@sub.domain.pl"}
	for _, addr := range valid {
		assert.True(t, ValidAddress(addr), addr)
	}

	invalid := []string{"", "jan", "jan@localhost", "@example.com", "jan@@example.com", "jan kowalski@example.com", "jan@example."}
	for _, addr := range invalid {
		assert.False(t, ValidAddress(addr), addr)
	}
}
