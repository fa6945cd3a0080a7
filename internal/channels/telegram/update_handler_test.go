package telegram

import (
	"testing"

	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantCmd  string
		wantArgs []string
	}{
		{"/start", "start", []string{}},
		{"/SET jan@example.com", "set", []string{"jan@example.com"}},
		{"/set@mail_test_bot  jan@example.com ", "set", []string{"jan@example.com"}},
		{"/cancel all now", "cancel", []string{"all", "now"}},
		{"/", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args := parseCommand(tt.text)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestToInbound(t *testing.T) {
	from := &telego.User{ID: 9}
	chat := telego.Chat{ID: 90}

	tests := []struct {
		name     string
		msg      *telego.Message
		wantOK   bool
		wantKind bus.InboundKind
		check    func(t *testing.T, in bus.InboundMessage)
	}{
		{
			name:     "text",
			msg:      &telego.Message{From: from, Chat: chat, Text: "jutro o 9 wyślij raport"},
			wantOK:   true,
			wantKind: bus.KindText,
			check: func(t *testing.T, in bus.InboundMessage) {
				assert.Equal(t, "jutro o 9 wyślij raport", in.Text)
			},
		},
		{
			name:     "command",
			msg:      &telego.Message{From: from, Chat: chat, Text: "/status"},
			wantOK:   true,
			wantKind: bus.KindCommand,
			check: func(t *testing.T, in bus.InboundMessage) {
				assert.Equal(t, "status", in.Command)
			},
		},
		{
			name:     "bare slash stays text",
			msg:      &telego.Message{From: from, Chat: chat, Text: "/"},
			wantOK:   true,
			wantKind: bus.KindText,
		},
		{
			name:     "voice",
			msg:      &telego.Message{From: from, Chat: chat, Voice: &telego.Voice{FileID: "v1", Duration: 4}},
			wantOK:   true,
			wantKind: bus.KindVoice,
			check: func(t *testing.T, in bus.InboundMessage) {
				assert.Equal(t, "v1", in.FileID)
			},
		},
		{
			name: "document",
			msg: &telego.Message{From: from, Chat: chat, Caption: "umowa",
				Document: &telego.Document{FileID: "d1", FileName: "umowa.pdf", FileSize: 2048}},
			wantOK:   true,
			wantKind: bus.KindDocument,
			check: func(t *testing.T, in bus.InboundMessage) {
				assert.Equal(t, "d1", in.FileID)
				assert.Equal(t, "umowa.pdf", in.FileName)
				assert.Equal(t, int64(2048), in.FileSize)
			},
		},
		{
			name:   "sticker is ignored",
			msg:    &telego.Message{From: from, Chat: chat, Sticker: &telego.Sticker{FileID: "s1"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok := toInbound(tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantKind, in.Kind)
			assert.Equal(t, int64(9), in.UserID)
			assert.Equal(t, int64(90), in.ChatID)
			if tt.check != nil {
				tt.check(t, in)
			}
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"✅ **Email ustawiony!**", "✅ Email ustawiony!"},
		{"Użyj: `/set twoj@email.com`", "Użyj: /set twoj@email.com"},
		{"*bold* and ```code```", "bold and code"},
		{"[docs](https://example.com)", "docs (https://example.com)"},
		{"jan_kowalski@example.com", "jan_kowalski@example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkdown(tt.in), "input %q", tt.in)
	}
}

func TestUserLimiter(t *testing.T) {
	var disabled *userLimiter
	assert.True(t, disabled.Allow(1))
	assert.Nil(t, newUserLimiter(0))

	l := newUserLimiter(2)
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1), "burst exhausted")
	assert.True(t, l.Allow(2), "other users have their own bucket")
}
