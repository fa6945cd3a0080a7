package builders

import (
	"context"
	"testing"

	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailBuilder_Build(t *testing.T) {
	cfg := &config.Config{
		SMTP: config.SMTPConfig{
			Server:         "smtp.example.com",
			Port:           465,
			SenderEmail:    "bot@example.com",
			SenderPassword: "secret",
		},
	}

	sender := NewMailBuilder(cfg, createTestLogger(t)).Build()
	require.NotNil(t, sender)
	assert.Equal(t, "bot@example.com", sender.From())
}

func TestMailBuilder_MissingCredentials(t *testing.T) {
	sender := NewMailBuilder(&config.Config{}, createTestLogger(t)).Build()
	require.NotNil(t, sender)

	err := sender.Send(context.Background(), mail.Message{To: "jan@example.com", Subject: "Test"})
	assert.ErrorIs(t, err, mail.ErrMissingCredentials)
}
