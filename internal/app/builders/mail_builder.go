package builders

import (
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/mail"
)

type MailBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewMailBuilder(cfg *config.Config, log *logger.Logger) *MailBuilder {
	return &MailBuilder{
		config: cfg,
		logger: log,
	}
}

// Build returns the SMTP sender. Missing credentials only surface when a
// message is sent, so the bot can still run and answer commands.
func (b *MailBuilder) Build() *mail.SMTPSender {
	smtp := b.config.SMTP
	sender := mail.NewSMTPSender(mail.Config{
		Server:         smtp.Server,
		Port:           smtp.Port,
		SenderEmail:    smtp.SenderEmail,
		SenderPassword: smtp.SenderPassword,
		UseTLS:         smtp.UseTLS,
		Timeout:        smtp.Timeout(),
	}, b.logger.Component("mail"))

	if smtp.SenderEmail == "" || smtp.SenderPassword == "" {
		b.logger.Warn("SMTP credentials are not configured, scheduled emails will fail")
	} else {
		b.logger.Info("SMTP sender initialized",
			logger.Field{Key: "server", Value: smtp.Server},
			logger.Field{Key: "port", Value: smtp.Port})
	}
	return sender
}
