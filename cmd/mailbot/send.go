package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aatumaykin/mailbot/internal/app/builders"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/mail"
	"github.com/spf13/cobra"
)

var (
	sendConfigPath string
	sendTo         string
	sendSubject    string
	sendBody       string
	sendAttach     []string
)

// sendCmd delivers one email immediately, bypassing the scheduler.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one email now",
	Long: `Send a single email through the configured SMTP server right away.
Without --to the conversation default recipient is used. Useful for
checking SMTP settings.`,
	Example: `  mailbot send --to jan@example.com --subject "Test" --body "Działa!"
  mailbot send --subject "Raport" --attach raport.pdf --attach dane.csv`,
	RunE: sendHandler,
}

func sendHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(sendConfigPath)
	if err != nil {
		return err
	}

	to := sendTo
	if to == "" {
		to = cfg.Conversation.DefaultRecipient
	}
	if !mail.ValidAddress(to) {
		return fmt.Errorf("invalid recipient address %q", to)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:          to,
		Subject:     sendSubject,
		Body:        sendBody,
		Attachments: sendAttach,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := builders.NewMailBuilder(cfg, log).Build()
	if err := sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email sent",
		logger.Field{Key: "to", Value: to},
		logger.Field{Key: "attachments", Value: len(sendAttach)})
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Email sent to %s\n", to)
	return nil
}

func init() {
	sendCmd.Flags().StringVarP(&sendConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient address (default: conversation.default_recipient)")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "Email subject")
	sendCmd.Flags().StringVar(&sendBody, "body", "", "Email body")
	sendCmd.Flags().StringArrayVar(&sendAttach, "attach", nil, "File to attach (repeatable)")
}
