package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aatumaykin/mailbot/internal/app"
	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/messages"
	"github.com/aatumaykin/mailbot/internal/version"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveLogLevel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot (main command)",
	Long: `Start Mailbot with the specified configuration.
This initializes all components (message bus, Telegram connector,
conversation engine, email scheduler) and shuts them down gracefully
on SIGINT or SIGTERM.`,
	RunE: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}

	// Override log level if flag is set
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), messages.FormatValidationErrors(errs))
		return fmt.Errorf("configuration has %d errors", len(errs))
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	log.Info(version.FormatStartupMessage(),
		logger.Field{Key: "version", Value: version.Version},
		logger.Field{Key: "git_commit", Value: version.GitCommit},
		logger.Field{Key: "config", Value: configOrDefault(serveConfigPath)},
		logger.Field{Key: "model", Value: cfg.LLM.Model},
		logger.Field{Key: "default_recipient", Value: cfg.Conversation.DefaultRecipient},
		logger.Field{Key: "daily_jobs", Value: len(cfg.Scheduler.Daily)},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, log).Run(ctx); err != nil {
		log.Error("Mailbot stopped with error", err)
		return err
	}

	log.Info("👋 Mailbot stopped gracefully")
	return nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

func configOrDefault(path string) string {
	if path == "" {
		return config.DefaultPath
	}
	return path
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
}
