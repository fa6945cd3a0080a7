package main

import (
	"fmt"

	"github.com/aatumaykin/mailbot/internal/config"
	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/aatumaykin/mailbot/internal/messages"
	"github.com/spf13/cobra"
)

var configPath string

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and inspect Mailbot configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and report every problem found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configArg(args))
		if err != nil {
			return err
		}

		if errs := cfg.Validate(); len(errs) > 0 {
			fmt.Fprint(cmd.ErrOrStderr(), messages.FormatValidationErrors(errs))
			return fmt.Errorf("configuration has %d errors", len(errs))
		}

		fmt.Fprintln(cmd.OutOrStdout(), constants.MsgConfigValid)
		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Print configuration with secrets masked",
	Long:  `Print the effective configuration, defaults applied, with tokens and passwords masked.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configArg(args))
		if err != nil {
			return err
		}
		return cfg.WriteTOML(cmd.OutOrStdout())
	},
}

// configArg prefers a positional path over the --config flag.
func configArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return configPath
}

// loadConfig reads .env from the working directory, then the config file.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath
	}
	if err := config.LoadEnvOptional(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	configCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
