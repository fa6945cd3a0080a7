package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mailbot",
	Short: "Mailbot - schedule emails from Telegram messages",
	Long: `Mailbot is a Telegram bot that turns text and voice messages into
scheduled emails. An LLM extracts subject, body and send time; the
scheduler delivers the email over SMTP when it is due.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(parseTimeCmd)
}
