package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aatumaykin/mailbot/internal/timeparse"
	"github.com/spf13/cobra"
)

var parseTimeNow string

// parseTimeCmd resolves a time expression the way scheduled emails do.
var parseTimeCmd = &cobra.Command{
	Use:   "parse-time <expression>",
	Short: "Resolve a time expression",
	Long: `Print the instant a time expression resolves to. Unrecognized
expressions fall back to one hour from now, exactly like scheduling does.`,
	Example: `  mailbot parse-time "za 2 godziny"
  mailbot parse-time "14:30"
  mailbot parse-time --now "01.03.2024 10:00" "25.12.2024 15:30"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if parseTimeNow != "" {
			t, err := time.ParseInLocation(timeparse.DisplayLayout, parseTimeNow, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --now %q, use DD.MM.YYYY HH:MM: %w", parseTimeNow, err)
			}
			now = t
		}

		resolved := timeparse.Parse(strings.Join(args, " "), now)
		fmt.Fprintln(cmd.OutOrStdout(), timeparse.Format(resolved))
		return nil
	},
}

func init() {
	parseTimeCmd.Flags().StringVar(&parseTimeNow, "now", "", "Reference time, DD.MM.YYYY HH:MM (default: current time)")
}
