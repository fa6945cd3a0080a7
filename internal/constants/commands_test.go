package constants

import (
	"strings"
	"testing"
)

func TestCommandConstants(t *testing.T) {
	commands := []string{
		CommandStart,
		CommandHelp,
		CommandStatus,
		CommandSet,
		CommandJobs,
		CommandCancel,
		CommandReset,
	}

	seen := make(map[string]bool)
	for _, cmd := range commands {
		if cmd == "" {
			t.Error("command should not be empty")
		}
		if strings.HasPrefix(cmd, "/") {
			t.Errorf("command %q should not carry the slash", cmd)
		}
		if strings.ToLower(cmd) != cmd {
			t.Errorf("command %q should be lower case", cmd)
		}
		if seen[cmd] {
			t.Errorf("duplicate command %q", cmd)
		}
		seen[cmd] = true
	}
}
