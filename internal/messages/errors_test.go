package messages

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "" {
		t.Errorf("FormatValidationErrors(nil) = %q, want empty", got)
	}

	got := FormatValidationErrors([]error{
		errors.New("telegram.token is required"),
		errors.New("smtp.port must be between 1 and 65535"),
	})

	want := "❌ Configuration validation failed:\n" +
		"  - 1. telegram.token is required\n" +
		"  - 2. smtp.port must be between 1 and 65535\n"
	if got != want {
		t.Errorf("FormatValidationErrors() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatErrors(t *testing.T) {
	if got := FormatError(errors.New("boom")); got != "Error: boom" {
		t.Errorf("FormatError() = %q", got)
	}
	if got := FormatConfigLoadError(errors.New("no file")); !strings.Contains(got, "no file") {
		t.Errorf("FormatConfigLoadError() = %q", got)
	}
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", "Kiedy wysłać?", "Kiedy wysłać?"},
		{"think block", "<think>planning\nsteps</think>\nKiedy wysłać?", "Kiedy wysłać?"},
		{"two blocks", "<think>a</think>Jeden <think>b</think>dwa", "Jeden dwa"},
		{"unterminated", "Odpowiedź\n<think>still going", "Odpowiedź"},
		{"stray closer", "  </think>\nOdpowiedź", "Odpowiedź"},
		{"blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanContent(tt.content); got != tt.want {
				t.Errorf("CleanContent() = %q, want %q", got, tt.want)
			}
		})
	}
}
