package messages

import (
	"strings"
	"testing"
	"time"

	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

func TestFormatStatusMessage(t *testing.T) {
	tests := []struct {
		name           string
		status         Status
		wantContains   []string
		wantNotContain []string
	}{
		{
			name: "configured",
			status: Status{
				DefaultRecipient: "biuro@example.com",
				LLMConfigured:    true,
				Conversations:    3,
				PendingJobs:      2,
				UserEmail:        "jan@example.com",
			},
			wantContains: []string{
				"📊 **Status bota**",
				"✅ Bot aktywny",
				"✅ Email scheduler: biuro@example.com",
				"✅ OpenAI API: Połączone",
				"✅ Aktywne konwersacje: 3",
				"✅ Zaplanowane emaile: 2",
				"📧 Twój email: `jan@example.com`",
			},
		},
		{
			name:   "no llm and no user email",
			status: Status{DefaultRecipient: "biuro@example.com"},
			wantContains: []string{
				"✅ OpenAI API: Nie skonfigurowane",
				"✅ Aktywne konwersacje: 0",
			},
			wantNotContain: []string{"Twój email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatusMessage(tt.status)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatStatusMessage() missing %q in:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.wantNotContain {
				if strings.Contains(got, unwanted) {
					t.Errorf("FormatStatusMessage() should not contain %q", unwanted)
				}
			}
		})
	}
}

func TestFormatJobsList(t *testing.T) {
	if got := FormatJobsList(nil); got != constants.MsgJobsEmpty {
		t.Errorf("FormatJobsList(nil) = %q, want %q", got, constants.MsgJobsEmpty)
	}

	jobs := []scheduler.Job{
		{
			Kind:    scheduler.KindOneshot,
			FireAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Payload: scheduler.Payload{Recipient: "jan@example.com", Subject: "Raport"},
		},
		{
			Kind:      scheduler.KindRecurring,
			TimeOfDay: "08:30",
			Payload:   scheduler.Payload{Recipient: "zespol@example.com", Subject: strings.Repeat("x", 70)},
		},
	}

	got := FormatJobsList(jobs)
	for _, want := range []string{
		"📅 **Zaplanowane emaile:**",
		"1. 01.03.2024 12:00 → `jan@example.com`",
		"📝 Raport",
		"2. codziennie 08:30 → `zespol@example.com`",
		strings.Repeat("x", 60) + "...",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatJobsList() missing %q in:\n%s", want, got)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("FormatJobsList() should not end with a newline")
	}
}

func TestFormatCancelled(t *testing.T) {
	if got := FormatCancelled(0); got != constants.MsgJobsNoneCancel {
		t.Errorf("FormatCancelled(0) = %q", got)
	}
	if got := FormatCancelled(2); got != "🗑️ Anulowano zaplanowane emaile: 2" {
		t.Errorf("FormatCancelled(2) = %q", got)
	}
}

func TestFormatEmail(t *testing.T) {
	set := FormatEmailSet("jan@example.com")
	if !strings.Contains(set, "Twój domyślny adres email to: `jan@example.com`") {
		t.Errorf("FormatEmailSet() = %q", set)
	}

	current := FormatEmailCurrent("jan@example.com")
	if !strings.HasPrefix(current, "📧 **Twój aktualny email:** `jan@example.com`") {
		t.Errorf("FormatEmailCurrent() = %q", current)
	}

	if got := FormatTranscription("jutro raport"); got != "🎤 Transkrypcja: jutro raport" {
		t.Errorf("FormatTranscription() = %q", got)
	}
}
