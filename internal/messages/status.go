package messages

import (
	"fmt"
	"strings"

	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/aatumaykin/mailbot/internal/scheduler"
	"github.com/aatumaykin/mailbot/internal/timeparse"
)

// jobSubjectPreview caps the subject shown in the job list.
const jobSubjectPreview = 60

// Status is the data shown by /status.
type Status struct {
	DefaultRecipient string
	LLMConfigured    bool
	Conversations    int
	PendingJobs      int
	UserEmail        string // empty hides the line
}

// FormatStatusMessage formats the bot status reply.
func FormatStatusMessage(s Status) string {
	builder := &strings.Builder{}

	builder.WriteString(constants.MsgStatusHeader)
	builder.WriteString(constants.MsgStatusActive)
	builder.WriteString(fmt.Sprintf(constants.MsgStatusScheduler, s.DefaultRecipient))

	llmState := constants.MsgStatusLLMUnavailable
	if s.LLMConfigured {
		llmState = constants.MsgStatusLLMConnected
	}
	builder.WriteString(fmt.Sprintf(constants.MsgStatusLLM, llmState))
	builder.WriteString(fmt.Sprintf(constants.MsgStatusConversations, s.Conversations))
	builder.WriteString(fmt.Sprintf(constants.MsgStatusPendingJobs, s.PendingJobs))

	if s.UserEmail != "" {
		builder.WriteString(fmt.Sprintf(constants.MsgStatusYourEmail, s.UserEmail))
	}

	return builder.String()
}

// FormatJobsList lists pending jobs in the order given.
func FormatJobsList(jobs []scheduler.Job) string {
	if len(jobs) == 0 {
		return constants.MsgJobsEmpty
	}

	builder := &strings.Builder{}
	builder.WriteString(constants.MsgJobsHeader)
	for i, job := range jobs {
		when := timeparse.Format(job.FireAt)
		if job.Kind == scheduler.KindRecurring {
			when = "codziennie " + job.TimeOfDay
		}
		builder.WriteString(fmt.Sprintf(constants.MsgJobsEntry,
			i+1, when, job.Payload.Recipient, truncate(job.Payload.Subject, jobSubjectPreview)))
	}
	return strings.TrimRight(builder.String(), "\n")
}

// FormatCancelled reports how many jobs /cancel removed.
func FormatCancelled(n int) string {
	if n == 0 {
		return constants.MsgJobsNoneCancel
	}
	return fmt.Sprintf(constants.MsgJobsCancelled, n)
}

// FormatEmailSet confirms a new target email.
func FormatEmailSet(email string) string {
	return fmt.Sprintf(constants.MsgEmailSet, email)
}

// FormatEmailCurrent shows the current target email with usage hints.
func FormatEmailCurrent(email string) string {
	return fmt.Sprintf(constants.MsgEmailCurrent, email)
}

// FormatTranscription echoes a voice transcription back to the user.
func FormatTranscription(text string) string {
	return fmt.Sprintf(constants.MsgTranscription, text)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
