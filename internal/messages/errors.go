package messages

import (
	"fmt"
	"strings"

	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/wasilibs/go-re2"
)

// FormatError formats a general error message with error prefix.
func FormatError(err error) string {
	return fmt.Sprintf(constants.MsgErrorFormat, err)
}

// FormatConfigLoadError formats a configuration loading error message.
func FormatConfigLoadError(err error) string {
	return fmt.Sprintf(constants.MsgConfigLoadError, err)
}

// FormatValidationErrors formats a list of validation errors with numbering.
//
// Returns an empty string when errs is empty.
func FormatValidationErrors(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	builder := &strings.Builder{}
	builder.WriteString(constants.MsgConfigValidationError)
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf(constants.MsgConfigValidatePrefix, fmt.Sprintf("%d. %v", i+1, err)))
	}

	return builder.String()
}

var (
	thinkBlockPattern  = re2.MustCompile(`(?s)<think>.*?</think>`)
	strayCloserPattern = re2.MustCompile(`^\s*</think>\s*`)
	excessBlankPattern = re2.MustCompile(`\n{3,}`)
)

// CleanContent removes model reasoning blocks from a reply so they never
// reach the user. An unterminated <think> drops everything after it.
func CleanContent(content string) string {
	cleaned := thinkBlockPattern.ReplaceAllString(content, "")

	if open := strings.LastIndex(cleaned, "<think>"); open != -1 {
		cleaned = cleaned[:open]
	}
	cleaned = strayCloserPattern.ReplaceAllString(cleaned, "")
	cleaned = excessBlankPattern.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
