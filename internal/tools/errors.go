package tools

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aatumaykin/mailbot/internal/logger"
)

// ToolError is a structured tool failure that is reported back to the LLM.
type ToolError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return e.Message
}

// ToLLMContext renders the error for a tool-result message.
func (e *ToolError) ToLLMContext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool Error:\n - Code: %s\n - Message: %s", e.Code, e.Message)

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n - Suggestion: %s", e.Suggestion)
	}

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n - Details:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n     - %s: %v", k, e.Details[k])
		}
	}

	return b.String()
}

// LogFields returns fields for structured logging.
func (e *ToolError) LogFields() []logger.Field {
	fields := []logger.Field{
		{Key: "error_code", Value: e.Code},
		{Key: "error_message", Value: e.Message},
	}
	if e.Suggestion != "" {
		fields = append(fields, logger.Field{Key: "error_suggestion", Value: e.Suggestion})
	}
	return fields
}

func NewNotFoundError(code, message, suggestion string) *ToolError {
	return &ToolError{Code: code, Message: message, Suggestion: suggestion}
}

func NewTimeoutError(code, message string, details map[string]any) *ToolError {
	return &ToolError{Code: code, Message: message, Details: details}
}

func NewExecutionError(code, message, suggestion string) *ToolError {
	return &ToolError{Code: code, Message: message, Suggestion: suggestion}
}

func NewValidationError(code, message string, details map[string]any) *ToolError {
	return &ToolError{Code: code, Message: message, Details: details}
}

func asToolError(err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return NewExecutionError("tool_failed", err.Error(), "")
}
