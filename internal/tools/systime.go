package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/aatumaykin/mailbot/internal/timeparse"
)

const (
	CurrentTimeToolName = "get_current_time"
	TargetEmailToolName = "get_target_email"
)

func emptyParameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
		"required":   []string{},
	}
}

// validateNoArgs accepts an empty string or any JSON object.
func validateNoArgs(args string) error {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(args), &obj); err != nil {
		return NewValidationError("invalid_arguments", "arguments must be a JSON object",
			map[string]any{"arguments": args})
	}
	return nil
}

// CurrentTimeTool reports the current local date and time.
type CurrentTimeTool struct {
	now func() time.Time
}

// NewCurrentTimeTool creates the tool. A nil clock means time.Now.
func NewCurrentTimeTool(now func() time.Time) *CurrentTimeTool {
	if now == nil {
		now = time.Now
	}
	return &CurrentTimeTool{now: now}
}

func (t *CurrentTimeTool) Name() string { return CurrentTimeToolName }

func (t *CurrentTimeTool) Description() string {
	return "Zwraca aktualną datę i godzinę (DD.MM.YYYY HH:MM)"
}

func (t *CurrentTimeTool) Parameters() map[string]interface{} { return emptyParameters() }

func (t *CurrentTimeTool) Execute(_ context.Context, args string) (string, error) {
	if err := validateNoArgs(args); err != nil {
		return "", err
	}
	return "Aktualna data i godzina: " + timeparse.Format(t.now()), nil
}

type targetEmailKey struct{}

// WithTargetEmail attaches the address of the user being served to ctx.
func WithTargetEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, targetEmailKey{}, email)
}

// TargetEmailFromContext returns the address set by WithTargetEmail.
func TargetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(targetEmailKey{}).(string)
	return email, ok && email != ""
}

// TargetEmailTool reports the recipient address of the current user.
type TargetEmailTool struct {
	fallback string
}

// NewTargetEmailTool creates the tool. fallback is used when the request
// context carries no address.
func NewTargetEmailTool(fallback string) *TargetEmailTool {
	return &TargetEmailTool{fallback: fallback}
}

func (t *TargetEmailTool) Name() string { return TargetEmailToolName }

func (t *TargetEmailTool) Description() string {
	return "Zwraca adres email, na który zostanie wysłana wiadomość"
}

func (t *TargetEmailTool) Parameters() map[string]interface{} { return emptyParameters() }

func (t *TargetEmailTool) Execute(ctx context.Context, args string) (string, error) {
	if err := validateNoArgs(args); err != nil {
		return "", err
	}
	email, ok := TargetEmailFromContext(ctx)
	if !ok {
		email = t.fallback
	}
	if email == "" {
		return "", NewNotFoundError("email_not_set", "target email is not configured",
			"Ask the user to set one with /set")
	}
	return "Aktualny email użytkownika: " + email, nil
}

// NewDefaultRegistry registers both conversation tools.
func NewDefaultRegistry(now func() time.Time, fallbackEmail string) *Registry {
	r := NewRegistry()
	_ = r.Register(NewCurrentTimeTool(now))
	_ = r.Register(NewTargetEmailTool(fallbackEmail))
	return r
}
