package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// Masked returns a copy of the configuration with every secret masked,
// suitable for printing.
func (c Config) Masked() Config {
	out := c
	out.Telegram.Token = maskTelegramToken(c.Telegram.Token)
	out.Telegram.AllowedUsers = append([]int64(nil), c.Telegram.AllowedUsers...)
	out.LLM.APIKey = maskAPIKey(c.LLM.APIKey)
	out.SMTP.SenderPassword = maskSecret(c.SMTP.SenderPassword)
	out.Scheduler.Daily = append([]DailyJob(nil), c.Scheduler.Daily...)
	return out
}

// WriteTOML encodes the configuration with secrets masked.
func (c Config) WriteTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c.Masked()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// visibleSecretChars задаёт, сколько символов секрета видно с каждого края.
const visibleSecretChars = 4

// maskSecret скрывает середину секрета. Короткие секреты скрываются целиком.
func maskSecret(secret string) string {
	switch n := len(secret); {
	case n == 0:
		return ""
	case n < 2*visibleSecretChars:
		return "***"
	default:
		hidden := strings.Repeat("*", n-2*visibleSecretChars)
		return secret[:visibleSecretChars] + hidden + secret[n-visibleSecretChars:]
	}
}

// maskAPIKey маскирует ключ LLM API.
func maskAPIKey(apiKey string) string {
	return maskSecret(apiKey)
}

// maskTelegramToken оставляет видимым bot_id из токена вида <bot_id>:<secret>.
func maskTelegramToken(token string) string {
	botID, secret, ok := strings.Cut(token, ":")
	if !ok || strings.Contains(secret, ":") {
		return maskSecret(token)
	}
	return botID + ":" + maskSecret(secret)
}

// ValidationError описывает ошибку одного поля конфигурации.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// formatValidationError собирает ValidationError; значение секрета, если
// передано, попадает в сообщение только в маскированном виде.
func formatValidationError(field, message, secret string) error {
	msg := field + ": " + message
	if masked := maskSecret(secret); masked != "" {
		msg += " (value: " + masked + ")"
	}
	return &ValidationError{Field: field, Message: msg}
}
