package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aatumaykin/mailbot/internal/mail"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "./config.toml"

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse разбирает TOML, применяет значения по умолчанию и раскрывает переменные окружения
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandEnvVars(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate проверяет валидность конфигурации и возвращает все найденные ошибки.
// Missing SMTP credentials are not an error here: they surface when an email
// is actually sent.
func (c *Config) Validate() []error {
	var errors []error

	// Telegram
	if c.Telegram.Token == "" {
		errors = append(errors, fmt.Errorf("telegram.token is required"))
	} else if err := validateTelegramToken(c.Telegram.Token); err != nil {
		errors = append(errors, err)
	}
	if c.Telegram.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Errorf("telegram.rate_limit_per_minute must be >= 0"))
	}

	// LLM
	if c.LLM.APIKey == "" {
		errors = append(errors, fmt.Errorf("llm.api_key is required"))
	} else if err := validateAPIKey(c.LLM.APIKey, "llm.api_key"); err != nil {
		errors = append(errors, err)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, fmt.Errorf("llm.temperature must be between 0 and 2 (got %g)", c.LLM.Temperature))
	}

	// SMTP
	if c.SMTP.Server == "" {
		errors = append(errors, fmt.Errorf("smtp.server is required"))
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		errors = append(errors, fmt.Errorf("smtp.port must be between 1 and 65535 (got %d)", c.SMTP.Port))
	}
	if c.SMTP.SenderEmail != "" && !mail.ValidAddress(c.SMTP.SenderEmail) {
		errors = append(errors, fmt.Errorf("smtp.sender_email is not a valid address: %s", c.SMTP.SenderEmail))
	}

	// Conversation
	if c.Conversation.DefaultRecipient != "" && !mail.ValidAddress(c.Conversation.DefaultRecipient) {
		errors = append(errors, fmt.Errorf("conversation.default_recipient is not a valid address: %s", c.Conversation.DefaultRecipient))
	}
	if c.Conversation.MaxHistory < 1 {
		errors = append(errors, fmt.Errorf("conversation.max_history must be >= 1"))
	}
	if c.Conversation.IdleTTLMinutes < 0 {
		errors = append(errors, fmt.Errorf("conversation.idle_ttl_minutes must be >= 0"))
	}
	if err := validatePath(c.Conversation.AttachmentsDir, "conversation.attachments_dir"); err != nil {
		errors = append(errors, err)
	}

	// Scheduler
	if c.Scheduler.PollIntervalSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.poll_interval_seconds must be >= 1"))
	}
	errors = append(errors, c.validateDaily()...)

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	// Logging
	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.MessageBus.Capacity < 1 {
		errors = append(errors, fmt.Errorf("message_bus.capacity must be >= 1"))
	}

	return errors
}

func (c *Config) validateDaily() []error {
	var errors []error
	for i, job := range c.Scheduler.Daily {
		field := fmt.Sprintf("scheduler.daily[%d]", i)
		if _, err := scheduler.ParseTimeOfDay(job.Time); err != nil {
			errors = append(errors, fmt.Errorf("%s.time: %w", field, err))
		}
		recipient := job.Recipient
		if recipient == "" {
			recipient = c.Conversation.DefaultRecipient
		}
		if recipient == "" {
			errors = append(errors, fmt.Errorf("%s.recipient is required when conversation.default_recipient is empty", field))
		} else if !mail.ValidAddress(recipient) {
			errors = append(errors, fmt.Errorf("%s.recipient is not a valid address: %s", field, recipient))
		}
		if job.Subject == "" && job.Body == "" {
			errors = append(errors, fmt.Errorf("%s needs a subject or a body", field))
		}
	}
	return errors
}

// Helper validation functions
func validateAPIKey(key, fieldName string) error {
	if key == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if len(key) < 10 {
		return formatValidationError(fieldName, fmt.Sprintf("is too short (minimum 10 characters, got %d)", len(key)), key)
	}

	return nil
}

func validateTelegramToken(token string) error {
	if token == "" {
		return fmt.Errorf("telegram token cannot be empty")
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", maskSecret(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Telegram.SendTimeoutSeconds == 0 {
		c.Telegram.SendTimeoutSeconds = 10
	}
	if c.Telegram.DownloadTimeoutSeconds == 0 {
		c.Telegram.DownloadTimeoutSeconds = 30
	}
	if c.Telegram.RateLimitPerMinute == 0 {
		c.Telegram.RateLimitPerMinute = 20
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-3.5-turbo"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.TranscriptionModel == "" {
		c.LLM.TranscriptionModel = "whisper-1"
	}

	if c.SMTP.Server == "" {
		c.SMTP.Server = "s134.cyber-folks.pl"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = mail.ImplicitTLSPort
	}
	if c.SMTP.TimeoutSeconds == 0 {
		c.SMTP.TimeoutSeconds = 30
	}

	if c.Conversation.MaxHistory == 0 {
		c.Conversation.MaxHistory = 10
	}
	if c.Conversation.IdleTTLMinutes == 0 {
		c.Conversation.IdleTTLMinutes = 24 * 60
	}
	if c.Conversation.AttachmentsDir == "" {
		c.Conversation.AttachmentsDir = "./attachments"
	}

	if c.Scheduler.PollIntervalSeconds == 0 {
		c.Scheduler.PollIntervalSeconds = 60
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.MessageBus.Capacity == 0 {
		c.MessageBus.Capacity = 100
	}
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) {
	c.Telegram.Token = expandEnv(c.Telegram.Token)

	c.LLM.APIKey = expandEnv(c.LLM.APIKey)
	c.LLM.BaseURL = expandEnv(c.LLM.BaseURL)

	c.SMTP.Server = expandEnv(c.SMTP.Server)
	c.SMTP.SenderEmail = expandEnv(c.SMTP.SenderEmail)
	c.SMTP.SenderPassword = expandEnv(c.SMTP.SenderPassword)

	c.Conversation.DefaultRecipient = expandEnv(c.Conversation.DefaultRecipient)
	c.Conversation.AttachmentsDir = expandHome(expandEnv(c.Conversation.AttachmentsDir))
	c.Conversation.PromptFile = expandHome(expandEnv(c.Conversation.PromptFile))

	for i := range c.Scheduler.Daily {
		c.Scheduler.Daily[i].Recipient = expandEnv(c.Scheduler.Daily[i].Recipient)
	}

	c.Metrics.Listen = expandEnv(c.Metrics.Listen)
	c.Logging.Output = expandHome(expandEnv(c.Logging.Output))
}

// expandEnv расширяет переменную окружения формата ${VAR:default}
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	// Без значения по умолчанию
	return os.Getenv(content)
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
