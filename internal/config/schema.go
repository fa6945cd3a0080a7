// Package config provides configuration loading and validation for Mailbot.
// It supports TOML configuration files with environment variable expansion,
// default values, and validation that reports every problem at once.
//
// Configuration structure:
//   - [telegram]: Bot token, allow-list, timeouts and inbound rate limit
//   - [llm]: OpenAI-compatible endpoint, chat and transcription models
//   - [smtp]: Outgoing mail server and sender credentials
//   - [conversation]: Default recipient, history cap, session TTL, attachments
//   - [scheduler]: Poll interval and daily recurring emails
//   - [metrics]: Prometheus endpoint
//   - [logging]: Logging level, format, and output
//   - [message_bus]: Message bus capacity settings
//
// Environment variables:
// String values can reference ${VAR} or ${VAR:default}.
// For example: api_key = "${OPENAI_API_KEY}"
package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Telegram     TelegramConfig     `toml:"telegram"`
	LLM          LLMConfig          `toml:"llm"`
	SMTP         SMTPConfig         `toml:"smtp"`
	Conversation ConversationConfig `toml:"conversation"`
	Scheduler    SchedulerConfig    `toml:"scheduler"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Logging      LoggingConfig      `toml:"logging"`
	MessageBus   MessageBusConfig   `toml:"message_bus"`
}

// TelegramConfig представляет конфигурацию Telegram бота
type TelegramConfig struct {
	Token                  string  `toml:"token"`
	AllowedUsers           []int64 `toml:"allowed_users"` // пусто = все
	SendTimeoutSeconds     int     `toml:"send_timeout_seconds"`
	DownloadTimeoutSeconds int     `toml:"download_timeout_seconds"`
	RateLimitPerMinute     int     `toml:"rate_limit_per_minute"`
}

// SendTimeout returns the outbound message timeout.
func (c TelegramConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// DownloadTimeout returns the file download timeout.
func (c TelegramConfig) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// LLMConfig представляет конфигурацию LLM провайдера
type LLMConfig struct {
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	Model              string  `toml:"model"`
	MaxTokens          int     `toml:"max_tokens"`
	Temperature        float64 `toml:"temperature"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	TranscriptionModel string  `toml:"transcription_model"`
}

// SMTPConfig представляет конфигурацию SMTP сервера
type SMTPConfig struct {
	Server         string `toml:"server"`
	Port           int    `toml:"port"`
	SenderEmail    string `toml:"sender_email"`
	SenderPassword string `toml:"sender_password"`
	UseTLS         bool   `toml:"use_tls"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the SMTP conversation timeout.
func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConversationConfig представляет конфигурацию диалогов
type ConversationConfig struct {
	DefaultRecipient string `toml:"default_recipient"`
	MaxHistory       int    `toml:"max_history"`
	IdleTTLMinutes   int    `toml:"idle_ttl_minutes"`
	AttachmentsDir   string `toml:"attachments_dir"`
	PromptFile       string `toml:"prompt_file"`
}

// IdleTTL returns how long an idle session is kept.
func (c ConversationConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleTTLMinutes) * time.Minute
}

// SchedulerConfig представляет конфигурацию планировщика
type SchedulerConfig struct {
	PollIntervalSeconds int        `toml:"poll_interval_seconds"`
	Daily               []DailyJob `toml:"daily"`
}

// PollInterval returns the scheduler tick interval.
func (c SchedulerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// DailyJob is a recurring email sent every day at Time (HH:MM).
// An empty Recipient means conversation.default_recipient.
type DailyJob struct {
	Time      string `toml:"time"`
	Recipient string `toml:"recipient"`
	Subject   string `toml:"subject"`
	Body      string `toml:"body"`
}

// MetricsConfig представляет конфигурацию Prometheus метрик
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MessageBusConfig представляет конфигурацию шины сообщений
type MessageBusConfig struct {
	Capacity int `toml:"capacity"`
}
