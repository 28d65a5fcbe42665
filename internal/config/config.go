// Package config loads, defaults and validates the bot configuration.
package config

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Telegram update delivery modes.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Solver    SolverConfig    `mapstructure:"solver"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	History   HistoryConfig   `mapstructure:"history"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  Messages        `mapstructure:"messages"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type TelegramConfig struct {
	Token   string        `mapstructure:"token"   validate:"required"`
	Mode    string        `mapstructure:"mode"    validate:"oneof=webhook polling"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=5m"`
}

// WebhookConfig configures the HTTP adapter. Secret defaults to the bot token.
type WebhookConfig struct {
	ListenAddr         string        `mapstructure:"listen_addr"          validate:"required"`
	Path               string        `mapstructure:"path"                 validate:"required,startswith=/"`
	BaseURL            string        `mapstructure:"base_url"             validate:"required_if=RegisterOnStart true"`
	Secret             string        `mapstructure:"secret"`
	RegisterOnStart    bool          `mapstructure:"register_on_start"`
	DropPendingUpdates bool          `mapstructure:"drop_pending_updates"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes"       validate:"min=1024"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"         validate:"min=1s"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"        validate:"min=1s"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"     validate:"min=1s"`
}

type SolverConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"               validate:"min=100ms,max=5m"`
	MaxExpressionLength int           `mapstructure:"max_expression_length" validate:"min=1,max=4096"`
	DefaultVariable     string        `mapstructure:"default_variable"      validate:"required,alpha"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=1m"`
}

type HistoryConfig struct {
	Limit     int           `mapstructure:"limit"     validate:"min=1,max=50"`
	Retention time.Duration `mapstructure:"retention" validate:"min=1h"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Rate    float64       `mapstructure:"rate"     validate:"gt=0"`
	Burst   int           `mapstructure:"burst"    validate:"min=1"`
	IdleTTL time.Duration `mapstructure:"idle_ttl" validate:"min=1m"`
}

// GeminiConfig enables the optional explainer when APIKey is set.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Instruction string        `mapstructure:"instruction" validate:"required"`
}

// Enabled reports whether an API key was configured.
func (g GeminiConfig) Enabled() bool { return g.APIKey != "" }

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// Messages holds the user-facing texts (Telegram Markdown).
type Messages struct {
	Welcome          string `mapstructure:"welcome"            validate:"required"`
	MainMenu         string `mapstructure:"main_menu"          validate:"required"`
	SolveMode        string `mapstructure:"solve_mode"         validate:"required"`
	Examples         string `mapstructure:"examples"           validate:"required"`
	Help             string `mapstructure:"help"               validate:"required"`
	HistoryHeader    string `mapstructure:"history_header"     validate:"required"`
	HistoryEmpty     string `mapstructure:"history_empty"      validate:"required"`
	RateLimited      string `mapstructure:"rate_limited"       validate:"required"`
	GeneralError     string `mapstructure:"general_error"      validate:"required"`
	ExplainError     string `mapstructure:"explain_error"      validate:"required"`
	NothingToExplain string `mapstructure:"nothing_to_explain" validate:"required"`
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Telegram.Mode == ModeWebhook && c.Webhook.Secret == "" {
		return errors.New("webhook.secret must not be empty in webhook mode")
	}
	return nil
}
