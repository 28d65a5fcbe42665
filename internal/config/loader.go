package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. a .env file in the working directory (optional)
// 4. BOT_* environment variables, plus BOT_TOKEN and VERCEL_URL
func Load(path string) (*Config, error) {
	// .env is a convenience for local runs; a missing file is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if err := loadConfig(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if cfg.Webhook.Secret == "" {
		cfg.Webhook.Secret = cfg.Telegram.Token
	}
	cfg.Webhook.BaseURL = strings.TrimRight(cfg.Webhook.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// loadConfig wires the environment and reads the config file when present.
func loadConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by the serverless deployment.
	if err := v.BindEnv("telegram.token", "BOT_TELEGRAM_TOKEN", "BOT_TOKEN"); err != nil {
		return err
	}
	if err := v.BindEnv("webhook.base_url", "BOT_WEBHOOK_BASE_URL", "VERCEL_URL"); err != nil {
		return err
	}
	if err := v.BindEnv("gemini.api_key", "BOT_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return err
	}

	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults registers every key so that environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.mode", DefaultTelegramMode)
	v.SetDefault("telegram.timeout", DefaultTelegramTimeout)

	v.SetDefault("webhook.listen_addr", DefaultWebhookListenAddr)
	v.SetDefault("webhook.path", DefaultWebhookPath)
	v.SetDefault("webhook.base_url", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.register_on_start", false)
	v.SetDefault("webhook.drop_pending_updates", false)
	v.SetDefault("webhook.max_body_bytes", DefaultWebhookMaxBodyBytes)
	v.SetDefault("webhook.read_timeout", DefaultWebhookReadTimeout)
	v.SetDefault("webhook.write_timeout", DefaultWebhookWriteTimeout)
	v.SetDefault("webhook.shutdown_timeout", DefaultWebhookShutdownTimeout)

	v.SetDefault("solver.timeout", DefaultSolverTimeout)
	v.SetDefault("solver.max_expression_length", DefaultSolverMaxExpressionLength)
	v.SetDefault("solver.default_variable", DefaultSolverDefaultVariable)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("session.ttl", DefaultSessionTTL)

	v.SetDefault("history.limit", DefaultHistoryLimit)
	v.SetDefault("history.retention", DefaultHistoryRetention)

	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rate", DefaultRateLimitRate)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.idle_ttl", DefaultRateLimitIdleTTL)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.timeout", DefaultGeminiTimeout)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay", DefaultGeminiRetryDelay)
	v.SetDefault("gemini.instruction", DefaultGeminiInstruction)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.main_menu", DefaultMessages.MainMenu)
	v.SetDefault("messages.solve_mode", DefaultMessages.SolveMode)
	v.SetDefault("messages.examples", DefaultMessages.Examples)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.history_header", DefaultMessages.HistoryHeader)
	v.SetDefault("messages.history_empty", DefaultMessages.HistoryEmpty)
	v.SetDefault("messages.rate_limited", DefaultMessages.RateLimited)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.explain_error", DefaultMessages.ExplainError)
	v.SetDefault("messages.nothing_to_explain", DefaultMessages.NothingToExplain)
}
