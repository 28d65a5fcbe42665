package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/mathsolverbot/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "BOT_TELEGRAM_TOKEN", "VERCEL_URL", "BOT_WEBHOOK_BASE_URL",
		"BOT_WEBHOOK_SECRET", "BOT_LOG_LEVEL", "GEMINI_API_KEY", "BOT_GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123:abc")
	}
	if cfg.Webhook.Secret != "123:abc" {
		t.Errorf("Webhook.Secret = %q, want the bot token", cfg.Webhook.Secret)
	}
	if cfg.Telegram.Mode != config.ModeWebhook {
		t.Errorf("Telegram.Mode = %q, want %q", cfg.Telegram.Mode, config.ModeWebhook)
	}
	if cfg.Webhook.ListenAddr != ":3000" {
		t.Errorf("Webhook.ListenAddr = %q, want :3000", cfg.Webhook.ListenAddr)
	}
	if cfg.Solver.Timeout != config.DefaultSolverTimeout {
		t.Errorf("Solver.Timeout = %v, want %v", cfg.Solver.Timeout, config.DefaultSolverTimeout)
	}
	if cfg.Solver.DefaultVariable != "x" {
		t.Errorf("Solver.DefaultVariable = %q, want x", cfg.Solver.DefaultVariable)
	}
	if cfg.Messages.Welcome != config.DefaultMessages.Welcome {
		t.Errorf("Messages.Welcome not defaulted")
	}
	if cfg.Gemini.Enabled() {
		t.Errorf("Gemini.Enabled() = true without an API key")
	}
	if len(cfg.Scheduler.Tasks) != len(config.DefaultTasks) {
		t.Errorf("Scheduler.Tasks has %d entries, want %d", len(cfg.Scheduler.Tasks), len(config.DefaultTasks))
	}
}

func TestLoadFileOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  token: "42:file"
  mode: polling
solver:
  timeout: 2s
  max_expression_length: 64
webhook:
  secret: s3cret
scheduler:
  tasks:
    session_cleanup:
      enabled: false
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Mode != config.ModePolling {
		t.Errorf("Telegram.Mode = %q, want polling", cfg.Telegram.Mode)
	}
	if cfg.Solver.Timeout != 2*time.Second {
		t.Errorf("Solver.Timeout = %v, want 2s", cfg.Solver.Timeout)
	}
	if cfg.Solver.MaxExpressionLength != 64 {
		t.Errorf("Solver.MaxExpressionLength = %d, want 64", cfg.Solver.MaxExpressionLength)
	}
	if cfg.Webhook.Secret != "s3cret" {
		t.Errorf("Webhook.Secret = %q, want s3cret", cfg.Webhook.Secret)
	}
	if cfg.Scheduler.Tasks[config.TaskSessionCleanup].Enabled {
		t.Errorf("session_cleanup should be disabled")
	}
	if got := cfg.Scheduler.Tasks[config.TaskSessionCleanup].Schedule; got != config.DefaultTasks[config.TaskSessionCleanup].Schedule {
		t.Errorf("session_cleanup schedule = %q, want default", got)
	}
	if !cfg.Scheduler.Tasks[config.TaskSQLMaintenance].Enabled {
		t.Errorf("sql_maintenance should keep its default")
	}
}

func TestLoadEnvironmentAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "1:tok")
	t.Setenv("VERCEL_URL", "my-bot.vercel.app/")
	t.Setenv("BOT_LOG_LEVEL", "debug")
	path := writeConfig(t, "webhook:\n  register_on_start: true\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Webhook.BaseURL != "my-bot.vercel.app" {
		t.Errorf("Webhook.BaseURL = %q, want trimmed VERCEL_URL", cfg.Webhook.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		body string
	}{
		{
			name: "missing token",
			body: "log:\n  level: info\n",
		},
		{
			name: "bad log level",
			env:  map[string]string{"BOT_TOKEN": "1:tok"},
			body: "log:\n  level: verbose\n",
		},
		{
			name: "register without base url",
			env:  map[string]string{"BOT_TOKEN": "1:tok"},
			body: "webhook:\n  register_on_start: true\n",
		},
		{
			name: "bad mode",
			env:  map[string]string{"BOT_TOKEN": "1:tok"},
			body: "telegram:\n  mode: carrier-pigeon\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeConfig(t, tt.body))
			if !errors.Is(err, config.ErrConfiguration) {
				t.Errorf("Load() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
