package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultTelegramMode    = ModeWebhook
	DefaultTelegramTimeout = 30 * time.Second

	DefaultWebhookListenAddr      = ":3000"
	DefaultWebhookPath            = "/api/webhook"
	DefaultWebhookMaxBodyBytes    = 1 << 20
	DefaultWebhookReadTimeout     = 10 * time.Second
	DefaultWebhookWriteTimeout    = 30 * time.Second
	DefaultWebhookShutdownTimeout = 10 * time.Second

	DefaultSolverTimeout             = 10 * time.Second
	DefaultSolverMaxExpressionLength = 512
	DefaultSolverDefaultVariable     = "x"

	DefaultDBPath = "storage.db"

	DefaultSessionTTL = 24 * time.Hour

	DefaultHistoryLimit     = 5
	DefaultHistoryRetention = 30 * 24 * time.Hour

	DefaultRateLimitEnabled = true
	DefaultRateLimitRate    = 1.0 // solves per second
	DefaultRateLimitBurst   = 5
	DefaultRateLimitIdleTTL = 10 * time.Minute

	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.2
	DefaultGeminiTimeout     = 30 * time.Second
	DefaultGeminiMaxRetries  = 2
	DefaultGeminiRetryDelay  = time.Second
	DefaultGeminiInstruction = "You are a patient math tutor. Explain step by step, in plain language, " +
		"how the given result is obtained from the given input. Use short numbered steps, " +
		"write formulas in plain text with ** for powers, and do not use Markdown headings."
)

// Scheduled task names.
const (
	TaskSessionCleanup   = "session_cleanup"
	TaskHistoryRetention = "history_retention"
	TaskRateLimitCleanup = "rate_limit_cleanup"
	TaskSQLMaintenance   = "sql_maintenance"
)

// DefaultTasks are six-field cron schedules (with seconds).
var DefaultTasks = map[string]TaskConfig{
	TaskSessionCleanup:   {Enabled: true, Schedule: "0 */10 * * * *"},
	TaskHistoryRetention: {Enabled: true, Schedule: "0 30 3 * * *"},
	TaskRateLimitCleanup: {Enabled: true, Schedule: "0 */5 * * * *"},
	TaskSQLMaintenance:   {Enabled: true, Schedule: "0 0 4 * * 0"},
}

// DefaultMessages are the user-facing texts.
var DefaultMessages = Messages{
	Welcome: "🤖 *Welcome to Math Solver Bot!*\n\n" +
		"I can solve math problems:\n" +
		"• 📊 Arithmetic expressions\n" +
		"• 🧮 Algebraic equations\n" +
		"• 📈 Derivatives\n" +
		"• ∫ Integrals\n\n" +
		"Just send me an expression and I will solve it step by step!",
	MainMenu: "🤖 *Math Solver Bot main menu*\n\n" +
		"Choose an action or just type a math expression!",
	SolveMode: "🧮 *Solve mode*\n\n" +
		"Type any math expression in the chat!\n\n" +
		"*Examples:*\n" +
		"• `2 + 2 * 2`\n" +
		"• `x**2 - 4`\n" +
		"• `solve(x**2 - 9, x)`\n" +
		"• `diff(sin(x), x)`",
	Examples: "📚 *Example problems*\n\n" +
		"Pick an example to solve it, or type your own:",
	Help: "📖 *How to use the bot*\n\n" +
		"*Supported operations:*\n" +
		"• Basic: `+`, `-`, `*`, `/`, `**` (or `^`)\n" +
		"• Functions: `sin(x)`, `cos(x)`, `log(x)`, `sqrt(x)`\n" +
		"• Equations: `solve(x**2 - 4, x)` or `2*x + 3 = 7`\n" +
		"• Derivatives: `diff(x**2, x)`\n" +
		"• Integrals: `integrate(x, x)`\n\n" +
		"*Examples:*\n" +
		"• `(2 + 3) * 5`\n" +
		"• `x**2 + 2*x + 1`\n" +
		"• `solve(x**2 - 9, x)`\n" +
		"• `diff(sin(x), x)`\n\n" +
		"Just type an expression and I will solve it!",
	HistoryHeader:    "🕘 *Your recent solutions*",
	HistoryEmpty:     "🕘 You have not solved anything yet.",
	RateLimited:      "⏳ Too many requests. Please wait a moment and try again.",
	GeneralError:     "❌ An error occurred. Please try again later.",
	ExplainError:     "🤖 Unable to prepare an explanation right now. Please try again.",
	NothingToExplain: "ℹ️ Solve something first, then ask for an explanation.",
}
