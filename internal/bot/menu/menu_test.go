package menu

import (
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/solver"
)

func callbacks(kb *models.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.CallbackData)
		}
	}
	return out
}

func TestKeyboards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kb   *models.InlineKeyboardMarkup
		want []string
	}{
		{"main menu", MainMenu(false), []string{"solve_math", "show_examples", "help"}},
		{"main menu with history", MainMenu(true), []string{"solve_math", "show_examples", "history", "help"}},
		{"back", BackButton("solve_math"), []string{"solve_math"}},
		{"examples", ExamplesMenu(), []string{
			"example_2+2*2", "example_x^2-4", "example_diff", "example_integrate", "example_solve", "main_menu",
		}},
		{"result", ResultKeyboard(false), []string{"solve_math"}},
		{"result with explain", ResultKeyboard(true), []string{"explain", "solve_math"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := callbacks(tt.kb)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("callbacks = %v, want %v", got, tt.want)
			}
			for _, row := range tt.kb.InlineKeyboard {
				if len(row) != 1 {
					t.Errorf("row has %d buttons, want 1", len(row))
				}
			}
		})
	}
}

func TestExampleExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data string
		want string
		ok   bool
	}{
		{"example_2+2*2", "2 + 2 * 2", true},
		{"example_x^2-4", "x**2 - 4", true},
		{"example_diff", "diff(x**2, x)", true},
		{"example_integrate", "integrate(x, x)", true},
		{"example_solve", "solve(x**2 - 4, x)", true},
		{"example_unknown", "", false},
		{"main_menu", "", false},
	}
	for _, tt := range tests {
		got, ok := ExampleExpression(tt.data)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExampleExpression(%q) = %q, %v; want %q, %v", tt.data, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRenderSolution(t *testing.T) {
	t.Parallel()

	ok := RenderSolution(solver.Result{
		Success:    true,
		Category:   solver.CategoryEquation,
		Expression: "solve(x**2 - 4, x)",
		Steps:      []string{"**Equation:** `x**2 - 4 = 0`", "**Step 1:** Bring the equation to standard form"},
		Result:     "[-2, 2]",
	})
	for _, want := range []string{
		"🧮 *Solving:* `solve(x**2 - 4, x)`",
		"• *Equation:* `x**2 - 4 = 0`",
		"• *Step 1:* Bring the equation to standard form",
		"✅ *Solutions:* `[-2, 2]`",
	} {
		if !strings.Contains(ok, want) {
			t.Errorf("success render missing %q:\n%s", want, ok)
		}
	}

	failed := RenderSolution(solver.Result{
		Category:   solver.CategoryExpression,
		Expression: "2 +",
		Error:      "syntax error: unexpected end of input",
	})
	for _, want := range []string{
		"❌ *Could not solve:* `2 +`",
		"*Error:* `syntax error: unexpected end of input`",
		"Check the input and try again.",
	} {
		if !strings.Contains(failed, want) {
			t.Errorf("failure render missing %q:\n%s", want, failed)
		}
	}
	if strings.Contains(failed, "✅") {
		t.Errorf("failure render contains a result line:\n%s", failed)
	}
}

func TestRenderSolutionNeutralisesBackticks(t *testing.T) {
	t.Parallel()

	out := RenderSolution(solver.Result{Expression: "2 ` 3", Error: "bad `token`"})
	if strings.Count(out, "`")%2 != 0 {
		t.Errorf("unbalanced code spans:\n%s", out)
	}
	if !strings.Contains(out, "`2 ' 3`") {
		t.Errorf("backtick not replaced:\n%s", out)
	}
}

func TestRenderSolutionTruncatesLongResults(t *testing.T) {
	t.Parallel()

	out := RenderSolution(solver.Result{
		Success:    true,
		Category:   solver.CategoryExpression,
		Expression: "expand((x + 1)**64)",
		Result:     strings.Repeat("x", maxResultUnits+100),
	})
	if len([]rune(out)) > 4096 {
		t.Errorf("rendered message has %d runes, over the Telegram limit", len([]rune(out)))
	}
	if !strings.Contains(out, "...`") {
		t.Errorf("truncated result missing ellipsis")
	}
}

func TestRenderSolutionFitsOneMessage(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x + ", 128)
	wide := strings.Repeat("𝑥", 5000)
	tests := []struct {
		name string
		res  solver.Result
	}{
		{"long input and result", solver.Result{
			Success:    true,
			Category:   solver.CategoryEquation,
			Expression: long,
			Steps: []string{
				"**Expression:** `" + long + "`",
				"**Variable:** `x`",
				"**Solving for:** `" + long + " = 0`",
			},
			Result: strings.Repeat("-2, ", 2000),
		}},
		{"astral characters", solver.Result{
			Success:    true,
			Category:   solver.CategoryExpression,
			Expression: wide,
			Steps:      []string{"**Expression:** `" + wide + "`"},
			Result:     wide,
		}},
		{"long error", solver.Result{
			Category:   solver.CategoryExpression,
			Expression: long,
			Error:      "syntax error: " + wide,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := RenderSolution(tt.res)
			if n := textUnits(out); n > 4096 {
				t.Errorf("rendered message is %d UTF-16 units, over the Telegram limit", n)
			}
			if strings.Count(out, "`")%2 != 0 {
				t.Errorf("unbalanced code spans after truncation")
			}
		})
	}

	short := RenderSolution(solver.Result{
		Success:    true,
		Category:   solver.CategoryExpression,
		Expression: "2 + 2",
		Steps:      []string{"**Expression:** `2 + 2`"},
		Result:     "4",
	})
	if !strings.Contains(short, "• *Expression:* `2 + 2`") {
		t.Errorf("short steps dropped:\n%s", short)
	}
}

func TestRenderHistory(t *testing.T) {
	t.Parallel()

	out := RenderHistory("🕘 *Your recent solutions*", []database.Solution{
		{Expression: "diff(x**2, x)", Success: true, Result: "2*x"},
		{Expression: "2 +", Error: "syntax error"},
	})
	want := "🕘 *Your recent solutions*\n" +
		"\n1. `diff(x**2, x)` → `2*x`" +
		"\n2. `2 +` → ❌ `syntax error`"
	if out != want {
		t.Errorf("RenderHistory() =\n%s\nwant\n%s", out, want)
	}
}

func TestRenderExplanation(t *testing.T) {
	t.Parallel()

	out := RenderExplanation("x**2", "Use ```the power rule```.")
	if strings.Count(out, "```") != 2 {
		t.Errorf("explanation escapes its code block:\n%s", out)
	}
	if !strings.HasPrefix(out, "🤖 *Explanation for* `x**2`") {
		t.Errorf("unexpected header:\n%s", out)
	}
}
