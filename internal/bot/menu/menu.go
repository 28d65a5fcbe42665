// Package menu builds the inline keyboards and Markdown texts shown to users.
// Everything here is pure so handlers can be tested against fixed output.
package menu

import (
	"github.com/go-telegram/bot/models"
)

// Callback data values.
const (
	CallbackMainMenu     = "main_menu"
	CallbackSolveMath    = "solve_math"
	CallbackShowExamples = "show_examples"
	CallbackHelp         = "help"
	CallbackHistory      = "history"
	CallbackExplain      = "explain"
	CallbackExamplePfx   = "example_"
)

// Example is a canned problem offered in the examples menu.
type Example struct {
	Label      string
	Callback   string
	Expression string
}

// Examples are shown in this order.
var Examples = []Example{
	{Label: "2 + 2 * 2", Callback: "example_2+2*2", Expression: "2 + 2 * 2"},
	{Label: "x**2 - 4", Callback: "example_x^2-4", Expression: "x**2 - 4"},
	{Label: "diff(x**2, x)", Callback: "example_diff", Expression: "diff(x**2, x)"},
	{Label: "integrate(x, x)", Callback: "example_integrate", Expression: "integrate(x, x)"},
	{Label: "solve(x**2 - 4, x)", Callback: "example_solve", Expression: "solve(x**2 - 4, x)"},
}

// ExampleExpression returns the expression behind an example callback.
func ExampleExpression(data string) (string, bool) {
	for _, ex := range Examples {
		if ex.Callback == data {
			return ex.Expression, true
		}
	}
	return "", false
}

func button(text, data string) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{{Text: text, CallbackData: data}}
}

// MainMenu lists the top-level actions, one per row.
func MainMenu(withHistory bool) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		button("🧮 Solve a problem", CallbackSolveMath),
		button("📚 Examples", CallbackShowExamples),
	}
	if withHistory {
		rows = append(rows, button("🕘 History", CallbackHistory))
	}
	rows = append(rows, button("ℹ️ Help", CallbackHelp))
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// BackButton is a single button returning to target.
func BackButton(target string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{button("🔙 Back", target)},
	}
}

// ExamplesMenu lists every example followed by a back button.
func ExamplesMenu() *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(Examples)+1)
	for _, ex := range Examples {
		rows = append(rows, button(ex.Label, ex.Callback))
	}
	rows = append(rows, button("🔙 Back", CallbackMainMenu))
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ResultKeyboard is attached to solve results. The explain button is only
// offered when an explainer is available.
func ResultKeyboard(explain bool) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	if explain {
		rows = append(rows, button("🤖 Explain", CallbackExplain))
	}
	rows = append(rows, button("🔙 Back", CallbackSolveMath))
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
