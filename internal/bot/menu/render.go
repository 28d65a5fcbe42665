package menu

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/solver"
)

// Telegram rejects messages over 4096 characters, counted in UTF-16 units.
const (
	maxMessageUnits     = 4000
	maxExpressionUnits  = 200
	maxStepUnits        = 400
	maxErrorUnits       = 1000
	maxResultUnits      = 3000
	maxHistoryUnits     = 120
	maxExplanationUnits = 3500
)

var resultLabels = map[solver.Category]string{
	solver.CategoryEquation:   "Solutions",
	solver.CategoryDerivative: "Derivative",
	solver.CategoryIntegral:   "Integral",
	solver.CategoryExpression: "Result",
}

// RenderSolution formats a solve outcome for legacy Markdown. The message
// always fits in one Telegram message: long expressions are shortened, steps
// that would repeat a long input are left out and the result gets whatever
// room remains.
func RenderSolution(res solver.Result) string {
	var sb strings.Builder
	expr := Code(truncate(res.Expression, maxExpressionUnits))
	if !res.Success {
		sb.WriteString("❌ *Could not solve:* " + expr + "\n\n")
		sb.WriteString("*Error:* " + Code(truncate(res.Error, maxErrorUnits)) + "\n\n")
		sb.WriteString("Check the input and try again.")
		return sb.String()
	}

	sb.WriteString("🧮 *Solving:* " + expr + "\n\n")
	for _, step := range res.Steps {
		if textUnits(step) > maxStepUnits {
			continue
		}
		sb.WriteString("• " + boldV1(step) + "\n")
	}
	label, ok := resultLabels[res.Category]
	if !ok {
		label = "Result"
	}
	sb.WriteString("\n✅ *" + label + ":* ")

	// two backticks and the ellipsis
	room := min(maxResultUnits, maxMessageUnits-textUnits(sb.String())-5)
	sb.WriteString(Code(truncate(res.Result, room)))
	return sb.String()
}

// RenderHistory formats history entries, newest first, under header.
func RenderHistory(header string, entries []database.Solution) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, Code(truncate(e.Expression, maxHistoryUnits)))
		if e.Success {
			sb.WriteString(" → " + Code(truncate(e.Result, maxHistoryUnits)))
		} else {
			sb.WriteString(" → ❌ " + Code(truncate(e.Error, maxHistoryUnits)))
		}
	}
	return sb.String()
}

// RenderExplanation wraps an explainer answer. The answer is sent as plain
// text inside a code block since its Markdown cannot be trusted.
func RenderExplanation(expression, explanation string) string {
	body := strings.ReplaceAll(truncate(explanation, maxExplanationUnits), "```", "'''")
	return "🤖 *Explanation for* " + Code(truncate(expression, maxExpressionUnits)) + "\n\n```\n" + body + "\n```"
}

// Code wraps s in a legacy Markdown code span. Backticks inside s would
// close the span early, so they are replaced.
func Code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// boldV1 converts **bold** markers outside code spans into the single
// asterisks legacy Markdown expects.
func boldV1(s string) string {
	parts := strings.Split(s, "`")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = strings.ReplaceAll(parts[i], "**", "*")
	}
	return strings.Join(parts, "`")
}

// truncate cuts s to at most maxUnits UTF-16 units, marking the cut with "...".
func truncate(s string, maxUnits int) string {
	if textUnits(s) <= maxUnits {
		return s
	}
	n := 0
	for i, r := range s {
		n += utf16.RuneLen(r)
		if n > maxUnits {
			return s[:i] + "..."
		}
	}
	return s
}

// textUnits is the length of s as Telegram counts it.
func textUnits(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
