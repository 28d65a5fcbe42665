package solver

import "strings"

// Category is the kind of task a piece of input asks for.
type Category string

const (
	CategoryEquation   Category = "equation"
	CategoryDerivative Category = "derivative"
	CategoryIntegral   Category = "integral"
	CategoryExpression Category = "expression"
)

var notation = strings.NewReplacer(
	"^", "**",
	"÷", "/",
	"×", "*",
	"·", "*",
	"−", "-",
)

// Normalize rewrites common alternate notations into the engine syntax
// and trims surrounding whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(notation.Replace(text))
}

// Classify assigns a category by substring markers; the first rule that
// matches wins. Input is not validated here.
func Classify(text string) Category {
	switch {
	case strings.Contains(text, "solve("):
		return CategoryEquation
	case strings.Contains(text, "diff(") || strings.Contains(text, "derivative"):
		return CategoryDerivative
	case strings.Contains(text, "integrate(") || strings.Contains(text, "integral"):
		return CategoryIntegral
	case strings.Contains(text, "="):
		return CategoryEquation
	}
	return CategoryExpression
}
