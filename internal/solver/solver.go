// Package solver turns free-form math text into a step-annotated answer by
// normalising it, classifying it and dispatching it to the algebra engine.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/edgard/mathsolverbot/internal/cas"
	"github.com/edgard/mathsolverbot/internal/config"
)

var (
	ErrEmpty   = errors.New("empty expression")
	ErrTooLong = errors.New("expression too long")
	ErrTimeout = errors.New("computation timed out")
)

const maxDiffOrder = 10

// Result is the outcome of one solve. Success is false exactly when Result
// is empty and Error is set.
type Result struct {
	Success    bool
	Category   Category
	Expression string
	Steps      []string
	Result     string
	Error      string
}

// Solver dispatches expressions to the algebra engine under a time limit.
type Solver struct {
	timeout    time.Duration
	maxLen     int
	defaultVar string
	log        *slog.Logger
}

// New creates a Solver from configuration.
func New(cfg config.SolverConfig, log *slog.Logger) *Solver {
	return &Solver{
		timeout:    cfg.Timeout,
		maxLen:     cfg.MaxExpressionLength,
		defaultVar: cfg.DefaultVariable,
		log:        log.With("component", "solver"),
	}
}

type outcome struct {
	steps  []string
	result string
	err    error
}

// Solve normalises and classifies text, then runs the matching engine
// operation. Engine failures are reported in the Result, never returned.
func (s *Solver) Solve(ctx context.Context, text string) Result {
	expr := Normalize(text)
	res := Result{Category: Classify(expr), Expression: expr}

	switch {
	case expr == "":
		return res.fail(ErrEmpty)
	case utf8.RuneCountInString(expr) > s.maxLen:
		return res.fail(fmt.Errorf("%w: at most %d characters are allowed", ErrTooLong, s.maxLen))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The engine is not interruptible; a timed-out computation finishes in
	// the background and its outcome is dropped.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Engine panicked", "expression", expr, "panic", r)
				done <- outcome{err: errors.New("internal error while solving")}
			}
		}()
		steps, result, err := s.dispatch(expr, res.Category)
		done <- outcome{steps: steps, result: result, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			s.log.Debug("Solve failed", "category", res.Category, "error", o.err)
			return res.fail(o.err)
		}
		res.Success = true
		res.Steps = o.steps
		res.Result = o.result
		return res
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		s.log.Warn("Solve aborted", "category", res.Category, "error", err)
		return res.fail(err)
	}
}

func (r Result) fail(err error) Result {
	r.Success = false
	r.Steps = nil
	r.Result = ""
	r.Error = err.Error()
	return r
}

func (s *Solver) dispatch(expr string, category Category) ([]string, string, error) {
	switch category {
	case CategoryEquation:
		return s.solveEquation(expr)
	case CategoryDerivative:
		return s.solveDerivative(expr)
	case CategoryIntegral:
		return s.solveIntegral(expr)
	}
	return s.solveExpression(expr)
}

func (s *Solver) solveExpression(expr string) ([]string, string, error) {
	e, err := cas.Parse(expr)
	if err != nil {
		return nil, "", err
	}
	simplified, err := cas.Simplify(e)
	if err != nil {
		return nil, "", err
	}
	steps := []string{
		"**Expression:** " + code(expr),
		"**Step 1:** Parse and analyse the expression",
		"**Step 2:** Evaluate",
		"**Step 3:** Simplify the result",
	}
	return steps, simplified.String(), nil
}

func (s *Solver) solveEquation(expr string) ([]string, string, error) {
	equation, explicit := expr, ""
	if args, ok := findCall(expr, "solve"); ok {
		switch len(args) {
		case 1:
			equation = args[0]
		case 2:
			equation, explicit = args[0], args[1]
		default:
			return nil, "", fmt.Errorf("%w: solve expects 1 or 2 arguments, got %d", cas.ErrSyntax, len(args))
		}
	}

	residual, err := cas.ParseEquation(equation)
	if err != nil {
		return nil, "", err
	}
	v, err := s.variable(residual, explicit)
	if err != nil {
		return nil, "", err
	}
	roots, err := cas.Solve(residual, v)
	if err != nil {
		return nil, "", err
	}
	steps := []string{
		"**Equation:** " + code(residual.String()+" = 0"),
		"**Step 1:** Bring the equation to standard form",
		"**Step 2:** Find the roots for " + code(v),
	}
	return steps, cas.FormatList(roots), nil
}

func (s *Solver) solveDerivative(expr string) ([]string, string, error) {
	fn, explicit, order := "", "", 1
	if args, ok := findCall(expr, "diff", "derivative"); ok {
		switch len(args) {
		case 3:
			n, err := parseOrder(args[2])
			if err != nil {
				return nil, "", err
			}
			order = n
			fallthrough
		case 2:
			explicit = args[1]
			fallthrough
		case 1:
			fn = args[0]
		default:
			return nil, "", fmt.Errorf("%w: diff expects 1 to 3 arguments, got %d", cas.ErrSyntax, len(args))
		}
	} else {
		fn = stripPhrase(expr)
	}

	e, err := cas.Parse(fn)
	if err != nil {
		return nil, "", err
	}
	v, err := s.variable(e, explicit)
	if err != nil {
		return nil, "", err
	}
	d, err := cas.DiffN(e, v, order)
	if err != nil {
		return nil, "", err
	}
	d, err = cas.Simplify(d)
	if err != nil {
		return nil, "", err
	}
	steps := []string{
		"**Function:** " + code(e.String()),
		"**Step 1:** Differentiate with respect to " + code(v),
		"**Step 2:** Simplify the result",
	}
	return steps, d.String(), nil
}

func (s *Solver) solveIntegral(expr string) ([]string, string, error) {
	fn, explicit := "", ""
	if args, ok := findCall(expr, "integrate", "integral"); ok {
		switch len(args) {
		case 2:
			explicit = args[1]
			fallthrough
		case 1:
			fn = args[0]
		default:
			return nil, "", fmt.Errorf("%w: integrate expects 1 or 2 arguments, got %d", cas.ErrSyntax, len(args))
		}
	} else {
		fn = stripPhrase(expr)
	}

	e, err := cas.Parse(fn)
	if err != nil {
		return nil, "", err
	}
	v, err := s.variable(e, explicit)
	if err != nil {
		return nil, "", err
	}
	integral, err := cas.Integrate(e, v)
	if err != nil {
		return nil, "", err
	}
	steps := []string{
		"**Function:** " + code(e.String()),
		"**Step 1:** Integrate with respect to " + code(v),
		"**Step 2:** Add the constant of integration",
	}
	return steps, integral.String() + " + C", nil
}

// variable resolves the symbol to operate on: the explicit argument if
// given, else the default variable if it occurs (or nothing occurs), else
// the first free symbol.
func (s *Solver) variable(e cas.Expr, explicit string) (string, error) {
	if explicit != "" {
		ve, err := cas.Parse(explicit)
		if err != nil {
			return "", err
		}
		syms := cas.FreeSymbols(ve)
		if len(syms) != 1 || ve.String() != syms[0] {
			return "", fmt.Errorf("%w: %s is not a variable", cas.ErrSyntax, explicit)
		}
		return syms[0], nil
	}
	syms := cas.FreeSymbols(e)
	if len(syms) == 0 {
		return s.defaultVar, nil
	}
	for _, name := range syms {
		if name == s.defaultVar {
			return name, nil
		}
	}
	return syms[0], nil
}

func parseOrder(arg string) (int, error) {
	e, err := cas.Parse(arg)
	if err != nil {
		return 0, err
	}
	n, ok := e.(*cas.Num)
	if !ok || !n.IsInt() {
		return 0, fmt.Errorf("%w: derivative order must be an integer", cas.ErrSyntax)
	}
	k := n.Rat().Num()
	if !k.IsInt64() || k.Int64() < 1 || k.Int64() > maxDiffOrder {
		return 0, fmt.Errorf("%w: derivative order must be between 1 and %d", cas.ErrUnsupported, maxDiffOrder)
	}
	return int(k.Int64()), nil
}

// findCall locates the first call to one of names and returns its arguments.
func findCall(expr string, names ...string) ([]string, bool) {
	for _, name := range names {
		idx := strings.Index(expr, name+"(")
		if idx < 0 {
			continue
		}
		if idx > 0 && isIdentByte(expr[idx-1]) {
			continue
		}
		if got, args, ok := cas.SplitCall(expr[idx:]); ok && got == name {
			return args, true
		}
	}
	return nil, false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

var fillerWords = map[string]bool{
	"find": true, "compute": true, "calculate": true, "please": true,
	"the": true, "of": true, "indefinite": true,
	"derivative": true, "integral": true,
}

// stripPhrase drops the English words around a keyword such as
// "find the derivative of x**3".
func stripPhrase(expr string) string {
	fields := strings.Fields(expr)
	kept := fields[:0]
	for _, f := range fields {
		if fillerWords[strings.ToLower(strings.Trim(f, ":,"))] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// code wraps s in a Markdown code span.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}
