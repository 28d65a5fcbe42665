package cas

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const maxDepth = 200

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			dot := false
			for i < len(rs) && (unicode.IsDigit(rs[i]) || (rs[i] == '.' && !dot && i+1 < len(rs) && unicode.IsDigit(rs[i+1]))) {
				if rs[i] == '.' {
					dot = true
				}
				i++
			}
			// 1e3 and 1.5E-2; a bare 2e stays 2*e
			if n := exponentLen(rs[i:]); n > 0 {
				i += n
			}
			toks = append(toks, token{kind: tokNum, text: string(rs[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "**", pos: i})
			i += 2
		case r == '=' && i+1 < len(rs) && rs[i+1] == '=':
			toks = append(toks, token{kind: tokOp, text: "=", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^(),=!", r):
			text := string(r)
			if r == '^' {
				text = "**"
			}
			toks = append(toks, token{kind: tokOp, text: text, pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, r, i+1)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

// exponentLen returns the length of a leading [eE][+-]?digit+ or 0.
func exponentLen(rs []rune) int {
	if len(rs) < 2 || (rs[0] != 'e' && rs[0] != 'E') {
		return 0
	}
	i := 1
	if rs[i] == '+' || rs[i] == '-' {
		i++
	}
	digits := i
	for i < len(rs) && unicode.IsDigit(rs[i]) {
		i++
	}
	if i == digits {
		return 0
	}
	// 2e1x keeps e1x as an identifier
	if i < len(rs) && (unicode.IsLetter(rs[i]) || rs[i] == '_') {
		return 0
	}
	return i
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) expect(op string) {
	t := p.next()
	if t.kind != tokOp || t.text != op {
		p.unexpected(t)
	}
}

func (p *parser) unexpected(t token) {
	if t.kind == tokEOF {
		failf(ErrSyntax, "unexpected end of input")
	}
	failf(ErrSyntax, "unexpected %q at position %d", t.text, t.pos+1)
}

func newParser(s string) *parser {
	toks, err := tokenize(s)
	if err != nil {
		fail(err)
	}
	return &parser{toks: toks}
}

// Parse reads a single expression. Equations are rejected.
func Parse(s string) (e Expr, err error) {
	defer catch(&err)
	p := newParser(s)
	e = p.expr()
	if p.isOp("=") {
		failf(ErrSyntax, "unexpected '=' in expression")
	}
	if t := p.peek(); t.kind != tokEOF {
		p.unexpected(t)
	}
	return e, nil
}

// ParseEquation reads "lhs = rhs" or Eq(lhs, rhs) and returns the residual
// lhs - rhs. A plain expression is read as expression = 0.
func ParseEquation(s string) (residual Expr, err error) {
	defer catch(&err)
	if name, args, ok := SplitCall(s); ok && name == "Eq" {
		if len(args) != 2 {
			failf(ErrSyntax, "Eq expects 2 arguments, got %d", len(args))
		}
		lhs, err := Parse(args[0])
		if err != nil {
			return nil, err
		}
		rhs, err := Parse(args[1])
		if err != nil {
			return nil, err
		}
		return Sub(lhs, rhs), nil
	}

	p := newParser(s)
	lhs := p.expr()
	rhs := Expr(NewInt(0))
	if p.isOp("=") {
		p.next()
		rhs = p.expr()
	}
	if t := p.peek(); t.kind != tokEOF {
		p.unexpected(t)
	}
	return Sub(lhs, rhs), nil
}

// SplitCall splits "name(a, b, ...)" into its name and top-level arguments.
// ok is false unless the whole string is a single call.
func SplitCall(s string) (name string, args []string, ok bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name = strings.TrimSpace(s[:open])
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", nil, false
		}
	}

	depth := 0
	start := open + 1
	body := s[:len(s)-1]
	for i := open; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				// closing paren before the end: not a single call
				return "", nil, false
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 1 {
		return "", nil, false
	}
	if last := strings.TrimSpace(body[start:]); last != "" || len(args) > 0 {
		args = append(args, last)
	}
	return name, args, true
}

func (p *parser) enter() {
	p.depth++
	if p.depth > maxDepth {
		failf(ErrSyntax, "expression nested too deeply")
	}
}

func (p *parser) leave() { p.depth-- }

// expr := term (('+' | '-') term)*
func (p *parser) expr() Expr {
	p.enter()
	defer p.leave()
	terms := []Expr{p.term()}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		t := p.term()
		if op == "-" {
			t = Neg(t)
		}
		terms = append(terms, t)
	}
	return Sum(terms...)
}

// term := unary (('*' | '/' | implicit) unary)*
func (p *parser) term() Expr {
	factors := []Expr{p.unary()}
	for {
		switch {
		case p.isOp("*"):
			p.next()
			factors = append(factors, p.unary())
		case p.isOp("/"):
			p.next()
			factors = append(factors, Power(p.unary(), NewInt(-1)))
		case p.startsOperand():
			factors = append(factors, p.power())
		default:
			return Product(factors...)
		}
	}
}

func (p *parser) startsOperand() bool {
	t := p.peek()
	return t.kind == tokNum || t.kind == tokIdent || (t.kind == tokOp && t.text == "(")
}

// unary := ('-' | '+') unary | power
func (p *parser) unary() Expr {
	switch {
	case p.isOp("-"):
		p.next()
		p.enter()
		defer p.leave()
		return Neg(p.unary())
	case p.isOp("+"):
		p.next()
		p.enter()
		defer p.leave()
		return p.unary()
	}
	return p.power()
}

// power := primary '!'* ('**' unary)?
func (p *parser) power() Expr {
	base := p.primary()
	for p.isOp("!") {
		p.next()
		base = factorial(base)
	}
	if p.isOp("**") {
		p.next()
		p.enter()
		defer p.leave()
		return Power(base, p.unary())
	}
	return base
}

func (p *parser) primary() Expr {
	t := p.next()
	switch t.kind {
	case tokNum:
		return parseNumber(t.text)
	case tokIdent:
		if p.isOp("(") {
			return p.call(t)
		}
		if fn, ok := applicable(t.text); ok {
			// sin x reads as sin(x)
			if !p.startsOperand() {
				failf(ErrSyntax, "%s needs an argument", t.text)
			}
			p.enter()
			defer p.leave()
			return fn(p.unary())
		}
		return NewSym(t.text)
	case tokOp:
		if t.text == "(" {
			e := p.expr()
			p.expect(")")
			return e
		}
	}
	p.unexpected(t)
	return nil
}

const (
	maxExponentDigits = 4
	maxFactorial      = 1000
)

func parseNumber(text string) Expr {
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		digits := strings.TrimLeft(text[i+1:], "+-")
		if len(strings.TrimLeft(digits, "0")) > maxExponentDigits {
			failf(ErrUnsupported, "exponent of %s is too large", text)
		}
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		failf(ErrSyntax, "invalid number %q", text)
	}
	return ratNum(r)
}

var funcAliases = map[string]string{
	"sin": FuncSin, "cos": FuncCos, "tan": FuncTan,
	"exp": FuncExp, "log": FuncLog, "ln": FuncLog,
	"abs": FuncAbs, "Abs": FuncAbs,
	"asin": FuncAsin, "arcsin": FuncAsin,
	"acos": FuncAcos, "arccos": FuncAcos,
	"atan": FuncAtan, "arctan": FuncAtan,
	"sinh": FuncSinh, "cosh": FuncCosh, "tanh": FuncTanh,
}

// applicable returns the one-argument function a bare name denotes.
func applicable(name string) (func(Expr) Expr, bool) {
	if fn, ok := funcAliases[name]; ok {
		return func(arg Expr) Expr { return Apply(fn, arg) }, true
	}
	if name == "sqrt" {
		return Sqrt, true
	}
	return nil, false
}

func factorial(e Expr) Expr {
	n, ok := e.(*Num)
	if !ok || !n.IsInt() || n.IsNegative() {
		failf(ErrUnsupported, "factorial of %s", e)
	}
	if n.r.Num().Cmp(big.NewInt(maxFactorial)) > 0 {
		failf(ErrUnsupported, "factorial of %s is too large", n)
	}
	return ratNum(new(big.Rat).SetInt(new(big.Int).MulRange(1, n.r.Num().Int64())))
}

func (p *parser) call(name token) Expr {
	p.enter()
	defer p.leave()
	p.expect("(")
	var args []Expr
	if !p.isOp(")") {
		args = append(args, p.expr())
		for p.isOp(",") {
			p.next()
			args = append(args, p.expr())
		}
	}
	p.expect(")")

	if fn, ok := funcAliases[name.text]; ok {
		if len(args) != 1 {
			failf(ErrSyntax, "%s expects 1 argument, got %d", name.text, len(args))
		}
		return Apply(fn, args[0])
	}

	switch name.text {
	case "sqrt":
		if len(args) != 1 {
			failf(ErrSyntax, "sqrt expects 1 argument, got %d", len(args))
		}
		return Sqrt(args[0])
	case "diff", "derivative":
		return callDiff(args)
	case "integrate", "integral":
		return callIntegrate(args)
	case "simplify":
		if len(args) != 1 {
			failf(ErrSyntax, "simplify expects 1 argument, got %d", len(args))
		}
		return simplify(args[0])
	case "expand":
		if len(args) != 1 {
			failf(ErrSyntax, "expand expects 1 argument, got %d", len(args))
		}
		return expand(args[0])
	}

	// x(x + 1) reads as x*(x + 1) for single-letter symbols.
	if len([]rune(name.text)) == 1 && len(args) == 1 {
		return Product(NewSym(name.text), args[0])
	}
	failf(ErrUnsupported, "unknown function %q", name.text)
	return nil
}

// variableArg returns the symbol name of a variable argument or fails.
func variableArg(e Expr) string {
	s, ok := e.(*Sym)
	if !ok || isConstant(s.Name) {
		failf(ErrSyntax, "%s is not a variable", e)
	}
	return s.Name
}

// defaultVariable picks x if present, otherwise the first free symbol.
func defaultVariable(e Expr) string {
	syms := FreeSymbols(e)
	for _, s := range syms {
		if s == "x" {
			return s
		}
	}
	if len(syms) > 0 {
		return syms[0]
	}
	return "x"
}

// callDiff handles diff(f), diff(f, x), diff(f, x, n) and diff(f, x, y, ...).
func callDiff(args []Expr) Expr {
	if len(args) == 0 {
		failf(ErrSyntax, "diff expects at least 1 argument")
	}
	e := args[0]
	if len(args) == 1 {
		return diff(e, defaultVariable(e))
	}
	last := ""
	for _, a := range args[1:] {
		if n, ok := a.(*Num); ok {
			if last == "" || !n.IsInt() || n.r.Sign() <= 0 || !n.r.Num().IsInt64() || n.r.Num().Int64() > 100 {
				failf(ErrSyntax, "invalid derivative order %s", n)
			}
			// the variable itself already applied one derivative
			for i := int64(1); i < n.r.Num().Int64(); i++ {
				e = diff(e, last)
			}
			continue
		}
		last = variableArg(a)
		e = diff(e, last)
	}
	return e
}

// callIntegrate handles integrate(f) and integrate(f, x).
func callIntegrate(args []Expr) Expr {
	switch len(args) {
	case 1:
		return integrate(args[0], defaultVariable(args[0]), 0)
	case 2:
		return integrate(args[0], variableArg(args[1]), 0)
	}
	failf(ErrSyntax, "integrate expects 1 or 2 arguments, got %d", len(args))
	return nil
}
