// Package cas is a small deterministic computer-algebra kernel.
//
// Expressions are immutable trees over exact rationals (math/big.Rat). All
// constructors return canonical forms: sums collect like terms, products
// collect equal bases, and numeric powers are evaluated exactly whenever the
// result stays rational (or a simplified surd such as 2*sqrt(2)).
// Output follows the Python-style notation users type: x**2, sqrt(x), log(x).
package cas

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Sentinel errors returned by the exported operations.
var (
	ErrSyntax         = errors.New("syntax error")
	ErrUnsupported    = errors.New("unsupported operation")
	ErrDivisionByZero = errors.New("division by zero")
	ErrNoSolution     = errors.New("no closed-form solution")
)

// Names of the built-in constants.
const (
	ConstPi = "pi"
	ConstE  = "E"
	ConstI  = "I"
)

const maxIntExponent = 4096

// Expr is a node of an expression tree.
type Expr interface {
	String() string
	isExpr()
}

// mathError carries an error out of deeply nested constructors.
// It is recovered by catch at the exported entry points.
type mathError struct{ err error }

func fail(err error) { panic(mathError{err}) }

func failf(base error, format string, args ...any) {
	fail(fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...)))
}

func catch(errp *error) {
	if r := recover(); r != nil {
		me, ok := r.(mathError)
		if !ok {
			panic(r)
		}
		*errp = me.err
	}
}

// Equal reports whether two expressions have the same canonical form.
func Equal(a, b Expr) bool { return a.String() == b.String() }

// ------------------------------------------------------------
// Num
// ------------------------------------------------------------

// Num is an exact rational number.
type Num struct{ r *big.Rat }

func (*Num) isExpr() {}

// NewInt returns the integer n.
func NewInt(n int64) *Num { return &Num{r: new(big.Rat).SetInt64(n)} }

// NewRat returns p/q. q must not be zero.
func NewRat(p, q int64) *Num {
	if q == 0 {
		fail(ErrDivisionByZero)
	}
	return &Num{r: new(big.Rat).SetFrac64(p, q)}
}

func ratNum(r *big.Rat) *Num { return &Num{r: r} }

// Rat returns a copy of the value.
func (n *Num) Rat() *big.Rat { return new(big.Rat).Set(n.r) }

func (n *Num) IsZero() bool     { return n.r.Sign() == 0 }
func (n *Num) IsOne() bool      { return n.r.IsInt() && n.r.Num().IsInt64() && n.r.Num().Int64() == 1 }
func (n *Num) IsInt() bool      { return n.r.IsInt() }
func (n *Num) IsNegative() bool { return n.r.Sign() < 0 }

func (n *Num) String() string {
	if n.r.IsInt() {
		return n.r.Num().String()
	}
	return n.r.RatString()
}

func numAdd(a, b *Num) *Num { return ratNum(new(big.Rat).Add(a.r, b.r)) }
func numMul(a, b *Num) *Num { return ratNum(new(big.Rat).Mul(a.r, b.r)) }
func numNeg(a *Num) *Num    { return ratNum(new(big.Rat).Neg(a.r)) }

func isNum(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.r.IsInt() && n.r.Num().IsInt64() && n.r.Num().Int64() == v
}

func isZero(e Expr) bool { return isNum(e, 0) }

// ------------------------------------------------------------
// Sym
// ------------------------------------------------------------

// Sym is a named symbol. pi, E and I are treated as constants.
type Sym struct{ Name string }

func (*Sym) isExpr() {}

// NewSym returns the symbol with the given name.
func NewSym(name string) *Sym { return &Sym{Name: name} }

func (s *Sym) String() string { return s.Name }

func isConstant(name string) bool {
	return name == ConstPi || name == ConstE || name == ConstI
}

func isFunc(e Expr, name string) bool {
	f, ok := e.(*Func)
	return ok && f.Name == name
}

func isSym(e Expr, name string) bool {
	s, ok := e.(*Sym)
	return ok && s.Name == name
}

// ------------------------------------------------------------
// Add
// ------------------------------------------------------------

// Add is a canonical sum of at least two terms.
type Add struct{ Terms []Expr }

func (*Add) isExpr() {}

// Sum returns the canonical sum of terms.
func Sum(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if a, ok := t.(*Add); ok {
			flat = append(flat, a.Terms...)
		} else {
			flat = append(flat, t)
		}
	}

	constant := NewInt(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	var order []string
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant = numAdd(constant, n)
			continue
		}
		c, rest := splitCoeff(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = NewInt(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}

	out := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		c := coeffs[key]
		if c.IsZero() {
			continue
		}
		out = append(out, Product(c, rests[key]))
	}
	sortTerms(out)
	if !constant.IsZero() {
		if numeric(out) {
			out = append([]Expr{constant}, out...)
		} else {
			out = append(out, constant)
		}
	}

	switch len(out) {
	case 0:
		return NewInt(0)
	case 1:
		return out[0]
	}
	return &Add{Terms: out}
}

// Sub returns a - b.
func Sub(a, b Expr) Expr { return Sum(a, Neg(b)) }

// Neg returns -e.
func Neg(e Expr) Expr { return Product(NewInt(-1), e) }

// numeric reports whether none of the terms mention a variable.
func numeric(terms []Expr) bool {
	for _, t := range terms {
		if len(FreeSymbols(t)) > 0 {
			return false
		}
	}
	return true
}

// splitCoeff separates the numeric coefficient of a term from the rest.
func splitCoeff(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return NewInt(1), e
	}
	c, ok := m.Factors[0].(*Num)
	if !ok {
		return NewInt(1), e
	}
	rest := m.Factors[1:]
	if len(rest) == 1 {
		return c, rest[0]
	}
	return c, &Mul{Factors: rest}
}

func sortTerms(terms []Expr) {
	type keyed struct {
		e   Expr
		deg float64
		key string
	}
	ks := make([]keyed, len(terms))
	for i, t := range terms {
		_, rest := splitCoeff(t)
		ks[i] = keyed{e: t, deg: termDegree(rest), key: rest.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].deg != ks[j].deg {
			return ks[i].deg > ks[j].deg
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		terms[i] = ks[i].e
	}
}

// termDegree is the total degree of a term in its free symbols, used for ordering only.
func termDegree(e Expr) float64 {
	switch v := e.(type) {
	case *Sym:
		if isConstant(v.Name) {
			return 0
		}
		return 1
	case *Pow:
		if n, ok := v.Exp.(*Num); ok {
			f, _ := n.r.Float64()
			return termDegree(v.Base) * f
		}
		return termDegree(v.Base)
	case *Mul:
		d := 0.0
		for _, f := range v.Factors {
			d += termDegree(f)
		}
		return d
	case *Func:
		if len(FreeSymbols(v.Arg)) > 0 {
			return 1
		}
	case *Add:
		hi := 0.0
		for _, t := range v.Terms {
			if d := termDegree(t); d > hi {
				hi = d
			}
		}
		return hi
	}
	return 0
}

// ------------------------------------------------------------
// Mul
// ------------------------------------------------------------

// Mul is a canonical product. A numeric coefficient, if any, comes first.
type Mul struct{ Factors []Expr }

func (*Mul) isExpr() {}

// Product returns the canonical product of factors.
func Product(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	for _, f := range factors {
		if m, ok := f.(*Mul); ok {
			flat = append(flat, m.Factors...)
		} else {
			flat = append(flat, f)
		}
	}

	if merged, ok := mergeExp(flat); ok {
		return Product(merged...)
	}

	coeff := NewInt(1)
	exps := map[string][]Expr{}
	bases := map[string]Expr{}
	var order []string
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		base, exp := asPow(f)
		key := base.String()
		if _, seen := bases[key]; !seen {
			order = append(order, key)
			bases[key] = base
		}
		exps[key] = append(exps[key], exp)
	}
	if coeff.IsZero() {
		return NewInt(0)
	}

	others := make([]Expr, 0, len(order))
	regroup := false
	for _, key := range order {
		p := Power(bases[key], Sum(exps[key]...))
		switch p.(type) {
		case *Num, *Mul:
			regroup = true
		}
		if isNum(p, 1) {
			continue
		}
		others = append(others, p)
	}
	if merged, ok := mergeSurds(others); ok {
		others, regroup = merged, true
	}
	if regroup {
		return Product(append([]Expr{coeff}, others...)...)
	}
	if len(others) == 0 {
		return coeff
	}

	sortFactors(others)
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{Factors: others}
	}
	return &Mul{Factors: append([]Expr{coeff}, others...)}
}

// mergeExp folds exp(a)*exp(b) into exp(a + b). E counts as exp(1).
// ok is false when fewer than two such factors are present.
func mergeExp(fs []Expr) ([]Expr, bool) {
	var args, rest []Expr
	for _, f := range fs {
		switch {
		case isSym(f, ConstE):
			args = append(args, NewInt(1))
		case isFunc(f, FuncExp):
			args = append(args, f.(*Func).Arg)
		default:
			rest = append(rest, f)
		}
	}
	if len(args) < 2 {
		return nil, false
	}
	return append(rest, Apply(FuncExp, Sum(args...))), true
}

// mergeSurds folds n**e * m**e into (n*m)**e for positive integers n and m
// and a fractional e. ok is false when nothing merges.
func mergeSurds(fs []Expr) ([]Expr, bool) {
	groups := map[string][]int{}
	var order []string
	for i, f := range fs {
		p, ok := f.(*Pow)
		if !ok {
			continue
		}
		b, bok := p.Base.(*Num)
		e, eok := p.Exp.(*Num)
		if !bok || !eok || !b.IsInt() || b.IsNegative() || e.IsInt() {
			continue
		}
		key := e.String()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	merged := false
	drop := map[int]bool{}
	var out []Expr
	for _, key := range order {
		idx := groups[key]
		if len(idx) < 2 {
			continue
		}
		merged = true
		base := NewInt(1)
		for _, i := range idx {
			base = numMul(base, fs[i].(*Pow).Base.(*Num))
			drop[i] = true
		}
		out = append(out, numPow(base, fs[idx[0]].(*Pow).Exp.(*Num)))
	}
	if !merged {
		return nil, false
	}
	for i, f := range fs {
		if !drop[i] {
			out = append(out, f)
		}
	}
	return out, true
}

// Quo returns a / b.
func Quo(a, b Expr) Expr { return Product(a, Power(b, NewInt(-1))) }

func asPow(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.Base, p.Exp
	}
	return e, NewInt(1)
}

func factorRank(e Expr) int {
	base, _ := asPow(e)
	switch base.(type) {
	case *Num:
		return 0
	case *Sym:
		return 1
	case *Func:
		return 2
	}
	return 3
}

func sortFactors(fs []Expr) {
	sort.SliceStable(fs, func(i, j int) bool {
		ri, rj := factorRank(fs[i]), factorRank(fs[j])
		if ri != rj {
			return ri < rj
		}
		bi, _ := asPow(fs[i])
		bj, _ := asPow(fs[j])
		return bi.String() < bj.String()
	})
}

// ------------------------------------------------------------
// Pow
// ------------------------------------------------------------

// Pow is Base**Exp.
type Pow struct{ Base, Exp Expr }

func (*Pow) isExpr() {}

// Power returns the canonical form of base**exp.
func Power(base, exp Expr) Expr {
	if isZero(exp) {
		return NewInt(1)
	}
	if isNum(exp, 1) {
		return base
	}
	if isNum(base, 1) {
		return NewInt(1)
	}
	if isSym(base, ConstE) {
		return Apply(FuncExp, exp)
	}

	en, expIsNum := exp.(*Num)
	if isZero(base) {
		if expIsNum && en.IsNegative() {
			fail(ErrDivisionByZero)
		}
		if expIsNum {
			return NewInt(0)
		}
		return &Pow{Base: base, Exp: exp}
	}
	if !expIsNum {
		return &Pow{Base: base, Exp: exp}
	}

	switch b := base.(type) {
	case *Num:
		return numPow(b, en)
	case *Sym:
		if b.Name == ConstI && en.IsInt() {
			return imaginaryPow(en)
		}
	case *Pow:
		if en.IsInt() {
			return Power(b.Base, Product(b.Exp, en))
		}
	case *Mul:
		if en.IsInt() {
			fs := make([]Expr, len(b.Factors))
			for i, f := range b.Factors {
				fs[i] = Power(f, en)
			}
			return Product(fs...)
		}
		if c, rest := splitCoeff(b); !c.IsOne() && !c.IsNegative() {
			return Product(Power(c, en), Power(rest, en))
		}
	case *Func:
		if b.Name == FuncExp && en.IsInt() {
			return Apply(FuncExp, Product(b.Arg, en))
		}
	}
	return &Pow{Base: base, Exp: exp}
}

// Sqrt returns e**(1/2).
func Sqrt(e Expr) Expr { return Power(e, NewRat(1, 2)) }

func imaginaryPow(n *Num) Expr {
	k := new(big.Int).Mod(n.r.Num(), big.NewInt(4)).Int64()
	switch k {
	case 0:
		return NewInt(1)
	case 1:
		return NewSym(ConstI)
	case 2:
		return NewInt(-1)
	}
	return Neg(NewSym(ConstI))
}

func checkExponent(base *big.Int, exp int64) {
	if exp > maxIntExponent || exp < -maxIntExponent || int64(base.BitLen())*abs64(exp) > 1<<16 {
		failf(ErrUnsupported, "number too large")
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func intPow(b *big.Rat, e int64) *big.Rat {
	checkExponent(b.Num(), e)
	checkExponent(b.Denom(), e)
	k := big.NewInt(abs64(e))
	num := new(big.Int).Exp(b.Num(), k, nil)
	den := new(big.Int).Exp(b.Denom(), k, nil)
	if e < 0 {
		num, den = den, num
	}
	if den.Sign() == 0 {
		fail(ErrDivisionByZero)
	}
	return new(big.Rat).SetFrac(num, den)
}

// numPow evaluates a rational power of a rational exactly where possible.
func numPow(b, e *Num) Expr {
	if e.IsInt() {
		if !e.r.Num().IsInt64() {
			failf(ErrUnsupported, "number too large")
		}
		return ratNum(intPow(b.r, e.r.Num().Int64()))
	}
	if !b.IsInt() {
		// (p/q)**e = p**e * q**-e
		return Product(numPow(ratNum(new(big.Rat).SetInt(b.r.Num())), e),
			numPow(ratNum(new(big.Rat).SetInt(b.r.Denom())), numNeg(e)))
	}
	if b.IsNegative() {
		if e.r.Denom().Cmp(big.NewInt(2)) == 0 {
			// (-n)**(k/2) = I**k * n**(k/2)
			k := new(big.Rat).SetInt(e.r.Num())
			return Product(Power(NewSym(ConstI), ratNum(k)), numPow(numNeg(b), e))
		}
		return &Pow{Base: b, Exp: e}
	}

	// e = w + f with integer w and 0 < f < 1.
	w := new(big.Int).Div(e.r.Num(), e.r.Denom())
	f := new(big.Rat).Sub(e.r, new(big.Rat).SetInt(w))
	if !w.IsInt64() || !f.Num().IsInt64() || !f.Denom().IsInt64() {
		failf(ErrUnsupported, "exponent too large")
	}
	whole := intPow(b.r, w.Int64())

	q := f.Denom().Int64()
	if q > 64 {
		return &Pow{Base: b, Exp: e}
	}
	m := intPow(b.r, f.Num().Int64()).Num()
	out, in := rootExtract(m, q)
	coeff := new(big.Rat).Mul(whole, new(big.Rat).SetInt(out))
	if in.Cmp(big.NewInt(1)) == 0 {
		return ratNum(coeff)
	}
	surd := &Pow{Base: ratNum(new(big.Rat).SetInt(in)), Exp: NewRat(1, q)}
	if coeff.Cmp(big.NewRat(1, 1)) == 0 {
		return surd
	}
	return &Mul{Factors: []Expr{ratNum(coeff), surd}}
}

// rootExtract writes n = out**q * in with in free of q-th powers (as far as
// trial division finds them).
func rootExtract(n *big.Int, q int64) (out, in *big.Int) {
	out = big.NewInt(1)
	in = big.NewInt(1)
	rem := new(big.Int).Set(n)
	bq := big.NewInt(q)

	if r := iroot(rem, q); new(big.Int).Exp(r, bq, nil).Cmp(rem) == 0 {
		return r, in
	}

	p := big.NewInt(2)
	mod := new(big.Int)
	for i := 0; i < 100000 && new(big.Int).Mul(p, p).Cmp(rem) <= 0; i++ {
		count := int64(0)
		for {
			quo, m := new(big.Int).QuoRem(rem, p, mod)
			if m.Sign() != 0 {
				break
			}
			rem = quo
			count++
		}
		if count > 0 {
			out.Mul(out, new(big.Int).Exp(p, big.NewInt(count/q), nil))
			in.Mul(in, new(big.Int).Exp(p, big.NewInt(count%q), nil))
		}
		p.Add(p, big.NewInt(1))
	}
	if r := iroot(rem, q); new(big.Int).Exp(r, bq, nil).Cmp(rem) == 0 {
		out.Mul(out, r)
	} else {
		in.Mul(in, rem)
	}
	return out, in
}

// iroot returns floor(n**(1/q)) for n >= 0.
func iroot(n *big.Int, q int64) *big.Int {
	if q == 2 {
		return new(big.Int).Sqrt(n)
	}
	lo, hi := big.NewInt(0), new(big.Int).Add(n, big.NewInt(1))
	bq := big.NewInt(q)
	one := big.NewInt(1)
	for new(big.Int).Sub(hi, lo).Cmp(one) > 0 {
		mid := new(big.Int).Rsh(new(big.Int).Add(lo, hi), 1)
		if new(big.Int).Exp(mid, bq, nil).Cmp(n) <= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// ------------------------------------------------------------
// Func
// ------------------------------------------------------------

// Built-in function names.
const (
	FuncSin  = "sin"
	FuncCos  = "cos"
	FuncTan  = "tan"
	FuncExp  = "exp"
	FuncLog  = "log"
	FuncAbs  = "Abs"
	FuncAsin = "asin"
	FuncAcos = "acos"
	FuncAtan = "atan"
	FuncSinh = "sinh"
	FuncCosh = "cosh"
	FuncTanh = "tanh"
)

// Func is an application of a built-in function of one argument.
type Func struct {
	Name string
	Arg  Expr
}

func (*Func) isExpr() {}

func (f *Func) String() string { return f.Name + "(" + f.Arg.String() + ")" }

// Apply returns name(arg), evaluating exact special values.
func Apply(name string, arg Expr) Expr {
	switch name {
	case FuncSin, FuncCos, FuncTan:
		if v, ok := trigAtPi(name, arg); ok {
			return v
		}
	case FuncAsin, FuncAtan, FuncSinh, FuncTanh:
		if isZero(arg) {
			return NewInt(0)
		}
	case FuncCosh:
		if isZero(arg) {
			return NewInt(1)
		}
	case FuncAcos:
		if isNum(arg, 1) {
			return NewInt(0)
		}
	case FuncExp:
		if isZero(arg) {
			return NewInt(1)
		}
		if isNum(arg, 1) {
			return NewSym(ConstE)
		}
		if f, ok := arg.(*Func); ok && f.Name == FuncLog {
			return f.Arg
		}
		if v, ok := expImaginaryPi(arg); ok {
			return v
		}
	case FuncLog:
		if isNum(arg, 1) {
			return NewInt(0)
		}
		if isZero(arg) {
			failf(ErrUnsupported, "log(0) is undefined")
		}
		if isSym(arg, ConstE) {
			return NewInt(1)
		}
		if f, ok := arg.(*Func); ok && f.Name == FuncExp {
			return f.Arg
		}
	case FuncAbs:
		if n, ok := arg.(*Num); ok {
			return ratNum(new(big.Rat).Abs(n.r))
		}
		if c, rest := splitCoeff(arg); c.IsNegative() {
			return Product(ratNum(new(big.Rat).Abs(c.r)), Apply(FuncAbs, rest))
		}
	}
	return &Func{Name: name, Arg: arg}
}

// piMultiple returns c for an argument of the form c*pi.
func piMultiple(arg Expr) (*big.Rat, bool) {
	if isZero(arg) {
		return new(big.Rat), true
	}
	if isSym(arg, ConstPi) {
		return big.NewRat(1, 1), true
	}
	if c, rest := splitCoeff(arg); isSym(rest, ConstPi) {
		return c.Rat(), true
	}
	return nil, false
}

// sinPiValue returns sin(r*pi) for r in [0, 1/2] where it is a known surd.
func sinPiValue(r *big.Rat) (Expr, bool) {
	switch r.RatString() {
	case "0":
		return NewInt(0), true
	case "1/6":
		return NewRat(1, 2), true
	case "1/4":
		return Quo(Sqrt(NewInt(2)), NewInt(2)), true
	case "1/3":
		return Quo(Sqrt(NewInt(3)), NewInt(2)), true
	case "1/2":
		return NewInt(1), true
	}
	return nil, false
}

// sinPi evaluates sin(c*pi) when c reduces to a known value.
func sinPi(c *big.Rat) (Expr, bool) {
	two := new(big.Int).Mul(c.Denom(), big.NewInt(2))
	k := new(big.Int).Div(c.Num(), two)
	r := new(big.Rat).Sub(c, new(big.Rat).SetInt(new(big.Int).Mul(k, big.NewInt(2))))
	sign := int64(1)
	if r.Cmp(big.NewRat(1, 1)) >= 0 {
		r.Sub(r, big.NewRat(1, 1))
		sign = -1
	}
	if r.Cmp(big.NewRat(1, 2)) > 0 {
		r.Sub(big.NewRat(1, 1), r)
	}
	v, ok := sinPiValue(r)
	if !ok {
		return nil, false
	}
	return Product(NewInt(sign), v), true
}

func trigAtPi(name string, arg Expr) (Expr, bool) {
	c, ok := piMultiple(arg)
	if !ok {
		return nil, false
	}
	shifted := new(big.Rat).Add(c, big.NewRat(1, 2))
	switch name {
	case FuncSin:
		return sinPi(c)
	case FuncCos:
		return sinPi(shifted)
	}
	sin, okSin := sinPi(c)
	cos, okCos := sinPi(shifted)
	if !okSin || !okCos || isZero(cos) {
		return nil, false
	}
	return Quo(sin, cos), true
}

// expImaginaryPi evaluates exp(c*I*pi) for half-integer c.
func expImaginaryPi(arg Expr) (Expr, bool) {
	c, rest := splitCoeff(arg)
	m, ok := rest.(*Mul)
	if !ok || len(m.Factors) != 2 || !isSym(m.Factors[0], ConstI) || !isSym(m.Factors[1], ConstPi) {
		return nil, false
	}
	k := new(big.Rat).Mul(c.r, big.NewRat(2, 1))
	if !k.IsInt() {
		return nil, false
	}
	return imaginaryPow(ratNum(k)), true
}

// ------------------------------------------------------------
// Traversal helpers
// ------------------------------------------------------------

// FreeSymbols returns the sorted names of the variables in e (constants excluded).
func FreeSymbols(e Expr) []string {
	set := map[string]struct{}{}
	collectSymbols(e, set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		if !isConstant(v.Name) {
			out[v.Name] = struct{}{}
		}
	case *Add:
		for _, t := range v.Terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.Factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.Base, out)
		collectSymbols(v.Exp, out)
	case *Func:
		collectSymbols(v.Arg, out)
	}
}

func freeOf(e Expr, v string) bool {
	switch x := e.(type) {
	case *Num:
		return true
	case *Sym:
		return x.Name != v
	case *Add:
		for _, t := range x.Terms {
			if !freeOf(t, v) {
				return false
			}
		}
		return true
	case *Mul:
		for _, f := range x.Factors {
			if !freeOf(f, v) {
				return false
			}
		}
		return true
	case *Pow:
		return freeOf(x.Base, v) && freeOf(x.Exp, v)
	case *Func:
		return freeOf(x.Arg, v)
	}
	return true
}

// Substitute replaces every occurrence of the symbol name with value.
func Substitute(e Expr, name string, value Expr) (out Expr, err error) {
	defer catch(&err)
	return subst(e, name, value), nil
}

func subst(e Expr, name string, value Expr) Expr {
	switch x := e.(type) {
	case *Sym:
		if x.Name == name {
			return value
		}
	case *Add:
		ts := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			ts[i] = subst(t, name, value)
		}
		return Sum(ts...)
	case *Mul:
		fs := make([]Expr, len(x.Factors))
		for i, f := range x.Factors {
			fs[i] = subst(f, name, value)
		}
		return Product(fs...)
	case *Pow:
		return Power(subst(x.Base, name, value), subst(x.Exp, name, value))
	case *Func:
		return Apply(x.Name, subst(x.Arg, name, value))
	}
	return e
}

// FormatList renders a solution list as [a, b, ...].
func FormatList(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
