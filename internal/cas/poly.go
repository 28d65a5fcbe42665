package cas

import (
	"math/big"
)

const (
	maxExpandPower = 64
	maxExpandTerms = 5000
)

// Expand distributes products and positive integer powers over sums.
func Expand(e Expr) (out Expr, err error) {
	defer catch(&err)
	return expand(e), nil
}

// Simplify returns the shortest of the canonical, expanded and cancelled forms of e.
func Simplify(e Expr) (out Expr, err error) {
	defer catch(&err)
	return simplify(e), nil
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.Terms
	}
	return []Expr{e}
}

func mulTerms(a, b []Expr) []Expr {
	if len(a)*len(b) > maxExpandTerms {
		failf(ErrUnsupported, "expansion too large")
	}
	out := make([]Expr, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, Product(x, y))
		}
	}
	return out
}

func expand(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		ts := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			ts[i] = expand(t)
		}
		return Sum(ts...)
	case *Mul:
		acc := []Expr{NewInt(1)}
		for _, f := range v.Factors {
			acc = termsOf(Sum(mulTerms(acc, termsOf(expand(f)))...))
		}
		return Sum(acc...)
	case *Pow:
		base, exp := expand(v.Base), expand(v.Exp)
		n, ok := exp.(*Num)
		if _, isAdd := base.(*Add); !isAdd || !ok || !n.IsInt() {
			return Power(base, exp)
		}
		k := n.r.Num().Int64()
		if abs64(k) > maxExpandPower {
			return Power(base, exp)
		}
		acc := []Expr{NewInt(1)}
		for i := int64(0); i < abs64(k); i++ {
			acc = termsOf(Sum(mulTerms(acc, termsOf(base))...))
		}
		if k < 0 {
			return Power(Sum(acc...), NewInt(-1))
		}
		return Sum(acc...)
	case *Func:
		return Apply(v.Name, expand(v.Arg))
	}
	return e
}

func simplify(e Expr) Expr {
	best := e
	try := func(c Expr) {
		if c != nil && len(c.String()) < len(best.String()) {
			best = c
		}
	}
	expanded := expand(e)
	try(expanded)
	try(cancel(e))
	try(pythagorean(e))
	try(pythagorean(expanded))
	return best
}

// pythagorean rewrites c*sin(a)**2 + c*cos(a)**2 as c inside a sum.
// It returns nil if no pair matches.
func pythagorean(e Expr) Expr {
	a, ok := e.(*Add)
	if !ok {
		return nil
	}
	type square struct {
		fn   string
		key  string
		rest Expr
	}
	squares := make([]square, len(a.Terms))
	sins := map[string][]int{}
	for i, t := range a.Terms {
		fn, arg, rest, ok := trigSquare(t)
		if !ok {
			continue
		}
		squares[i] = square{fn: fn, key: rest.String() + "|" + arg.String(), rest: rest}
		if fn == FuncSin {
			sins[squares[i].key] = append(sins[squares[i].key], i)
		}
	}

	used := make([]bool, len(a.Terms))
	var out []Expr
	for i, sq := range squares {
		if sq.fn != FuncCos || len(sins[sq.key]) == 0 {
			continue
		}
		j := sins[sq.key][0]
		sins[sq.key] = sins[sq.key][1:]
		used[i], used[j] = true, true
		out = append(out, sq.rest)
	}
	if len(out) == 0 {
		return nil
	}
	for i, t := range a.Terms {
		if !used[i] {
			out = append(out, t)
		}
	}
	return Sum(out...)
}

// trigSquare splits a term rest*f(arg)**2 with f sin or cos.
func trigSquare(t Expr) (fn string, arg, rest Expr, ok bool) {
	fs := []Expr{t}
	if m, isMul := t.(*Mul); isMul {
		fs = m.Factors
	}
	for i, f := range fs {
		p, isPow := f.(*Pow)
		if !isPow || !isNum(p.Exp, 2) {
			continue
		}
		g, isFn := p.Base.(*Func)
		if !isFn || (g.Name != FuncSin && g.Name != FuncCos) {
			continue
		}
		others := append(append([]Expr{}, fs[:i]...), fs[i+1:]...)
		return g.Name, g.Arg, Product(others...), true
	}
	return "", nil, nil, false
}

// cancel removes the polynomial gcd of numerator and denominator of a
// univariate rational expression. It returns nil if nothing cancels.
func cancel(e Expr) Expr {
	vars := FreeSymbols(e)
	if len(vars) != 1 {
		return nil
	}
	v := vars[0]
	num, den := splitFraction(e)
	if len(den) == 0 {
		return nil
	}
	np, ok := numericPoly(expand(Product(num...)), v)
	if !ok {
		return nil
	}
	dp, ok := numericPoly(expand(Product(den...)), v)
	if !ok {
		return nil
	}
	g := polyGCD(np, dp)
	if g.degree() < 1 {
		return nil
	}
	nq, _ := polyDivMod(np, g)
	dq, _ := polyDivMod(dp, g)
	return Quo(nq.expr(v), dq.expr(v))
}

// splitFraction returns the numerator factors and the (positive power) denominator factors of e.
func splitFraction(e Expr) (num, den []Expr) {
	fs := []Expr{e}
	if m, ok := e.(*Mul); ok {
		fs = m.Factors
	}
	for _, f := range fs {
		if p, ok := f.(*Pow); ok {
			if n, ok := p.Exp.(*Num); ok && n.IsNegative() {
				den = append(den, Power(p.Base, numNeg(n)))
				continue
			}
		}
		num = append(num, f)
	}
	return num, den
}

// coefficients maps each power of v in the expanded e to its coefficient.
// ok is false when v occurs other than as an integer power.
func coefficients(e Expr, v string) (map[int]Expr, bool) {
	out := map[int]Expr{}
	for _, t := range termsOf(expand(e)) {
		fs := []Expr{t}
		if m, ok := t.(*Mul); ok {
			fs = m.Factors
		}
		deg := 0
		var rest []Expr
		for _, f := range fs {
			if freeOf(f, v) {
				rest = append(rest, f)
				continue
			}
			if isSym(f, v) {
				deg++
				continue
			}
			p, ok := f.(*Pow)
			if !ok || !isSym(p.Base, v) {
				return nil, false
			}
			n, ok := p.Exp.(*Num)
			if !ok || !n.IsInt() || !n.r.Num().IsInt64() {
				return nil, false
			}
			deg += int(n.r.Num().Int64())
		}
		c := Product(rest...)
		if prev, ok := out[deg]; ok {
			c = Sum(prev, c)
		}
		out[deg] = c
	}
	for d, c := range out {
		if isZero(c) {
			delete(out, d)
		}
	}
	return out, true
}

// Degree returns the degree of e as a polynomial in v, or -1 if e is not one.
func Degree(e Expr, v string) (deg int) {
	defer func() {
		if recover() != nil {
			deg = -1
		}
	}()
	cs, ok := coefficients(e, v)
	if !ok {
		return -1
	}
	deg = 0
	for d := range cs {
		if d < 0 {
			return -1
		}
		if d > deg {
			deg = d
		}
	}
	return deg
}

// poly is a univariate polynomial with rational coefficients; p[i] multiplies v**i.
type poly []*big.Rat

func numericPoly(e Expr, v string) (poly, bool) {
	cs, ok := coefficients(e, v)
	if !ok {
		return nil, false
	}
	return polyFromCoeffs(cs)
}

func polyFromCoeffs(cs map[int]Expr) (poly, bool) {
	hi := 0
	for d := range cs {
		if d < 0 {
			return nil, false
		}
		if d > hi {
			hi = d
		}
	}
	p := make(poly, hi+1)
	for i := range p {
		p[i] = new(big.Rat)
	}
	for d, c := range cs {
		n, ok := c.(*Num)
		if !ok {
			return nil, false
		}
		p[d].Set(n.r)
	}
	return p.trim(), true
}

func (p poly) trim() poly {
	for len(p) > 0 && p[len(p)-1].Sign() == 0 {
		p = p[:len(p)-1]
	}
	return p
}

func (p poly) degree() int { return len(p.trim()) - 1 }

func (p poly) lead() *big.Rat { return p[len(p)-1] }

func (p poly) eval(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

func (p poly) expr(v string) Expr {
	terms := make([]Expr, 0, len(p))
	for i, c := range p {
		if c.Sign() == 0 {
			continue
		}
		terms = append(terms, Product(ratNum(new(big.Rat).Set(c)), Power(NewSym(v), NewInt(int64(i)))))
	}
	return Sum(terms...)
}

func (p poly) coeffs() map[int]Expr {
	out := map[int]Expr{}
	for i, c := range p {
		if c.Sign() != 0 {
			out[i] = ratNum(new(big.Rat).Set(c))
		}
	}
	return out
}

func polyDivMod(a, b poly) (q, r poly) {
	b = b.trim()
	if len(b) == 0 {
		fail(ErrDivisionByZero)
	}
	r = make(poly, len(a))
	for i, c := range a {
		r[i] = new(big.Rat).Set(c)
	}
	r = r.trim()
	if len(r) < len(b) {
		return poly{}, r
	}
	q = make(poly, len(r)-len(b)+1)
	for i := range q {
		q[i] = new(big.Rat)
	}
	for len(r) >= len(b) && len(r) > 0 {
		shift := len(r) - len(b)
		f := new(big.Rat).Quo(r.lead(), b.lead())
		q[shift].Set(f)
		for i, c := range b {
			r[i+shift].Sub(r[i+shift], new(big.Rat).Mul(f, c))
		}
		r = r.trim()
	}
	return q.trim(), r
}

// polyGCD returns the monic greatest common divisor.
func polyGCD(a, b poly) poly {
	a, b = a.trim(), b.trim()
	for len(b) > 0 {
		_, r := polyDivMod(a, b)
		a, b = b, r
	}
	if len(a) == 0 {
		return a
	}
	l := new(big.Rat).Set(a.lead())
	out := make(poly, len(a))
	for i, c := range a {
		out[i] = new(big.Rat).Quo(c, l)
	}
	return out
}
