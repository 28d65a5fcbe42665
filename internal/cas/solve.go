package cas

import (
	"math"
	"math/big"
	"math/cmplx"
	"sort"
)

const maxRootCandidate = 1_000_000_000

// Solve returns the roots of residual = 0 for the symbol v, sorted and
// without duplicates. Equations without roots (or identities) yield an
// empty slice.
func Solve(residual Expr, v string) (roots []Expr, err error) {
	defer catch(&err)

	num, den := splitFraction(residual)
	cs, ok := coefficients(Product(num...), v)
	if !ok {
		failf(ErrUnsupported, "%s is not a polynomial in %s", residual, v)
	}

	lo := 0
	for d := range cs {
		if d < lo {
			lo = d
		}
	}
	if lo < 0 {
		shifted := make(map[int]Expr, len(cs))
		for d, c := range cs {
			shifted[d-lo] = c
		}
		cs = shifted
		den = append(den, Power(NewSym(v), NewInt(int64(-lo))))
	}

	var out []Expr
	seen := map[string]bool{}
	for _, r := range polyRoots(cs, v) {
		if seen[r.String()] || vanishes(den, v, r) {
			continue
		}
		seen[r.String()] = true
		out = append(out, r)
	}
	sortRoots(out)
	return out, nil
}

// vanishes reports whether any denominator is zero at v = r.
func vanishes(den []Expr, v string, r Expr) bool {
	for _, d := range den {
		if isZero(simplify(subst(d, v, r))) {
			return true
		}
	}
	return false
}

func maxDegree(cs map[int]Expr) int {
	n := 0
	for d := range cs {
		if d > n {
			n = d
		}
	}
	return n
}

func coeff(cs map[int]Expr, d int) Expr {
	if c, ok := cs[d]; ok {
		return c
	}
	return NewInt(0)
}

func polyRoots(cs map[int]Expr, v string) []Expr {
	n := maxDegree(cs)
	if n == 0 {
		return nil
	}

	var roots []Expr
	for n > 0 && isZero(coeff(cs, 0)) {
		roots = append(roots, NewInt(0))
		shifted := make(map[int]Expr, len(cs))
		for d, c := range cs {
			shifted[d-1] = c
		}
		cs = shifted
		n--
	}

	switch n {
	case 0:
		return roots
	case 1:
		return append(roots, expand(Neg(Quo(coeff(cs, 0), coeff(cs, 1)))))
	case 2:
		return append(roots, quadraticRoots(coeff(cs, 2), coeff(cs, 1), coeff(cs, 0))...)
	}

	p, ok := polyFromCoeffs(cs)
	if !ok {
		failf(ErrNoSolution, "degree %d equation with symbolic coefficients", n)
	}
	rational, rest := rationalRoots(p)
	for _, r := range rational {
		roots = append(roots, ratNum(r))
	}
	if rest.degree() <= 2 {
		return append(roots, polyRoots(rest.coeffs(), v)...)
	}
	if r, ok := evenRoots(rest, v); ok {
		return append(roots, r...)
	}
	failf(ErrNoSolution, "degree %d polynomial without rational roots", rest.degree())
	return nil
}

func quadraticRoots(a, b, c Expr) []Expr {
	disc := simplify(Sub(Power(b, NewInt(2)), Product(NewInt(4), a, c)))
	twoA := Product(NewInt(2), a)
	if isZero(disc) {
		return []Expr{expand(Neg(Quo(b, twoA)))}
	}
	s := Sqrt(disc)
	return []Expr{
		expand(Quo(Sub(Neg(b), s), twoA)),
		expand(Quo(Sum(Neg(b), s), twoA)),
	}
}

// rationalRoots finds every rational root of p by the rational root
// theorem and returns them with the deflated remainder.
func rationalRoots(p poly) ([]*big.Rat, poly) {
	ints := integerCoeffs(p)
	a0, an := new(big.Int).Abs(ints[0]), new(big.Int).Abs(ints[len(ints)-1])
	if !a0.IsInt64() || !an.IsInt64() || a0.Int64() > maxRootCandidate || an.Int64() > maxRootCandidate {
		return nil, p
	}

	var roots []*big.Rat
	for _, num := range divisors(a0.Int64()) {
		for _, den := range divisors(an.Int64()) {
			for _, sign := range []int64{1, -1} {
				cand := big.NewRat(sign*num, den)
				for p.degree() > 0 && p.eval(cand).Sign() == 0 {
					roots = append(roots, cand)
					p, _ = polyDivMod(p, poly{new(big.Rat).Neg(cand), big.NewRat(1, 1)})
				}
			}
		}
	}
	return roots, p
}

func integerCoeffs(p poly) []*big.Int {
	lcm := big.NewInt(1)
	for _, c := range p {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(p))
	for i, c := range p {
		r := new(big.Rat).Mul(c, new(big.Rat).SetInt(lcm))
		out[i] = new(big.Int).Set(r.Num())
	}
	return out
}

func divisors(n int64) []int64 {
	var small, large []int64
	for d := int64(1); d*d <= n; d++ {
		if n%d == 0 {
			small = append(small, d)
			if d*d != n {
				large = append(large, n/d)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

// evenRoots solves polynomials in v**2 of degree four by substitution.
func evenRoots(p poly, v string) ([]Expr, bool) {
	if p.degree() != 4 {
		return nil, false
	}
	for i := 1; i < len(p); i += 2 {
		if p[i].Sign() != 0 {
			return nil, false
		}
	}
	var out []Expr
	for _, y := range quadraticRoots(ratNum(p[4]), ratNum(p[2]), ratNum(p[0])) {
		s := Sqrt(y)
		out = append(out, expand(Neg(s)), expand(s))
	}
	return out, true
}

// sortRoots orders numeric roots by real then imaginary part; symbolic
// roots follow in lexical order.
func sortRoots(rs []Expr) {
	type keyed struct {
		e  Expr
		z  complex128
		ok bool
	}
	ks := make([]keyed, len(rs))
	for i, r := range rs {
		z, ok := approx(r)
		ks[i] = keyed{e: r, z: z, ok: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return a.e.String() < b.e.String()
		}
		if real(a.z) != real(b.z) {
			return real(a.z) < real(b.z)
		}
		return imag(a.z) < imag(b.z)
	})
	for i := range ks {
		rs[i] = ks[i].e
	}
}

// Approx evaluates a variable-free expression numerically.
func Approx(e Expr) (complex128, bool) {
	return approx(e)
}

func approx(e Expr) (complex128, bool) {
	switch x := e.(type) {
	case *Num:
		f, _ := x.r.Float64()
		return complex(f, 0), true
	case *Sym:
		switch x.Name {
		case ConstPi:
			return complex(math.Pi, 0), true
		case ConstE:
			return complex(math.E, 0), true
		case ConstI:
			return 1i, true
		}
		return 0, false
	case *Add:
		var sum complex128
		for _, t := range x.Terms {
			z, ok := approx(t)
			if !ok {
				return 0, false
			}
			sum += z
		}
		return sum, true
	case *Mul:
		prod := complex(1, 0)
		for _, f := range x.Factors {
			z, ok := approx(f)
			if !ok {
				return 0, false
			}
			prod *= z
		}
		return prod, true
	case *Pow:
		b, ok1 := approx(x.Base)
		p, ok2 := approx(x.Exp)
		if !ok1 || !ok2 {
			return 0, false
		}
		return cmplx.Pow(b, p), true
	case *Func:
		z, ok := approx(x.Arg)
		if !ok {
			return 0, false
		}
		switch x.Name {
		case FuncSin:
			return cmplx.Sin(z), true
		case FuncCos:
			return cmplx.Cos(z), true
		case FuncTan:
			return cmplx.Tan(z), true
		case FuncExp:
			return cmplx.Exp(z), true
		case FuncLog:
			return cmplx.Log(z), true
		case FuncAbs:
			return complex(cmplx.Abs(z), 0), true
		case FuncAsin:
			return cmplx.Asin(z), true
		case FuncAcos:
			return cmplx.Acos(z), true
		case FuncAtan:
			return cmplx.Atan(z), true
		case FuncSinh:
			return cmplx.Sinh(z), true
		case FuncCosh:
			return cmplx.Cosh(z), true
		case FuncTanh:
			return cmplx.Tanh(z), true
		}
	}
	return 0, false
}
