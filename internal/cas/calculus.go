package cas

// Diff differentiates e with respect to the symbol v.
func Diff(e Expr, v string) (out Expr, err error) {
	defer catch(&err)
	return diff(e, v), nil
}

// DiffN applies Diff n times.
func DiffN(e Expr, v string, n int) (out Expr, err error) {
	defer catch(&err)
	if n < 0 {
		failf(ErrUnsupported, "negative derivative order %d", n)
	}
	out = e
	for i := 0; i < n; i++ {
		out = diff(out, v)
	}
	return out, nil
}

func diff(e Expr, v string) Expr {
	if freeOf(e, v) {
		return NewInt(0)
	}
	switch x := e.(type) {
	case *Sym:
		return NewInt(1)
	case *Add:
		ts := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			ts[i] = diff(t, v)
		}
		return Sum(ts...)
	case *Mul:
		ts := make([]Expr, 0, len(x.Factors))
		for i := range x.Factors {
			fs := make([]Expr, len(x.Factors))
			copy(fs, x.Factors)
			fs[i] = diff(x.Factors[i], v)
			ts = append(ts, Product(fs...))
		}
		return Sum(ts...)
	case *Pow:
		switch {
		case freeOf(x.Exp, v):
			return Product(x.Exp, Power(x.Base, Sub(x.Exp, NewInt(1))), diff(x.Base, v))
		case freeOf(x.Base, v):
			return Product(x, Apply(FuncLog, x.Base), diff(x.Exp, v))
		}
		// d(u**w) = u**w * (w' log(u) + w u'/u)
		return Product(x, Sum(
			Product(diff(x.Exp, v), Apply(FuncLog, x.Base)),
			Product(x.Exp, diff(x.Base, v), Power(x.Base, NewInt(-1))),
		))
	case *Func:
		return Product(funcDerivative(x.Name, x.Arg), diff(x.Arg, v))
	}
	failf(ErrUnsupported, "cannot differentiate %s", e)
	return nil
}

// funcDerivative returns f'(u).
func funcDerivative(name string, u Expr) Expr {
	switch name {
	case FuncSin:
		return Apply(FuncCos, u)
	case FuncCos:
		return Neg(Apply(FuncSin, u))
	case FuncTan:
		return Sum(Power(Apply(FuncTan, u), NewInt(2)), NewInt(1))
	case FuncExp:
		return Apply(FuncExp, u)
	case FuncLog:
		return Power(u, NewInt(-1))
	case FuncAbs:
		return Quo(u, Apply(FuncAbs, u))
	case FuncAsin:
		return Power(Sub(NewInt(1), Power(u, NewInt(2))), NewRat(-1, 2))
	case FuncAcos:
		return Neg(Power(Sub(NewInt(1), Power(u, NewInt(2))), NewRat(-1, 2)))
	case FuncAtan:
		return Power(Sum(Power(u, NewInt(2)), NewInt(1)), NewInt(-1))
	case FuncSinh:
		return Apply(FuncCosh, u)
	case FuncCosh:
		return Apply(FuncSinh, u)
	case FuncTanh:
		return Sub(NewInt(1), Power(Apply(FuncTanh, u), NewInt(2)))
	}
	failf(ErrUnsupported, "unknown function %s", name)
	return nil
}

const maxPartsDepth = 8

// Integrate returns an antiderivative of e with respect to v, without the constant.
func Integrate(e Expr, v string) (out Expr, err error) {
	defer catch(&err)
	return integrate(e, v, 0), nil
}

func integrate(e Expr, v string, depth int) Expr {
	x := NewSym(v)
	if freeOf(e, v) {
		return Product(e, x)
	}

	switch t := e.(type) {
	case *Sym:
		return Quo(Power(x, NewInt(2)), NewInt(2))
	case *Add:
		ts := make([]Expr, len(t.Terms))
		for i, term := range t.Terms {
			ts[i] = integrate(term, v, depth)
		}
		return Sum(ts...)
	case *Mul:
		var consts, deps []Expr
		for _, f := range t.Factors {
			if freeOf(f, v) {
				consts = append(consts, f)
			} else {
				deps = append(deps, f)
			}
		}
		if len(consts) > 0 {
			return Product(append(consts, integrate(Product(deps...), v, depth))...)
		}
		if r := integrateProduct(t, v, depth); r != nil {
			return r
		}
	case *Pow:
		if r := integratePow(t, v); r != nil {
			return r
		}
		if ex := expand(t); !Equal(ex, t) {
			return integrate(ex, v, depth)
		}
	case *Func:
		if r := integrateFunc(t, v); r != nil {
			return r
		}
	}
	failf(ErrUnsupported, "cannot integrate %s with respect to %s", e, v)
	return nil
}

// linear matches e = a*v + b with a != 0 and a, b free of v.
func linear(e Expr, v string) (a, b Expr, ok bool) {
	cs, ok := coefficients(e, v)
	if !ok {
		return nil, nil, false
	}
	for d := range cs {
		if d != 0 && d != 1 {
			return nil, nil, false
		}
	}
	a, ok = cs[1]
	if !ok {
		return nil, nil, false
	}
	b, ok = cs[0]
	if !ok {
		b = NewInt(0)
	}
	return a, b, true
}

func integratePow(p *Pow, v string) Expr {
	switch {
	case freeOf(p.Exp, v):
		a, _, ok := linear(p.Base, v)
		if !ok {
			return nil
		}
		if isNum(p.Exp, -1) {
			return Quo(Apply(FuncLog, p.Base), a)
		}
		n1 := Sum(p.Exp, NewInt(1))
		return Quo(Power(p.Base, n1), Product(a, n1))
	case freeOf(p.Base, v):
		a, _, ok := linear(p.Exp, v)
		if !ok {
			return nil
		}
		return Quo(p, Product(a, Apply(FuncLog, p.Base)))
	}
	return nil
}

func integrateFunc(f *Func, v string) Expr {
	u := f.Arg
	a, _, ok := linear(u, v)
	if !ok {
		return nil
	}
	var r Expr
	switch f.Name {
	case FuncExp:
		r = f
	case FuncSin:
		r = Neg(Apply(FuncCos, u))
	case FuncCos:
		r = Apply(FuncSin, u)
	case FuncTan:
		r = Neg(Apply(FuncLog, Apply(FuncCos, u)))
	case FuncSinh:
		r = Apply(FuncCosh, u)
	case FuncCosh:
		r = Apply(FuncSinh, u)
	case FuncLog:
		r = Sub(Product(u, Apply(FuncLog, u)), u)
	case FuncAtan:
		r = Sub(Product(u, Apply(FuncAtan, u)), Quo(Apply(FuncLog, Sum(Power(u, NewInt(2)), NewInt(1))), NewInt(2)))
	case FuncAsin:
		r = Sum(Product(u, Apply(FuncAsin, u)), Sqrt(Sub(NewInt(1), Power(u, NewInt(2)))))
	default:
		return nil
	}
	return Quo(r, a)
}

// integrateProduct handles products without constant factors: first by
// expansion, then by parts for polynomial times exp/sin/cos.
func integrateProduct(m *Mul, v string, depth int) Expr {
	if ex := expand(m); !Equal(ex, m) {
		if _, ok := ex.(*Mul); !ok {
			return integrate(ex, v, depth)
		}
	}
	if depth >= maxPartsDepth || len(m.Factors) != 2 {
		return nil
	}
	for i := 0; i < 2; i++ {
		poly, other := m.Factors[i], m.Factors[1-i]
		if Degree(poly, v) < 1 {
			continue
		}
		f, ok := other.(*Func)
		if !ok || (f.Name != FuncExp && f.Name != FuncSin && f.Name != FuncCos) {
			continue
		}
		w := integrateFunc(f, v)
		if w == nil {
			continue
		}
		// int p*f = p*F - int p'*F
		rest := integrate(Product(diff(poly, v), w), v, depth+1)
		return Sub(Product(poly, w), rest)
	}
	return nil
}
