package cas

import (
	"math/big"
	"strings"
)

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range printOrder(a.Terms) {
		s := t.String()
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

// printOrder moves a positive constant ahead of a leading negative term,
// so 1 - x prints as written instead of -x + 1.
func printOrder(terms []Expr) []Expr {
	last := len(terms) - 1
	c, ok := terms[last].(*Num)
	if !ok || last == 0 || c.IsNegative() || !strings.HasPrefix(terms[0].String(), "-") {
		return terms
	}
	out := make([]Expr, 0, len(terms))
	out = append(out, c)
	return append(out, terms[:last]...)
}

func (m *Mul) String() string {
	coeff := NewInt(1)
	factors := m.Factors
	if c, ok := factors[0].(*Num); ok {
		coeff = c
		factors = factors[1:]
	}

	var num, den []string
	if n := coeff.r.Num(); n.CmpAbs(bigOne) != 0 {
		num = append(num, strings.TrimPrefix(n.String(), "-"))
	}
	if d := coeff.r.Denom(); d.Cmp(bigOne) != 0 {
		den = append(den, d.String())
	}
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.Exp.(*Num); ok && e.IsNegative() {
				var inv Expr = p.Base
				if pe := numNeg(e); !pe.IsOne() {
					inv = &Pow{Base: p.Base, Exp: pe}
				}
				den = append(den, factorString(inv))
				continue
			}
		}
		num = append(num, factorString(f))
	}

	var b strings.Builder
	if coeff.IsNegative() {
		b.WriteByte('-')
	}
	if len(num) == 0 {
		b.WriteByte('1')
	} else {
		b.WriteString(strings.Join(num, "*"))
	}
	switch len(den) {
	case 0:
	case 1:
		b.WriteByte('/')
		b.WriteString(den[0])
	default:
		b.WriteString("/(")
		b.WriteString(strings.Join(den, "*"))
		b.WriteByte(')')
	}
	return b.String()
}

func (p *Pow) String() string {
	if e, ok := p.Exp.(*Num); ok {
		if e.r.Cmp(half.r) == 0 {
			return "sqrt(" + p.Base.String() + ")"
		}
		if e.IsNegative() {
			pe := numNeg(e)
			if pe.IsOne() {
				return "1/" + factorString(p.Base)
			}
			return "1/" + factorString(&Pow{Base: p.Base, Exp: pe})
		}
	}
	return atomString(p.Base) + "**" + atomString(p.Exp)
}

var (
	half   = NewRat(1, 2)
	bigOne = big.NewInt(1)
)

// factorString parenthesizes sums used as factors.
func factorString(e Expr) string {
	if _, ok := e.(*Add); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// atomString parenthesizes anything that is not a symbol, a call or a natural number.
func atomString(e Expr) string {
	switch v := e.(type) {
	case *Sym, *Func:
		return e.String()
	case *Num:
		if v.IsInt() && !v.IsNegative() {
			return v.String()
		}
	case *Pow:
		if n, ok := v.Exp.(*Num); ok && n.r.Cmp(half.r) == 0 {
			return e.String()
		}
	}
	return "(" + e.String() + ")"
}
