// Package dson implements the structured data-value language used for
// labels, brands, and user attributes: every case is a value a source
// program can write directly as a label or attribute, never something
// produced by evaluation.
package dson

import (
	"fmt"
	"math/big"
)

// Dson is the recursive structured-value type. Two Dson values are
// equal iff their structure is equal after stripping Comment nodes
// (Equal implements this).
type Dson interface {
	dson()
	fmt.Stringer
}

// --- Literal ---

type LiteralKind int

const (
	KindInteger LiteralKind = iota
	KindReal
	KindRational
	KindString
)

// Literal wraps one of Integer/Real/Rational/String.
type Literal struct {
	Kind     LiteralKind
	Int      *big.Int
	Real     float64
	RatNum   *big.Int
	RatDenom *big.Int
	Str      string
}

func (Literal) dson() {}

func (l Literal) String() string {
	switch l.Kind {
	case KindInteger:
		return l.Int.String()
	case KindReal:
		return fmt.Sprintf("%g", l.Real)
	case KindRational:
		return fmt.Sprintf("%s/%s", l.RatNum, l.RatDenom)
	case KindString:
		return fmt.Sprintf("%q", l.Str)
	default:
		return "<bad-literal>"
	}
}

func Int(v int64) Literal       { return Literal{Kind: KindInteger, Int: big.NewInt(v)} }
func Str(v string) Literal      { return Literal{Kind: KindString, Str: v} }
func Real(v float64) Literal    { return Literal{Kind: KindReal, Real: v} }
func Rational(n, d int64) Literal {
	return Literal{Kind: KindRational, RatNum: big.NewInt(n), RatDenom: big.NewInt(d)}
}

// --- Product / Vector ---

type Product struct{ Elems []Dson }

func (Product) dson() {}
func (p Product) String() string { return joinTagged("*<", p.Elems, ">") }

type Vector struct{ Elems []Dson }

func (Vector) dson() {}
func (v Vector) String() string { return joinTagged("[", v.Elems, "]") }

func joinTagged(open string, elems []Dson, close string) string {
	s := open
	for i, e := range elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + close
}

// --- Map ---

type MapEntry struct {
	Key   Dson
	Value Dson
}

type Map struct{ Entries []MapEntry }

func (Map) dson() {}
func (m Map) String() string {
	s := "{"
	for i, e := range m.Entries {
		if i > 0 {
			s += ", "
		}
		s += e.Key.String() + ": " + e.Value.String()
	}
	return s + "}"
}

// --- Labeled / Attributed / Typed / Comment ---

type Labeled struct {
	Label string
	Expr  Dson
}

func (Labeled) dson() {}
func (l Labeled) String() string { return "@" + l.Label + " " + l.Expr.String() }

type Attributed struct {
	Attr Dson
	Expr Dson
}

func (Attributed) dson() {}
func (a Attributed) String() string { return "#[" + a.Attr.String() + "] " + a.Expr.String() }

// Typed wraps an expr with its declared type; Ty is kept as `any` here
// to avoid an import cycle with internal/ast (the only consumer that
// cares about the type payload inspects it through a type assertion).
type Typed struct {
	Ty   any
	Expr Dson
}

func (Typed) dson() {}
func (t Typed) String() string { return fmt.Sprintf("<%v> %s", t.Ty, t.Expr.String()) }

type CommentNode struct {
	Text string
	Expr Dson
}

func (CommentNode) dson() {}
func (c CommentNode) String() string { return c.Expr.String() }

// stripComment unwraps any number of CommentNode wrappers.
func stripComment(d Dson) Dson {
	for {
		c, ok := d.(CommentNode)
		if !ok {
			return d
		}
		d = c.Expr
	}
}

// Equal reports whether a and b are structurally equal after stripping
// Comment nodes from both sides, recursively.
func Equal(a, b Dson) bool {
	a = stripComment(a)
	b = stripComment(b)
	switch av := a.(type) {
	case Literal:
		bv, ok := b.(Literal)
		return ok && literalEqual(av, bv)
	case Product:
		bv, ok := b.(Product)
		return ok && elemsEqual(av.Elems, bv.Elems)
	case Vector:
		bv, ok := b.(Vector)
		return ok && elemsEqual(av.Elems, bv.Elems)
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for i := range av.Entries {
			if !Equal(av.Entries[i].Key, bv.Entries[i].Key) || !Equal(av.Entries[i].Value, bv.Entries[i].Value) {
				return false
			}
		}
		return true
	case Labeled:
		bv, ok := b.(Labeled)
		return ok && av.Label == bv.Label && Equal(av.Expr, bv.Expr)
	case Attributed:
		bv, ok := b.(Attributed)
		return ok && Equal(av.Attr, bv.Attr) && Equal(av.Expr, bv.Expr)
	case Typed:
		bv, ok := b.(Typed)
		return ok && Equal(av.Expr, bv.Expr)
	default:
		return false
	}
}

func elemsEqual(a, b []Dson) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func literalEqual(a, b Literal) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInteger:
		return a.Int.Cmp(b.Int) == 0
	case KindReal:
		return a.Real == b.Real
	case KindRational:
		return a.RatNum.Cmp(b.RatNum) == 0 && a.RatDenom.Cmp(b.RatDenom) == 0
	case KindString:
		return a.Str == b.Str
	}
	return false
}
