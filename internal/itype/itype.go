// Package itype is the internal type language used by the checker:
// the surface type shapes plus existentials, universals, an Infer
// meta-variable tied to a source node, and an effect-row payload on
// function results.
package itype

import (
	"fmt"
	"strings"

	"github.com/corec-lang/corec/internal/config"
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/ident"
)

// Id identifies an existential or universal type variable within one
// pipeline run. It is a pure compiler-internal counter space  — unlike NodeId it is not a UUID, since existentials
// are allocated at a much higher frequency and never need global
// uniqueness across pipelines.
type Id uint64

func (id Id) String() string {
	if config.NormalizeFreshNames {
		return "t?"
	}
	return fmt.Sprintf("t%d", uint64(id))
}

// IType is the internal type language.
type IType interface {
	Type() string // discriminator for switch-free comparisons in tests/golden dumps
	fmt.Stringer
}

type TInteger struct{}

func (TInteger) Type() string   { return "Integer" }
func (TInteger) String() string { return "Integer" }

type TRational struct{}

func (TRational) Type() string   { return "Rational" }
func (TRational) String() string { return "Rational" }

type TReal struct{}

func (TReal) Type() string   { return "Real" }
func (TReal) String() string { return "Real" }

type TString struct{}

func (TString) Type() string   { return "String" }
func (TString) String() string { return "String" }

type TProduct struct{ Elems []IType }

func (TProduct) Type() string { return "Product" }
func (p TProduct) String() string {
	return "*<" + joinTypes(p.Elems) + ">"
}

type TSum struct{ Elems []IType }

func (TSum) Type() string { return "Sum" }
func (s TSum) String() string {
	return "<+ " + joinTypes(s.Elems) + ">"
}

func joinTypes(ts []IType) string {
	var b strings.Builder
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	return b.String()
}

type TFunction struct {
	Parameter IType
	Body      IType
}

func (TFunction) Type() string { return "Function" }
func (f TFunction) String() string {
	return f.Parameter.String() + " -> " + f.Body.String()
}

type TVector struct{ Elem IType }

func (TVector) Type() string      { return "Vector" }
func (v TVector) String() string  { return "[" + v.Elem.String() + "]" }

type TMap struct {
	Key   IType
	Value IType
}

func (TMap) Type() string     { return "Map" }
func (m TMap) String() string { return "{" + m.Key.String() + ": " + m.Value.String() + "}" }

// TVariable is always bound by an enclosing ForAll or an explicit
// TypedVariable log entry.
type TVariable struct{ ID Id }

func (TVariable) Type() string     { return "Variable" }
func (v TVariable) String() string { return v.ID.String() }

// TExistential may be unsolved or resolved to a monotype inside the
// context log (it never carries its own solution — ctx.Context owns
// that).
type TExistential struct{ ID Id }

func (TExistential) Type() string     { return "Existential" }
func (e TExistential) String() string { return "^" + e.ID.String() }

// TInfer is a meta-variable attached to a specific source node for
// post-hoc reporting; resolved by unification side effects onto a type
// table, never by the context log.
type TInfer struct{ Node ident.NodeId }

func (TInfer) Type() string     { return "Infer" }
func (i TInfer) String() string { return "?" + i.Node.String()[:8] }

type TLabel struct {
	Label dson.Dson
	Item  IType
}

func (TLabel) Type() string     { return "Label" }
func (l TLabel) String() string { return "@" + l.Label.String() + " " + l.Item.String() }

type TBrand struct {
	Brand dson.Dson
	Item  IType
}

func (TBrand) Type() string     { return "Brand" }
func (b TBrand) String() string { return "#" + b.Brand.String() + " " + b.Item.String() }

type TForAll struct {
	Variable Id
	Bound    IType // nil if unbounded
	Body     IType
}

func (TForAll) Type() string { return "ForAll" }
func (f TForAll) String() string {
	if f.Bound != nil {
		return fmt.Sprintf("forall %s <: %s. %s", f.Variable, f.Bound, f.Body)
	}
	return fmt.Sprintf("forall %s. %s", f.Variable, f.Body)
}

// TEffectful wraps ty with effects; construction must flatten nested
// Effectful.
type TEffectful struct {
	Ty      IType
	Effects IEffectExpr
}

func (TEffectful) Type() string { return "Effectful" }
func (e TEffectful) String() string {
	return fmt.Sprintf("Effectful{%s, %s}", e.Ty, e.Effects)
}

// MakeEffectful constructs an Effectful type, flattening any nested
// Effectful on ty and merging the two effect rows.
func MakeEffectful(ty IType, effects IEffectExpr) IType {
	if len(EffectsOf(effects)) == 0 {
		if _, isEffectful := ty.(TEffectful); !isEffectful {
			return ty
		}
	}
	if inner, ok := ty.(TEffectful); ok {
		return TEffectful{Ty: inner.Ty, Effects: Normalize(Add{Terms: []IEffectExpr{inner.Effects, effects}})}
	}
	return TEffectful{Ty: ty, Effects: Normalize(effects)}
}

// --- effect expressions ---

// Effect is a single performable operation.
type Effect struct {
	Input  IType
	Output IType
}

func (e Effect) String() string { return fmt.Sprintf("{%s -> %s}", e.Input, e.Output) }

func (e Effect) Equal(o Effect) bool {
	return Equal(e.Input, o.Input) && Equal(e.Output, o.Output)
}

// IEffectExpr is the internal effect-row algebra.
type IEffectExpr interface {
	effectExprNode()
	fmt.Stringer
}

type Effects struct{ Items []Effect }

func (Effects) effectExprNode() {}
func (e Effects) String() string {
	var b strings.Builder
	b.WriteString("Effects[")
	for i, it := range e.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.String())
	}
	b.WriteString("]")
	return b.String()
}

type Add struct{ Terms []IEffectExpr }

func (Add) effectExprNode() {}
func (a Add) String() string {
	var b strings.Builder
	b.WriteString("Add(")
	for i, t := range a.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(")")
	return b.String()
}

type Sub struct {
	Minuend    IEffectExpr
	Subtrahend IEffectExpr
}

func (Sub) effectExprNode() {}
func (s Sub) String() string { return fmt.Sprintf("(%s - %s)", s.Minuend, s.Subtrahend) }

type EffectApply struct {
	Function  IType
	Arguments []IType
}

func (EffectApply) effectExprNode() {}
func (a EffectApply) String() string {
	return fmt.Sprintf("Apply(%s, %v)", a.Function, a.Arguments)
}
