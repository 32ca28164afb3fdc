package check

import (
	"testing"

	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

func node(v hir.Expr) hir.Node {
	return ident.Of(v, ident.Span{})
}

func tyNode(v hir.Ty) hir.TyNode {
	return ident.Of(v, ident.Span{})
}

func intLit(n int64) hir.Node {
	return node(hir.Literal{Value: dson.Int(n)})
}

// TestSynthLiteral: a bare integer
// literal synthesizes to Integer with no effects.
func TestSynthLiteral(t *testing.T) {
	ch := New(0)
	ty, eff, err := ch.Synth(intLit(1))
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	if _, ok := ty.(itype.TInteger); !ok {
		t.Fatalf("want Integer, got %s", ty)
	}
	if !isNoEffect(eff) {
		t.Fatalf("want no effects, got %s", eff)
	}
}

// TestSynthIdentityFunction: the identity
// function `\x -> x` synthesizes to a function whose parameter and
// result existential unify to the same type once applied.
func TestSynthIdentityFunction(t *testing.T) {
	ch := New(0)
	id := node(hir.Function{
		Parameter: tyNode(hir.Variable{Name: "x"}),
		Body:      node(hir.Apply{Function: tyNode(hir.Variable{Name: "x"})}),
	})
	ty, _, err := ch.Synth(id)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	fn, ok := ty.(itype.TFunction)
	if !ok {
		t.Fatalf("want Function, got %s", ty)
	}
	if !itype.Equal(fn.Parameter, fn.Body) {
		t.Fatalf("identity function's parameter and body should unify: %s vs %s", fn.Parameter, fn.Body)
	}
}

// TestSynthApplyIdentity covers applying the identity function built
// above to an Integer literal, synthesizing to Integer.
func TestSynthApplyIdentity(t *testing.T) {
	ch := New(0)
	definition := node(hir.Function{
		Parameter: tyNode(hir.Variable{Name: "x"}),
		Body:      node(hir.Apply{Function: tyNode(hir.Variable{Name: "x"})}),
	})
	// The body refers back to Definition's own node id.
	letExpr := node(hir.Let{
		Definition: definition,
		Body: node(hir.Apply{
			LinkName:  hir.LinkName{Kind: hir.LinkCard, UUID: definition.Meta.ID},
			Arguments: []hir.Node{intLit(1)},
		}),
	})
	ty, _, err := ch.Synth(letExpr)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	if _, ok := ty.(itype.TInteger); !ok {
		t.Fatalf("want Integer, got %s", ty)
	}
}

// TestSubtypeProductToInner covers the ProductToInner cast
// strategy: a product with an Integer field is a subtype of Integer,
// by narrowing to that field.
func TestSubtypeProductToInner(t *testing.T) {
	ch := New(0)
	sp := itype.TProduct{Elems: []itype.IType{itype.TInteger{}, itype.TString{}}}
	sims, err := ch.Subtype(sp, itype.TInteger{}, ident.Meta{})
	if err != nil {
		t.Fatalf("subtype: %v", err)
	}
	if len(sims) == 0 {
		t.Fatalf("want a non-empty similarity vector")
	}
	strat, ok := ch.CastStrategy(sp, itype.TInteger{})
	if !ok {
		t.Fatalf("want a recorded cast strategy")
	}
	if _, ok := strat.(ProductToInner); !ok {
		t.Fatalf("want ProductToInner, got %T", strat)
	}
}

// TestSubtypeBrandBlocksFabrication: a
// bare Integer is never a subtype of a Brand over Integer (brands are
// never fabricated, only unwrapped in the other direction).
func TestSubtypeBrandBlocksFabrication(t *testing.T) {
	ch := New(0)
	brand := itype.TBrand{Brand: dson.Str("UserId"), Item: itype.TInteger{}}
	if _, err := ch.Subtype(itype.TInteger{}, brand, ident.Meta{}); err == nil {
		t.Fatalf("want an error: Integer must not fabricate a Brand")
	}
	if _, err := ch.Subtype(brand, itype.TInteger{}, ident.Meta{}); err != nil {
		t.Fatalf("want Brand to unwrap to its inner type: %v", err)
	}
}

func isNoEffect(e itype.IEffectExpr) bool {
	if eff, ok := itype.Normalize(e).(itype.Effects); ok {
		return len(eff.Items) == 0
	}
	return false
}
