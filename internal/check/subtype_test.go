package check

import (
	"testing"

	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// TestSubtypeNumericPromotion covers the numeric tower:
// Integer <: Rational <: Real, but never the other direction.
func TestSubtypeNumericPromotion(t *testing.T) {
	ch := New(0)
	if _, err := ch.Subtype(itype.TInteger{}, itype.TReal{}, ident.Meta{}); err != nil {
		t.Fatalf("Integer <: Real should hold: %v", err)
	}
	if _, err := ch.Subtype(itype.TReal{}, itype.TInteger{}, ident.Meta{}); err == nil {
		t.Fatalf("Real <: Integer should not hold")
	}
}

// TestSubtypeFunctionContravariant covers function
// subtyping: the parameter is contravariant, the body covariant.
func TestSubtypeFunctionContravariant(t *testing.T) {
	ch := New(0)
	narrow := itype.TFunction{Parameter: itype.TReal{}, Body: itype.TInteger{}}
	wide := itype.TFunction{Parameter: itype.TInteger{}, Body: itype.TReal{}}
	// A function accepting a wider parameter and returning a narrower
	// result is itself a subtype of one accepting a narrower parameter
	// and returning a wider result.
	if _, err := ch.Subtype(narrow, wide, ident.Meta{}); err != nil {
		t.Fatalf("contravariant/covariant function subtyping should hold: %v", err)
	}
	if _, err := ch.Subtype(wide, narrow, ident.Meta{}); err == nil {
		t.Fatalf("the reverse direction should not hold")
	}
}

// TestSubtypeForAllLeftInstantiates: a universally quantified
// function is a subtype of any of its instantiations.
func TestSubtypeForAllLeftInstantiates(t *testing.T) {
	ch := New(0)
	v := ch.Ctx.Fresh()
	poly := itype.TForAll{
		Variable: v,
		Body:     itype.TFunction{Parameter: itype.TVariable{ID: v}, Body: itype.TVariable{ID: v}},
	}
	mono := itype.TFunction{Parameter: itype.TInteger{}, Body: itype.TInteger{}}
	if _, err := ch.Subtype(poly, mono, ident.Meta{}); err != nil {
		t.Fatalf("polymorphic identity should instantiate to Integer -> Integer: %v", err)
	}
}

// TestSubtypeExistentialSolves: an
// unsolved existential on the left of <: is solved to the right
// side's concrete type.
func TestSubtypeExistentialSolves(t *testing.T) {
	ch := New(0)
	a := ch.Ctx.AddExistential()
	if _, err := ch.Subtype(itype.TExistential{ID: a}, itype.TString{}, ident.Meta{}); err != nil {
		t.Fatalf("subtype: %v", err)
	}
	got := ch.Ctx.Substitute(itype.TExistential{ID: a})
	if _, ok := got.(itype.TString); !ok {
		t.Fatalf("want existential solved to String, got %s", got)
	}
}
