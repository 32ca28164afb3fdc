package itype

import "testing"

// TestNormalizeFlattensAdd: Add flattens associatively and an empty
// Add is the identity row.
func TestNormalizeFlattensAdd(t *testing.T) {
	e1 := Effect{Input: TInteger{}, Output: TString{}}
	e2 := Effect{Input: TString{}, Output: TInteger{}}
	nested := Add{Terms: []IEffectExpr{
		Add{Terms: []IEffectExpr{Effects{Items: []Effect{e1}}}},
		Effects{},
		Effects{Items: []Effect{e2}},
	}}
	got := Normalize(nested)
	items := EffectsOf(got)
	if len(items) != 2 {
		t.Fatalf("want 2 effects after flattening, got %v", items)
	}
	if !items[0].Equal(e1) || !items[1].Equal(e2) {
		t.Fatalf("flattening must preserve insertion order")
	}

	if _, ok := Normalize(Add{}).(Effects); !ok {
		t.Fatalf("empty Add should normalize to the identity row")
	}
}

// TestNormalizeSubEmptySubtrahend: Sub{minuend, ∅} = minuend.
func TestNormalizeSubEmptySubtrahend(t *testing.T) {
	m := Effects{Items: []Effect{{Input: TInteger{}, Output: TString{}}}}
	got := Normalize(Sub{Minuend: m, Subtrahend: Effects{}})
	if _, isSub := got.(Sub); isSub {
		t.Fatalf("subtracting the empty row should drop the Sub node")
	}
	if len(EffectsOf(got)) != 1 {
		t.Fatalf("minuend should survive untouched")
	}
}

// TestMakeEffectfulNeverNests: Effectful never nests directly in
// Effectful.
func TestMakeEffectfulNeverNests(t *testing.T) {
	inner := MakeEffectful(TString{}, Effects{Items: []Effect{{Input: TInteger{}, Output: TString{}}}})
	outer := MakeEffectful(inner, Effects{Items: []Effect{{Input: TString{}, Output: TInteger{}}}})
	eff, ok := outer.(TEffectful)
	if !ok {
		t.Fatalf("want an Effectful wrapper, got %s", outer)
	}
	if _, nested := eff.Ty.(TEffectful); nested {
		t.Fatalf("Effectful must flatten on construction")
	}
	if items := EffectsOf(eff.Effects); len(items) != 2 {
		t.Fatalf("both rows should merge, got %v", items)
	}
}

// TestMakeEffectfulEmptyRowIsBare: wrapping with no effects returns
// the payload unchanged.
func TestMakeEffectfulEmptyRowIsBare(t *testing.T) {
	got := MakeEffectful(TInteger{}, Effects{})
	if _, ok := got.(TEffectful); ok {
		t.Fatalf("an empty row should not produce a wrapper")
	}
}

// TestSubstituteHitsEveryPosition: substitution reaches nested
// composite positions, including effect rows.
func TestSubstituteHitsEveryPosition(t *testing.T) {
	a := Id(7)
	ty := TFunction{
		Parameter: TExistential{ID: a},
		Body: TEffectful{
			Ty:      TVector{Elem: TExistential{ID: a}},
			Effects: Effects{Items: []Effect{{Input: TExistential{ID: a}, Output: TString{}}}},
		},
	}
	got := Substitute(ty, a, TInteger{})
	if ids := FreeExistentials(got); len(ids) != 0 {
		t.Fatalf("substitution missed positions: %v remain in %s", ids, got)
	}
}

// TestOccursCheck: occurs finds an existential at any depth and
// nowhere else.
func TestOccursCheck(t *testing.T) {
	a, b := Id(1), Id(2)
	ty := TProduct{Elems: []IType{TVector{Elem: TExistential{ID: a}}}}
	if !Occurs(a, ty) {
		t.Fatalf("a occurs in %s", ty)
	}
	if Occurs(b, ty) {
		t.Fatalf("b does not occur in %s", ty)
	}
}

// TestEqualIgnoresNothing: structural equality treats sum element
// order as significant.
func TestEqualIgnoresNothing(t *testing.T) {
	if !Equal(TSum{Elems: []IType{TInteger{}, TString{}}}, TSum{Elems: []IType{TInteger{}, TString{}}}) {
		t.Fatalf("identical sums should be equal")
	}
	if Equal(TSum{Elems: []IType{TInteger{}, TString{}}}, TSum{Elems: []IType{TString{}, TInteger{}}}) {
		t.Fatalf("element order is part of the structure")
	}
}

// TestSubstituteVarLeavesExistentials: the rigid-variable substitution
// used to open ForAll binders replaces TVariable only.
func TestSubstituteVarLeavesExistentials(t *testing.T) {
	v, e := Id(3), Id(4)
	ty := TFunction{Parameter: TVariable{ID: v}, Body: TExistential{ID: e}}
	got := SubstituteVar(ty, v, TInteger{})
	fn := got.(TFunction)
	if _, ok := fn.Parameter.(TInteger); !ok {
		t.Fatalf("bound variable should be replaced, got %s", fn.Parameter)
	}
	if _, ok := fn.Body.(TExistential); !ok {
		t.Fatalf("existential must be untouched, got %s", fn.Body)
	}
}
