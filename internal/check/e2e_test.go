package check_test

import (
	"strings"
	"testing"

	"github.com/corec-lang/corec/internal/check"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
	"github.com/corec-lang/corec/internal/parser"
	"golang.org/x/tools/txtar"
)

// synthSource runs the front half of the pipeline over source text.
func synthSource(t *testing.T, src string) (hir.Node, *check.Checker, itype.IType, itype.IEffectExpr, error) {
	t.Helper()
	astRoot, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	hirRoot, err := hir.Lower(astRoot)
	if err != nil {
		t.Fatalf("lower %q: %v", src, err)
	}
	ch := check.New(0)
	ty, eff, synthErr := ch.Synth(hirRoot)
	return hirRoot, ch, ty, eff, synthErr
}

// TestScenarios runs the txtar archive of source/expected-type pairs:
// each `<name>/src` file synthesizes to the type rendered in
// `<name>/type`.
func TestScenarios(t *testing.T) {
	archive, err := txtar.ParseFile("testdata/scenarios.txtar")
	if err != nil {
		t.Fatalf("parse archive: %v", err)
	}
	srcs := map[string]string{}
	wants := map[string]string{}
	for _, f := range archive.Files {
		name, kind, ok := strings.Cut(f.Name, "/")
		if !ok {
			t.Fatalf("bad fixture file name %q", f.Name)
		}
		body := strings.TrimSpace(string(f.Data))
		switch kind {
		case "src":
			srcs[name] = body
		case "type":
			wants[name] = body
		default:
			t.Fatalf("unknown fixture kind %q", f.Name)
		}
	}
	for name, src := range srcs {
		want, ok := wants[name]
		if !ok {
			t.Fatalf("fixture %q has no expected type", name)
		}
		t.Run(name, func(t *testing.T) {
			_, _, ty, _, err := synthSource(t, src)
			if err != nil {
				t.Fatalf("synth: %v", err)
			}
			if got := ty.String(); got != want {
				t.Fatalf("want %s, got %s", want, got)
			}
		})
	}
}

// TestScenarioCastStrategy covers the recorded strategy:
// the pair-typed argument narrows to its Integer field to fit the
// sum-typed parameter.
func TestScenarioCastStrategy(t *testing.T) {
	src := `$ f = \ +<'integer, *<>> -> 1; ^f(*<1, "a">)`
	_, ch, _, _, err := synthSource(t, src)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	from := itype.TProduct{Elems: []itype.IType{itype.TInteger{}, itype.TString{}}}
	to := itype.TSum{Elems: []itype.IType{itype.TInteger{}, itype.TProduct{}}}
	strat, ok := ch.CastStrategy(from, to)
	if !ok {
		t.Fatalf("want a recorded cast strategy for %s => %s", from, to)
	}
	pi, ok := strat.(check.ProductToInner)
	if !ok {
		t.Fatalf("want ProductToInner, got %T", strat)
	}
	if _, ok := pi.FieldType.(itype.TInteger); !ok {
		t.Fatalf("want the Integer field chosen, got %s", pi.FieldType)
	}
}

// TestScenarioEffectfulFunction: a lambda
// whose body performs lands the effect row inside the function body's
// Effectful wrapper, not on the whole term.
func TestScenarioEffectfulFunction(t *testing.T) {
	src := `$ f = \'integer -> "s"; \x -> ^f(! & x ~> 'integer)`
	_, _, ty, eff, err := synthSource(t, src)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	if items := itype.EffectsOf(eff); len(items) != 0 {
		t.Fatalf("the lambda itself performs nothing, got effects %v", items)
	}
	fn, ok := ty.(itype.TFunction)
	if !ok {
		t.Fatalf("want a function type, got %s", ty)
	}
	effectful, ok := fn.Body.(itype.TEffectful)
	if !ok {
		t.Fatalf("function body should be Effectful, got %s", fn.Body)
	}
	if _, ok := effectful.Ty.(itype.TString); !ok {
		t.Fatalf("payload should be String, got %s", effectful.Ty)
	}
	items := itype.EffectsOf(effectful.Effects)
	if len(items) != 1 {
		t.Fatalf("want exactly one latent effect, got %v", items)
	}
	if _, ok := items[0].Output.(itype.TInteger); !ok {
		t.Fatalf("effect output should be Integer, got %s", items[0].Output)
	}
	if !itype.Equal(items[0].Input, fn.Parameter) {
		t.Fatalf("effect input should be the lambda's own parameter: %s vs %s", items[0].Input, fn.Parameter)
	}
}

// TestScenarioBrandFabricationFails: a declared
// brand cannot be ascribed onto a bare value.
func TestScenarioBrandFabricationFails(t *testing.T) {
	src := `'brand "B"; : @"B" 'integer 1`
	_, _, _, _, err := synthSource(t, src)
	if err == nil {
		t.Fatalf("want NotSubtype: brands are never fabricated")
	}
	d, ok := err.(diagnostics.Error)
	if !ok || d.Code() != diagnostics.CodeNotSubtype {
		t.Fatalf("want %s, got %v", diagnostics.CodeNotSubtype, err)
	}
}

// TestScenarioLabelsTransparent: an undeclared label is transparent
// in both directions, end to end.
func TestScenarioLabelsTransparent(t *testing.T) {
	if _, _, _, _, err := synthSource(t, `: @"l" 'integer 1`); err != nil {
		t.Fatalf("value should enter a label: %v", err)
	}
	if _, _, _, _, err := synthSource(t, `: 'integer @"l" 1`); err != nil {
		t.Fatalf("labeled value should leave its label: %v", err)
	}
}

// TestScenarioContinueOutsideHandle: continue outside any handle is a
// hard error.
func TestScenarioContinueOutsideHandle(t *testing.T) {
	_, _, _, _, err := synthSource(t, `!~ 1 ~> 'string`)
	if err == nil {
		t.Fatalf("want ContinueOutOfHandle")
	}
	d, ok := err.(diagnostics.Error)
	if !ok || d.Code() != diagnostics.CodeContinueOutOfHandle {
		t.Fatalf("want %s, got %v", diagnostics.CodeContinueOutOfHandle, err)
	}
}

// TestScenarioTypeAtComments: comments
// never change type_at's verdict for the commented node.
func TestScenarioTypeAtComments(t *testing.T) {
	bare, chBare, _, _, err := synthSource(t, "1")
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	commented, chCom, _, _, err := synthSource(t, "// note\n1")
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	tyBare, ok := chBare.TypeAt(bare.Meta.ID)
	if !ok {
		t.Fatalf("type_at should know the bare literal")
	}
	tyCom, ok := chCom.TypeAt(commented.Meta.ID)
	if !ok {
		t.Fatalf("type_at should know the commented literal")
	}
	if !itype.Equal(tyBare, tyCom) {
		t.Fatalf("comments changed type_at: %s vs %s", tyBare, tyCom)
	}
}

// TestScenarioUncurriedChain: a
// two-parameter surface lambda synthesizes to a right-associated
// arrow chain.
func TestScenarioUncurriedChain(t *testing.T) {
	_, _, ty, _, err := synthSource(t, `\ 'integer, 'string -> 1`)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	outer, ok := ty.(itype.TFunction)
	if !ok {
		t.Fatalf("want a function, got %s", ty)
	}
	inner, ok := outer.Body.(itype.TFunction)
	if !ok {
		t.Fatalf("want a nested function body, got %s", outer.Body)
	}
	if _, ok := inner.Body.(itype.TInteger); !ok {
		t.Fatalf("want Integer at the chain's end, got %s", inner.Body)
	}
}
