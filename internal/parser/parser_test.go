package parser

import (
	"testing"

	"github.com/corec-lang/corec/internal/ast"
	"github.com/corec-lang/corec/internal/dson"
	"github.com/google/uuid"
)

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()
	n, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return n
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		src  string
		kind dson.LiteralKind
	}{
		{"1", dson.KindInteger},
		{"-12", dson.KindInteger},
		{"1/2", dson.KindRational},
		{"1.5", dson.KindReal},
		{`"a"`, dson.KindString},
	}
	for _, tt := range tests {
		n := mustParse(t, tt.src)
		lit, ok := n.Value.(ast.Literal)
		if !ok {
			t.Fatalf("%q: want Literal, got %T", tt.src, n.Value)
		}
		if lit.Value.Kind != tt.kind {
			t.Errorf("%q: want kind %d, got %d", tt.src, tt.kind, lit.Value.Kind)
		}
	}
}

func TestParseStringEscapes(t *testing.T) {
	n := mustParse(t, `"a\tb\nc\"d\\e"`)
	lit := n.Value.(ast.Literal)
	want := "a\tb\nc\"d\\e"
	if lit.Value.Str != want {
		t.Fatalf("want %q, got %q", want, lit.Value.Str)
	}
}

func TestParseLet(t *testing.T) {
	n := mustParse(t, "$ 3; ?")
	let, ok := n.Value.(ast.Let)
	if !ok {
		t.Fatalf("want Let, got %T", n.Value)
	}
	if _, ok := let.Definition.Value.(ast.Literal); !ok {
		t.Errorf("definition: want Literal, got %T", let.Definition.Value)
	}
	if _, ok := let.Body.Value.(ast.Hole); !ok {
		t.Errorf("body: want Hole, got %T", let.Body.Value)
	}
}

// TestParseNamedLetLinks covers the named-let sugar: a `$ name = def`
// binder gives references to name a Card link carrying def's node id,
// while the Let node itself stays nameless.
func TestParseNamedLetLinks(t *testing.T) {
	n := mustParse(t, `$ id = \x -> & x; ^id(1)`)
	let := n.Value.(ast.Let)
	body := let.Body.Value.(ast.Apply)
	if body.LinkName.Kind != ast.LinkCard {
		t.Fatalf("want Card link on bound-name reference, got kind %d", body.LinkName.Kind)
	}
	if body.LinkName.UUID != uuid.UUID(let.Definition.Meta.ID) {
		t.Fatalf("link should carry the definition's node id")
	}
}

// TestParseLambdaParamShadowsLet: a lambda parameter of the same name
// hides an enclosing `$ name =` binding, so the inner reference stays
// unlinked and resolves as an ordinary free name at check time.
func TestParseLambdaParamShadowsLet(t *testing.T) {
	n := mustParse(t, `$ x = 1; \x -> & x`)
	let := n.Value.(ast.Let)
	fn := let.Body.Value.(ast.Function)
	ref := fn.Body.Value.(ast.Apply)
	if ref.LinkName.Kind != ast.LinkNone {
		t.Fatalf("shadowed reference must not link to the outer binding")
	}
}

func TestParsePerformContinue(t *testing.T) {
	n := mustParse(t, "! 1 ~> 'string")
	p, ok := n.Value.(ast.Perform)
	if !ok {
		t.Fatalf("want Perform, got %T", n.Value)
	}
	if _, ok := p.Output.Value.(ast.String); !ok {
		t.Errorf("output: want String, got %T", p.Output.Value)
	}

	n = mustParse(t, "!~ 1 ~> 'string")
	if _, ok := n.Value.(ast.Continue); !ok {
		t.Fatalf("want Continue, got %T", n.Value)
	}
}

func TestParseHandle(t *testing.T) {
	n := mustParse(t, `'handle ? { 'integer ~> 'string => 3 }`)
	h, ok := n.Value.(ast.Handle)
	if !ok {
		t.Fatalf("want Handle, got %T", n.Value)
	}
	if len(h.Handlers) != 1 {
		t.Fatalf("want 1 handler, got %d", len(h.Handlers))
	}
	if _, ok := h.Handlers[0].EffectInput.Value.(ast.Integer); !ok {
		t.Errorf("effect input: want Integer, got %T", h.Handlers[0].EffectInput.Value)
	}
}

func TestParseApplyAndReference(t *testing.T) {
	n := mustParse(t, "^add(1, 2)")
	a := n.Value.(ast.Apply)
	if len(a.Arguments) != 2 {
		t.Fatalf("want 2 arguments, got %d", len(a.Arguments))
	}
	if v, ok := a.Function.Value.(ast.Variable); !ok || v.Name != "add" {
		t.Fatalf("want Variable add, got %#v", a.Function.Value)
	}

	n = mustParse(t, "& x")
	r := n.Value.(ast.Apply)
	if len(r.Arguments) != 0 {
		t.Fatalf("reference should carry no arguments")
	}
	if !ast.IsReference(r) {
		t.Fatalf("IsReference should hold for a bare reference")
	}
}

func TestParseCollections(t *testing.T) {
	n := mustParse(t, `*<1, "a">`)
	if p, ok := n.Value.(ast.Product); !ok || len(p.Elems) != 2 {
		t.Fatalf("want 2-element Product, got %#v", n.Value)
	}
	n = mustParse(t, "[1, 2, 3]")
	if v, ok := n.Value.(ast.Vector); !ok || len(v.Elems) != 3 {
		t.Fatalf("want 3-element Vector, got %#v", n.Value)
	}
	n = mustParse(t, "{1 => 2, 3 => 4}")
	if m, ok := n.Value.(ast.Map); !ok || len(m.Entries) != 2 {
		t.Fatalf("want 2-entry Map, got %#v", n.Value)
	}
}

func TestParseFunctionMultiParam(t *testing.T) {
	n := mustParse(t, `\ 'integer, 'string -> 1`)
	f, ok := n.Value.(ast.Function)
	if !ok {
		t.Fatalf("want Function, got %T", n.Value)
	}
	if len(f.Parameters) != 2 {
		t.Fatalf("want 2 parameters, got %d", len(f.Parameters))
	}
}

func TestParseMatch(t *testing.T) {
	n := mustParse(t, `'match ? { 'integer => "int", 'string => "str" }`)
	m, ok := n.Value.(ast.Match)
	if !ok {
		t.Fatalf("want Match, got %T", n.Value)
	}
	if len(m.Cases) != 2 {
		t.Fatalf("want 2 cases, got %d", len(m.Cases))
	}
}

func TestParseTypedAttributedLabeled(t *testing.T) {
	n := mustParse(t, ": 'integer ?")
	if _, ok := n.Value.(ast.Typed); !ok {
		t.Fatalf("want Typed, got %T", n.Value)
	}
	n = mustParse(t, "# 3 ?")
	if _, ok := n.Value.(ast.Attributed); !ok {
		t.Fatalf("want Attributed, got %T", n.Value)
	}
	n = mustParse(t, `@"a" 1`)
	l, ok := n.Value.(ast.Label)
	if !ok {
		t.Fatalf("want Label, got %T", n.Value)
	}
	if !dson.Equal(l.Label, dson.Str("a")) {
		t.Fatalf("want label \"a\", got %s", l.Label)
	}
}

func TestParseBrandAndNewType(t *testing.T) {
	n := mustParse(t, `'brand "b"; 1`)
	b, ok := n.Value.(ast.DeclareBrand)
	if !ok {
		t.Fatalf("want DeclareBrand, got %T", n.Value)
	}
	if !dson.Equal(b.Brand, dson.Str("b")) {
		t.Fatalf("want brand \"b\", got %s", b.Brand)
	}

	n = mustParse(t, `'type the number of apples 'integer; ?`)
	nt, ok := n.Value.(ast.NewType)
	if !ok {
		t.Fatalf("want NewType, got %T", n.Value)
	}
	if nt.Ident != "the number of apples" {
		t.Fatalf("multi-word ident should join with single spaces, got %q", nt.Ident)
	}
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		src  string
		want func(ast.Ty) bool
	}{
		{"& 'integer", func(ty ast.Ty) bool { _, ok := ty.(ast.Integer); return ok }},
		{"& _", func(ty ast.Ty) bool { _, ok := ty.(ast.Infer); return ok }},
		{"& 'this", func(ty ast.Ty) bool { _, ok := ty.(ast.This); return ok }},
		{"& +<'integer, *<>>", func(ty ast.Ty) bool {
			s, ok := ty.(ast.TySum)
			return ok && len(s.Elems) == 2
		}},
		{"& ['integer]", func(ty ast.Ty) bool { _, ok := ty.(ast.TyVector); return ok }},
		{"& {'integer => 'string}", func(ty ast.Ty) bool { _, ok := ty.(ast.TyMap); return ok }},
		{`& \ 'integer -> 'string`, func(ty ast.Ty) bool { _, ok := ty.(ast.TyFunction); return ok }},
		{`& %<\ 'integer -> 'integer>`, func(ty ast.Ty) bool {
			tr, ok := ty.(ast.Trait)
			return ok && len(tr.Functions) == 1
		}},
		{"& 'forall a. a", func(ty ast.Ty) bool { _, ok := ty.(ast.Forall); return ok }},
		{"& @added 'integer", func(ty ast.Ty) bool { _, ok := ty.(ast.TyLabeled); return ok }},
		{"& ! 'string {'integer ~> 'string}", func(ty ast.Ty) bool { _, ok := ty.(ast.Effectful); return ok }},
		{"& $ x 'integer; x", func(ty ast.Ty) bool { _, ok := ty.(ast.TyLet); return ok }},
	}
	for _, tt := range tests {
		n := mustParse(t, tt.src)
		a, ok := n.Value.(ast.Apply)
		if !ok {
			t.Fatalf("%q: want reference Apply, got %T", tt.src, n.Value)
		}
		if !tt.want(a.Function.Value) {
			t.Errorf("%q: unexpected type %#v", tt.src, a.Function.Value)
		}
	}
}

func TestParseCommentsAttach(t *testing.T) {
	n := mustParse(t, "// leading\n1")
	if len(n.Meta.Comments.Before) != 1 {
		t.Fatalf("want 1 leading comment, got %d", len(n.Meta.Comments.Before))
	}
	if n.Meta.Comments.Before[0].Text != "leading" {
		t.Fatalf("want comment text %q, got %q", "leading", n.Meta.Comments.Before[0].Text)
	}
	if _, ok := n.Value.(ast.Literal); !ok {
		t.Fatalf("comment should not change the node shape")
	}
}

func TestParseFreshNodeIds(t *testing.T) {
	n := mustParse(t, "*<1, 1>")
	p := n.Value.(ast.Product)
	if p.Elems[0].Meta.ID == p.Elems[1].Meta.ID {
		t.Fatalf("two occurrences of the same literal must get distinct NodeIds")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"*<1",
		"$ 1 ?",
		"'handle ? {}",
		"1 2",
	}
	for _, src := range tests {
		if _, err := Parse(src); err == nil {
			t.Errorf("%q: want a parse error", src)
		}
	}
}
