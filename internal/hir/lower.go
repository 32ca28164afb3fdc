package hir

import (
	"github.com/corec-lang/corec/internal/ast"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/ident"
)

// aliasEntry is one NewType binding on the lowering-time alias stack.
type aliasEntry struct {
	name string
	ty   ast.TyNode
}

// lowerer carries the mutable state threaded through the single
// lowering pass: the brand registry (global per compilation) and the
// type-alias stack (scoped like a let, shadowing on nested NewType of
// the same name).
type lowerer struct {
	brands  map[string]bool // keyed by Dson.String()
	aliases []aliasEntry
}

// Lower runs HIR lowering over a parsed AST.
func Lower(in ident.WithMeta[ast.Expr]) (Node, error) {
	l := &lowerer{brands: map[string]bool{}}
	return l.expr(in, true)
}

func (l *lowerer) registerBrand(b dson.Dson) { l.brands[b.String()] = true }
func (l *lowerer) isBrand(b dson.Dson) bool  { return l.brands[b.String()] }

func (l *lowerer) pushAlias(name string, ty ast.TyNode) {
	l.aliases = append(l.aliases, aliasEntry{name: name, ty: ty})
}
func (l *lowerer) popAlias() { l.aliases = l.aliases[:len(l.aliases)-1] }
func (l *lowerer) lookupAlias(name string) (ast.TyNode, bool) {
	for i := len(l.aliases) - 1; i >= 0; i-- {
		if l.aliases[i].name == name {
			return l.aliases[i].ty, true
		}
	}
	return ast.TyNode{}, false
}

// expr lowers one AST expression node. top indicates whether a Card
// is syntactically legal at this position; a Card nested inside a
// non-top expression is a lowering error.
func (l *lowerer) expr(in ident.WithMeta[ast.Expr], top bool) (Node, error) {
	switch v := in.Value.(type) {
	case ast.Literal:
		return Node{Value: Literal{Value: v.Value}, Meta: in.Meta}, nil

	case ast.Hole:
		return Node{Value: Hole{}, Meta: in.Meta}, nil

	case ast.Do:
		stmt, err := l.expr(v.Stmt, false)
		if err != nil {
			return Node{}, err
		}
		e, err := l.expr(v.Expr, false)
		if err != nil {
			return Node{}, err
		}
		return Node{Value: Do{Stmt: stmt, Expr: e}, Meta: in.Meta}, nil

	case ast.Let:
		def, err := l.expr(v.Definition, false)
		if err != nil {
			return Node{}, err
		}
		body, err := l.expr(v.Body, false)
		if err != nil {
			return Node{}, err
		}
		return Node{Value: Let{Definition: def, Body: body}, Meta: in.Meta}, nil

	case ast.Perform:
		input, err := l.expr(v.Input, false)
		if err != nil {
			return Node{}, err
		}
		out, err := l.ty(v.Output)
		if err != nil {
			return Node{}, err
		}
		return Node{Value: Perform{Input: input, Output: out}, Meta: in.Meta}, nil

	case ast.Continue:
		input, err := l.expr(v.Input, false)
		if err != nil {
			return Node{}, err
		}
		out, err := l.ty(v.Output)
		if err != nil {
			return Node{}, err
		}
		return Node{Value: Continue{Input: input, Output: out}, Meta: in.Meta}, nil

	case ast.Handle:
		e, err := l.expr(v.Expr, false)
		if err != nil {
			return Node{}, err
		}
		handlers := make([]Handler, len(v.Handlers))
		for i, h := range v.Handlers {
			in_, err := l.ty(h.EffectInput)
			if err != nil {
				return Node{}, err
			}
			out, err := l.ty(h.EffectOutput)
			if err != nil {
				return Node{}, err
			}
			hb, err := l.expr(h.Handler, false)
			if err != nil {
				return Node{}, err
			}
			handlers[i] = Handler{EffectInput: in_, EffectOutput: out, Handler: hb}
		}
		return Node{Value: Handle{Expr: e, Handlers: handlers}, Meta: in.Meta}, nil

	case ast.Apply:
		fn, err := l.ty(v.Function)
		if err != nil {
			return Node{}, err
		}
		args := make([]Node, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i], err = l.expr(a, false)
			if err != nil {
				return Node{}, err
			}
		}
		return Node{Value: Apply{Function: fn, LinkName: lowerLink(v.LinkName), Arguments: args}, Meta: in.Meta}, nil

	case ast.Product:
		elems := make([]Node, len(v.Elems))
		for i, e := range v.Elems {
			var err error
			elems[i], err = l.expr(e, false)
			if err != nil {
				return Node{}, err
			}
		}
		return Node{Value: Product{Elems: elems}, Meta: in.Meta}, nil

	case ast.Vector:
		elems := make([]Node, len(v.Elems))
		for i, e := range v.Elems {
			var err error
			elems[i], err = l.expr(e, false)
			if err != nil {
				return Node{}, err
			}
		}
		return Node{Value: Vector{Elems: elems}, Meta: in.Meta}, nil

	case ast.Map:
		entries := make([]MapEntry, len(v.Entries))
		for i, e := range v.Entries {
			k, err := l.expr(e.Key, false)
			if err != nil {
				return Node{}, err
			}
			val, err := l.expr(e.Value, false)
			if err != nil {
				return Node{}, err
			}
			entries[i] = MapEntry{Key: k, Value: val}
		}
		return Node{Value: Map{Entries: entries}, Meta: in.Meta}, nil

	case ast.Function:
		body, err := l.expr(v.Body, false)
		if err != nil {
			return Node{}, err
		}
		return l.uncurry(v.Parameters, body, in.Meta)

	case ast.Match:
		of, err := l.expr(v.Of, false)
		if err != nil {
			return Node{}, err
		}
		cases := make([]MatchCase, len(v.Cases))
		for i, c := range v.Cases {
			ty, err := l.ty(c.Ty)
			if err != nil {
				return Node{}, err
			}
			ce, err := l.expr(c.Expr, false)
			if err != nil {
				return Node{}, err
			}
			cases[i] = MatchCase{Ty: ty, Expr: ce}
		}
		return Node{Value: Match{Of: of, Cases: cases}, Meta: in.Meta}, nil

	case ast.Typed:
		ty, err := l.ty(v.Ty)
		if err != nil {
			return Node{}, err
		}
		item, err := l.expr(v.Item, false)
		if err != nil {
			return Node{}, err
		}
		return Node{Value: Typed{Ty: ty, Item: item}, Meta: in.Meta}, nil

	case ast.Attributed:
		lowered, err := l.expr(v.Item, false)
		if err != nil {
			return Node{}, err
		}
		lowered.Meta.Attrs = append(append([]any(nil), lowered.Meta.Attrs...), v.Attr)
		return lowered, nil

	case ast.Label:
		item, err := l.expr(v.Item, false)
		if err != nil {
			return Node{}, err
		}
		if l.isBrand(v.Label) {
			return Node{Value: Brand{Brand: v.Label, Item: item}, Meta: in.Meta}, nil
		}
		return Node{Value: Label{Label: v.Label, Item: item}, Meta: in.Meta}, nil

	case ast.DeclareBrand:
		l.registerBrand(v.Brand)
		return l.expr(v.Item, top)

	case ast.NewType:
		l.pushAlias(v.Ident, v.Ty)
		defer l.popAlias()
		e, err := l.expr(v.Expr, top)
		if err != nil {
			return Node{}, err
		}
		return e, nil

	case ast.Card:
		if !top {
			return Node{}, diagnostics.NestedCard(in.Meta)
		}
		item, err := l.expr(v.Item, false)
		if err != nil {
			return Node{}, err
		}
		next, err := l.expr(v.Next, true)
		if err != nil {
			return Node{}, err
		}
		return Node{Value: Card{ID: v.ID, Item: item, Next: next}, Meta: in.Meta}, nil

	default:
		return Node{}, diagnostics.MalformedAttribute(in.Meta, "unrecognized expression node")
	}
}

// uncurry lowers a multi-parameter surface Function into n nested
// single-parameter HIR Functions. A zero-parameter surface function
// (a thunk) lowers to a single Function whose parameter is Infer, so
// every callable has exactly one parameter slot.
func (l *lowerer) uncurry(params []ast.TyNode, body Node, meta ident.Meta) (Node, error) {
	if len(params) == 0 {
		return Node{Value: Function{Parameter: TyNode{Value: Infer{}, Meta: ident.NewMeta(ident.Span{})}, Body: body}, Meta: meta}, nil
	}
	lowered := make([]TyNode, len(params))
	for i, p := range params {
		lp, err := l.ty(p)
		if err != nil {
			return Node{}, err
		}
		lowered[i] = lp
	}
	inner := body
	for i := len(lowered) - 1; i >= 1; i-- {
		inner = Node{Value: Function{Parameter: lowered[i], Body: inner}, Meta: lowered[i].Meta}
	}
	return Node{Value: Function{Parameter: lowered[0], Body: inner}, Meta: meta}, nil
}

func lowerLink(l ast.LinkName) LinkName {
	return LinkName{Kind: LinkKind(l.Kind), UUID: [16]byte(l.UUID)}
}

// ty lowers a surface type, flattening Attributed/Comment, resolving
// NewType-bound Variable occurrences through the alias table, and
// distinguishing Labeled/Branded by brand-registry membership.
func (l *lowerer) ty(in ast.TyNode) (TyNode, error) {
	switch v := in.Value.(type) {
	case ast.Real:
		return TyNode{Value: Real{}, Meta: in.Meta}, nil
	case ast.Rational:
		return TyNode{Value: Rational{}, Meta: in.Meta}, nil
	case ast.Integer:
		return TyNode{Value: Integer{}, Meta: in.Meta}, nil
	case ast.String:
		return TyNode{Value: String{}, Meta: in.Meta}, nil
	case ast.Infer:
		return TyNode{Value: Infer{}, Meta: in.Meta}, nil
	case ast.This:
		of := ""
		if n := len(l.aliases); n > 0 {
			of = l.aliases[n-1].name
		}
		return TyNode{Value: This{Of: of}, Meta: in.Meta}, nil
	case ast.TyProduct:
		elems, err := l.tys(v.Elems)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: TyProduct{Elems: elems}, Meta: in.Meta}, nil
	case ast.TySum:
		elems, err := l.tys(v.Elems)
		if err != nil {
			return TyNode{}, err
		}
		if len(elems) == 0 {
			return TyNode{}, diagnostics.SumInsufficientElements(in.Meta)
		}
		return TyNode{Value: Sum{Elems: elems}, Meta: in.Meta}, nil
	case ast.TyVector:
		e, err := l.ty(v.Elem)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: TyVector{Elem: e}, Meta: in.Meta}, nil
	case ast.TyMap:
		k, err := l.ty(v.Key)
		if err != nil {
			return TyNode{}, err
		}
		val, err := l.ty(v.Value)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: TyMap{Key: k, Value: val}, Meta: in.Meta}, nil
	case ast.TyFunction:
		p, err := l.ty(v.Parameter)
		if err != nil {
			return TyNode{}, err
		}
		b, err := l.ty(v.Body)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: TyFunction{Parameter: p, Body: b}, Meta: in.Meta}, nil
	case ast.Trait:
		fns := make([]TyFunction, len(v.Functions))
		for i, f := range v.Functions {
			p, err := l.ty(f.Parameter)
			if err != nil {
				return TyNode{}, err
			}
			b, err := l.ty(f.Body)
			if err != nil {
				return TyNode{}, err
			}
			fns[i] = TyFunction{Parameter: p, Body: b}
		}
		return TyNode{Value: Trait{Functions: fns}, Meta: in.Meta}, nil
	case ast.Effectful:
		t, err := l.ty(v.Ty)
		if err != nil {
			return TyNode{}, err
		}
		eff, err := l.effectExpr(v.Effects)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: Effectful{Ty: t, Effects: eff}, Meta: in.Meta}, nil
	case ast.Variable:
		if alias, ok := l.lookupAlias(v.Name); ok {
			return l.ty(alias)
		}
		return TyNode{Value: Variable{Name: v.Name}, Meta: in.Meta}, nil
	case ast.TyLabeled:
		item, err := l.ty(v.Item)
		if err != nil {
			return TyNode{}, err
		}
		if l.isBrand(v.Brand) {
			return TyNode{Value: Branded{Brand: v.Brand, Item: item}, Meta: in.Meta}, nil
		}
		return TyNode{Value: Labeled{Label: v.Brand, Item: item}, Meta: in.Meta}, nil
	case ast.TyAttributed:
		lowered, err := l.ty(v.Ty)
		if err != nil {
			return TyNode{}, err
		}
		lowered.Meta.Attrs = append(append([]any(nil), lowered.Meta.Attrs...), v.Attr)
		return lowered, nil
	case ast.TyLet:
		l.pushAlias(v.Variable, v.Definition)
		defer l.popAlias()
		return l.ty(v.Body)
	case ast.Forall:
		var bound *TyNode
		if v.Bound != nil {
			b, err := l.ty(*v.Bound)
			if err != nil {
				return TyNode{}, err
			}
			bound = &b
		}
		body, err := l.ty(v.Body)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: Forall{Variable: v.Variable, Bound: bound, Body: body}, Meta: in.Meta}, nil
	case ast.Exists:
		var bound *TyNode
		if v.Bound != nil {
			b, err := l.ty(*v.Bound)
			if err != nil {
				return TyNode{}, err
			}
			bound = &b
		}
		body, err := l.ty(v.Body)
		if err != nil {
			return TyNode{}, err
		}
		return TyNode{Value: Exists{Variable: v.Variable, Bound: bound, Body: body}, Meta: in.Meta}, nil
	case ast.TyComment:
		return l.ty(v.Item)
	default:
		return TyNode{}, diagnostics.MalformedAttribute(in.Meta, "unrecognized type node")
	}
}

func (l *lowerer) tys(in []ast.TyNode) ([]TyNode, error) {
	out := make([]TyNode, len(in))
	for i, t := range in {
		lt, err := l.ty(t)
		if err != nil {
			return nil, err
		}
		out[i] = lt
	}
	return out, nil
}

func (l *lowerer) effectExpr(in ast.EffectExpr) (EffectExpr, error) {
	switch v := in.(type) {
	case ast.Effects:
		sigs := make([]EffectSig, len(v.Sigs))
		for i, s := range v.Sigs {
			in_, err := l.ty(s.Input)
			if err != nil {
				return nil, err
			}
			out, err := l.ty(s.Output)
			if err != nil {
				return nil, err
			}
			sigs[i] = EffectSig{Input: in_, Output: out}
		}
		return Effects{Sigs: sigs}, nil
	case ast.Add:
		terms := make([]EffectExpr, len(v.Terms))
		for i, t := range v.Terms {
			var err error
			terms[i], err = l.effectExpr(t)
			if err != nil {
				return nil, err
			}
		}
		return Add{Terms: terms}, nil
	case ast.Sub:
		m, err := l.effectExpr(v.Minuend)
		if err != nil {
			return nil, err
		}
		s, err := l.effectExpr(v.Subtrahend)
		if err != nil {
			return nil, err
		}
		return Sub{Minuend: m, Subtrahend: s}, nil
	case ast.EffectApply:
		fn, err := l.ty(v.Function)
		if err != nil {
			return nil, err
		}
		args, err := l.tys(v.Arguments)
		if err != nil {
			return nil, err
		}
		return EffectApply{Function: fn, Arguments: args}, nil
	default:
		return nil, nil
	}
}
