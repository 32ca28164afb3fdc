package mir

import (
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
	"github.com/corec-lang/corec/internal/typedhir"
)

// Gen walks the typed HIR and produces one Cfg per function or
// handler body, the entrypoint last.
func Gen(thir *typedhir.TypedHir) (*Mir, error) {
	g := &generator{thir: thir, protos: []*proto{newProto()}}
	v, err := g.genStmt(thir.Root)
	if err != nil {
		return nil, err
	}
	entry := g.endCfg(v, g.tyOf(thir.Root))
	if captured := g.cfgs[entry].Captured; len(captured) > 0 {
		return nil, diagnostics.ReferencesUnknownVar(thir.Root.Meta, captured[0])
	}
	return &Mir{Entrypoint: entry, Cfgs: g.cfgs}, nil
}

type generator struct {
	thir   *typedhir.TypedHir
	cfgs   []*Cfg
	protos []*proto
}

func (g *generator) proto() *proto { return g.protos[len(g.protos)-1] }

func (g *generator) beginCfg() { g.protos = append(g.protos, newProto()) }

func (g *generator) endCfg(result VarId, output itype.IType) CfgId {
	p := g.proto()
	g.protos = g.protos[:len(g.protos)-1]
	id := CfgId(len(g.cfgs))
	g.cfgs = append(g.cfgs, p.intoCfg(result, output))
	return id
}

// tyOf is the synthesized type of a HIR node, as recorded by the
// checker's type table.
func (g *generator) tyOf(n hir.Node) itype.IType {
	return g.thir.MustTypeAt(n.Meta.ID)
}

func (g *generator) genStmt(n hir.Node) (VarId, error) {
	return g.genExpr(n, g.tyOf(n))
}

// genExpr lowers one node, binding its result var under ty (usually
// the node's own synthesized type; Label/Brand override it, see below).
func (g *generator) genExpr(n hir.Node, ty itype.IType) (VarId, error) {
	switch v := n.Value.(type) {
	case hir.Literal:
		return g.proto().bindStmt(ty, Const{Value: v.Value}), nil

	case hir.Hole:
		// A hole never carries a runtime value of its own; it lowers
		// to the empty product so downstream stages have a var to
		// reference.
		return g.proto().bindStmt(ty, Product{}), nil

	case hir.Do:
		if _, err := g.genStmt(v.Stmt); err != nil {
			return 0, err
		}
		return g.genStmt(v.Expr)

	case hir.Let:
		return g.genLet(v)

	case hir.Perform:
		input, err := g.genStmt(v.Input)
		if err != nil {
			return 0, err
		}
		return g.proto().bindStmt(ty, Perform{Input: input}), nil

	case hir.Continue:
		// Resuming the suspended computation is expressed the same way
		// performing is: the VM's handler frame decides which direction
		// the value travels, so MIR needs no dedicated statement.
		input, err := g.genStmt(v.Input)
		if err != nil {
			return 0, err
		}
		return g.proto().bindStmt(ty, Perform{Input: input}), nil

	case hir.Handle:
		return g.genHandle(v, ty)

	case hir.Apply:
		return g.genApply(v, ty)

	case hir.Product:
		vars, err := g.genAll(v.Elems)
		if err != nil {
			return 0, err
		}
		return g.proto().bindStmt(ty, Product{Elems: vars}), nil

	case hir.Vector:
		vars, err := g.genAll(v.Elems)
		if err != nil {
			return 0, err
		}
		return g.proto().bindStmt(ty, Vector{Elems: vars}), nil

	case hir.Map:
		entries := make([]MapEntry, len(v.Entries))
		for i, e := range v.Entries {
			k, err := g.genStmt(e.Key)
			if err != nil {
				return 0, err
			}
			val, err := g.genStmt(e.Value)
			if err != nil {
				return 0, err
			}
			entries[i] = MapEntry{Key: k, Value: val}
		}
		return g.proto().bindStmt(ty, Map{Entries: entries}), nil

	case hir.Function:
		closure, err := g.genClosure(v.Parameter, v.Body)
		if err != nil {
			return 0, err
		}
		return g.proto().bindStmt(ty, Fn{Closure: closure}), nil

	case hir.Match:
		return g.genMatch(v, ty)

	case hir.Typed:
		item, err := g.genStmt(v.Item)
		if err != nil {
			return 0, err
		}
		return g.proto().bindStmt(g.thir.ResolveType(v.Ty), Cast{Var: item}), nil

	case hir.Label:
		return g.genWrapped(v.Item, ty)

	case hir.Brand:
		return g.genWrapped(v.Item, ty)

	case hir.Card:
		item, err := g.genStmt(v.Item)
		if err != nil {
			return 0, err
		}
		g.proto().createNamedVar(item)
		return g.genStmt(v.Next)

	default:
		return 0, diagnostics.ReferencesUnknownVar(n.Meta, ty)
	}
}

func (g *generator) genAll(nodes []hir.Node) ([]VarId, error) {
	out := make([]VarId, len(nodes))
	for i, n := range nodes {
		v, err := g.genStmt(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// genWrapped lowers the item of a Label/Brand wrapper. A bare
// reference or application keeps its own inner type so exact function
// signatures survive the wrap; any other item is lowered under the
// wrapper's type, which lets the value widen.
func (g *generator) genWrapped(item hir.Node, wrapTy itype.IType) (VarId, error) {
	if _, isApply := item.Value.(hir.Apply); isApply {
		return g.genStmt(item)
	}
	return g.genExpr(item, wrapTy)
}

// genLet opens a child scope for the binding. A function definition
// first binds a Recursion placeholder named under the definition's
// type, so the closure being built can resolve a reference to itself;
// the closure is then re-bound as the real Fn value.
func (g *generator) genLet(v hir.Let) (VarId, error) {
	g.proto().beginScope()

	defTy := g.tyOf(v.Definition)
	var defVar VarId
	if fn, ok := v.Definition.Value.(hir.Function); ok {
		recursion := g.proto().bindStmt(defTy, Recursion{})
		g.proto().createNamedVar(recursion)
		closure, err := g.genClosure(fn.Parameter, fn.Body)
		if err != nil {
			return 0, err
		}
		defVar = g.proto().bindStmt(defTy, Fn{Closure: closure})
	} else {
		var err error
		defVar, err = g.genStmt(v.Definition)
		if err != nil {
			return 0, err
		}
	}

	g.proto().createNamedVar(defVar)
	body, err := g.genStmt(v.Body)
	if err != nil {
		return 0, err
	}
	return g.proto().endScopeThenReturn(body), nil
}

// genClosure lowers a function body into a fresh Cfg: the parameter
// is bound first (a Parameter stmt in the initial block, made named so
// body references resolve to it), then the body, then the finished
// Cfg's captured list is resolved against the enclosing proto —
// possibly capturing transitively through several enclosing CFGs.
func (g *generator) genClosure(param hir.TyNode, body hir.Node) (Closure, error) {
	g.beginCfg()
	paramVar := g.proto().bindParameter(g.thir.ResolveType(param))
	g.proto().createNamedVar(paramVar)

	result, err := g.genStmt(body)
	if err != nil {
		return Closure{}, err
	}
	id := g.endCfg(result, g.tyOf(body))

	captured := make([]VarId, len(g.cfgs[id].Captured))
	for i, ty := range g.cfgs[id].Captured {
		captured[i] = g.proto().findVar(ty)
	}
	return Closure{Cfg: id, Captured: captured}, nil
}

// genHandle builds one sub-Cfg per handler arm (its parameter is the
// effect's input), one sub-Cfg for the handled expression, and applies
// the handled expression's closure with the handler map installed
func (g *generator) genHandle(v hir.Handle, ty itype.IType) (VarId, error) {
	handlers := make([]HandlerBinding, len(v.Handlers))
	for i, h := range v.Handlers {
		effect := itype.Effect{
			Input:  g.thir.ResolveType(h.EffectInput),
			Output: g.thir.ResolveType(h.EffectOutput),
		}
		closure, err := g.genHandlerClosure(effect.Input, h.Handler)
		if err != nil {
			return 0, err
		}
		handlerTy := itype.TFunction{Parameter: effect.Input, Body: g.tyOf(h.Handler)}
		handlerVar := g.proto().bindStmt(handlerTy, Fn{Closure: closure})
		handlers[i] = HandlerBinding{Effect: effect, Var: handlerVar}
	}

	g.beginCfg()
	exprResult, err := g.genStmt(v.Expr)
	if err != nil {
		return 0, err
	}
	exprCfg := g.endCfg(exprResult, g.tyOf(v.Expr))
	captured := make([]VarId, len(g.cfgs[exprCfg].Captured))
	for i, capTy := range g.cfgs[exprCfg].Captured {
		captured[i] = g.proto().findVar(capTy)
	}

	fn := g.proto().bindStmt(g.tyOf(v.Expr), Fn{Closure: Closure{
		Cfg:      exprCfg,
		Captured: captured,
		Handlers: handlers,
	}})
	return g.proto().bindStmt(ty, Apply{Function: fn}), nil
}

// genHandlerClosure is genClosure for a handler arm, whose parameter
// type is the handled effect's input rather than a surface TyNode.
func (g *generator) genHandlerClosure(input itype.IType, body hir.Node) (Closure, error) {
	g.beginCfg()
	paramVar := g.proto().bindParameter(input)
	g.proto().createNamedVar(paramVar)

	result, err := g.genStmt(body)
	if err != nil {
		return Closure{}, err
	}
	id := g.endCfg(result, g.tyOf(body))

	captured := make([]VarId, len(g.cfgs[id].Captured))
	for i, ty := range g.cfgs[id].Captured {
		captured[i] = g.proto().findVar(ty)
	}
	return Closure{Cfg: id, Captured: captured}, nil
}

// genApply resolves the callee — a Link stmt when a LinkName names an
// external or let-bound definition by node id, a named-var lookup
// otherwise — and applies it to the lowered arguments. A reference
// (zero arguments) is the callee var itself.
func (g *generator) genApply(v hir.Apply, ty itype.IType) (VarId, error) {
	fnTy := g.thir.ResolveType(v.Function)
	var fn VarId
	if v.LinkName.Kind != hir.LinkNone {
		fn = g.proto().bindLink(fnTy, v.LinkName)
	} else {
		fn = g.proto().findVar(fnTy)
	}
	if len(v.Arguments) == 0 {
		return fn, nil
	}
	args, err := g.genAll(v.Arguments)
	if err != nil {
		return 0, err
	}
	return g.proto().bindStmt(ty, Apply{Function: fn, Arguments: args}), nil
}

// genMatch lowers a match to its three-part block shape: the
// scrutinee block ends in a Match terminator, each case block casts
// its result into the shared match-result var and jumps to the goal
// block, and the goal block picks up subsequent statements.
// The shared result var is the one sanctioned exception to the
// one-bind-per-var invariant (see Bind's doc comment).
func (g *generator) genMatch(v hir.Match, ty itype.IType) (VarId, error) {
	caseTys := make([]itype.IType, len(v.Cases))
	for i, c := range v.Cases {
		caseTys[i] = g.thir.ResolveType(c.Ty)
	}
	sumTy := itype.IType(itype.TSum{Elems: caseTys})
	if len(caseTys) == 1 {
		sumTy = caseTys[0]
	}

	input, err := g.genStmt(v.Of)
	if err != nil {
		return 0, err
	}
	scrutinee := g.proto().bindStmt(sumTy, Cast{Var: input})

	goal := g.proto().beginBlock()
	g.proto().deferBlock()

	result := g.proto().createVar(ty)
	cases := make([]MatchCase, len(v.Cases))
	for i, c := range v.Cases {
		caseBlock := g.proto().beginBlock()
		caseResult, err := g.genStmt(c.Expr)
		if err != nil {
			return 0, err
		}
		g.proto().bindTo(result, Cast{Var: caseResult})
		g.proto().endBlock(Goto{Block: goal})
		cases[i] = MatchCase{Ty: caseTys[i], Next: caseBlock}
	}
	g.proto().endBlock(Match{Var: scrutinee, Cases: cases})
	g.proto().popDeferredBlock()
	return result, nil
}
