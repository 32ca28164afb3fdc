package mir

import (
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
)

// blockProto is one basic block under construction.
type blockProto struct {
	stmts      []Bind
	terminator Terminator
}

// namedVar is one entry of the proto's name table: a var made
// addressable by its type.
type namedVar struct {
	ty    itype.IType
	v     VarId
	scope ScopeId
}

// proto is a mutable builder for one control-flow graph: vars and a
// scope tree for locals, a captured list for values supplied by the
// enclosing function, and an explicit block graph for control flow.
// Protos form a stack inside the generator so nested closures finish
// building before control returns to the proto that captures them.
type proto struct {
	parameters []itype.IType
	vars       []Var
	scopes     []Scope
	blocks     []*blockProto
	links      []hir.LinkName

	currentScope ScopeId
	// active is the stack of not-yet-terminated blocks; the top is the
	// block bindStmt emits into. endBlock terminates and pops the top,
	// resuming the block beneath it.
	active []BlockId
	// deferred is the defer_block/pop_deferred_block stack.
	deferred []BlockId

	named []namedVar

	// captured lists, in first-use order, the types this CFG had to
	// request from its enclosing proto; capturedVars holds the local
	// var each one was materialized as (bound Parameter in block 0,
	// after the declared parameters).
	captured     []itype.IType
	capturedVars []VarId
}

func newProto() *proto {
	return &proto{
		scopes: []Scope{{Super: noScope}},
		blocks: []*blockProto{{}},
		active: []BlockId{0},
	}
}

func (p *proto) block(id BlockId) *blockProto { return p.blocks[id] }

func (p *proto) currentBlock() BlockId { return p.active[len(p.active)-1] }

// createVar allocates a fresh var of the given type in the current
// scope without binding it (used for the shared match-result slot).
func (p *proto) createVar(ty itype.IType) VarId {
	id := VarId(len(p.vars))
	p.vars = append(p.vars, Var{Ty: ty, Scope: p.currentScope})
	return id
}

// bindStmt allocates a var and binds stmt to it in the active block.
func (p *proto) bindStmt(ty itype.IType, s Stmt) VarId {
	v := p.createVar(ty)
	p.bindTo(v, s)
	return v
}

// bindTo appends a bind of stmt to an already-allocated var.
func (p *proto) bindTo(v VarId, s Stmt) {
	b := p.block(p.currentBlock())
	b.stmts = append(b.stmts, Bind{Var: v, Stmt: s})
}

// bindParameter declares one CFG parameter: a Parameter bind in the
// initial block, in declaration order.
func (p *proto) bindParameter(ty itype.IType) VarId {
	v := p.createVar(ty)
	p.parameters = append(p.parameters, ty)
	p.blocks[0].stmts = append(p.blocks[0].stmts, Bind{Var: v, Stmt: Parameter{}})
	return v
}

// bindLink binds a symbolic external reference and records its name on
// the CFG's link list.
func (p *proto) bindLink(ty itype.IType, name hir.LinkName) VarId {
	p.links = append(p.links, name)
	return p.bindStmt(ty, Link{Name: name})
}

// createNamedVar makes an existing var addressable by its type from
// the current scope inward.
func (p *proto) createNamedVar(v VarId) {
	p.named = append(p.named, namedVar{ty: p.vars[v].Ty, v: v, scope: p.currentScope})
}

// findVar resolves a reference type against the name table, innermost
// binding first, considering only vars whose scope is on the current
// scope chain. A miss becomes a capture request: the type is appended
// to the captured list (first-use order, deduplicated) and a local
// var is materialized for it as a Parameter bind in block 0; the
// enclosing proto supplies the actual value through the Closure's
// captured list.
func (p *proto) findVar(ty itype.IType) VarId {
	for i := len(p.named) - 1; i >= 0; i-- {
		n := p.named[i]
		if p.scopeLive(n.scope) && itype.Equal(n.ty, ty) {
			return n.v
		}
	}
	for i, c := range p.captured {
		if itype.Equal(c, ty) {
			return p.capturedVars[i]
		}
	}
	v := p.createVar(ty)
	p.blocks[0].stmts = append(p.blocks[0].stmts, Bind{Var: v, Stmt: Parameter{}})
	p.captured = append(p.captured, ty)
	p.capturedVars = append(p.capturedVars, v)
	return v
}

// scopeLive reports whether s is the current scope or one of its
// ancestors.
func (p *proto) scopeLive(s ScopeId) bool {
	cur := p.currentScope
	for cur != noScope {
		if cur == s {
			return true
		}
		cur = p.scopes[cur].Super
	}
	return false
}

func (p *proto) beginScope() {
	id := ScopeId(len(p.scopes))
	p.scopes = append(p.scopes, Scope{Super: p.currentScope})
	p.currentScope = id
}

// endScopeThenReturn closes the current scope and hands the scope's
// result var back to the parent scope.
func (p *proto) endScopeThenReturn(v VarId) VarId {
	p.currentScope = p.scopes[p.currentScope].Super
	return v
}

// beginBlock opens a fresh empty block, pushes it onto the active
// stack, and returns its id.
func (p *proto) beginBlock() BlockId {
	id := BlockId(len(p.blocks))
	p.blocks = append(p.blocks, &blockProto{})
	p.active = append(p.active, id)
	return id
}

// deferBlock shelves the active block without terminating it; the
// block beneath it on the active stack resumes.
func (p *proto) deferBlock() {
	p.deferred = append(p.deferred, p.currentBlock())
	p.active = p.active[:len(p.active)-1]
}

// popDeferredBlock resumes emission into the most recently deferred
// block.
func (p *proto) popDeferredBlock() {
	p.active = append(p.active, p.deferred[len(p.deferred)-1])
	p.deferred = p.deferred[:len(p.deferred)-1]
}

// endBlock closes the active block with t and pops it; the previously
// shelved block beneath it resumes. With nothing beneath and nothing
// deferred, a fresh empty block opens. With nothing beneath but a
// block deferred, no block is active until popDeferredBlock resumes
// the deferred one.
func (p *proto) endBlock(t Terminator) {
	p.block(p.currentBlock()).terminator = t
	p.active = p.active[:len(p.active)-1]
	if len(p.active) == 0 && len(p.deferred) == 0 {
		id := BlockId(len(p.blocks))
		p.blocks = append(p.blocks, &blockProto{})
		p.active = append(p.active, id)
	}
}

// intoCfg seals the proto: the active block is terminated with
// Return(result) and the builder state becomes an immutable Cfg. An
// empty residual block (opened by an endBlock nothing emitted into)
// also returns the result, keeping the one-terminator-per-block
// invariant without disturbing block ids.
func (p *proto) intoCfg(result VarId, output itype.IType) *Cfg {
	p.block(p.currentBlock()).terminator = Return{Var: result}
	blocks := make([]*Block, 0, len(p.blocks))
	for _, b := range p.blocks {
		if b.terminator == nil {
			blocks = append(blocks, &Block{Stmts: b.stmts, Terminator: Return{Var: result}})
			continue
		}
		blocks = append(blocks, &Block{Stmts: b.stmts, Terminator: b.terminator})
	}
	return &Cfg{
		Parameters: p.parameters,
		Captured:   p.captured,
		Output:     output,
		Vars:       p.vars,
		Scopes:     p.scopes,
		Blocks:     blocks,
		Links:      p.links,
	}
}
