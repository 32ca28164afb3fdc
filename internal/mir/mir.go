// Package mir implements the MIR generator: it lowers a
// typedhir.TypedHir tree into a control-flow graph of typed basic
// blocks, one Cfg per function or handler body, linked into closures
// by a captured-variable list.
//
// CFGs are built by a stack of mutable proto builders, so a nested
// function literal finishes building before control returns to the
// builder that captures it; a var captured from an enclosing builder
// is registered on first use and reused on repeat reference, which is
// what fixes the order of Cfg.Captured.
package mir

import (
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
)

// CfgId indexes Mir.Cfgs.
type CfgId int

// BlockId indexes Cfg.Blocks.
type BlockId int

// VarId indexes Cfg.Vars.
type VarId int

// ScopeId indexes Cfg.Scopes.
type ScopeId int

// Mir is the whole-program output of Gen: one entrypoint Cfg plus every Cfg reachable from it
// (closures, handler bodies) by CfgId.
type Mir struct {
	Entrypoint CfgId
	Cfgs       []*Cfg
}

// Cfg is one function or handler body's control-flow graph.
type Cfg struct {
	Parameters []itype.IType
	Captured   []itype.IType
	Output     itype.IType
	Vars       []Var
	Scopes     []Scope
	Blocks     []*Block
	Links      []hir.LinkName
}

// Var is one CFG-local variable: its type and the scope it is live in.
type Var struct {
	Ty    itype.IType
	Scope ScopeId
}

// Scope is one node of the scope tree rooted at scope 0; Super is -1
// for the root.
type Scope struct {
	Super ScopeId
}

const noScope ScopeId = -1

// Block is a basic block: a straight-line sequence of binds ending in
// exactly one terminator.
type Block struct {
	Stmts      []Bind
	Terminator Terminator
}

// Bind names the result of one Stmt. Every VarId in a Cfg is named by
// exactly one Bind across all of that Cfg's blocks, except for the
// shared result slot a Match terminator's case arms write into — see
// genMatch's doc comment.
type Bind struct {
	Var  VarId
	Stmt Stmt
}

// Stmt is the MIR statement sum type.
type Stmt interface{ mirStmtNode() }

type Const struct{ Value dson.Literal }

func (Const) mirStmtNode() {}

type Product struct{ Elems []VarId }

func (Product) mirStmtNode() {}

type Vector struct{ Elems []VarId }

func (Vector) mirStmtNode() {}

type MapEntry struct{ Key, Value VarId }

type Map struct{ Entries []MapEntry }

func (Map) mirStmtNode() {}

type Fn struct{ Closure Closure }

func (Fn) mirStmtNode() {}

type Perform struct{ Input VarId }

func (Perform) mirStmtNode() {}

type Apply struct {
	Function  VarId
	Arguments []VarId
}

func (Apply) mirStmtNode() {}

// Cast reinterprets Var's value as the binding var's own recorded
// type (Cfg.Vars[bound].Ty); it carries no target type of its own
// because the target is always the type the enclosing Bind already
// records for the var it defines.
type Cast struct{ Var VarId }

func (Cast) mirStmtNode() {}

// Parameter marks a var supplied by the caller: either one of the Cfg's
// own declared Parameters, or one of its Captured closure inputs (see
// proto.findVar's doc comment on how a captured input is bound). Parameter binds
// occur only in block 0.
type Parameter struct{}

func (Parameter) mirStmtNode() {}

// Recursion marks the placeholder var a recursive Let binds before
// its own closure exists. The var stays bound to Recursion and a
// second var is bound to Fn(closure); Recursion exists solely so the
// binding is named before the closure that may reference it (itself)
// is built.
type Recursion struct{}

func (Recursion) mirStmtNode() {}

// Link references an external definition by stable id (a Card graph
// node, or a specific version) rather than by a var this Cfg can name
// locally; it stays symbolic, resolved by a later stage this module
// does not implement (no linker, explicit Non-goal).
type Link struct{ Name hir.LinkName }

func (Link) mirStmtNode() {}

// Terminator is the MIR terminator sum type. Every block
// ends with exactly one.
type Terminator interface{ mirTerminatorNode() }

type Return struct{ Var VarId }

func (Return) mirTerminatorNode() {}

type Goto struct{ Block BlockId }

func (Goto) mirTerminatorNode() {}

// MatchCase is one arm of a Match terminator: a case's declared type
// and the block to jump to when the scrutinee has that type.
type MatchCase struct {
	Ty   itype.IType
	Next BlockId
}

type Match struct {
	Var   VarId
	Cases []MatchCase
}

func (Match) mirTerminatorNode() {}

// HandlerBinding is one entry of a Closure's handler map: the effect it
// handles and the var holding the handler closure for it. Represented
// as an ordered slice rather than a Go
// map, since itype.Effect embeds itype.IType values whose concrete
// types are not all comparable (TProduct etc. hold slices), and
// insertion order is exactly the handler-arm order of the source
// Handle expression anyway.
type HandlerBinding struct {
	Effect itype.Effect
	Var    VarId
}

// Closure is the FnRef payload of a Fn stmt: the CFG it refers to, the
// enclosing-proto vars supplied as its closure inputs (in first-use
// order, matching Cfg.Captured), and the handler bindings a Handle
// expression installs over it (empty for an ordinary function).
type Closure struct {
	Cfg      CfgId
	Captured []VarId
	Handlers []HandlerBinding
}
