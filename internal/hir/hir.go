// Package hir implements the single lowering pass from internal/ast
// to the annotated HIR: brand resolution, type-alias substitution,
// attribute flattening, comment stripping, function uncurrying, and
// This-stack resolution — one tree walk resolving each node against
// the tables accumulated so far.
package hir

import (
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/ident"
)

// Node is a lowered expression with its own metadata.
type Node = ident.WithMeta[Expr]

// TyNode is a lowered type with its own metadata.
type TyNode = ident.WithMeta[Ty]

// Expr is the HIR expression sum type. It mirrors internal/ast.Expr
// except: Attributed is gone (folded into Meta.Attrs by the lowering
// pass), Label and Brand are distinct cases (resolved against the
// brand registry), and Function always has exactly one parameter
// (uncurried).
type Expr interface{ hirExprNode() }

type Literal struct{ Value dson.Literal }

func (Literal) hirExprNode() {}

type Hole struct{}

func (Hole) hirExprNode() {}

type Do struct {
	Stmt Node
	Expr Node
}

func (Do) hirExprNode() {}

type Let struct {
	Definition Node
	Body       Node
}

func (Let) hirExprNode() {}

type Perform struct {
	Input  Node
	Output TyNode
}

func (Perform) hirExprNode() {}

type Continue struct {
	Input  Node
	Output TyNode
}

func (Continue) hirExprNode() {}

type Handler struct {
	EffectInput  TyNode
	EffectOutput TyNode
	Handler      Node
}

type Handle struct {
	Expr     Node
	Handlers []Handler
}

func (Handle) hirExprNode() {}

type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkVersion
	LinkCard
)

type LinkName struct {
	Kind LinkKind
	UUID [16]byte
}

type Apply struct {
	Function  TyNode
	LinkName  LinkName
	Arguments []Node
}

func (Apply) hirExprNode() {}

type Product struct{ Elems []Node }

func (Product) hirExprNode() {}

type Vector struct{ Elems []Node }

func (Vector) hirExprNode() {}

type MapEntry struct {
	Key   Node
	Value Node
}

type Map struct{ Entries []MapEntry }

func (Map) hirExprNode() {}

// Function always has a single parameter: multi-parameter surface
// functions are uncurried by the lowering pass.
type Function struct {
	Parameter TyNode
	Body      Node
}

func (Function) hirExprNode() {}

type MatchCase struct {
	Ty   TyNode
	Expr Node
}

type Match struct {
	Of    Node
	Cases []MatchCase
}

func (Match) hirExprNode() {}

type Typed struct {
	Ty   TyNode
	Item Node
}

func (Typed) hirExprNode() {}

type Label struct {
	Label dson.Dson
	Item  Node
}

func (Label) hirExprNode() {}

type Brand struct {
	Brand dson.Dson
	Item  Node
}

func (Brand) hirExprNode() {}

// Card survives lowering only at the top level; a Card found nested
// inside a non-top expression is a lowering error.
type Card struct {
	ID   [16]byte
	Item Node
	Next Node
}

func (Card) hirExprNode() {}
