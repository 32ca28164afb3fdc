// Package ast is the surface syntax produced by the parser: closed
// Expr/Ty sum types with a private marker method per case, so adding
// a node shape is a compile-visible change while traversal stays
// plain recursive functions.
package ast

import (
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/google/uuid"
)

// Node is a child expression together with its own metadata.
type Node = ident.WithMeta[Expr]

// TyNode is a child type together with its own metadata.
type TyNode = ident.WithMeta[Ty]

// Expr is the surface expression sum type.
type Expr interface {
	exprNode()
}

// --- literals & structural forms ---

type Literal struct{ Value dson.Literal }

func (Literal) exprNode() {}

type Hole struct{}

func (Hole) exprNode() {}

type Do struct {
	Stmt Node
	Expr Node
}

func (Do) exprNode() {}

type Let struct {
	Definition Node
	Body       Node
}

func (Let) exprNode() {}

type Perform struct {
	Input  Node
	Output TyNode
}

func (Perform) exprNode() {}

type Continue struct {
	Input  Node
	Output TyNode
}

func (Continue) exprNode() {}

// Handler is one `effect ⇒ handler` arm of a Handle expression.
type Handler struct {
	EffectInput  TyNode
	EffectOutput TyNode
	Handler      Node
}

type Handle struct {
	Expr     Node
	Handlers []Handler
}

func (Handle) exprNode() {}

// LinkKind distinguishes the three LinkName shapes.
type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkVersion
	LinkCard
)

// LinkName is None | Version(UUID) | Card(UUID).
type LinkName struct {
	Kind LinkKind
	UUID uuid.UUID
}

type Apply struct {
	Function  TyNode
	LinkName  LinkName
	Arguments []Node
}

func (Apply) exprNode() {}

type Product struct{ Elems []Node }

func (Product) exprNode() {}

type Vector struct{ Elems []Node }

func (Vector) exprNode() {}

type MapEntry struct {
	Key   Node
	Value Node
}

type Map struct{ Entries []MapEntry }

func (Map) exprNode() {}

type Function struct {
	Parameters []TyNode // surface AST keeps the pre-uncurry parameter list; lowering uncurries it
	Body       Node
}

func (Function) exprNode() {}

type MatchCase struct {
	Ty   TyNode
	Expr Node
}

type Match struct {
	Of    Node
	Cases []MatchCase
}

func (Match) exprNode() {}

type Typed struct {
	Ty   TyNode
	Item Node
}

func (Typed) exprNode() {}

type Attributed struct {
	Attr dson.Dson
	Item Node
}

func (Attributed) exprNode() {}

type Label struct {
	Label dson.Dson
	Item  Node
}

func (Label) exprNode() {}

type DeclareBrand struct {
	Brand dson.Dson
	Item  Node
}

func (DeclareBrand) exprNode() {}

type NewType struct {
	Ident string
	Ty    TyNode
	Expr  Node
}

func (NewType) exprNode() {}

// Card represents one labeled node of a (possibly mutually recursive)
// top-level card graph; `Next` is the continuation within the same
// top-level unit.
type Card struct {
	ID   uuid.UUID
	Item Node
	Next Node
}

func (Card) exprNode() {}

// --- reference (Apply with zero arguments) convenience ---

// IsReference reports whether an Apply node is a bare reference
// (zero arguments).
func IsReference(a Apply) bool { return len(a.Arguments) == 0 }
