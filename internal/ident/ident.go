// Package ident mints stable node identities and carries source
// metadata (spans, comments, user attributes) alongside every AST/HIR
// node, the way internal/ast/ast_core.go threads a token.Token through
// every node for error reporting, generalized to a full Meta value.
package ident

import "github.com/google/uuid"

// NodeId is an opaque identity, unique per syntactic occurrence. Two
// distinct occurrences of the same literal have different NodeIds.
type NodeId uuid.UUID

// NewNodeId mints a fresh, globally unique NodeId.
func NewNodeId() NodeId {
	return NodeId(uuid.New())
}

func (id NodeId) String() string {
	return uuid.UUID(id).String()
}

// Pos is a byte offset plus line/column, produced by the parser.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Pos
	End   Pos
}

// CommentKind distinguishes a `// line` comment from a `/* block */` one.
type CommentKind int

const (
	CommentLine CommentKind = iota
	CommentBlock
)

// Comment is a single comment attached to a node.
type Comment struct {
	Kind CommentKind
	Text string
}

// Comments groups the comments attached to a node: zero or more before
// it, and at most one trailing comment on the same line after it.
type Comments struct {
	Before []Comment
	After  *string
}

// Meta pairs a NodeId with its span, comments, and (once HIR lowering
// has run) user attributes. Attrs accumulate innermost-first: the
// closest Attributed wrapper to the item is Attrs[0].
type Meta struct {
	ID       NodeId
	Span     Span
	Comments Comments
	Attrs    []any // each entry is a dson.Dson, kept as `any` to avoid an import cycle
}

// NewMeta mints fresh metadata with a fresh NodeId and the given span.
func NewMeta(span Span) Meta {
	return Meta{ID: NewNodeId(), Span: span}
}

// WithMeta pairs a value of type T with its Meta.
type WithMeta[T any] struct {
	Value T
	Meta  Meta
}

// Of pairs a value with freshly minted metadata over span.
func Of[T any](value T, span Span) WithMeta[T] {
	return WithMeta[T]{Value: value, Meta: NewMeta(span)}
}

// Map transforms the payload of a WithMeta while keeping its Meta.
func Map[T, U any](w WithMeta[T], f func(T) U) WithMeta[U] {
	return WithMeta[U]{Value: f(w.Value), Meta: w.Meta}
}
