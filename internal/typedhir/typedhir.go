// Package typedhir is the HIR decorated with its final, synthesized
// types: it pairs a lowered hir.Node tree with the node→type and
// cast-strategy tables an internal/check.Checker accumulates while
// synthesizing it, and exposes exactly the lookup surface internal/mir
// needs to lower that tree. The checker hands downstream stages a
// completed node→type map rather than threading inference state
// through code generation; the map is keyed by ident.NodeId since HIR
// nodes are value types.
package typedhir

import (
	"github.com/corec-lang/corec/internal/check"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// TypedHir is the output of a completed synth pass: a HIR tree plus
// access to the checker's type and cast-strategy tables; `internal/mir`
// consults the type table (and ResolveType) while lowering it.
type TypedHir struct {
	Root    hir.Node
	checker *check.Checker
}

// New pairs a lowered HIR tree with the Checker that synthesized it.
// The Checker must have already run Synth over root.
func New(root hir.Node, checker *check.Checker) *TypedHir {
	return &TypedHir{Root: root, checker: checker}
}

// TypeAt reports the type synth recorded for a node.
func (t *TypedHir) TypeAt(id ident.NodeId) (itype.IType, bool) {
	return t.checker.TypeAt(id)
}

// CastStrategy reports the recorded conversion recipe for a
// (from, to) pair.
func (t *TypedHir) CastStrategy(from, to itype.IType) (check.Strategy, bool) {
	return t.checker.CastStrategy(from, to)
}

// ResolveType converts a surface HIR type node to the internal type
// language the same way the checker itself did while synthesizing
// root, for the HIR positions that MIR generation needs resolved but
// that synth never stamped into the type table because they are Ty
// nodes, not Expr nodes: a Handle arm's declared effect input/output, a
// Match case's declared type, a Typed node's annotation. internal/mir
// has no other way to recover these without re-running FromHIRType
// itself against a fresh, uncorrelated existential generator.
func (t *TypedHir) ResolveType(n hir.TyNode) itype.IType {
	return t.checker.FromHIRType(n)
}

// MustTypeAt is TypeAt with a safe fallback: nodes that synth never
// visited (dead branches of a failed parse, or a node added after the
// last Synth call) resolve to an opaque Product{} rather than forcing
// every call site to thread a bool.
func (t *TypedHir) MustTypeAt(id ident.NodeId) itype.IType {
	if ty, ok := t.checker.TypeAt(id); ok {
		return ty
	}
	return itype.TProduct{}
}
