// Package corec is the public surface of the compilation pipeline:
// parse → lower → synth → MIR generation, plus the type and
// cast-strategy lookups the surrounding tooling (editor, VM,
// workspace) consumes. It re-exports the internal stages behind one
// import path.
package corec

import (
	"github.com/corec-lang/corec/internal/ast"
	"github.com/corec-lang/corec/internal/check"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
	"github.com/corec-lang/corec/internal/mir"
	"github.com/corec-lang/corec/internal/parser"
	"github.com/corec-lang/corec/internal/typedhir"
)

// Parse implements entry point 1: source bytes to an annotated AST.
// Stable given input bytes, up to NodeId freshness.
func Parse(src string) (ident.WithMeta[ast.Expr], error) {
	return parser.Parse(src)
}

// LowerHir implements entry point 2: AST to lowered HIR.
func LowerHir(root ident.WithMeta[ast.Expr]) (hir.Node, error) {
	return hir.Lower(root)
}

// SynthResult is what entry point 3 returns: the checker holds the
// context, the node→type table (TypeAt, entry point 4), and the
// cast-strategy table (CastStrategy, entry point 5); TopType and
// Effects are the root node's synthesized type and latent effect row.
type SynthResult struct {
	Checker *check.Checker
	TopType itype.IType
	Effects itype.IEffectExpr
}

// TypeAt implements entry point 4.
func (r *SynthResult) TypeAt(id ident.NodeId) (itype.IType, bool) {
	return r.Checker.TypeAt(id)
}

// CastStrategy implements entry point 5.
func (r *SynthResult) CastStrategy(from, to itype.IType) (check.Strategy, bool) {
	return r.Checker.CastStrategy(from, to)
}

// Typed pairs the lowered tree with the completed checker for MIR
// generation.
func (r *SynthResult) Typed(root hir.Node) *typedhir.TypedHir {
	return typedhir.New(root, r.Checker)
}

// Synth implements entry point 3. startID is the first id value the
// existential generator will use, chosen by the caller to avoid
// collisions with external ids.
func Synth(startID uint64, root hir.Node) (*SynthResult, error) {
	ch := check.New(startID)
	ty, eff, err := ch.Synth(root)
	if err != nil {
		return nil, err
	}
	return &SynthResult{Checker: ch, TopType: ty, Effects: eff}, nil
}

// GenMir implements entry point 6.
func GenMir(thir *typedhir.TypedHir) (*mir.Mir, error) {
	return mir.Gen(thir)
}
