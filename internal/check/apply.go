// Function application: a ForAll is opened with a fresh existential
// before applying, an Existential splits into a fresh parameter/result
// pair before applying, and an Effectful function type's effects are
// folded into the ambient scope.
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// Apply synthesizes the result type of applying a value of type fun to
// the (not yet synthesized) argument node.
func (ch *Checker) Apply(fun itype.IType, arg hir.Node, meta ident.Meta) (itype.IType, error) {
	fun = ch.Ctx.Substitute(fun)
	switch v := fun.(type) {
	case itype.TFunction:
		argTy, argEff, err := ch.Synth(arg)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(argEff)
		if _, err := ch.Subtype(ch.Ctx.Substitute(argTy), ch.Ctx.Substitute(v.Parameter), meta); err != nil {
			return nil, err
		}
		return ch.Ctx.Substitute(v.Body), nil
	case itype.TForAll:
		a := ch.Ctx.AddExistential()
		opened := itype.SubstituteVar(v.Body, v.Variable, itype.TExistential{ID: a})
		if v.Bound != nil {
			if err := ch.InstantiateSubtype(a, v.Bound, meta); err != nil {
				return nil, err
			}
		}
		return ch.Apply(opened, arg, meta)
	case itype.TExistential:
		a1, a2 := ch.Ctx.Fresh(), ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(v.ID, []ctx.LogEntry{
			ctx.Existential(a1), ctx.Existential(a2),
			ctx.Solved(v.ID, itype.TFunction{Parameter: itype.TExistential{ID: a1}, Body: itype.TExistential{ID: a2}}),
		})
		return ch.Apply(itype.TFunction{Parameter: itype.TExistential{ID: a1}, Body: itype.TExistential{ID: a2}}, arg, meta)
	case itype.TEffectful:
		res, err := ch.Apply(v.Ty, arg, meta)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(v.Effects)
		return res, nil
	default:
		return nil, diagnostics.NotApplicable(meta, fun)
	}
}
