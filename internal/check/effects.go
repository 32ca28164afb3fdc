// recoverEffects merges a sub-synthesis's effects into the ambient
// scope immediately, so every synth rule can return a bare
// (IType, error) instead of threading an effects value through every
// call site; the accumulated effects are read back out of the log at
// the end of the enclosing scope (one marker/truncate pair per Synth
// call, in synth.go).
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/itype"
)

func (ch *Checker) recoverEffects(e itype.IEffectExpr) {
	norm := itype.Normalize(e)
	if eff, ok := norm.(itype.Effects); ok && len(eff.Items) == 0 {
		return
	}
	ch.Ctx.Add(ctx.EffectEntry(norm))
}
