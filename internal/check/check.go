// Check verifies a HIR node against an expected type. A universally
// quantified expectation is opened under a rigid variable; every other
// shape falls back to synth-then-subtype, the standard bidirectional
// fallback.
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
)

func (ch *Checker) Check(e hir.Node, want itype.IType) error {
	want = ch.Ctx.Substitute(want)
	if fa, ok := want.(itype.TForAll); ok {
		marker := ch.Ctx.BeginScope()
		ch.Ctx.Add(ctx.Variable(fa.Variable))
		err := ch.Check(e, fa.Body)
		ch.Ctx.TruncateFrom(marker)
		return err
	}
	ty, eff, err := ch.Synth(e)
	if err != nil {
		return err
	}
	ch.recoverEffects(eff)
	_, err = ch.Subtype(ch.Ctx.Substitute(ty), ch.Ctx.Substitute(want), e.Meta)
	return err
}
