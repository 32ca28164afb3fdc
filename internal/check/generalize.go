// Let-generalization, invoked only when the bound expression is a
// syntactic value (the value restriction).
package check

import (
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
)

// isValue reports whether a HIR node is a syntactic value: one whose
// evaluation performs no effects, safe to generalize over (the value
// restriction). Literals, lambdas, bare variable references, and
// labeled/branded/product/vector values built entirely from values all
// qualify.
func isValue(n hir.Node) bool {
	switch v := n.Value.(type) {
	case hir.Literal:
		return true
	case hir.Function:
		return true
	case hir.Apply:
		// A zero-argument Apply is a bare term reference;
		// an application with arguments may perform effects.
		return len(v.Arguments) == 0
	case hir.Product:
		for _, e := range v.Elems {
			if !isValue(e) {
				return false
			}
		}
		return true
	case hir.Vector:
		for _, e := range v.Elems {
			if !isValue(e) {
				return false
			}
		}
		return true
	case hir.Label:
		return isValue(v.Item)
	case hir.Brand:
		return isValue(v.Item)
	default:
		return false
	}
}

// generalize closes every existential free in ty into a TForAll binder,
// in left-to-right order of first occurrence in ty (the first becomes
// the outermost binder), matching
// `make_polymorphic`'s left-to-right quantifier introduction. An
// existential still present in the log belongs to a scope that enclosing
// code has not yet closed (it may still be constrained by context
// outside this definition) and must stay free; one already absent from
// the log had its own defining scope truncated by the nested Synth call
// that produced ty, meaning it is local to this definition and safe to
// quantify over.
func (ch *Checker) generalize(ty itype.IType) itype.IType {
	ids := itype.FreeExistentials(ty)
	var open []itype.Id
	for _, id := range ids {
		if !ch.Ctx.HasExistential(id) {
			open = append(open, id)
		}
	}
	out := ty
	for i := len(open) - 1; i >= 0; i-- {
		id := open[i]
		v := ch.Ctx.Fresh()
		out = itype.Substitute(out, id, itype.TVariable{ID: v})
		out = itype.TForAll{Variable: v, Body: out}
	}
	return out
}
