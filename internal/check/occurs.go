package check

import "github.com/corec-lang/corec/internal/itype"

// occursIn is kept as a standalone pre-check ahead of every
// instantiate call rather than folded into instantiate itself, so the
// circularity guard stays independently testable.
func occursIn(id itype.Id, t itype.IType) bool {
	return itype.Occurs(id, t)
}
