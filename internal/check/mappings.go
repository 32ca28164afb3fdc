// Product-to-product and sum-to-sum bijection search: enumerate
// candidate pairings, score each by its concatenated similarity vector, and pick the
// strict best. Only same-length bijections are attempted; an arity
// mismatch is served by the single-element promotion paths instead,
// which cover the unequal cases structurally.
package check

import (
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// mapping candidate: pairs[i] = (from[i], to[perm[i]]).
type mappingCandidate struct {
	pairs []TypePair
	sims  Similarities
}

// bestMapping tries every permutation pairing `from` 1:1 with `to`
// (equal length required), scoring each fully-successful pairing by
// its concatenated similarities, and returns the best one with ok=true.
// ok is false when the lengths differ or no pairing succeeds;
// ambiguous is true when the top two tie.
func (ch *Checker) bestMapping(from, to []itype.IType, meta ident.Meta) (mappingCandidate, bool, bool) {
	if len(from) != len(to) {
		return mappingCandidate{}, false, false
	}
	var candidates []mappingCandidate
	permute(len(to), func(perm []int) {
		snapshot := ch.Ctx.Log()
		var sims Similarities
		pairs := make([]TypePair, len(from))
		ok := true
		for i, f := range from {
			t := to[perm[i]]
			s, err := ch.Subtype(f, t, meta)
			if err != nil {
				ok = false
				break
			}
			sims = append(sims, s...)
			pairs[i] = TypePair{From: f, To: t}
		}
		ch.Ctx.Restore(snapshot)
		if ok {
			candidates = append(candidates, mappingCandidate{pairs: pairs, sims: sims})
		}
	})
	if len(candidates) == 0 {
		return mappingCandidate{}, false, false
	}
	best := candidates[0]
	ambiguous := false
	for _, c := range candidates[1:] {
		cmp := Compare(c.sims, best.sims)
		if cmp > 0 {
			best = c
			ambiguous = false
		} else if cmp == 0 {
			ambiguous = true
		}
	}
	if !ambiguous {
		// Re-apply the winning pairing for real: the trial runs were
		// all rolled back, and the solutions and nested cast
		// recordings of the chosen one must land last.
		for _, p := range best.pairs {
			if _, err := ch.Subtype(p.From, p.To, meta); err != nil {
				return mappingCandidate{}, false, false
			}
		}
	}
	return best, true, ambiguous
}

// permute calls f with every permutation of [0,n) as an index slice.
func permute(n int, f func(perm []int)) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			out := make([]int, n)
			copy(out, idx)
			f(out)
			return
		}
		for i := k; i < n; i++ {
			idx[k], idx[i] = idx[i], idx[k]
			rec(k + 1)
			idx[k], idx[i] = idx[i], idx[k]
		}
	}
	rec(0)
}
