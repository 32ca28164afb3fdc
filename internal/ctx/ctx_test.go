package ctx

import (
	"testing"

	"github.com/corec-lang/corec/internal/itype"
)

// TestTruncateFromReturnsSuffix: truncate-from removes the marker and
// everything after it, handing the suffix back.
func TestTruncateFromReturnsSuffix(t *testing.T) {
	c := New(0)
	a := c.AddExistential()
	m := c.BeginScope()
	b := c.AddExistential()
	c.Add(EffectEntry(itype.Effects{Items: []itype.Effect{{Input: itype.TInteger{}, Output: itype.TString{}}}}))

	suffix := c.TruncateFrom(m)
	if len(suffix) != 2 {
		t.Fatalf("want 2 suffix entries, got %d", len(suffix))
	}
	if !c.HasExistential(a) {
		t.Errorf("prefix existential should survive truncation")
	}
	if c.HasExistential(b) {
		t.Errorf("suffix existential should be gone")
	}
	eff := ScopeEffects(suffix)
	if items := itype.EffectsOf(eff); len(items) != 1 {
		t.Errorf("want the scope's one effect back, got %v", items)
	}
}

// TestInsertInPlaceSolves: solving an existential replaces its entry
// in place, keeping log order for well-formedness checks.
func TestInsertInPlaceSolves(t *testing.T) {
	c := New(0)
	a := c.AddExistential()
	b := c.AddExistential()
	c.InsertInPlace(a, []LogEntry{Solved(a, itype.TInteger{})})

	got, ok := c.GetSolved(a)
	if !ok {
		t.Fatalf("existential should be solved")
	}
	if _, isInt := got.(itype.TInteger); !isInt {
		t.Fatalf("want Integer solution, got %s", got)
	}
	if !c.HasExistential(b) {
		t.Fatalf("the other existential must stay open")
	}
	if c.HasExistential(a) {
		t.Fatalf("a solved existential is no longer open")
	}
}

// TestSubstituteChasesChains: substitution resolves solved
// existentials transitively.
func TestSubstituteChasesChains(t *testing.T) {
	c := New(0)
	a := c.AddExistential()
	b := c.AddExistential()
	c.InsertInPlace(a, []LogEntry{Solved(a, itype.TExistential{ID: b})})
	c.InsertInPlace(b, []LogEntry{Solved(b, itype.TString{})})

	got := c.Substitute(itype.TExistential{ID: a})
	if _, ok := got.(itype.TString); !ok {
		t.Fatalf("want String after chasing the chain, got %s", got)
	}
}

// TestGetTypedVarInnermostWins: name lookup scans the log backwards,
// so an inner binding shadows an outer one.
func TestGetTypedVarInnermostWins(t *testing.T) {
	c := New(0)
	c.Add(TypedVariable("x", itype.TInteger{}))
	c.Add(TypedVariable("x", itype.TString{}))
	got, ok := c.GetTypedVar("x")
	if !ok {
		t.Fatalf("x should resolve")
	}
	if _, isStr := got.(itype.TString); !isStr {
		t.Fatalf("innermost binding should win, got %s", got)
	}
}

// TestRestoreRollsBack: restoring a snapshot discards later solutions
// while the id generator keeps advancing (speculative-candidate
// search contract).
func TestRestoreRollsBack(t *testing.T) {
	c := New(0)
	a := c.AddExistential()
	snap := c.Log()
	c.InsertInPlace(a, []LogEntry{Solved(a, itype.TInteger{})})
	before := c.Fresh()
	c.Restore(snap)
	if _, ok := c.GetSolved(a); ok {
		t.Fatalf("solution added after the snapshot should be rolled back")
	}
	if !c.HasExistential(a) {
		t.Fatalf("the open existential should be back")
	}
	if after := c.Fresh(); after <= before {
		t.Fatalf("the id generator must not rewind: %d then %d", before, after)
	}
}

// TestFreshStartsAtStartID: the generator honors the caller-chosen
// start id.
func TestFreshStartsAtStartID(t *testing.T) {
	c := New(40)
	if id := c.Fresh(); id != 40 {
		t.Fatalf("want first id 40, got %d", id)
	}
	if id := c.Fresh(); id != 41 {
		t.Fatalf("want monotonic ids, got %d", id)
	}
}
