// Package ctx implements the elaboration context: an ordered,
// scope-truncatable log of entries (Dunfield–Krishnaswami style)
// threaded through synth/check/subtype.
//
// Surface and HIR term references are written as a Ty in the
// Apply.Function position and are resolved by name, not by a
// pre-assigned Id. TypedVariable entries therefore carry the source
// Name they bind, and Context.GetTypedVar resolves by name
// (innermost-first), while Solved/Existential/Variable entries are
// addressed by Id.
package ctx

import (
	"github.com/corec-lang/corec/internal/itype"
)

// Kind discriminates a LogEntry's case.
type Kind int

const (
	KVariable Kind = iota
	KTypedVariable
	KExistential
	KSolved
	KMarker
	KEffect
)

// LogEntry is one entry of the ordered log.
type LogEntry struct {
	Kind Kind
	ID   itype.Id     // Variable / Existential / Solved / Marker
	Name string       // TypedVariable only
	Ty   itype.IType  // TypedVariable / Solved payload
	Eff  itype.IEffectExpr // Effect payload
}

func Variable(id itype.Id) LogEntry          { return LogEntry{Kind: KVariable, ID: id} }
func TypedVariable(name string, ty itype.IType) LogEntry {
	return LogEntry{Kind: KTypedVariable, Name: name, Ty: ty}
}
func Existential(id itype.Id) LogEntry { return LogEntry{Kind: KExistential, ID: id} }
func Solved(id itype.Id, ty itype.IType) LogEntry {
	return LogEntry{Kind: KSolved, ID: id, Ty: ty}
}
func Marker(id itype.Id) LogEntry           { return LogEntry{Kind: KMarker, ID: id} }
func EffectEntry(e itype.IEffectExpr) LogEntry { return LogEntry{Kind: KEffect, Eff: e} }

// Context owns the log, the fresh-id generator, and the continue
// stacks; the cast-strategy and type tables live on internal/check's
// Checker, not here. One Context serves exactly one
// compilation pipeline: it holds no locks, because no two
// goroutines are meant to share it.
type Context struct {
	log    []LogEntry
	nextID itype.Id

	ContinueInput  []itype.IType
	ContinueOutput []itype.IType
}

// New creates a context whose fresh-id generator starts at startID
// (internal/config's StartExistentialID), chosen by the caller to
// avoid id collisions across independently-compiled units.
func New(startID uint64) *Context {
	return &Context{nextID: itype.Id(startID)}
}

// Fresh allocates a new Id from the monotonically increasing generator.
func (c *Context) Fresh() itype.Id {
	id := c.nextID
	c.nextID++
	return id
}

// Add appends one entry to the log.
func (c *Context) Add(e LogEntry) { c.log = append(c.log, e) }

// AddExistential is a convenience: mint a fresh id, push an
// Existential entry, return the id.
func (c *Context) AddExistential() itype.Id {
	id := c.Fresh()
	c.Add(Existential(id))
	return id
}

// AddVariable mints a fresh id, pushes a Variable entry, returns it.
func (c *Context) AddVariable() itype.Id {
	id := c.Fresh()
	c.Add(Variable(id))
	return id
}

// BeginScope pushes a fresh Marker and returns its id; every
// inference scope begins with one and ends with TruncateFrom.
func (c *Context) BeginScope() itype.Id {
	id := c.Fresh()
	c.Add(Marker(id))
	return id
}

// TruncateFrom splits the log at the entry with the given marker id,
// removing it and everything after it, and returns the removed suffix
func (c *Context) TruncateFrom(marker itype.Id) []LogEntry {
	for i, e := range c.log {
		if e.Kind == KMarker && e.ID == marker {
			suffix := append([]LogEntry(nil), c.log[i+1:]...)
			c.log = c.log[:i]
			return suffix
		}
	}
	return nil
}

// ScopeEffects collects the Effect entries from a truncated suffix,
// in insertion order.
func ScopeEffects(suffix []LogEntry) itype.IEffectExpr {
	var terms []itype.IEffectExpr
	for _, e := range suffix {
		if e.Kind == KEffect {
			terms = append(terms, e.Eff)
		}
	}
	if len(terms) == 0 {
		return itype.Effects{}
	}
	return itype.Normalize(itype.Add{Terms: terms})
}

// InsertInPlace replaces the existential entry `at` with the given
// entries, used when solving an existential that decomposes into fresh
// sub-existentials.
func (c *Context) InsertInPlace(at itype.Id, entries []LogEntry) {
	for i, e := range c.log {
		if e.Kind == KExistential && e.ID == at {
			rest := append([]LogEntry(nil), c.log[i+1:]...)
			c.log = append(append(c.log[:i], entries...), rest...)
			return
		}
	}
}

// GetSolved scans the log in order for a Solved entry for id.
func (c *Context) GetSolved(id itype.Id) (itype.IType, bool) {
	for _, e := range c.log {
		if e.Kind == KSolved && e.ID == id {
			return e.Ty, true
		}
	}
	return nil, false
}

// GetTypedVar scans the log for the most recent TypedVariable bound to
// name.
func (c *Context) GetTypedVar(name string) (itype.IType, bool) {
	for i := len(c.log) - 1; i >= 0; i-- {
		e := c.log[i]
		if e.Kind == KTypedVariable && e.Name == name {
			return e.Ty, true
		}
	}
	return nil, false
}

// HasExistential reports whether id is a still-open Existential entry.
func (c *Context) HasExistential(id itype.Id) bool {
	for _, e := range c.log {
		if e.Kind == KExistential && e.ID == id {
			return true
		}
	}
	return false
}

// HasVariable reports whether id is bound by a Variable entry.
func (c *Context) HasVariable(id itype.Id) bool {
	for _, e := range c.log {
		if e.Kind == KVariable && e.ID == id {
			return true
		}
	}
	return false
}

// indexOfExistentialOrVariable returns the log position of the first
// Existential, Variable or Solved entry with the given id, or -1. Used
// by WellFormed to check an entry appears before a given point in the
// log.
func (c *Context) indexOfExistentialOrVariable(id itype.Id) int {
	for i, e := range c.log {
		if (e.Kind == KExistential || e.Kind == KVariable || e.Kind == KSolved) && e.ID == id {
			return i
		}
	}
	return -1
}

// Substitute walks the log's Solved entries, replacing every solved
// existential in t with its solution, transitively, producing the
// fully-resolved monotype as far as the current log can determine.
func (c *Context) Substitute(t itype.IType) itype.IType {
	changed := true
	for changed {
		changed = false
		for _, id := range itype.FreeExistentials(t) {
			if sol, ok := c.GetSolved(id); ok {
				t = itype.Substitute(t, id, sol)
				changed = true
			}
		}
	}
	return t
}

// WellFormed reports whether every existential free in t is bound
// earlier in the log than the entry named by `before` (or anywhere in
// the log when `before` has no Existential/Variable/Solved entry).
// Rigid variables in t are not checked.
func (c *Context) WellFormed(t itype.IType, before itype.Id) bool {
	limit := c.indexOfExistentialOrVariable(before)
	if limit < 0 {
		limit = len(c.log)
	}
	for _, id := range itype.FreeExistentials(t) {
		idx := c.indexOfExistentialOrVariable(id)
		if idx < 0 || idx >= limit {
			return false
		}
	}
	return true
}

// Log exposes a read-only view of the current log, for tests and
// golden dumps.
func (c *Context) Log() []LogEntry {
	return append([]LogEntry(nil), c.log...)
}

// Restore resets the log to a previously captured snapshot (from Log),
// discarding any entries added since. Used by speculative subtype
// candidates (internal/check's product/sum bijection search) to back
// out a losing attempt's Existential/Solved/Effect entries while
// keeping the shared fresh-id counter and type/cast tables untouched.
func (c *Context) Restore(snapshot []LogEntry) {
	c.log = append([]LogEntry(nil), snapshot...)
}
