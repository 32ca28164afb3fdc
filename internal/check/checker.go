// Package check implements the bidirectional inferencer:
// synth/check/subtype/instantiate, similarity scoring, cast-strategy
// recording, and effect-row bookkeeping over the elaboration log.
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// Checker threads the elaboration context, the per-node inferred-type
// table, and the cast-strategy table through one compilation's
// synth/check/subtype calls. One Checker serves exactly one pipeline;
// it holds no locks.
type Checker struct {
	Ctx       *ctx.Context
	TypeTable map[ident.NodeId]itype.IType
	Casts     Table

	// thisVars/freeVars cache the per-name fresh ids minted by
	// internal/check/hirtype.go for `This` markers and unbound type
	// variable names, so repeated mentions of the same name resolve to
	// the same id.
	thisVars map[string]itype.Id
	freeVars map[string]itype.Id
}

// New creates a Checker over a fresh context starting its existential
// generator at startID.
func New(startID uint64) *Checker {
	return &Checker{
		Ctx:       ctx.New(startID),
		TypeTable: map[ident.NodeId]itype.IType{},
		Casts:     Table{},
	}
}

// TypeAt reports the inferred type recorded for a node.
func (ch *Checker) TypeAt(id ident.NodeId) (itype.IType, bool) {
	t, ok := ch.TypeTable[id]
	return t, ok
}

// CastStrategy reports how a value of type from converts to type to,
// when a subtype derivation recorded a non-trivial conversion.
func (ch *Checker) CastStrategy(from, to itype.IType) (Strategy, bool) {
	return ch.Casts.Lookup(from, to)
}

// store records the final, context-substituted type for a source node
// at the tail of every Synth call.
func (ch *Checker) store(id ident.NodeId, ty itype.IType) {
	ch.TypeTable[id] = ty
}
