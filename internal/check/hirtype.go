// Conversion from surface (HIR) types to the internal type language.
package check

import (
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/itype"
)

// tyEnv binds surface type-variable names while converting one Ty
// tree: varEnv for Forall/Exists-bound quantifiers (resolved to a
// fresh itype.Id), aliasEnv for TyLet-bound local aliases (resolved by
// direct substitution, since a `let` in type position is not
// generalized).
type tyEnv struct {
	vars    map[string]itype.Id
	aliases map[string]itype.IType
}

func newTyEnv() tyEnv {
	return tyEnv{vars: map[string]itype.Id{}, aliases: map[string]itype.IType{}}
}

func (e tyEnv) withVar(name string, id itype.Id) tyEnv {
	out := tyEnv{vars: map[string]itype.Id{}, aliases: e.aliases}
	for k, v := range e.vars {
		out.vars[k] = v
	}
	out.vars[name] = id
	return out
}

func (e tyEnv) withAlias(name string, ty itype.IType) tyEnv {
	out := tyEnv{vars: e.vars, aliases: map[string]itype.IType{}}
	for k, v := range e.aliases {
		out.aliases[k] = v
	}
	out.aliases[name] = ty
	return out
}

// FromHIRType converts a surface HIR type into the internal type
// language, minting a fresh existential/universal id
// for every Forall/Exists binder it opens.
func (ch *Checker) FromHIRType(n hir.TyNode) itype.IType {
	return ch.fromHIRType(n, newTyEnv())
}

func (ch *Checker) fromHIRType(n hir.TyNode, env tyEnv) itype.IType {
	switch v := n.Value.(type) {
	case hir.Real:
		return itype.TReal{}
	case hir.Rational:
		return itype.TRational{}
	case hir.Integer:
		return itype.TInteger{}
	case hir.String:
		return itype.TString{}
	case hir.Infer:
		return itype.TInfer{Node: n.Meta.ID}
	case hir.This:
		// Recursive nominal types are represented opaquely: every
		// occurrence of `This` naming the same enclosing NewType maps
		// to the same fresh type variable, minted once per distinct
		// name and cached on the Checker. This does not expand the
		// recursive structure; it is sufficient for brand and label
		// transparency but not for structural unfolding of recursive
		// algebraic types.
		return itype.TVariable{ID: ch.thisVar(v.Of)}
	case hir.TyProduct:
		return itype.TProduct{Elems: ch.fromHIRTypes(v.Elems, env)}
	case hir.Sum:
		return itype.TSum{Elems: ch.fromHIRTypes(v.Elems, env)}
	case hir.TyVector:
		return itype.TVector{Elem: ch.fromHIRType(v.Elem, env)}
	case hir.TyMap:
		return itype.TMap{Key: ch.fromHIRType(v.Key, env), Value: ch.fromHIRType(v.Value, env)}
	case hir.TyFunction:
		return itype.TFunction{Parameter: ch.fromHIRType(v.Parameter, env), Body: ch.fromHIRType(v.Body, env)}
	case hir.Trait:
		// A trait (bag of function signatures) is represented as the
		// product of its member function types: structural subtyping
		// over "has at least these methods" reduces to product-to-
		// product width subtyping.
		elems := make([]itype.IType, len(v.Functions))
		for i, f := range v.Functions {
			elems[i] = itype.TFunction{Parameter: ch.fromHIRType(f.Parameter, env), Body: ch.fromHIRType(f.Body, env)}
		}
		return itype.TProduct{Elems: elems}
	case hir.Effectful:
		return itype.MakeEffectful(ch.fromHIRType(v.Ty, env), ch.fromHIREffect(v.Effects, env))
	case hir.Variable:
		if id, ok := env.vars[v.Name]; ok {
			return itype.TVariable{ID: id}
		}
		if ty, ok := env.aliases[v.Name]; ok {
			return ty
		}
		// An unbound name in type position denotes a term-level
		// reference, resolved through ctx.GetTypedVar at the Apply
		// site; represented here as a fresh, never-solved variable id
		// keyed by name so repeated mentions of the same free name
		// compare equal.
		return itype.TVariable{ID: ch.freeVar(v.Name)}
	case hir.Labeled:
		return itype.TLabel{Label: v.Label, Item: ch.fromHIRType(v.Item, env)}
	case hir.Branded:
		return itype.TBrand{Brand: v.Brand, Item: ch.fromHIRType(v.Item, env)}
	case hir.TyLet:
		def := ch.fromHIRType(v.Definition, env)
		return ch.fromHIRType(v.Body, env.withAlias(v.Variable, def))
	case hir.Forall:
		id := ch.Ctx.Fresh()
		inner := env.withVar(v.Variable, id)
		var bound itype.IType
		if v.Bound != nil {
			bound = ch.fromHIRType(*v.Bound, env)
		}
		return itype.TForAll{Variable: id, Bound: bound, Body: ch.fromHIRType(v.Body, inner)}
	case hir.Exists:
		id := ch.Ctx.Fresh()
		inner := env.withVar(v.Variable, id)
		var bound itype.IType
		if v.Bound != nil {
			bound = ch.fromHIRType(*v.Bound, env)
		}
		// Exists has no direct IType counterpart; it is represented
		// the same as ForAll, since this module never needs to
		// distinguish "caller picks" from "callee picks" for a type it
		// never eliminates.
		return itype.TForAll{Variable: id, Bound: bound, Body: ch.fromHIRType(v.Body, inner)}
	default:
		return itype.TProduct{}
	}
}

func (ch *Checker) fromHIRTypes(ns []hir.TyNode, env tyEnv) []itype.IType {
	out := make([]itype.IType, len(ns))
	for i, n := range ns {
		out[i] = ch.fromHIRType(n, env)
	}
	return out
}

func (ch *Checker) fromHIREffect(e hir.EffectExpr, env tyEnv) itype.IEffectExpr {
	switch v := e.(type) {
	case hir.Effects:
		items := make([]itype.Effect, len(v.Sigs))
		for i, s := range v.Sigs {
			items[i] = itype.Effect{Input: ch.fromHIRType(s.Input, env), Output: ch.fromHIRType(s.Output, env)}
		}
		return itype.Effects{Items: items}
	case hir.Add:
		terms := make([]itype.IEffectExpr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = ch.fromHIREffect(t, env)
		}
		return itype.Add{Terms: terms}
	case hir.Sub:
		return itype.Sub{Minuend: ch.fromHIREffect(v.Minuend, env), Subtrahend: ch.fromHIREffect(v.Subtrahend, env)}
	case hir.EffectApply:
		args := make([]itype.IType, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i] = ch.fromHIRType(a, env)
		}
		return itype.EffectApply{Function: ch.fromHIRType(v.Function, env), Arguments: args}
	default:
		return itype.Effects{}
	}
}

func (ch *Checker) thisVar(name string) itype.Id {
	if ch.thisVars == nil {
		ch.thisVars = map[string]itype.Id{}
	}
	if id, ok := ch.thisVars[name]; ok {
		return id
	}
	id := ch.Ctx.Fresh()
	ch.thisVars[name] = id
	return id
}

func (ch *Checker) freeVar(name string) itype.Id {
	if ch.freeVars == nil {
		ch.freeVars = map[string]itype.Id{}
	}
	if id, ok := ch.freeVars[name]; ok {
		return id
	}
	id := ch.Ctx.Fresh()
	ch.freeVars[name] = id
	return id
}
