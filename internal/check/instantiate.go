// Instantiation of existentials: solve `α := τ` either directly (τ a
// well-formed monotype) or by decomposing τ and recursing on fresh
// sub-existentials. Occurs-checking is the caller's responsibility,
// enforced in Subtype before either direction is invoked.
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// isMonotype reports whether t contains no ForAll binder (existentials
// and term variables are fine; only a bare polymorphic type must first
// decompose before a direct solve is permitted).
func isMonotype(t itype.IType) bool {
	switch v := t.(type) {
	case itype.TForAll:
		return false
	case itype.TProduct:
		for _, e := range v.Elems {
			if !isMonotype(e) {
				return false
			}
		}
		return true
	case itype.TSum:
		for _, e := range v.Elems {
			if !isMonotype(e) {
				return false
			}
		}
		return true
	case itype.TFunction:
		return isMonotype(v.Parameter) && isMonotype(v.Body)
	case itype.TVector:
		return isMonotype(v.Elem)
	case itype.TMap:
		return isMonotype(v.Key) && isMonotype(v.Value)
	case itype.TLabel:
		return isMonotype(v.Item)
	case itype.TBrand:
		return isMonotype(v.Item)
	case itype.TEffectful:
		return isMonotype(v.Ty)
	default:
		return true
	}
}

// InstantiateSubtype solves `Existential(id) <: ty`.
func (ch *Checker) InstantiateSubtype(id itype.Id, ty itype.IType, meta ident.Meta) error {
	ty = ch.Ctx.Substitute(ty)
	if isMonotype(ty) && ch.Ctx.WellFormed(ty, id) {
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Solved(id, ty)})
		return nil
	}
	switch v := ty.(type) {
	case itype.TFunction:
		a1, a2 := ch.Ctx.Fresh(), ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{
			ctx.Existential(a1), ctx.Existential(a2),
			ctx.Solved(id, itype.TFunction{Parameter: itype.TExistential{ID: a1}, Body: itype.TExistential{ID: a2}}),
		})
		if err := ch.InstantiateSupertype(v.Parameter, a1, meta); err != nil {
			return err
		}
		return ch.InstantiateSubtype(a2, ch.Ctx.Substitute(v.Body), meta)
	case itype.TProduct:
		ids := ch.freshIDs(len(v.Elems))
		ch.Ctx.InsertInPlace(id, append(existentialEntries(ids), ctx.Solved(id, itype.TProduct{Elems: existentialTypes(ids)})))
		for i, e := range v.Elems {
			if err := ch.InstantiateSubtype(ids[i], ch.Ctx.Substitute(e), meta); err != nil {
				return err
			}
		}
		return nil
	case itype.TSum:
		ids := ch.freshIDs(len(v.Elems))
		ch.Ctx.InsertInPlace(id, append(existentialEntries(ids), ctx.Solved(id, itype.TSum{Elems: existentialTypes(ids)})))
		for i, e := range v.Elems {
			if err := ch.InstantiateSubtype(ids[i], ch.Ctx.Substitute(e), meta); err != nil {
				return err
			}
		}
		return nil
	case itype.TVector:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.TVector{Elem: itype.TExistential{ID: a}})})
		return ch.InstantiateSubtype(a, ch.Ctx.Substitute(v.Elem), meta)
	case itype.TMap:
		ak, av := ch.Ctx.Fresh(), ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{
			ctx.Existential(ak), ctx.Existential(av),
			ctx.Solved(id, itype.TMap{Key: itype.TExistential{ID: ak}, Value: itype.TExistential{ID: av}}),
		})
		if err := ch.InstantiateSubtype(ak, ch.Ctx.Substitute(v.Key), meta); err != nil {
			return err
		}
		return ch.InstantiateSubtype(av, ch.Ctx.Substitute(v.Value), meta)
	case itype.TLabel:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.TLabel{Label: v.Label, Item: itype.TExistential{ID: a}})})
		return ch.InstantiateSubtype(a, ch.Ctx.Substitute(v.Item), meta)
	case itype.TBrand:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.TBrand{Brand: v.Brand, Item: itype.TExistential{ID: a}})})
		return ch.InstantiateSubtype(a, ch.Ctx.Substitute(v.Item), meta)
	case itype.TEffectful:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.MakeEffectful(itype.TExistential{ID: a}, v.Effects))})
		return ch.InstantiateSubtype(a, ch.Ctx.Substitute(v.Ty), meta)
	case itype.TForAll:
		// Impredicative solve: an existential may take a polytype
		// directly. Callers that face a ForAll on either side of a
		// subtype obligation go through Subtype's own ForAll cases,
		// not this path, so the direct solve only serves annotated
		// higher-rank positions.
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Solved(id, v)})
		return nil
	default:
		return diagnostics.NotInstantiable(meta, ty)
	}
}

// InstantiateSupertype solves `sub <: Existential(id)`.
func (ch *Checker) InstantiateSupertype(sub itype.IType, id itype.Id, meta ident.Meta) error {
	sub = ch.Ctx.Substitute(sub)
	if isMonotype(sub) && ch.Ctx.WellFormed(sub, id) {
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Solved(id, sub)})
		return nil
	}
	switch v := sub.(type) {
	case itype.TFunction:
		a1, a2 := ch.Ctx.Fresh(), ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{
			ctx.Existential(a1), ctx.Existential(a2),
			ctx.Solved(id, itype.TFunction{Parameter: itype.TExistential{ID: a1}, Body: itype.TExistential{ID: a2}}),
		})
		if err := ch.InstantiateSubtype(a1, ch.Ctx.Substitute(v.Parameter), meta); err != nil {
			return err
		}
		return ch.InstantiateSupertype(ch.Ctx.Substitute(v.Body), a2, meta)
	case itype.TProduct:
		ids := ch.freshIDs(len(v.Elems))
		ch.Ctx.InsertInPlace(id, append(existentialEntries(ids), ctx.Solved(id, itype.TProduct{Elems: existentialTypes(ids)})))
		for i, e := range v.Elems {
			if err := ch.InstantiateSupertype(ch.Ctx.Substitute(e), ids[i], meta); err != nil {
				return err
			}
		}
		return nil
	case itype.TSum:
		ids := ch.freshIDs(len(v.Elems))
		ch.Ctx.InsertInPlace(id, append(existentialEntries(ids), ctx.Solved(id, itype.TSum{Elems: existentialTypes(ids)})))
		for i, e := range v.Elems {
			if err := ch.InstantiateSupertype(ch.Ctx.Substitute(e), ids[i], meta); err != nil {
				return err
			}
		}
		return nil
	case itype.TVector:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.TVector{Elem: itype.TExistential{ID: a}})})
		return ch.InstantiateSupertype(ch.Ctx.Substitute(v.Elem), a, meta)
	case itype.TMap:
		ak, av := ch.Ctx.Fresh(), ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{
			ctx.Existential(ak), ctx.Existential(av),
			ctx.Solved(id, itype.TMap{Key: itype.TExistential{ID: ak}, Value: itype.TExistential{ID: av}}),
		})
		if err := ch.InstantiateSupertype(ch.Ctx.Substitute(v.Key), ak, meta); err != nil {
			return err
		}
		return ch.InstantiateSupertype(ch.Ctx.Substitute(v.Value), av, meta)
	case itype.TLabel:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.TLabel{Label: v.Label, Item: itype.TExistential{ID: a}})})
		return ch.InstantiateSupertype(ch.Ctx.Substitute(v.Item), a, meta)
	case itype.TBrand:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.TBrand{Brand: v.Brand, Item: itype.TExistential{ID: a}})})
		return ch.InstantiateSupertype(ch.Ctx.Substitute(v.Item), a, meta)
	case itype.TEffectful:
		a := ch.Ctx.Fresh()
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Existential(a), ctx.Solved(id, itype.MakeEffectful(itype.TExistential{ID: a}, v.Effects))})
		return ch.InstantiateSupertype(ch.Ctx.Substitute(v.Ty), a, meta)
	case itype.TForAll:
		ch.Ctx.InsertInPlace(id, []ctx.LogEntry{ctx.Solved(id, v)})
		return nil
	default:
		return diagnostics.NotInstantiable(meta, sub)
	}
}

func (ch *Checker) freshIDs(n int) []itype.Id {
	ids := make([]itype.Id, n)
	for i := range ids {
		ids[i] = ch.Ctx.Fresh()
	}
	return ids
}

func existentialEntries(ids []itype.Id) []ctx.LogEntry {
	out := make([]ctx.LogEntry, len(ids))
	for i, id := range ids {
		out[i] = ctx.Existential(id)
	}
	return out
}

func existentialTypes(ids []itype.Id) []itype.IType {
	out := make([]itype.IType, len(ids))
	for i, id := range ids {
		out[i] = itype.TExistential{ID: id}
	}
	return out
}
