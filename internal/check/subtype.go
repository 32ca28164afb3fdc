// The subtype relation: structural width subtyping over products and
// sums, numeric promotion, transparent labels, oriented brands, and
// existential instantiation, with every successful derivation scored
// by a similarity vector so competing readings can be ranked.
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

// Subtype decides `sub <: ty`, mutating ch.Ctx with any existential
// solutions and accumulated effects and ch.Casts with cast-strategy
// recordings, and returns the similarity vector of the derivation
// chosen.
func (ch *Checker) Subtype(sub, ty itype.IType, meta ident.Meta) (Similarities, error) {
	sub = ch.Ctx.Substitute(sub)
	ty = ch.Ctx.Substitute(ty)

	// 1. identical types.
	if itype.Equal(sub, ty) {
		return Similarities{Same}, nil
	}

	// 2. numeric promotions: Integer <= Rational <= Real.
	if sim, ok := numericPromotion(sub, ty); ok {
		return Similarities{sim}, nil
	}

	// 3. existential on the left.
	if se, ok := sub.(itype.TExistential); ok {
		if occursIn(se.ID, ty) {
			return nil, diagnostics.CircularExistential(meta, se.ID, ty)
		}
		if err := ch.InstantiateSubtype(se.ID, ty, meta); err != nil {
			return nil, err
		}
		return Similarities{Instantiate}, nil
	}
	// existential on the right.
	if te, ok := ty.(itype.TExistential); ok {
		if occursIn(te.ID, sub) {
			return nil, diagnostics.CircularExistential(meta, te.ID, sub)
		}
		if err := ch.InstantiateSupertype(sub, te.ID, meta); err != nil {
			return nil, err
		}
		return Similarities{Instantiate}, nil
	}

	// 4/5. A Product sub facing a Sum ty can go either way: narrow one
	// of its own fields into ty (ProductToInner), or be promoted whole
	// into one of ty's variants (InnerToSum). Both are tried as
	// independent candidates and the similarity-better one wins
	//; either alone (Product-only or Sum-only) falls
	// through to its single applicable case.
	sp, subIsProduct := sub.(itype.TProduct)
	st, tyIsSum := ty.(itype.TSum)
	switch {
	case subIsProduct && tyIsSum:
		return ch.bestOfProductOrSum(sp, sub, st, ty, meta)
	case subIsProduct:
		return ch.subtypeProduct(sp, ty, meta)
	case tyIsSum:
		return ch.subtypeSum(sub, st, meta)
	}

	// 6. Function: contravariant parameter, covariant body.
	if sf, ok := sub.(itype.TFunction); ok {
		if tf, ok := ty.(itype.TFunction); ok {
			if _, err := ch.Subtype(tf.Parameter, sf.Parameter, meta); err != nil {
				return nil, err
			}
			sims, err := ch.Subtype(ch.Ctx.Substitute(sf.Body), ch.Ctx.Substitute(tf.Body), meta)
			if err != nil {
				return nil, err
			}
			return append(sims, FunctionSim), nil
		}
	}

	// 7a. Vector: covariant.
	if sv, ok := sub.(itype.TVector); ok {
		if tv, ok := ty.(itype.TVector); ok {
			sims, err := ch.Subtype(sv.Elem, tv.Elem, meta)
			if err != nil {
				return nil, err
			}
			return append(sims, VectorSim), nil
		}
	}

	// 7b. Map: covariant in both positions.
	if sm, ok := sub.(itype.TMap); ok {
		if tm, ok := ty.(itype.TMap); ok {
			keySims, err := ch.Subtype(sm.Key, tm.Key, meta)
			if err != nil {
				return nil, err
			}
			valSims, err := ch.Subtype(sm.Value, tm.Value, meta)
			if err != nil {
				return nil, err
			}
			return append(Max(keySims, valSims), MapSim), nil
		}
	}

	// 8. ForAll on the left: open with a fresh existential.
	if sfa, ok := sub.(itype.TForAll); ok {
		marker := ch.Ctx.BeginScope()
		a := ch.Ctx.AddExistential()
		opened := itype.SubstituteVar(sfa.Body, sfa.Variable, itype.TExistential{ID: a})
		sims, err := ch.Subtype(opened, ty, meta)
		if err != nil {
			return nil, err
		}
		if sfa.Bound != nil {
			if _, err := ch.Subtype(ch.Ctx.Substitute(itype.TExistential{ID: a}), sfa.Bound, meta); err != nil {
				return nil, err
			}
		}
		suffix := ch.Ctx.TruncateFrom(marker)
		ch.recoverEffects(ctx.ScopeEffects(suffix))
		return sims, nil
	}

	// 9. ForAll on the right: add a rigid variable.
	if tfa, ok := ty.(itype.TForAll); ok {
		marker := ch.Ctx.BeginScope()
		ch.Ctx.Add(ctx.Variable(tfa.Variable))
		sims, err := ch.Subtype(sub, tfa.Body, meta)
		if err != nil {
			return nil, err
		}
		if tfa.Bound != nil {
			if _, err := ch.Subtype(itype.TVariable{ID: tfa.Variable}, tfa.Bound, meta); err != nil {
				return nil, err
			}
		}
		suffix := ch.Ctx.TruncateFrom(marker)
		ch.recoverEffects(ctx.ScopeEffects(suffix))
		return sims, nil
	}

	// 10. Label/Label.
	if sl, ok := sub.(itype.TLabel); ok {
		if tl, ok := ty.(itype.TLabel); ok {
			sims, err := ch.Subtype(sl.Item, tl.Item, meta)
			if err != nil {
				return nil, err
			}
			if sl.Label.String() == tl.Label.String() {
				return append(sims, LabelMatch), nil
			}
			return append(sims, LabelMismatch), nil
		}
	}

	// 11. Brand/Brand, same brand required.
	if sb, ok := sub.(itype.TBrand); ok {
		if tb, ok := ty.(itype.TBrand); ok && sb.Brand.String() == tb.Brand.String() {
			sims, err := ch.Subtype(sb.Item, tb.Item, meta)
			if err != nil {
				return nil, err
			}
			return append(sims, BrandMatch), nil
		}
	}

	// 12a. sub <: Label{_, item} (InnerToLabel).
	if tl, ok := ty.(itype.TLabel); ok {
		sims, err := ch.Subtype(sub, tl.Item, meta)
		if err != nil {
			return nil, err
		}
		return append(sims, InnerToLabel), nil
	}
	// 12b. Label{_, item} <: sup (LabelToInner).
	if sl, ok := sub.(itype.TLabel); ok {
		sims, err := ch.Subtype(sl.Item, ty, meta)
		if err != nil {
			return nil, err
		}
		return append(sims, LabelToInner), nil
	}
	// Brand <: sup, brand unwraps (never fabricated the other way);
	// this must come after the Label arms so a
	// mismatched-brand target correctly falls through to NotSubtype
	// rather than silently unwrapping against an unrelated brand.
	if sb, ok := sub.(itype.TBrand); ok {
		if _, tyIsBrand := ty.(itype.TBrand); !tyIsBrand {
			sims, err := ch.Subtype(sb.Item, ty, meta)
			if err != nil {
				return nil, err
			}
			return append(sims, BrandToInner), nil
		}
	}

	// 13. Infer meta-variable resolution.
	if si, ok := sub.(itype.TInfer); ok {
		ch.store(si.Node, ty)
		return Similarities{InferSim}, nil
	}
	if ti, ok := ty.(itype.TInfer); ok {
		ch.store(ti.Node, sub)
		return Similarities{InferSim}, nil
	}

	// 14. Effectful.
	if se, ok := sub.(itype.TEffectful); ok {
		if te, ok := ty.(itype.TEffectful); ok {
			sims, err := ch.Subtype(se.Ty, te.Ty, meta)
			if err != nil {
				return nil, err
			}
			ch.recoverEffects(itype.Sub{Minuend: se.Effects, Subtrahend: te.Effects})
			return sims, nil
		}
		sims, err := ch.Subtype(se.Ty, ty, meta)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(se.Effects)
		return sims, nil
	}
	if te, ok := ty.(itype.TEffectful); ok {
		return ch.Subtype(sub, te.Ty, meta)
	}

	return nil, diagnostics.NotSubtype(meta, sub, ty)
}

func numericPromotion(sub, ty itype.IType) (Similarity, bool) {
	_, subInt := sub.(itype.TInteger)
	_, subRat := sub.(itype.TRational)
	_, tyRat := ty.(itype.TRational)
	_, tyReal := ty.(itype.TReal)
	if subInt && (tyRat || tyReal) {
		return Number, true
	}
	if subRat && tyReal {
		return Number, true
	}
	return 0, false
}

// bestOfProductOrSum tries both the product-narrowing and sum-widening
// readings of `sp <: st` and commits whichever scores higher, erroring
// ambiguous on an exact tie. Both
// trial runs are rolled back; the winner is then re-run for real so
// its context entries and cast-strategy recordings land last —
// a losing trial's recordings must not shadow the winner's.
func (ch *Checker) bestOfProductOrSum(sp itype.TProduct, sub itype.IType, st itype.TSum, ty itype.IType, meta ident.Meta) (Similarities, error) {
	snapshot := ch.Ctx.Log()
	productSims, productErr := ch.subtypeProduct(sp, ty, meta)
	ch.Ctx.Restore(snapshot)
	sumSims, sumErr := ch.subtypeSum(sub, st, meta)
	ch.Ctx.Restore(snapshot)

	switch {
	case productErr == nil && sumErr == nil:
		cmp := Compare(productSims, sumSims)
		if cmp == 0 {
			return nil, diagnostics.AmbiguousSubtype(meta, sub, ty)
		}
		if cmp > 0 {
			return ch.subtypeProduct(sp, ty, meta)
		}
		return ch.subtypeSum(sub, st, meta)
	case productErr == nil:
		return ch.subtypeProduct(sp, ty, meta)
	case sumErr == nil:
		return ch.subtypeSum(sub, st, meta)
	default:
		return nil, diagnostics.NotSubtype(meta, sub, ty)
	}
}

// subtypeProduct implements case 4: promote a single field
// (ProductToInner), else try a product-to-product bijection.
func (ch *Checker) subtypeProduct(sp itype.TProduct, ty itype.IType, meta ident.Meta) (Similarities, error) {
	type candidate struct {
		field itype.IType
		sims  Similarities
	}
	var candidates []candidate
	for _, f := range sp.Elems {
		snapshot := ch.Ctx.Log()
		sims, err := ch.Subtype(f, ty, meta)
		ch.Ctx.Restore(snapshot)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{field: f, sims: sims})
	}
	if len(candidates) > 0 {
		best := candidates[0]
		ambiguous := false
		for _, c := range candidates[1:] {
			cmp := Compare(c.sims, best.sims)
			if cmp > 0 {
				best, ambiguous = c, false
			} else if cmp == 0 {
				ambiguous = true
			}
		}
		if !ambiguous {
			// Re-run the winning candidate so its context effects
			// (existential solutions, Infer recordings) land for real,
			// matching the bijection search's own re-apply step.
			snapshot := ch.Ctx.Log()
			sims, err := ch.Subtype(best.field, ty, meta)
			if err != nil {
				ch.Ctx.Restore(snapshot)
				return nil, err
			}
			ch.Casts.Record(sp, ty, ProductToInner{FieldType: best.field})
			return append(sims, ProductToInnerSim), nil
		}
	}
	if tp, ok := ty.(itype.TProduct); ok {
		best, ok, ambiguous := ch.bestMapping(sp.Elems, tp.Elems, meta)
		if ok && !ambiguous {
			ch.Casts.Record(sp, ty, ProductToProduct{Mapping: best.pairs})
			return append(append(Similarities{}, best.sims...), ProductSim), nil
		}
		if ambiguous {
			return nil, diagnostics.AmbiguousSubtype(meta, sp, ty)
		}
	}
	return nil, diagnostics.NotSubtype(meta, sp, ty)
}

// subtypeSum implements case 5: promote sub into a chosen variant
// (InnerToSum), else try a sum-to-sum bijection.
func (ch *Checker) subtypeSum(sub itype.IType, st itype.TSum, meta ident.Meta) (Similarities, error) {
	type candidate struct {
		variant itype.IType
		sims    Similarities
	}
	var candidates []candidate
	for _, v := range st.Elems {
		snapshot := ch.Ctx.Log()
		sims, err := ch.Subtype(sub, v, meta)
		ch.Ctx.Restore(snapshot)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{variant: v, sims: sims})
	}
	if len(candidates) > 0 {
		best := candidates[0]
		ambiguous := false
		for _, c := range candidates[1:] {
			cmp := Compare(c.sims, best.sims)
			if cmp > 0 {
				best, ambiguous = c, false
			} else if cmp == 0 {
				ambiguous = true
			}
		}
		if !ambiguous {
			snapshot := ch.Ctx.Log()
			sims, err := ch.Subtype(sub, best.variant, meta)
			if err != nil {
				ch.Ctx.Restore(snapshot)
				return nil, err
			}
			ch.Casts.Record(sub, st, InnerToSum{Variant: best.variant})
			return append(sims, InnerToSumSim), nil
		}
	}
	if ss, ok := sub.(itype.TSum); ok {
		best, ok, ambiguous := ch.bestMapping(ss.Elems, st.Elems, meta)
		if ok && !ambiguous {
			ch.Casts.Record(sub, st, SumToSum{Mapping: best.pairs})
			return append(append(Similarities{}, best.sims...), SumSim), nil
		}
		if ambiguous {
			return nil, diagnostics.AmbiguousSubtype(meta, sub, st)
		}
	}
	return nil, diagnostics.NotSubtype(meta, sub, st)
}
