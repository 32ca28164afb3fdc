package itype

// Normalize applies the effect-row normalization rules: Add is
// flattened (associative, empty Add = ∅), Sub{minuend, ∅} = minuend,
// Effects([]) is the identity for Add.
func Normalize(e IEffectExpr) IEffectExpr {
	switch v := e.(type) {
	case Add:
		var flat []IEffectExpr
		for _, t := range v.Terms {
			switch nt := Normalize(t).(type) {
			case Add:
				flat = append(flat, nt.Terms...)
			case Effects:
				if len(nt.Items) == 0 {
					continue
				}
				flat = append(flat, nt)
			default:
				flat = append(flat, nt)
			}
		}
		if len(flat) == 0 {
			return Effects{}
		}
		if len(flat) == 1 {
			return flat[0]
		}
		return Add{Terms: flat}
	case Sub:
		minuend := Normalize(v.Minuend)
		subtrahend := Normalize(v.Subtrahend)
		if isEmptyEffects(subtrahend) {
			return minuend
		}
		return Sub{Minuend: minuend, Subtrahend: subtrahend}
	default:
		return e
	}
}

func isEmptyEffects(e IEffectExpr) bool {
	eff, ok := e.(Effects)
	return ok && len(eff.Items) == 0
}

// EffectsOf flattens e into its ordered list of concrete Effect
// entries, skipping symbolic Apply/unresolved Sub remainders. Used to
// decide "are there any effects at all" and
// for de-duplicated reporting.
func EffectsOf(e IEffectExpr) []Effect {
	switch v := Normalize(e).(type) {
	case Effects:
		return v.Items
	case Add:
		var out []Effect
		for _, t := range v.Terms {
			out = append(out, EffectsOf(t)...)
		}
		return out
	case Sub:
		minuend := EffectsOf(v.Minuend)
		subtrahend := EffectsOf(v.Subtrahend)
		var out []Effect
		for _, e := range minuend {
			removed := false
			for _, s := range subtrahend {
				if e.Equal(s) {
					removed = true
					break
				}
			}
			if !removed {
				out = append(out, e)
			}
		}
		return out
	default:
		return nil
	}
}

// Equal is deep structural equality over IType. Effect rows compare
// structurally, except that two flat Effects lists reduce to multiset
// equality of their Effect entries; non-flat rows are preserved as
// written and compared by shape.
func Equal(a, b IType) bool {
	switch av := a.(type) {
	case TInteger:
		_, ok := b.(TInteger)
		return ok
	case TRational:
		_, ok := b.(TRational)
		return ok
	case TReal:
		_, ok := b.(TReal)
		return ok
	case TString:
		_, ok := b.(TString)
		return ok
	case TProduct:
		bv, ok := b.(TProduct)
		return ok && typesEqual(av.Elems, bv.Elems)
	case TSum:
		bv, ok := b.(TSum)
		return ok && typesEqual(av.Elems, bv.Elems)
	case TFunction:
		bv, ok := b.(TFunction)
		return ok && Equal(av.Parameter, bv.Parameter) && Equal(av.Body, bv.Body)
	case TVector:
		bv, ok := b.(TVector)
		return ok && Equal(av.Elem, bv.Elem)
	case TMap:
		bv, ok := b.(TMap)
		return ok && Equal(av.Key, bv.Key) && Equal(av.Value, bv.Value)
	case TVariable:
		bv, ok := b.(TVariable)
		return ok && av.ID == bv.ID
	case TExistential:
		bv, ok := b.(TExistential)
		return ok && av.ID == bv.ID
	case TInfer:
		bv, ok := b.(TInfer)
		return ok && av.Node == bv.Node
	case TLabel:
		bv, ok := b.(TLabel)
		return ok && labelsEqual(av.Label, bv.Label) && Equal(av.Item, bv.Item)
	case TBrand:
		bv, ok := b.(TBrand)
		return ok && labelsEqual(av.Brand, bv.Brand) && Equal(av.Item, bv.Item)
	case TForAll:
		bv, ok := b.(TForAll)
		if !ok || av.Variable != bv.Variable || !Equal(av.Body, bv.Body) {
			return false
		}
		if (av.Bound == nil) != (bv.Bound == nil) {
			return false
		}
		return av.Bound == nil || Equal(av.Bound, bv.Bound)
	case TEffectful:
		bv, ok := b.(TEffectful)
		return ok && Equal(av.Ty, bv.Ty) && effectsEqual(av.Effects, bv.Effects)
	default:
		return false
	}
}

func typesEqual(a, b []IType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func labelsEqual(a, b interface{ String() string }) bool {
	return a.String() == b.String()
}

func effectsEqual(a, b IEffectExpr) bool {
	na, nb := Normalize(a), Normalize(b)
	fa, aok := na.(Effects)
	fb, bok := nb.(Effects)
	if aok && bok {
		if len(fa.Items) != len(fb.Items) {
			return false
		}
		used := make([]bool, len(fb.Items))
		for _, ei := range fa.Items {
			found := false
			for j, ej := range fb.Items {
				if !used[j] && ei.Equal(ej) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return na.String() == nb.String()
}

// FreeExistentials returns the existentials occurring in t, in
// left-to-right traversal order, without duplicates.
func FreeExistentials(t IType) []Id {
	var out []Id
	seen := map[Id]bool{}
	var walk func(IType)
	walk = func(t IType) {
		switch v := t.(type) {
		case TExistential:
			if !seen[v.ID] {
				seen[v.ID] = true
				out = append(out, v.ID)
			}
		case TProduct:
			for _, e := range v.Elems {
				walk(e)
			}
		case TSum:
			for _, e := range v.Elems {
				walk(e)
			}
		case TFunction:
			walk(v.Parameter)
			walk(v.Body)
		case TVector:
			walk(v.Elem)
		case TMap:
			walk(v.Key)
			walk(v.Value)
		case TLabel:
			walk(v.Item)
		case TBrand:
			walk(v.Item)
		case TForAll:
			if v.Bound != nil {
				walk(v.Bound)
			}
			walk(v.Body)
		case TEffectful:
			walk(v.Ty)
			for _, e := range EffectsOf(v.Effects) {
				walk(e.Input)
				walk(e.Output)
			}
		}
	}
	walk(t)
	return out
}

// Occurs reports whether existential id occurs anywhere in t
func Occurs(id Id, t IType) bool {
	for _, e := range FreeExistentials(t) {
		if e == id {
			return true
		}
	}
	return false
}

// Substitute replaces every occurrence of TExistential{id} in t with
// repl.
func Substitute(t IType, id Id, repl IType) IType {
	sub := func(x IType) IType { return Substitute(x, id, repl) }
	switch v := t.(type) {
	case TExistential:
		if v.ID == id {
			return repl
		}
		return v
	case TProduct:
		return TProduct{Elems: subAll(v.Elems, sub)}
	case TSum:
		return TSum{Elems: subAll(v.Elems, sub)}
	case TFunction:
		return TFunction{Parameter: sub(v.Parameter), Body: sub(v.Body)}
	case TVector:
		return TVector{Elem: sub(v.Elem)}
	case TMap:
		return TMap{Key: sub(v.Key), Value: sub(v.Value)}
	case TLabel:
		return TLabel{Label: v.Label, Item: sub(v.Item)}
	case TBrand:
		return TBrand{Brand: v.Brand, Item: sub(v.Item)}
	case TForAll:
		var bound IType
		if v.Bound != nil {
			bound = sub(v.Bound)
		}
		return TForAll{Variable: v.Variable, Bound: bound, Body: sub(v.Body)}
	case TEffectful:
		return MakeEffectful(sub(v.Ty), substituteEffects(v.Effects, id, repl))
	default:
		return t
	}
}

// SubstituteVar replaces every occurrence of TVariable{id} in t with
// repl, the rigid/universal-variable counterpart of Substitute.
func SubstituteVar(t IType, id Id, repl IType) IType {
	sub := func(x IType) IType { return SubstituteVar(x, id, repl) }
	switch v := t.(type) {
	case TVariable:
		if v.ID == id {
			return repl
		}
		return v
	case TProduct:
		return TProduct{Elems: subAll(v.Elems, sub)}
	case TSum:
		return TSum{Elems: subAll(v.Elems, sub)}
	case TFunction:
		return TFunction{Parameter: sub(v.Parameter), Body: sub(v.Body)}
	case TVector:
		return TVector{Elem: sub(v.Elem)}
	case TMap:
		return TMap{Key: sub(v.Key), Value: sub(v.Value)}
	case TLabel:
		return TLabel{Label: v.Label, Item: sub(v.Item)}
	case TBrand:
		return TBrand{Brand: v.Brand, Item: sub(v.Item)}
	case TForAll:
		if v.Variable == id {
			// Shadowed: the inner binder rebinds this name, stop.
			return v
		}
		var bound IType
		if v.Bound != nil {
			bound = sub(v.Bound)
		}
		return TForAll{Variable: v.Variable, Bound: bound, Body: sub(v.Body)}
	case TEffectful:
		return MakeEffectful(sub(v.Ty), substituteVarEffects(v.Effects, id, repl))
	default:
		return t
	}
}

func substituteVarEffects(e IEffectExpr, id Id, repl IType) IEffectExpr {
	switch v := e.(type) {
	case Effects:
		items := make([]Effect, len(v.Items))
		for i, it := range v.Items {
			items[i] = Effect{Input: SubstituteVar(it.Input, id, repl), Output: SubstituteVar(it.Output, id, repl)}
		}
		return Effects{Items: items}
	case Add:
		terms := make([]IEffectExpr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = substituteVarEffects(t, id, repl)
		}
		return Add{Terms: terms}
	case Sub:
		return Sub{Minuend: substituteVarEffects(v.Minuend, id, repl), Subtrahend: substituteVarEffects(v.Subtrahend, id, repl)}
	case EffectApply:
		args := make([]IType, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i] = SubstituteVar(a, id, repl)
		}
		return EffectApply{Function: SubstituteVar(v.Function, id, repl), Arguments: args}
	default:
		return e
	}
}

func subAll(ts []IType, f func(IType) IType) []IType {
	out := make([]IType, len(ts))
	for i, t := range ts {
		out[i] = f(t)
	}
	return out
}

func substituteEffects(e IEffectExpr, id Id, repl IType) IEffectExpr {
	switch v := e.(type) {
	case Effects:
		items := make([]Effect, len(v.Items))
		for i, it := range v.Items {
			items[i] = Effect{Input: Substitute(it.Input, id, repl), Output: Substitute(it.Output, id, repl)}
		}
		return Effects{Items: items}
	case Add:
		terms := make([]IEffectExpr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = substituteEffects(t, id, repl)
		}
		return Add{Terms: terms}
	case Sub:
		return Sub{Minuend: substituteEffects(v.Minuend, id, repl), Subtrahend: substituteEffects(v.Subtrahend, id, repl)}
	case EffectApply:
		args := make([]IType, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i] = Substitute(a, id, repl)
		}
		return EffectApply{Function: Substitute(v.Function, id, repl), Arguments: args}
	default:
		return e
	}
}
