// Synth dispatches over every HIR expression case. Each case records
// its own effects via recoverEffects as it goes; Synth itself opens a
// scope marker per call and reads the accumulated effects back out of
// the truncated suffix, so no case needs to manually thread an effects
// value through nested calls (effects.go's header comment).
package check

import (
	"github.com/corec-lang/corec/internal/ctx"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
	"github.com/google/uuid"
)

// Synth infers the type and latent effect row of a HIR node.
func (ch *Checker) Synth(n hir.Node) (itype.IType, itype.IEffectExpr, error) {
	marker := ch.Ctx.BeginScope()
	ty, err := ch.synth(n)
	if err != nil {
		ch.Ctx.TruncateFrom(marker)
		return nil, nil, err
	}
	resolved := ch.Ctx.Substitute(ty)
	suffix := ch.Ctx.TruncateFrom(marker)
	eff := ctx.ScopeEffects(suffix)
	ch.store(n.Meta.ID, resolved)
	return resolved, eff, nil
}

func (ch *Checker) synth(n hir.Node) (itype.IType, error) {
	meta := n.Meta
	switch v := n.Value.(type) {
	case hir.Literal:
		return literalType(v.Value), nil

	case hir.Hole:
		return itype.TExistential{ID: ch.Ctx.AddExistential()}, nil

	case hir.Do:
		_, stmtEff, err := ch.Synth(v.Stmt)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(stmtEff)
		exprTy, exprEff, err := ch.Synth(v.Expr)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(exprEff)
		return exprTy, nil

	case hir.Let:
		defTy, defEff, err := ch.Synth(v.Definition)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(defEff)
		bound := defTy
		if isValue(v.Definition) {
			bound = ch.generalize(defTy)
		}
		// Let carries no binder name: named bindings are sugar that
		// resolves to an Apply whose LinkName names this definition's
		// own node id, so the entry is keyed by that id — the same bare
		// node-id string resolveRef and the Card case use, so the two
		// agree.
		ch.Ctx.Add(ctx.TypedVariable(uuid.UUID(v.Definition.Meta.ID).String(), bound))
		bodyTy, bodyEff, err := ch.Synth(v.Body)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(bodyEff)
		return bodyTy, nil

	case hir.Perform:
		inTy, inEff, err := ch.Synth(v.Input)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(inEff)
		outTy := ch.FromHIRType(v.Output)
		ch.recoverEffects(itype.Effects{Items: []itype.Effect{{Input: ch.Ctx.Substitute(inTy), Output: outTy}}})
		return outTy, nil

	case hir.Continue:
		if len(ch.Ctx.ContinueInput) == 0 {
			return nil, diagnostics.ContinueOutOfHandle(meta)
		}
		inTy, inEff, err := ch.Synth(v.Input)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(inEff)
		expectedIn := ch.Ctx.ContinueInput[len(ch.Ctx.ContinueInput)-1]
		if _, err := ch.Subtype(ch.Ctx.Substitute(inTy), expectedIn, meta); err != nil {
			return nil, err
		}
		declaredOut := ch.FromHIRType(v.Output)
		expectedOut := ch.Ctx.ContinueOutput[len(ch.Ctx.ContinueOutput)-1]
		if _, err := ch.Subtype(expectedOut, declaredOut, meta); err != nil {
			return nil, err
		}
		return declaredOut, nil

	case hir.Handle:
		return ch.synthHandle(v, meta)

	case hir.Apply:
		return ch.synthApply(v, meta)

	case hir.Product:
		elems := make([]itype.IType, len(v.Elems))
		for i, e := range v.Elems {
			ty, eff, err := ch.Synth(e)
			if err != nil {
				return nil, err
			}
			ch.recoverEffects(eff)
			elems[i] = ty
		}
		if len(elems) == 0 {
			return nil, diagnostics.ProductInsufficientElements(meta)
		}
		return itype.TProduct{Elems: elems}, nil

	case hir.Vector:
		var elemTy itype.IType
		for _, e := range v.Elems {
			ty, eff, err := ch.Synth(e)
			if err != nil {
				return nil, err
			}
			ch.recoverEffects(eff)
			elemTy = joinTypes(elemTy, ty)
		}
		if elemTy == nil {
			elemTy = itype.TExistential{ID: ch.Ctx.AddExistential()}
		}
		return itype.TVector{Elem: elemTy}, nil

	case hir.Map:
		var keyTy, valTy itype.IType
		for _, e := range v.Entries {
			kTy, kEff, err := ch.Synth(e.Key)
			if err != nil {
				return nil, err
			}
			ch.recoverEffects(kEff)
			vTy, vEff, err := ch.Synth(e.Value)
			if err != nil {
				return nil, err
			}
			ch.recoverEffects(vEff)
			keyTy = joinTypes(keyTy, kTy)
			valTy = joinTypes(valTy, vTy)
		}
		if keyTy == nil {
			keyTy = itype.TExistential{ID: ch.Ctx.AddExistential()}
		}
		if valTy == nil {
			valTy = itype.TExistential{ID: ch.Ctx.AddExistential()}
		}
		return itype.TMap{Key: keyTy, Value: valTy}, nil

	case hir.Function:
		return ch.synthFunction(v)

	case hir.Match:
		return ch.synthMatch(v, meta)

	case hir.Typed:
		want := ch.FromHIRType(v.Ty)
		if err := ch.Check(v.Item, want); err != nil {
			return nil, err
		}
		return want, nil

	case hir.Label:
		itemTy, itemEff, err := ch.Synth(v.Item)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(itemEff)
		return itype.TLabel{Label: v.Label, Item: itemTy}, nil

	case hir.Brand:
		itemTy, itemEff, err := ch.Synth(v.Item)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(itemEff)
		return itype.TBrand{Brand: v.Brand, Item: itemTy}, nil

	case hir.Card:
		itemTy, itemEff, err := ch.Synth(v.Item)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(itemEff)
		ch.Ctx.Add(ctx.TypedVariable(uuid.UUID(v.ID).String(), itemTy))
		nextTy, nextEff, err := ch.Synth(v.Next)
		if err != nil {
			return nil, err
		}
		ch.recoverEffects(nextEff)
		return nextTy, nil

	default:
		return nil, diagnostics.NotApplicable(meta, itype.TProduct{})
	}
}

func literalType(l dson.Literal) itype.IType {
	switch l.Kind {
	case dson.KindInteger:
		return itype.TInteger{}
	case dson.KindReal:
		return itype.TReal{}
	case dson.KindRational:
		return itype.TRational{}
	case dson.KindString:
		return itype.TString{}
	default:
		return itype.TString{}
	}
}

// joinTypes folds successive element types of a collection into a
// TSum when they are not structurally equal (itype.Equal).
func joinTypes(acc, next itype.IType) itype.IType {
	if acc == nil {
		return next
	}
	if itype.Equal(acc, next) {
		return acc
	}
	if s, ok := acc.(itype.TSum); ok {
		for _, e := range s.Elems {
			if itype.Equal(e, next) {
				return acc
			}
		}
		return itype.TSum{Elems: append(append([]itype.IType{}, s.Elems...), next)}
	}
	return itype.TSum{Elems: []itype.IType{acc, next}}
}

// synthApply resolves the callee  and folds the
// argument list left-to-right through Apply's elimination rules.
func (ch *Checker) synthApply(a hir.Apply, meta ident.Meta) (itype.IType, error) {
	fnTy, err := ch.resolveRef(a, meta)
	if err != nil {
		return nil, err
	}
	result := fnTy
	for _, arg := range a.Arguments {
		result, err = ch.Apply(ch.Ctx.Substitute(result), arg, meta)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// synthFunction handles the two Function shapes: a parameter written
// as a bare name, bound in the context to a fresh existential the body
// can mention, or a parameter written as a concrete type, which the
// body has no way to name.
func (ch *Checker) synthFunction(f hir.Function) (itype.IType, error) {
	marker := ch.Ctx.BeginScope()
	var paramTy itype.IType
	if pv, ok := f.Parameter.Value.(hir.Variable); ok {
		a := ch.Ctx.AddExistential()
		paramTy = itype.TExistential{ID: a}
		ch.Ctx.Add(ctx.TypedVariable(pv.Name, paramTy))
	} else {
		paramTy = ch.FromHIRType(f.Parameter)
	}
	bodyTy, bodyEff, err := ch.Synth(f.Body)
	if err != nil {
		ch.Ctx.TruncateFrom(marker)
		return nil, err
	}
	paramTy = ch.Ctx.Substitute(paramTy)
	bodyTy = ch.Ctx.Substitute(bodyTy)
	ch.Ctx.TruncateFrom(marker)
	return itype.TFunction{Parameter: paramTy, Body: itype.MakeEffectful(bodyTy, bodyEff)}, nil
}

// synthMatch checks the scrutinee against each case's declared type
// (the cases partition its Sum) and joins every arm's result type.
// Case labels are checked, not synthesized: a bare Sum-branch pattern
// carries no term to synthesize from beyond the declared Ty.
func (ch *Checker) synthMatch(m hir.Match, meta ident.Meta) (itype.IType, error) {
	ofTy, ofEff, err := ch.Synth(m.Of)
	if err != nil {
		return nil, err
	}
	ch.recoverEffects(ofEff)
	if len(m.Cases) == 0 {
		return nil, diagnostics.SumInsufficientElements(meta)
	}
	var result itype.IType
	for _, c := range m.Cases {
		caseTy := ch.FromHIRType(c.Ty)
		if _, err := ch.Subtype(caseTy, ch.Ctx.Substitute(ofTy), meta); err != nil {
			return nil, err
		}
		marker := ch.Ctx.BeginScope()
		exprTy, exprEff, err := ch.Synth(c.Expr)
		if err != nil {
			ch.Ctx.TruncateFrom(marker)
			return nil, err
		}
		exprTy = ch.Ctx.Substitute(exprTy)
		ch.Ctx.TruncateFrom(marker)
		ch.recoverEffects(exprEff)
		result = joinTypes(result, exprTy)
	}
	return result, nil
}

// resolveRef looks up the type of the thing an Apply node names: by
// LinkName when it points at a specific Card/Let-definition node id,
// by the free variable name carried in the Function position, or — for
// a reference written as a structural type rather than a name — the
// type itself.
func (ch *Checker) resolveRef(a hir.Apply, meta ident.Meta) (itype.IType, error) {
	var key string
	switch a.LinkName.Kind {
	case hir.LinkCard, hir.LinkVersion:
		key = uuid.UUID(a.LinkName.UUID).String()
	default:
		v, ok := a.Function.Value.(hir.Variable)
		if !ok {
			return ch.FromHIRType(a.Function), nil
		}
		key = v.Name
	}
	ty, ok := ch.Ctx.GetTypedVar(key)
	if !ok {
		return nil, diagnostics.VariableNotTyped(meta, key)
	}
	return ty, nil
}
