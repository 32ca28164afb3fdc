// Effect handler elimination: each handler arm is checked against
// `Input -> Output` for its declared effect signature, with
// ch.Ctx.ContinueInput/ContinueOutput giving the arm's body access to
// `continue`. Only rank-1 handler polymorphism is supported: a handler
// whose own type is itself universally quantified over the handled
// effect is not opened before the Input/Output check here.
package check

import (
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/hir"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/corec-lang/corec/internal/itype"
)

func (ch *Checker) synthHandle(h hir.Handle, meta ident.Meta) (itype.IType, error) {
	exprTy, exprEff, err := ch.Synth(h.Expr)
	if err != nil {
		return nil, err
	}
	result := ch.Ctx.Substitute(exprTy)

	if len(h.Handlers) == 0 {
		return nil, diagnostics.UnknownEffectHandled(meta)
	}

	handled := make([]itype.Effect, 0, len(h.Handlers))
	for _, hdl := range h.Handlers {
		inTy := ch.FromHIRType(hdl.EffectInput)
		outTy := ch.FromHIRType(hdl.EffectOutput)
		handled = append(handled, itype.Effect{Input: inTy, Output: outTy})

		if err := ch.checkHandlerArm(hdl.Handler, inTy, outTy, result, meta); err != nil {
			return nil, err
		}
	}

	ch.recoverEffects(itype.Sub{Minuend: exprEff, Subtrahend: itype.Effects{Items: handled}})
	return result, nil
}

func (ch *Checker) checkHandlerArm(body hir.Node, inTy, outTy, result itype.IType, meta ident.Meta) error {
	ch.Ctx.ContinueInput = append(ch.Ctx.ContinueInput, outTy)
	ch.Ctx.ContinueOutput = append(ch.Ctx.ContinueOutput, result)
	defer func() {
		ch.Ctx.ContinueInput = ch.Ctx.ContinueInput[:len(ch.Ctx.ContinueInput)-1]
		ch.Ctx.ContinueOutput = ch.Ctx.ContinueOutput[:len(ch.Ctx.ContinueOutput)-1]
	}()

	marker := ch.Ctx.BeginScope()
	hdlTy, hdlEff, err := ch.Synth(body)
	if err != nil {
		ch.Ctx.TruncateFrom(marker)
		return err
	}
	hdlTy = ch.Ctx.Substitute(hdlTy)
	ch.Ctx.TruncateFrom(marker)
	ch.recoverEffects(hdlEff)

	_, err = ch.Subtype(hdlTy, itype.TFunction{Parameter: inTy, Body: result}, meta)
	if err == nil {
		return nil
	}
	// A handler body may also be written point-free against the
	// declared Output rather than the overall handle result; retry
	// against that shape before giving up.
	_, err2 := ch.Subtype(hdlTy, itype.TFunction{Parameter: inTy, Body: outTy}, meta)
	if err2 == nil {
		return nil
	}
	return err
}
