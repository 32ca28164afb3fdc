// Package diagnostics is the unified error taxonomy for the pipeline:
// one constructor per failure, every failure carrying a machine-
// readable code and the metadata of the offending node, behind a
// single Error interface.
package diagnostics

import (
	"fmt"

	"github.com/corec-lang/corec/internal/ident"
)

// Code identifies the failure kind for tooling (LSP-style quick
// filters, golden-test assertions) without string-matching messages.
type Code string

const (
	// Lowering errors.
	CodeUnknownTypeAlias  Code = "L001"
	CodeNestedCard        Code = "L002"
	CodeMalformedAttr     Code = "L003"
	// Type errors.
	CodeVariableNotTyped       Code = "T001"
	CodeUnknownEffectHandled   Code = "T002"
	CodeContinueOutOfHandle    Code = "T003"
	CodeNotApplicable          Code = "T004"
	CodeCircularExistential    Code = "T005"
	CodeNotSubtype             Code = "T006"
	CodeAmbiguousSubtype       Code = "T007"
	CodeNotInstantiable        Code = "T008"
	CodeSumInsufficientElems   Code = "T009"
	CodeProductInsufficientEls Code = "T010"
	// MIR generation errors.
	CodeReferencesUnknownVar Code = "M001"
)

// Error is implemented by every diagnostic raised anywhere in the
// pipeline. Every failure carries the Meta (hence span + id) of the
// offending node.
type Error interface {
	error
	Code() Code
	Meta() ident.Meta
}

type base struct {
	code Code
	meta ident.Meta
	msg  string
}

func (b *base) Error() string     { return b.msg }
func (b *base) Code() Code        { return b.code }
func (b *base) Meta() ident.Meta  { return b.meta }

func newErr(code Code, meta ident.Meta, format string, args ...any) *base {
	return &base{code: code, meta: meta, msg: fmt.Sprintf(format, args...)}
}

// --- Lowering errors ---

func UnknownTypeAlias(meta ident.Meta, name string) Error {
	return newErr(CodeUnknownTypeAlias, meta, "unknown type alias %q", name)
}

func NestedCard(meta ident.Meta) Error {
	return newErr(CodeNestedCard, meta, "card is not permitted in a non-top-level position")
}

func MalformedAttribute(meta ident.Meta, reason string) Error {
	return newErr(CodeMalformedAttr, meta, "malformed attribute: %s", reason)
}

// --- Type errors ---

func VariableNotTyped(meta ident.Meta, name string) Error {
	return newErr(CodeVariableNotTyped, meta, "variable %q has no recorded type", name)
}

func UnknownEffectHandled(meta ident.Meta) Error {
	return newErr(CodeUnknownEffectHandled, meta, "handler does not match any effect performed by its expression")
}

func ContinueOutOfHandle(meta ident.Meta) Error {
	return newErr(CodeContinueOutOfHandle, meta, "continue used outside of a handle block")
}

func NotApplicable(meta ident.Meta, ty fmt.Stringer) Error {
	return newErr(CodeNotApplicable, meta, "type %s is not applicable", ty)
}

func CircularExistential(meta ident.Meta, id fmt.Stringer, ty fmt.Stringer) Error {
	return newErr(CodeCircularExistential, meta, "existential %s occurs in %s", id, ty)
}

func NotSubtype(meta ident.Meta, sub, ty fmt.Stringer) Error {
	return newErr(CodeNotSubtype, meta, "%s is not a subtype of %s", sub, ty)
}

func AmbiguousSubtype(meta ident.Meta, sub, ty fmt.Stringer) Error {
	return newErr(CodeAmbiguousSubtype, meta, "ambiguous subtype derivation between %s and %s", sub, ty)
}

func NotInstantiable(meta ident.Meta, ty fmt.Stringer) Error {
	return newErr(CodeNotInstantiable, meta, "cannot instantiate existential to %s", ty)
}

func SumInsufficientElements(meta ident.Meta) Error {
	return newErr(CodeSumInsufficientElems, meta, "sum type requires at least one element")
}

func ProductInsufficientElements(meta ident.Meta) Error {
	return newErr(CodeProductInsufficientEls, meta, "product type requires at least one element")
}

// --- MIR errors ---

func ReferencesUnknownVar(meta ident.Meta, ty fmt.Stringer) Error {
	return newErr(CodeReferencesUnknownVar, meta, "reference to unresolved variable of type %s", ty)
}
