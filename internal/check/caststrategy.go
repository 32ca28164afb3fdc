// Cast-strategy recording: for every subtype
// obligation satisfied non-trivially, record how a value of the `from`
// type is translated into the `to` type.
package check

import "github.com/corec-lang/corec/internal/itype"

// Strategy is one of the four recipes by which a value of one
// structural type translates into another.
type Strategy interface{ castStrategy() }

// ProductToInner narrows a product value down to the single field
// that matched the target type.
type ProductToInner struct{ FieldType itype.IType }

func (ProductToInner) castStrategy() {}

// InnerToSum widens a value into the chosen sum variant.
type InnerToSum struct{ Variant itype.IType }

func (InnerToSum) castStrategy() {}

// TypePair is one (from, to) leg of a product/sum bijection.
type TypePair struct{ From, To itype.IType }

// ProductToProduct re-projects each field through the recorded
// per-field mapping.
type ProductToProduct struct{ Mapping []TypePair }

func (ProductToProduct) castStrategy() {}

// SumToSum re-tags each variant through the recorded per-variant
// mapping.
type SumToSum struct{ Mapping []TypePair }

func (SumToSum) castStrategy() {}

// Key identifies a (from, to) pair in the cast-strategy table. IType
// is not comparable (it holds slices), so the key is the pair's
// rendered string form — stable because itype.IType.String() is a
// pure structural function of the type.
type Key struct{ From, To string }

func KeyFor(from, to itype.IType) Key {
	return Key{From: from.String(), To: to.String()}
}

// Table is the per-pipeline cast-strategy map.
type Table map[Key]Strategy

func (t Table) Record(from, to itype.IType, s Strategy) {
	t[KeyFor(from, to)] = s
}

func (t Table) Lookup(from, to itype.IType) (Strategy, bool) {
	s, ok := t[KeyFor(from, to)]
	return s, ok
}
