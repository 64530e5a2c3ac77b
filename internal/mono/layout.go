package mono

import (
	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/types"
)

// wordSize is the target pointer width in bytes, used by the fixed size
// table below (spec.md §4.5 "Tagged-union layout": "pointer=target word
// size") and as the fallback for any shape the table doesn't name (an
// unresolved type variable, a function or tuple value nested inside a
// constructor field — none of which spec.md's size table covers).
const wordSize = 8

// sizeOf returns a type's size in bytes under the fixed size table of
// spec.md §4.5: integers by width, float=8, bool/char/unit=1,
// pointer=wordSize.
func sizeOf(c *cache.Cache, t types.Type) int {
	switch v := types.Follow(c, t).(type) {
	case *types.TPrim:
		switch v.Kind {
		case types.PInt:
			return v.Width / 8
		case types.PFloat:
			return 8
		case types.PChar, types.PBool, types.PUnit:
			return 1
		case types.PRawPtr:
			return wordSize
		}
	case *types.TRef:
		return wordSize
	}
	return wordSize
}

// zeroLitFor builds the zero value of t as an IR literal, used to pad a
// shorter variant's tuple out to the widest variant's field list
// (spec.md §8: `None : Option i32` lowers to `(tag=0, 0_i32)`, a
// type-correct zero in the position Some's payload would occupy).
func zeroLitFor(c *cache.Cache, t types.Type) ir.Node {
	if prim, ok := types.Follow(c, t).(*types.TPrim); ok {
		switch prim.Kind {
		case types.PInt:
			return &ir.Lit{Kind: ir.LitInt, Signed: prim.Signed, Width: prim.Width}
		case types.PFloat:
			return &ir.Lit{Kind: ir.LitFloat}
		case types.PChar:
			return &ir.Lit{Kind: ir.LitChar}
		case types.PBool:
			return &ir.Lit{Kind: ir.LitBool}
		case types.PUnit:
			return &ir.Lit{Kind: ir.LitUnit}
		}
	}
	return &ir.Lit{Kind: ir.LitInt, Signed: false, Width: wordSize * 8}
}

// ctorFieldTypes returns ctorID's field types, in declaration order, or
// nil if it has none registered (extern-declared or malformed input).
func ctorFieldTypes(schemes *types.SchemeTable, ctorID cache.DefID) []types.Type {
	scheme, ok := schemes.Get(ctorID)
	if !ok {
		return nil
	}
	fn, ok := scheme.Body.(*types.TFunc)
	if !ok {
		return nil
	}
	return fn.Params
}

// widestCtorFields returns the field-type list of info's largest variant
// by total byte size (spec.md §4.5 "maximum over variants of the sum of
// sizes of that variant's fields"), used both to size the union and to
// type the zero padding a smaller variant needs.
func widestCtorFields(c *cache.Cache, schemes *types.SchemeTable, info *cache.TypeInfo) []types.Type {
	var widest []types.Type
	best := -1
	for _, ctorID := range info.Ctors {
		fields := ctorFieldTypes(schemes, ctorID)
		total := 0
		for _, f := range fields {
			total += sizeOf(c, f)
		}
		if total > best {
			best = total
			widest = fields
		}
	}
	return widest
}

// unionLayout computes the fixed-size representation of a sum type: one
// tag byte plus the widest variant's total field size (spec.md §4.5
// "Tagged-union layout").
func unionLayout(c *cache.Cache, schemes *types.SchemeTable, info *cache.TypeInfo) ir.UnionLayout {
	max := 0
	for _, f := range widestCtorFields(c, schemes, info) {
		max += sizeOf(c, f)
	}
	return ir.UnionLayout{Size: 1 + max}
}
