package mono

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// unionLayoutFor returns (and memoises) the tagged-union layout for a sum
// type, since every one of its constructors' call sites recomputes the
// same widest-variant scan otherwise. Keyed by TypeInfoID rather than the
// *cache.TypeInfo pointer, since Cache.TypeInfo reindexes a backing slice
// that may still be growing when earlier pointers were taken.
func (m *Monomorphizer) unionLayoutFor(id cache.TypeInfoID, info *cache.TypeInfo) ir.UnionLayout {
	if m.layouts == nil {
		m.layouts = make(map[cache.TypeInfoID]ir.UnionLayout)
	}
	if l, ok := m.layouts[id]; ok {
		return l
	}
	l := unionLayout(m.Cache, m.Schemes, info)
	m.layouts[id] = l
	return l
}

// nominalInfoOf resolves a constructor's return type to its TypeInfo.
func (m *Monomorphizer) nominalInfoOf(t types.Type) (cache.TypeInfoID, *cache.TypeInfo, bool) {
	nominal, ok := types.Follow(m.Cache, t).(*types.TNominal)
	if !ok {
		return 0, nil, false
	}
	return nominal.Info, m.Cache.TypeInfo(nominal.Info), true
}

// lowerCtorApplication builds the monomorphisation-time representation of
// a constructor applied to args (spec.md §4.5 "Type constructor
// lowering", §8): for a sum type, a (tag, fields..., zero-padding...)
// tuple reinterpret-cast to the type's union layout; for a singleton
// struct type, a plain tuple (or, if nullary, the unit literal).
func (m *Monomorphizer) lowerCtorApplication(infoID cache.TypeInfoID, info *cache.TypeInfo, ctorID cache.DefID, args []ir.Node) (ir.Node, error) {
	if !info.IsSum {
		if len(args) == 0 {
			return &ir.Lit{Kind: ir.LitUnit}, nil
		}
		return &ir.Tuple{Elems: args}, nil
	}

	tag := m.Cache.Def(ctorID).Tag
	elems := make([]ir.Node, 0, len(args)+1)
	elems = append(elems, &ir.Lit{Kind: ir.LitInt, Signed: false, Width: 8, Int: int64(tag)})
	elems = append(elems, args...)

	widest := widestCtorFields(m.Cache, m.Schemes, info)
	for i := len(args); i < len(widest); i++ {
		elems = append(elems, zeroLitFor(m.Cache, widest[i]))
	}

	tuple := &ir.Tuple{Elems: elems}
	return &ir.ReinterpretCast{Value: tuple, Layout: m.unionLayoutFor(infoID, info)}, nil
}

// lowerCtorRef lowers a bare (not immediately applied) reference to a
// constructor: a nullary constructor lowers directly to its value
// (spec.md §8's `None` example); an n-ary constructor lowers to a
// concrete lambda that builds the same value from explicit parameters,
// since a bare reference may be passed around as a first-class function
// rather than applied at this call site.
func (m *Monomorphizer) lowerCtorRef(v *surfacir.Variable) (ir.Node, error) {
	scheme, ok := m.Schemes.Get(v.Def)
	if !ok {
		return nil, fmt.Errorf("mono: constructor %q has no registered scheme", m.Cache.Def(v.Def).Name)
	}
	fn, ok := scheme.Body.(*types.TFunc)
	if !ok {
		return nil, fmt.Errorf("mono: constructor %q scheme is not a function type", m.Cache.Def(v.Def).Name)
	}
	infoID, info, ok := m.nominalInfoOf(fn.Return)
	if !ok {
		return nil, fmt.Errorf("mono: constructor %q does not return a nominal type", m.Cache.Def(v.Def).Name)
	}

	if len(fn.Params) == 0 {
		return m.lowerCtorApplication(infoID, info, v.Def, nil)
	}

	params := make([]ir.Param, len(fn.Params))
	args := make([]ir.Node, len(fn.Params))
	for i := range fn.Params {
		name := fmt.Sprintf("$ctor_arg%d", i)
		params[i] = ir.Param{Name: name}
		args[i] = &ir.Var{Name: name}
	}
	body, err := m.lowerCtorApplication(infoID, info, v.Def, args)
	if err != nil {
		return nil, err
	}
	return &ir.Lambda{Params: params, Body: body}, nil
}

// lowerCtorCall lowers a constructor applied directly to arguments (e.g.
// `Some 2`), folding straight to the reinterpret-cast tuple rather than
// building then immediately calling the lambda lowerCtorRef would produce
// (spec.md §8's `Some 2 -> (tag=1, 2)` example names the tuple itself as
// the result, not a call expression).
func (m *Monomorphizer) lowerCtorCall(v *surfacir.Variable, surfaceArgs []surfacir.Node) (ir.Node, error) {
	scheme, ok := m.Schemes.Get(v.Def)
	if !ok {
		return nil, fmt.Errorf("mono: constructor %q has no registered scheme", m.Cache.Def(v.Def).Name)
	}
	fn, ok := scheme.Body.(*types.TFunc)
	if !ok {
		return nil, fmt.Errorf("mono: constructor %q scheme is not a function type", m.Cache.Def(v.Def).Name)
	}
	infoID, info, ok := m.nominalInfoOf(fn.Return)
	if !ok {
		return nil, fmt.Errorf("mono: constructor %q does not return a nominal type", m.Cache.Def(v.Def).Name)
	}

	args := make([]ir.Node, len(surfaceArgs))
	for i, a := range surfaceArgs {
		lowered, err := m.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = lowered
	}
	return m.lowerCtorApplication(infoID, info, v.Def, args)
}
