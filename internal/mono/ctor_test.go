package mono

import (
	"testing"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// newOption registers a sum type `Option a = None | Some i32` directly in
// the cache/scheme tables, mirroring what infer.Checker.registerTypeDef
// would produce from surface syntax, and returns the constructor DefIDs.
func newOption(t *testing.T, c *cache.Cache, schemes *types.SchemeTable) (noneID, someID cache.DefID) {
	t.Helper()
	noneID = c.NewDef(cache.DefInfo{Name: "None", Kind: cache.DefCtor, Tag: 0})
	someID = c.NewDef(cache.DefInfo{Name: "Some", Kind: cache.DefCtor, Tag: 1})
	infoID := c.NewTypeInfo(cache.TypeInfo{Name: "Option", IsSum: true, Ctors: []cache.DefID{noneID, someID}})
	nominal := &types.TNominal{Info: infoID, Name: "Option"}

	schemes.Set(noneID, types.MonoScheme(&types.TFunc{Return: nominal, Env: types.Unit}))
	schemes.Set(someID, types.MonoScheme(&types.TFunc{Params: []types.Type{types.Int32}, Return: nominal, Env: types.Unit}))
	return noneID, someID
}

func TestLowerCtorCallBuildsTaggedTupleReinterpretCast(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	_, someID := newOption(t, c, schemes)
	m := New(c, schemes)

	someVar := &surfacir.Variable{Name: "Some", Def: someID}
	arg := &surfacir.Literal{Kind: surfacir.LitInt, IntVal: 2, Signed: true, Width: 32}

	node, err := m.lowerCtorCall(someVar, []surfacir.Node{arg})
	if err != nil {
		t.Fatalf("lowerCtorCall: %v", err)
	}
	cast, ok := node.(*ir.ReinterpretCast)
	if !ok {
		t.Fatalf("expected *ir.ReinterpretCast, got %T", node)
	}
	if cast.Layout.Size != 1+4 {
		t.Fatalf("expected a 1+4-byte layout (tag + i32), got size %d", cast.Layout.Size)
	}
	tup, ok := cast.Value.(*ir.Tuple)
	if !ok {
		t.Fatalf("expected *ir.Tuple under the cast, got %T", cast.Value)
	}
	if len(tup.Elems) != 2 {
		t.Fatalf("expected (tag, payload), got %d elements", len(tup.Elems))
	}
	tag, ok := tup.Elems[0].(*ir.Lit)
	if !ok || tag.Kind != ir.LitInt || tag.Int != 1 {
		t.Fatalf("expected tag literal 1 for Some, got %#v", tup.Elems[0])
	}
	payload, ok := tup.Elems[1].(*ir.Lit)
	if !ok || payload.Int != 2 {
		t.Fatalf("expected payload literal 2, got %#v", tup.Elems[1])
	}
}

func TestLowerCtorRefNullaryProducesZeroPaddedTaggedTuple(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	noneID, _ := newOption(t, c, schemes)
	m := New(c, schemes)

	noneVar := &surfacir.Variable{Name: "None", Def: noneID}
	node, err := m.lowerCtorRef(noneVar)
	if err != nil {
		t.Fatalf("lowerCtorRef: %v", err)
	}
	cast, ok := node.(*ir.ReinterpretCast)
	if !ok {
		t.Fatalf("expected *ir.ReinterpretCast for a nullary sum constructor, got %T", node)
	}
	if cast.Layout.Size != 1+4 {
		t.Fatalf("expected the same 1+4-byte layout as Some, got size %d", cast.Layout.Size)
	}
	tup, ok := cast.Value.(*ir.Tuple)
	if !ok || len(tup.Elems) != 2 {
		t.Fatalf("expected a (tag, zero-padding) tuple, got %#v", cast.Value)
	}
	tag, ok := tup.Elems[0].(*ir.Lit)
	if !ok || tag.Int != 0 {
		t.Fatalf("expected tag literal 0 for None, got %#v", tup.Elems[0])
	}
	pad, ok := tup.Elems[1].(*ir.Lit)
	if !ok || pad.Kind != ir.LitInt || pad.Width != 32 || pad.Int != 0 {
		t.Fatalf("expected a zero i32 literal padding Some's payload slot, got %#v", tup.Elems[1])
	}
}

func TestLowerCtorRefNAryProducesLambda(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	_, someID := newOption(t, c, schemes)
	m := New(c, schemes)

	someVar := &surfacir.Variable{Name: "Some", Def: someID}
	node, err := m.lowerCtorRef(someVar)
	if err != nil {
		t.Fatalf("lowerCtorRef: %v", err)
	}
	lam, ok := node.(*ir.Lambda)
	if !ok {
		t.Fatalf("expected a bare n-ary constructor reference to lower to *ir.Lambda, got %T", node)
	}
	if len(lam.Params) != 1 {
		t.Fatalf("expected one parameter for Some's single field, got %d", len(lam.Params))
	}
	if _, ok := lam.Body.(*ir.ReinterpretCast); !ok {
		t.Fatalf("expected the lambda body to build the same tagged tuple, got %T", lam.Body)
	}
}

func TestLowerCtorApplicationSingletonStructIsPlainTuple(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	pairID := c.NewDef(cache.DefInfo{Name: "Pair", Kind: cache.DefCtor, Tag: 0})
	infoID := c.NewTypeInfo(cache.TypeInfo{Name: "Pair", IsSum: false, Ctors: []cache.DefID{pairID}})
	info := c.TypeInfo(infoID)
	m := New(c, schemes)

	args := []ir.Node{&ir.Lit{Kind: ir.LitInt, Width: 32, Int: 1}, &ir.Lit{Kind: ir.LitInt, Width: 32, Int: 2}}
	node, err := m.lowerCtorApplication(infoID, info, pairID, args)
	if err != nil {
		t.Fatalf("lowerCtorApplication: %v", err)
	}
	tup, ok := node.(*ir.Tuple)
	if !ok {
		t.Fatalf("expected a plain tuple for a singleton-struct constructor, got %T", node)
	}
	if len(tup.Elems) != 2 {
		t.Fatalf("expected both fields carried through untagged, got %d elements", len(tup.Elems))
	}
}

func TestLowerCtorApplicationNullaryStructIsUnitLiteral(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	unitCtorID := c.NewDef(cache.DefInfo{Name: "Unit", Kind: cache.DefCtor, Tag: 0})
	infoID := c.NewTypeInfo(cache.TypeInfo{Name: "UnitType", IsSum: false, Ctors: []cache.DefID{unitCtorID}})
	info := c.TypeInfo(infoID)
	m := New(c, schemes)

	node, err := m.lowerCtorApplication(infoID, info, unitCtorID, nil)
	if err != nil {
		t.Fatalf("lowerCtorApplication: %v", err)
	}
	lit, ok := node.(*ir.Lit)
	if !ok || lit.Kind != ir.LitUnit {
		t.Fatalf("expected the unit literal for a nullary singleton constructor, got %#v", node)
	}
}

func TestUnionLayoutForMemoises(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	_, someID := newOption(t, c, schemes)
	m := New(c, schemes)

	scheme, _ := schemes.Get(someID)
	fn := scheme.Body.(*types.TFunc)
	infoID, info, ok := m.nominalInfoOf(fn.Return)
	if !ok {
		t.Fatal("expected Some's return type to resolve to a TypeInfo")
	}
	first := m.unionLayoutFor(infoID, info)
	second := m.unionLayoutFor(infoID, info)
	if first != second {
		t.Fatalf("expected a memoised layout to be stable across calls, got %v then %v", first, second)
	}
	if len(m.layouts) != 1 {
		t.Fatalf("expected exactly one cached layout entry, got %d", len(m.layouts))
	}
}
