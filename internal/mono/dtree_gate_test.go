package mono

import (
	"testing"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/dtree"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// TestLowerMatchUsesLinearSwitchBelowThreshold exercises the CanCompileToTree
// gate directly: a match with a single constructor arm plus a wildcard
// default has fewer than two testable patterns, so lowerMatch must take the
// linearSwitch path rather than the matrix compiler.
func TestLowerMatchUsesLinearSwitchBelowThreshold(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	noneID, _ := newOption(t, c, schemes)
	scrutID := c.NewDef(cache.DefInfo{Name: "opt", Kind: cache.DefNormal})
	m := New(c, schemes)

	arms := []dtree.Arm{
		{Pattern: &surfacir.CtorPattern{Ctor: "None", Def: noneID}, Body: &ir.Lit{Kind: ir.LitInt, Int: 1, Width: 32, Signed: true}},
		{Pattern: &surfacir.WildcardPattern{}, Body: &ir.Lit{Kind: ir.LitInt, Int: 2, Width: 32, Signed: true}},
	}
	if dtree.CanCompileToTree(arms) {
		t.Fatal("test setup expects fewer than two testable patterns")
	}

	tree := linearSwitch(arms)
	sw, ok := tree.(*dtree.SwitchNode)
	if !ok {
		t.Fatalf("expected linearSwitch to build a *dtree.SwitchNode, got %T", tree)
	}
	if _, ok := sw.Cases[noneID]; !ok {
		t.Fatalf("expected a case keyed by None's DefID, got %v", sw.Cases)
	}
	if sw.Default == nil {
		t.Fatal("expected the wildcard arm to populate Default")
	}

	node, err := m.lowerMatch(&surfacir.Match{
		Scrutinee: &surfacir.Variable{Name: "opt", Def: scrutID},
		Arms: []surfacir.MatchArm{
			{Pattern: &surfacir.CtorPattern{Ctor: "None", Def: noneID}, Body: &surfacir.Literal{Kind: surfacir.LitInt, IntVal: 1}},
			{Pattern: &surfacir.WildcardPattern{}, Body: &surfacir.Literal{Kind: surfacir.LitInt, IntVal: 2}},
		},
	})
	if err != nil {
		t.Fatalf("lowerMatch: %v", err)
	}
	if _, ok := node.(*ir.Match); !ok {
		t.Fatalf("expected lowerMatch to still produce *ir.Match via the linear path, got %T", node)
	}
}

func TestCanCompileToTreeAcceptsTwoCtorArms(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()
	noneID, someID := newOption(t, c, schemes)

	arms := []dtree.Arm{
		{Pattern: &surfacir.CtorPattern{Ctor: "None", Def: noneID}, Body: &ir.Lit{Kind: ir.LitInt, Int: 1, Width: 32, Signed: true}},
		{Pattern: &surfacir.CtorPattern{Ctor: "Some", Def: someID}, Body: &ir.Lit{Kind: ir.LitInt, Int: 2, Width: 32, Signed: true}},
	}
	if !dtree.CanCompileToTree(arms) {
		t.Fatal("test setup expects at least two testable patterns")
	}
}
