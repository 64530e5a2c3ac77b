package dtree

import (
	"testing"

	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/surfacir"
)

func intLit(n int64) *ir.Lit { return &ir.Lit{Kind: ir.LitInt, Int: n} }

func litPattern(b bool) *surfacir.LiteralPattern {
	return &surfacir.LiteralPattern{Lit: &surfacir.Literal{Kind: surfacir.LitBool, BoolVal: b}}
}

// TestDecisionTree_SimpleBoolMatch exercises `match x { true => 1, false => 0 }`.
func TestDecisionTree_SimpleBoolMatch(t *testing.T) {
	arms := []Arm{
		{Pattern: litPattern(true), Body: intLit(1)},
		{Pattern: litPattern(false), Body: intLit(0)},
	}
	tree := NewCompiler(arms).Compile()

	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected *SwitchNode, got %T", tree)
	}
	if len(sw.Cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(sw.Cases))
	}
	if _, ok := sw.Cases[true]; !ok {
		t.Error("missing case for true")
	}
	if _, ok := sw.Cases[false]; !ok {
		t.Error("missing case for false")
	}
}

// TestDecisionTree_WithWildcard exercises `match x { true => 1, _ => 0 }`.
func TestDecisionTree_WithWildcard(t *testing.T) {
	arms := []Arm{
		{Pattern: litPattern(true), Body: intLit(1)},
		{Pattern: &surfacir.WildcardPattern{}, Body: intLit(0)},
	}
	tree := NewCompiler(arms).Compile()

	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected *SwitchNode, got %T", tree)
	}
	if sw.Default == nil {
		t.Error("expected a default branch for the wildcard arm")
	}
	if _, isFail := sw.Default.(*FailNode); isFail {
		t.Error("wildcard arm should not collapse to Fail")
	}
}

// TestDecisionTree_AllWildcards exercises `match x { _ => 42 }`.
func TestDecisionTree_AllWildcards(t *testing.T) {
	arms := []Arm{
		{Pattern: &surfacir.WildcardPattern{}, Body: intLit(42)},
	}
	tree := NewCompiler(arms).Compile()

	leaf, ok := tree.(*LeafNode)
	if !ok {
		t.Fatalf("expected *LeafNode for a wildcard-only match, got %T", tree)
	}
	if leaf.ArmIndex != 0 {
		t.Errorf("expected arm index 0, got %d", leaf.ArmIndex)
	}
}

func TestCanCompileToTree(t *testing.T) {
	tests := []struct {
		name     string
		arms     []Arm
		expected bool
	}{
		{
			name:     "single arm not worth it",
			arms:     []Arm{{Pattern: litPattern(true)}},
			expected: false,
		},
		{
			name: "two wildcards not worth it",
			arms: []Arm{
				{Pattern: &surfacir.WildcardPattern{}},
				{Pattern: &surfacir.WildcardPattern{}},
			},
			expected: false,
		},
		{
			name: "multiple literals worth it",
			arms: []Arm{
				{Pattern: litPattern(true)},
				{Pattern: litPattern(false)},
				{Pattern: &surfacir.WildcardPattern{}},
			},
			expected: true,
		},
		{
			name: "multiple constructors worth it",
			arms: []Arm{
				{Pattern: &surfacir.CtorPattern{Ctor: "Some"}},
				{Pattern: &surfacir.CtorPattern{Ctor: "None"}},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCompileToTree(tt.arms); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestToIR_FlatBoolSwitch confirms a one-level tree lowers to an *ir.Match
// with one case per discriminant, tags resolved via tagOf; the tree's Fail
// default is not emitted as a case.
func TestToIR_FlatBoolSwitch(t *testing.T) {
	arms := []Arm{
		{Pattern: litPattern(true), Body: intLit(1)},
		{Pattern: litPattern(false), Body: intLit(0)},
	}
	tree := NewCompiler(arms).Compile()

	node, err := ToIR(nil, &ir.Var{Name: "x"}, tree)
	if err != nil {
		t.Fatalf("ToIR: %v", err)
	}
	m, ok := node.(*ir.Match)
	if !ok {
		t.Fatalf("expected *ir.Match, got %T", node)
	}
	if len(m.Cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(m.Cases))
	}
}
