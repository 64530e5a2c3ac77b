package refine

import (
	"strings"
	"testing"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/types"
)

func intParam(name string) ir.Param { return ir.Param{Name: name} }

func varNode(name string) *ir.Var { return &ir.Var{Name: name} }

// TestEncodeProgram_BuiltinArithmetic exercises `double x = x + x`,
// confirming the builtin maps to SMT `+` and the function gets a
// recursive-equation assertion.
func TestEncodeProgram_BuiltinArithmetic(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()

	def := &ir.Def{
		Name: "double",
		Value: &ir.Lambda{
			Params: []ir.Param{intParam("x")},
			Body:   &ir.BuiltinCall{Op: ir.AddInt, Args: []ir.Node{varNode("x"), varNode("x")}},
		},
	}
	prog := &ir.Program{Defs: []*ir.Def{def}}
	defTypes := map[string]types.Type{
		"double": &types.TFunc{Params: []types.Type{types.Int32}, Return: types.Int32, Env: types.Unit},
	}

	out, err := EncodeProgram(c, schemes, defTypes, prog)
	if err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}
	if !strings.Contains(out, "(declare-fun double (Int) Int)") {
		t.Errorf("expected a declare-fun for double, got:\n%s", out)
	}
	if !strings.Contains(out, "(+ x x)") {
		t.Errorf("expected builtin AddInt to lower to (+ x x), got:\n%s", out)
	}
	if !strings.Contains(out, "(assert (forall") {
		t.Errorf("expected a defining equation assertion, got:\n%s", out)
	}
}

// TestEncodeProgram_ImpureBodySkipsAssertion confirms a definition whose
// body cannot be purely translated still gets a declaration (so other
// functions can reference it as an uninterpreted symbol) but no defining
// equation, per spec.md §4.6's impurity poisoning.
func TestEncodeProgram_ImpureBodySkipsAssertion(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()

	def := &ir.Def{
		Name: "poke",
		Value: &ir.Lambda{
			Params: []ir.Param{intParam("p")},
			Body:   &ir.Assignment{Addr: varNode("p"), Value: &ir.Lit{Kind: ir.LitInt, Int: 1}},
		},
	}
	prog := &ir.Program{Defs: []*ir.Def{def}}
	defTypes := map[string]types.Type{
		"poke": &types.TFunc{Params: []types.Type{types.Int32}, Return: types.Unit, Env: types.Unit},
	}

	out, err := EncodeProgram(c, schemes, defTypes, prog)
	if err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}
	if !strings.Contains(out, "(declare-fun poke") {
		t.Errorf("expected a declare-fun for poke even though its body is impure, got:\n%s", out)
	}
	if strings.Contains(out, "poke x") || strings.Contains(out, "(= (poke") {
		t.Errorf("an impure body must not get a defining equation, got:\n%s", out)
	}
}

// TestEncodeProgram_GivenClauseAssertsAtCallSite exercises spec.md §4.6's
// "`given` clauses on definitions become preconditions asserted at the
// function's call site".
func TestEncodeProgram_GivenClauseAssertsAtCallSite(t *testing.T) {
	c := cache.New()
	schemes := types.NewSchemeTable()

	positive := &ir.BuiltinCall{Op: ir.LessInt, Args: []ir.Node{&ir.Lit{Kind: ir.LitInt, Int: 0}, varNode("x")}}
	safeDiv := &ir.Def{
		Name:  "safeDiv",
		Given: []ir.Node{positive},
		Value: &ir.Lambda{
			Params: []ir.Param{intParam("x")},
			Body:   &ir.BuiltinCall{Op: ir.DivInt, Args: []ir.Node{&ir.Lit{Kind: ir.LitInt, Int: 10}, varNode("x")}},
		},
	}
	caller := &ir.Def{
		Name: "caller",
		Value: &ir.Lambda{
			Params: nil,
			Body:   &ir.Call{Fn: varNode("safeDiv"), Args: []ir.Node{&ir.Lit{Kind: ir.LitInt, Int: 2}}},
		},
	}
	prog := &ir.Program{Defs: []*ir.Def{safeDiv, caller}}
	defTypes := map[string]types.Type{
		"safeDiv": &types.TFunc{Params: []types.Type{types.Int32}, Return: types.Int32, Env: types.Unit},
		"caller":  &types.TFunc{Params: nil, Return: types.Int32, Env: types.Unit},
	}

	out, err := EncodeProgram(c, schemes, defTypes, prog)
	if err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}
	if !strings.Contains(out, "safeDiv$pre") {
		t.Errorf("expected a safeDiv$pre precondition predicate, got:\n%s", out)
	}
	if !strings.Contains(out, "(assert (safeDiv$pre 2))") {
		t.Errorf("expected the precondition asserted at the call site with the actual argument, got:\n%s", out)
	}
}
