// Package sample builds a small, self-contained surfacir.Module that
// exercises the full infer -> mono -> refine pipeline without depending
// on a parser (spec.md's Non-goals exclude parsing; the driver CLI in
// cmd/antec demonstrates the pipeline against this structurally-built
// program rather than reading .an source text).
package sample

import "github.com/locriacyber/ante/internal/surfacir"

// Program returns `id x = x; main = id(42)`, the let-polymorphism
// scenario spec.md §8 uses to motivate generalisation: `id` is checked
// once, polymorphically, and monomorphisation emits one concrete IR
// lambda for its use at Int.
func Program() *surfacir.Module {
	idLambda := &surfacir.Lambda{
		Params: []surfacir.Param{{Name: "x"}},
		Body:   &surfacir.Variable{Name: "x"},
	}
	idDef := &surfacir.Definition{
		Pattern: &surfacir.VarPattern{Name: "id"},
		RHS:     idLambda,
	}

	mainCall := &surfacir.Call{
		Fn:   &surfacir.Variable{Name: "id"},
		Args: []surfacir.Node{&surfacir.Literal{Kind: surfacir.LitInt, IntVal: 42}},
	}
	mainDef := &surfacir.Definition{
		Pattern: &surfacir.VarPattern{Name: "main"},
		RHS:     mainCall,
	}

	return &surfacir.Module{Defs: []*surfacir.Definition{idDef, mainDef}}
}

// EntryPoint names Program's root definition for mono.Monomorphizer.Run.
const EntryPoint = "main"
