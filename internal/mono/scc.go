// Package mono implements the monomorphisation pass of spec.md §4.5: a
// demand-driven walk from the entry point that lowers the polymorphic,
// trait-constrained surface AST into the concrete, generics-free IR of
// internal/ir.
package mono

import (
	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/surfacir"
)

// CallGraph is a dependency graph between definitions, used to detect
// mutually recursive groups before monomorphisation so that a cyclic
// reference resolves through a placeholder rather than looping forever.
type CallGraph struct {
	nodes   []cache.DefID
	edges   map[cache.DefID][]cache.DefID
	nodeSet map[cache.DefID]bool
}

func NewCallGraph() *CallGraph {
	return &CallGraph{edges: make(map[cache.DefID][]cache.DefID), nodeSet: make(map[cache.DefID]bool)}
}

func (g *CallGraph) AddNode(id cache.DefID) {
	if !g.nodeSet[id] {
		g.nodes = append(g.nodes, id)
		g.nodeSet[id] = true
	}
}

func (g *CallGraph) AddEdge(caller, callee cache.DefID) {
	g.AddNode(caller)
	g.AddNode(callee)
	g.edges[caller] = append(g.edges[caller], callee)
}

// SCCs computes strongly connected components via Tarjan's algorithm. A
// component of size > 1 is a mutually-recursive group that the
// monomorphiser seeds with placeholders before compiling any member's
// body (spec.md §9 "Cyclic references"); a single self-recursive
// definition is not grouped, its own placeholder already resolving the
// recursive reference.
func (g *CallGraph) SCCs() [][]cache.DefID {
	index := 0
	var stack []cache.DefID
	indices := make(map[cache.DefID]int)
	lowlinks := make(map[cache.DefID]int)
	onStack := make(map[cache.DefID]bool)
	var sccs [][]cache.DefID

	var strongconnect func(cache.DefID)
	strongconnect = func(v cache.DefID) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				lowlinks[v] = minInt(lowlinks[v], lowlinks[w])
			} else if onStack[w] {
				lowlinks[v] = minInt(lowlinks[v], indices[w])
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []cache.DefID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.nodes {
		if _, ok := indices[n]; !ok {
			strongconnect(n)
		}
	}
	return sccs
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// buildSCCGroups scans every top-level definition's RHS for references to
// other top-level definitions, builds the static call graph those edges
// describe, and records each non-trivial SCC (size >= 2) in m.sccGroups
// keyed by every one of its members, so monomorphiseDef can seed the whole
// group's placeholders before compiling any one member's body (spec.md §9
// "Cyclic references").
func (m *Monomorphizer) buildSCCGroups() {
	g := NewCallGraph()
	for id, d := range m.defsByID {
		g.AddNode(id)
		collectCallees(d.RHS, m.defsByID, func(callee cache.DefID) {
			g.AddEdge(id, callee)
		})
		for _, given := range d.Given {
			collectCallees(given, m.defsByID, func(callee cache.DefID) {
				g.AddEdge(id, callee)
			})
		}
	}
	for _, scc := range g.SCCs() {
		if len(scc) < 2 {
			continue
		}
		for _, id := range scc {
			m.sccGroups[id] = scc
		}
	}
}

// collectCallees walks n, reporting every Variable reference that resolves
// to a definition present in defsByID (i.e. another top-level def, rather
// than a local parameter or builtin).
func collectCallees(n surfacir.Node, defsByID map[cache.DefID]*surfacir.Definition, report func(cache.DefID)) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *surfacir.Variable:
		if _, ok := defsByID[v.Def]; ok {
			report(v.Def)
		}
	case *surfacir.Lambda:
		collectCallees(v.Body, defsByID, report)
	case *surfacir.Call:
		collectCallees(v.Fn, defsByID, report)
		for _, a := range v.Args {
			collectCallees(a, defsByID, report)
		}
	case *surfacir.Definition:
		collectCallees(v.RHS, defsByID, report)
		for _, g := range v.Given {
			collectCallees(g, defsByID, report)
		}
	case *surfacir.If:
		collectCallees(v.Cond, defsByID, report)
		collectCallees(v.Then, defsByID, report)
		collectCallees(v.Else, defsByID, report)
	case *surfacir.Match:
		collectCallees(v.Scrutinee, defsByID, report)
		for _, arm := range v.Arms {
			collectCallees(arm.Guard, defsByID, report)
			collectCallees(arm.Body, defsByID, report)
		}
	case *surfacir.TypeAnnotation:
		collectCallees(v.Expr, defsByID, report)
	case *surfacir.MemberAccess:
		collectCallees(v.Collection, defsByID, report)
	case *surfacir.Assignment:
		collectCallees(v.LHS, defsByID, report)
		collectCallees(v.RHS, defsByID, report)
	case *surfacir.Return:
		collectCallees(v.Expr, defsByID, report)
	case *surfacir.Sequence:
		for _, s := range v.Stmts {
			collectCallees(s, defsByID, report)
		}
	}
}
