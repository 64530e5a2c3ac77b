package mono

import (
	"sort"
	"testing"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/surfacir"
)

func TestCallGraphSCCsFindsMutualRecursionCycle(t *testing.T) {
	g := NewCallGraph()
	var isEven, isOdd cache.DefID = 1, 2
	g.AddEdge(isEven, isOdd)
	g.AddEdge(isOdd, isEven)

	sccs := g.SCCs()
	var group []cache.DefID
	for _, scc := range sccs {
		if len(scc) > 1 {
			group = scc
		}
	}
	if group == nil {
		t.Fatalf("expected a size >= 2 SCC for a mutual-recursion cycle, got %v", sccs)
	}
	sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
	if len(group) != 2 || group[0] != isEven || group[1] != isOdd {
		t.Fatalf("expected the cycle's two members grouped together, got %v", group)
	}
}

func TestCallGraphSCCsKeepsUnrelatedDefsSeparate(t *testing.T) {
	g := NewCallGraph()
	var a, b cache.DefID = 1, 2
	g.AddNode(a)
	g.AddNode(b)

	for _, scc := range g.SCCs() {
		if len(scc) > 1 {
			t.Fatalf("expected no multi-member SCC for unrelated defs, got %v", scc)
		}
	}
}

func TestBuildSCCGroupsPopulatesEveryMember(t *testing.T) {
	m := New(cache.New(), nil)
	var isEven, isOdd, unrelated cache.DefID = 1, 2, 3
	m.defsByID[isEven] = &surfacir.Definition{RHS: &surfacir.Variable{Name: "isOdd", Def: isOdd}}
	m.defsByID[isOdd] = &surfacir.Definition{RHS: &surfacir.Variable{Name: "isEven", Def: isEven}}
	m.defsByID[unrelated] = &surfacir.Definition{RHS: &surfacir.Literal{Kind: surfacir.LitInt, IntVal: 0}}

	m.buildSCCGroups()

	if len(m.sccGroups[isEven]) != 2 || len(m.sccGroups[isOdd]) != 2 {
		t.Fatalf("expected both cycle members to carry the 2-member group, got %v / %v", m.sccGroups[isEven], m.sccGroups[isOdd])
	}
	if _, ok := m.sccGroups[unrelated]; ok {
		t.Fatalf("expected an unrelated def to have no SCC group, got %v", m.sccGroups[unrelated])
	}
}
