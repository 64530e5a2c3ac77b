// Package dtree implements the decision-tree construction hook of spec.md
// §4.5: it turns a flat list of match arms into a tree that tests the
// scrutinee's discriminant at most once per constructor/literal, instead of
// the naive linear if-else chain a one-arm-at-a-time lowering would emit.
// Full exhaustiveness checking is out of scope; a non-matching scrutinee at
// runtime reaches FailNode, which the caller is free to treat as
// unreachable.
package dtree

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/surfacir"
)

// DecisionTree is a compiled match: a leaf body, a guaranteed failure, or a
// discriminant test with one subtree per case.
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode is a match with a body to run.
type LeafNode struct {
	ArmIndex int
	Body     ir.Node
	Guard    ir.Node // optional
}

func (l *LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string  { return fmt.Sprintf("Leaf(arm=%d)", l.ArmIndex) }

// FailNode is an unreachable case (spec.md excludes exhaustiveness
// checking, so reaching this at runtime reflects an unchecked source
// program rather than a compiler defect).
type FailNode struct{}

func (f *FailNode) isDecisionTree() {}
func (f *FailNode) String() string  { return "Fail" }

// SwitchNode tests the value at Path against each key in Cases: a
// cache.DefID for a constructor pattern, or the literal's Go value for a
// literal pattern.
type SwitchNode struct {
	Path    []int
	Cases   map[interface{}]DecisionTree
	Default DecisionTree
}

func (s *SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d)", s.Path, len(s.Cases))
}

// Arm is one match arm handed to the compiler: a surface pattern paired
// with its already-lowered body and guard (decision-tree construction
// happens after bodies are lowered to IR, so only pattern shape drives the
// tree).
type Arm struct {
	Pattern surfacir.Pattern
	Guard   ir.Node
	Body    ir.Node
}

// Compiler builds a DecisionTree from a list of arms.
type Compiler struct {
	arms []Arm
}

func NewCompiler(arms []Arm) *Compiler { return &Compiler{arms: arms} }

// Compile builds the tree for the whole arm list, starting at the root
// scrutinee (empty path).
func (c *Compiler) Compile() DecisionTree {
	matrix := make([]matchRow, len(c.arms))
	for i, arm := range c.arms {
		matrix[i] = matchRow{patterns: []surfacir.Pattern{arm.Pattern}, armIndex: i, guard: arm.Guard, body: arm.Body}
	}
	return c.compileMatrix(matrix, nil)
}

// matchRow is one row of the pattern matrix being specialized.
type matchRow struct {
	patterns []surfacir.Pattern
	armIndex int
	guard    ir.Node
	body     ir.Node
}

func (c *Compiler) compileMatrix(matrix []matchRow, path []int) DecisionTree {
	if len(matrix) == 0 {
		return &FailNode{}
	}
	if c.isDefaultRow(matrix[0]) {
		return &LeafNode{ArmIndex: matrix[0].armIndex, Body: matrix[0].body, Guard: matrix[0].guard}
	}
	colIndex := 0
	if colIndex >= len(matrix[0].patterns) {
		return &LeafNode{ArmIndex: matrix[0].armIndex, Body: matrix[0].body, Guard: matrix[0].guard}
	}
	return c.buildSwitch(matrix, path, colIndex)
}

func (c *Compiler) isDefaultRow(row matchRow) bool {
	for _, pat := range row.patterns {
		switch pat.(type) {
		case *surfacir.WildcardPattern, *surfacir.VarPattern:
			continue
		default:
			return false
		}
	}
	return true
}

func (c *Compiler) buildSwitch(matrix []matchRow, path []int, colIndex int) DecisionTree {
	cases := make(map[interface{}][]matchRow)
	var order []interface{}
	var defaultRows []matchRow

	for _, row := range matrix {
		if colIndex >= len(row.patterns) {
			defaultRows = append(defaultRows, row)
			continue
		}
		switch p := row.patterns[colIndex].(type) {
		case *surfacir.LiteralPattern:
			key := literalKey(p.Lit)
			if _, ok := cases[key]; !ok {
				order = append(order, key)
			}
			cases[key] = append(cases[key], row)

		case *surfacir.CtorPattern:
			key := p.Def
			if _, ok := cases[key]; !ok {
				order = append(order, key)
			}
			cases[key] = append(cases[key], row)

		case *surfacir.WildcardPattern, *surfacir.VarPattern:
			defaultRows = append(defaultRows, row)

		default:
			defaultRows = append(defaultRows, row)
		}
	}

	if len(cases) == 0 && len(defaultRows) > 0 {
		return &LeafNode{ArmIndex: defaultRows[0].armIndex, Body: defaultRows[0].body, Guard: defaultRows[0].guard}
	}

	swPath := append(append([]int{}, path...), colIndex)
	sw := &SwitchNode{Path: swPath, Cases: make(map[interface{}]DecisionTree, len(order))}

	for _, key := range order {
		specialized := c.specializeRows(cases[key], colIndex)
		sw.Cases[key] = c.compileMatrix(specialized, swPath)
	}

	if len(defaultRows) > 0 {
		specialized := c.specializeRows(defaultRows, colIndex)
		sw.Default = c.compileMatrix(specialized, swPath)
	} else {
		sw.Default = &FailNode{}
	}
	return sw
}

func literalKey(lit *surfacir.Literal) interface{} {
	switch lit.Kind {
	case surfacir.LitInt:
		return lit.IntVal
	case surfacir.LitBool:
		return lit.BoolVal
	case surfacir.LitChar:
		return lit.CharVal
	case surfacir.LitString:
		return lit.StringVal
	default:
		return nil
	}
}

// specializeRows drops the tested column, expanding a constructor pattern
// into its field subpatterns so deeper columns can be tested in turn.
func (c *Compiler) specializeRows(rows []matchRow, colIndex int) []matchRow {
	result := make([]matchRow, 0, len(rows))
	for _, row := range rows {
		newPatterns := make([]surfacir.Pattern, 0, len(row.patterns))
		for i, pat := range row.patterns {
			if i == colIndex {
				if ctorPat, ok := pat.(*surfacir.CtorPattern); ok {
					newPatterns = append(newPatterns, ctorPat.Fields...)
				}
				continue
			}
			newPatterns = append(newPatterns, pat)
		}
		result = append(result, matchRow{patterns: newPatterns, armIndex: row.armIndex, guard: row.guard, body: row.body})
	}
	return result
}

// CanCompileToTree reports whether arms contain enough testable
// (constructor/literal) patterns for tree compilation to pay off over a
// linear scan.
func CanCompileToTree(arms []Arm) bool {
	count := 0
	for _, a := range arms {
		switch a.Pattern.(type) {
		case *surfacir.LiteralPattern, *surfacir.CtorPattern:
			count++
		}
	}
	return count >= 2
}

// ToIR lowers a one-level-deep DecisionTree (a Switch whose cases and
// default are all Leaf or Fail) into an *ir.Match, using the cache to
// resolve a constructor pattern's cache.DefID key to its runtime tag.
// Deeper trees (produced when a constructor pattern's fields are
// themselves matched by nested constructor/literal patterns) collapse each
// case to its first reachable leaf, since ir.Match tests one discriminant
// against one scrutinee and has no node for a field-projected
// sub-scrutinee; a caller needing full nested-pattern codegen must project
// the field itself before matching.
func ToIR(c *cache.Cache, scrutinee ir.Node, dt DecisionTree) (ir.Node, error) {
	switch t := dt.(type) {
	case *LeafNode:
		return t.Body, nil
	case *FailNode:
		return &ir.Lit{Kind: ir.LitUnit}, nil
	case *SwitchNode:
		cases := make([]ir.MatchCase, 0, len(t.Cases))
		for key, sub := range t.Cases {
			body, err := flattenCase(sub)
			if err != nil {
				return nil, err
			}
			tag, err := tagOf(c, key)
			if err != nil {
				return nil, err
			}
			cases = append(cases, ir.MatchCase{TagTest: tag, Body: body})
		}
		if t.Default != nil {
			if _, isFail := t.Default.(*FailNode); !isFail {
				body, err := flattenCase(t.Default)
				if err != nil {
					return nil, err
				}
				cases = append(cases, ir.MatchCase{TagTest: -1, Body: body})
			}
		}
		return &ir.Match{Scrutinee: scrutinee, Cases: cases}, nil
	default:
		return nil, fmt.Errorf("dtree: unknown decision tree node %T", dt)
	}
}

// flattenCase collapses a case subtree to a single body: it follows one
// of a switch's cases (whichever Go's map iteration yields first, not
// source order), or Default when there are no cases, down to a leaf. This
// is exact for the common single-column match (one pattern per arm, no
// nested constructor fields).
func flattenCase(dt DecisionTree) (ir.Node, error) {
	switch t := dt.(type) {
	case *LeafNode:
		return t.Body, nil
	case *FailNode:
		return &ir.Lit{Kind: ir.LitUnit}, nil
	case *SwitchNode:
		for _, sub := range t.Cases {
			return flattenCase(sub)
		}
		if t.Default != nil {
			return flattenCase(t.Default)
		}
		return &ir.Lit{Kind: ir.LitUnit}, nil
	default:
		return nil, fmt.Errorf("dtree: unknown decision tree node %T", dt)
	}
}

func tagOf(c *cache.Cache, key interface{}) (int, error) {
	switch k := key.(type) {
	case cache.DefID:
		return c.Def(k).Tag, nil
	case int64:
		return int(k), nil
	case bool:
		if k {
			return 1, nil
		}
		return 0, nil
	default:
		// Char- and string-literal keys have no tag mapping; a match on
		// such literals is surfaced as this error rather than a silent
		// miscompile.
		return -1, fmt.Errorf("dtree: no tag mapping for case key %v (%T)", key, key)
	}
}
