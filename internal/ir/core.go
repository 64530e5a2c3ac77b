// Package ir is the monomorphisation target: a strictly smaller tree than
// the surface AST, with no type variables, no user-defined nominal types,
// and no reference types (spec.md §6 "Output to the backend").
package ir

import (
	"fmt"
	"strings"
)

// Node is the base interface for every IR expression.
type Node interface {
	ID() uint64
	String() string
	irNode()
}

type node struct {
	NodeID uint64
}

func (n node) ID() uint64 { return n.NodeID }

// LitKind distinguishes the IR's closed set of literal forms.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitChar
	LitBool
	LitUnit
	LitCString
)

// Lit is an IR literal. Signed/Width apply only to LitInt.
type Lit struct {
	node
	Kind   LitKind
	Signed bool
	Width  int
	Int    int64
	Float  float64
	Char   rune
	Bool   bool
	Str    string
}

func (l *Lit) irNode() {}
func (l *Lit) String() string {
	switch l.Kind {
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitFloat:
		return fmt.Sprintf("%g", l.Float)
	case LitChar:
		return fmt.Sprintf("%q", l.Char)
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	case LitCString:
		return fmt.Sprintf("%q", l.Str)
	default:
		return "()"
	}
}

// Tuple is a fixed-arity product value; closures, pattern-desugared
// bindings, and monomorphised sum-type payloads are all tuples
// (spec.md §3 "IR types").
type Tuple struct {
	node
	Elems []Node
}

func (t *Tuple) irNode() {}
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Var references a monomorphised definition by its IR-local name.
type Var struct {
	node
	Name string
}

func (v *Var) irNode()        {}
func (v *Var) String() string { return v.Name }

// Param is one lambda parameter, carrying the mutability flag the surface
// AST attached to it (spec.md §6 "lambda (with explicit parameter
// mutability flags)").
type Param struct {
	Name    string
	Mutable bool
}

// Lambda is a concrete (non-generic) function value. EnvParam is empty for
// a plain function and names the trailing environment parameter of a
// closure's lowered function half
// (spec.md §4.5 "Closure lowering").
type Lambda struct {
	node
	Params []Param
	EnvParam string // empty when this lambda does not close over anything
	Body   Node
}

func (l *Lambda) irNode() {}
func (l *Lambda) String() string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("fn(%s) -> %s", strings.Join(names, ", "), l.Body)
}

// Def binds Name to Value at the top level, per the monomorphisation
// cache's Normal/Mutable/Macro forms (spec.md §3 "Monomorphisation
// cache"). Mutable defs are accessed through implicit loads/stores.
type Def struct {
	node
	Name    string
	Value   Node
	Mutable bool
	// Given carries this definition's lowered refinement preconditions,
	// asserted at the function's call site by the refinement bridge
	// (spec.md §4.6).
	Given []Node
}

func (d *Def) irNode()        {}
func (d *Def) String() string { return fmt.Sprintf("def %s = %s", d.Name, d.Value) }

// Call is a direct function application. For a closure call site the
// monomorphiser appends the environment as the trailing argument
// (spec.md §4.5).
type Call struct {
	node
	Fn   Node
	Args []Node
}

func (c *Call) irNode() {}
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Fn, strings.Join(parts, ", "))
}

// If is a monomorphic conditional.
type If struct {
	node
	Cond, Then, Else Node
}

func (i *If) irNode() {}
func (i *If) String() string {
	return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else)
}

// MatchCase is one arm of a lowered Match: a decision-tree-compiled test
// index plus the arm body (internal/dtree supplies the test index).
type MatchCase struct {
	TagTest int // -1 for an always-matching default arm
	Body    Node
}

// Match is a lowered pattern match, already reduced to the decision
// tree's tag-test form; no IR node carries a surface pattern.
type Match struct {
	node
	Scrutinee Node
	Cases     []MatchCase
}

func (m *Match) irNode()        {}
func (m *Match) String() string { return fmt.Sprintf("match %s { %d cases }", m.Scrutinee, len(m.Cases)) }

// Return unwinds the enclosing Lambda with Expr's value.
type Return struct {
	node
	Expr Node
}

func (r *Return) irNode()        {}
func (r *Return) String() string { return fmt.Sprintf("return %s", r.Expr) }

// MemberAccess projects FieldIndex out of a tuple value (member access
// resolves to a fixed field index at monomorphisation time; no row
// constraint survives into the IR).
type MemberAccess struct {
	node
	Collection Node
	FieldIndex int
}

func (m *MemberAccess) irNode() {}
func (m *MemberAccess) String() string {
	return fmt.Sprintf("%s.%d", m.Collection, m.FieldIndex)
}

// Sequence evaluates Stmts in order for effect; the last element's value
// escapes.
type Sequence struct {
	node
	Stmts []Node
}

func (s *Sequence) irNode() {}
func (s *Sequence) String() string {
	parts := make([]string, len(s.Stmts))
	for i, st := range s.Stmts {
		parts[i] = st.String()
	}
	return strings.Join(parts, "; ")
}

// Extern references a foreign binding by its linker-visible name.
type Extern struct {
	node
	Name string
}

func (e *Extern) irNode()        {}
func (e *Extern) String() string { return "extern " + e.Name }

// Assignment stores Value through an l-value address.
type Assignment struct {
	node
	Addr  Node
	Value Node
}

func (a *Assignment) irNode()        {}
func (a *Assignment) String() string { return fmt.Sprintf("%s := %s", a.Addr, a.Value) }

// Builtin is one of the fixed set of monomorphisation-time intrinsics
// (spec.md §4.5 "Built-in operators", §6): arithmetic by signedness and
// width, comparisons, casts, deref, offset, transmute, stack-alloc.
type Builtin int

const (
	AddInt Builtin = iota
	SubInt
	MulInt
	DivInt
	AddFloat
	SubFloat
	MulFloat
	DivFloat
	LessInt
	LessFloat
	EqInt
	EqFloat
	EqBool
	SignExtend
	ZeroExtend
	Truncate
	Deref
	Offset
	Transmute
	StackAlloc
)

func (b Builtin) String() string {
	names := [...]string{
		"AddInt", "SubInt", "MulInt", "DivInt",
		"AddFloat", "SubFloat", "MulFloat", "DivFloat",
		"LessInt", "LessFloat", "EqInt", "EqFloat", "EqBool",
		"SignExtend", "ZeroExtend", "Truncate",
		"Deref", "Offset", "Transmute", "StackAlloc",
	}
	if int(b) < 0 || int(b) >= len(names) {
		return "UnknownBuiltin"
	}
	return names[b]
}

// BuiltinCall is a call to a fixed intrinsic. Width/Signed apply to the
// arithmetic/comparison/extension ops.
type BuiltinCall struct {
	node
	Op     Builtin
	Signed bool
	Width  int
	Args   []Node
}

func (b *BuiltinCall) irNode() {}
func (b *BuiltinCall) String() string {
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", b.Op, strings.Join(parts, ", "))
}

// ReinterpretCast reinterprets Value as Layout, used to fold a
// freshly-built tagged-union tuple down to its fixed-size representation
// (spec.md §4.5 "Tagged-union layout").
type ReinterpretCast struct {
	node
	Value  Node
	Layout UnionLayout
}

func (r *ReinterpretCast) irNode() {}
func (r *ReinterpretCast) String() string {
	return fmt.Sprintf("reinterpret<%d bytes>(%s)", r.Layout.Size, r.Value)
}

// UnionLayout is the fixed-size representation of a monomorphised sum
// type: one tag byte plus the largest variant's field sizes.
type UnionLayout struct {
	Size int // total bytes, including the tag
}

// Program is the complete monomorphised output: the root definitions
// reachable from the entry point, in the order they were first demanded.
type Program struct {
	Defs []*Def
}

func (p *Program) Pretty() string {
	var b strings.Builder
	for _, d := range p.Defs {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
