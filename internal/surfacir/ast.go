// Package surfacir defines the surface AST that the parser/resolver hands
// to the type checker: a tagged tree whose variants cover literal,
// variable, lambda, call, definition, if, match, type definition, type
// annotation, import, trait definition, trait impl, return, sequence,
// extern, member access, and assignment nodes.
package surfacir

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
)

// Pos is a source location, carried on every node for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Node is the common interface implemented by every AST variant.
type Node interface {
	Position() Pos
	// TypeSlot returns the pointer to this node's inference result slot,
	// populated by the inference pass and consumed by everything downstream.
	TypeSlot() *Slot
}

// Slot is a node's optional type-result slot (spec.md §6: "every AST node
// has an optional type slot"). It is filled in once, by the inference
// pass, and never mutated again.
type Slot struct {
	Type interface{} // a types.Type, stored as interface{} to avoid an import cycle
	Set  bool
}

func (s *Slot) Fill(t interface{}) {
	s.Type = t
	s.Set = true
}

type base struct {
	Pos   Pos
	TSlot Slot
}

func (b *base) Position() Pos  { return b.Pos }
func (b *base) TypeSlot() *Slot { return &b.TSlot }

// Module is a parsed translation unit.
type Module struct {
	base
	Path    string
	Imports []*Import
	Defs    []*Definition
	Types   []*TypeDef
	Traits  []*TraitDef
	Impls   []*TraitImpl
}

// Import names a module to bring into scope.
type Import struct {
	base
	Path    string
	Symbols []string
}

// LiteralKind distinguishes literal forms.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitChar
	LitBool
	LitUnit
	LitString
)

// Literal is a constant value. An untyped LitInt carries no Width/Signed
// annotation; typed integer literals set Annotated.
type Literal struct {
	base
	Kind      LiteralKind
	IntVal    int64
	FloatVal  float64
	CharVal   rune
	BoolVal   bool
	StringVal string
	Annotated bool
	Signed    bool
	Width     int
}

// Variable is a name reference, resolved by the parser/resolver to a
// definition id and (for polymorphic impl dispatch) an impl-scope id.
type Variable struct {
	base
	Name      string
	Def       cache.DefID
	ImplScope int
	// Occ is filled in by inference: the occurrence id under which the
	// instantiation substitution is recorded.
	Occ cache.OccID
}

// Param is one lambda/definition parameter.
type Param struct {
	Name    string
	Def     cache.DefID
	Mutable bool
	Annot   TypeExpr // optional, nil if absent
}

// Lambda is an anonymous function literal. ClosureEnv lists the free
// variables captured from the enclosing scope, per spec.md §6's "lambda
// (with explicit closure environment map)".
type Lambda struct {
	base
	Params     []Param
	Body       Node
	ClosureEnv map[string]cache.DefID
}

// Call is a function application.
type Call struct {
	base
	Fn   Node
	Args []Node
}

// Definition binds a pattern to the value of an expression, at a given
// let binding level, optionally as a mutable cell.
type Definition struct {
	base
	Pattern Pattern
	RHS     Node
	Mutable bool
	Level   int
	Def     cache.DefID
	// Required lists the trait constraints this definition is declared
	// with (spec.md §3 "Definitions").
	Required []cache.TraitID
	// Given lists refinement preconditions attached to this definition;
	// the refinement bridge asserts them at the function's call site
	// (spec.md §4.6 "`given` clauses on definitions become preconditions").
	Given []Node
}

// If is a conditional. Else is nil when no else-branch was written, in
// which case inference forces the then-branch to unit.
type If struct {
	base
	Cond Node
	Then Node
	Else Node
}

// MatchArm is one scrutinee-pattern/body pair of a Match.
type MatchArm struct {
	Pattern Pattern
	Guard   Node // optional, nil if absent
	Body    Node
}

// Match dispatches on the shape of Scrutinee.
type Match struct {
	base
	Scrutinee Node
	Arms      []MatchArm
}

// TypeAnnotation asserts that Expr has type Annot.
type TypeAnnotation struct {
	base
	Expr  Node
	Annot TypeExpr
}

// MemberAccess is `.field` projection, resolved via a compiler-synthesised
// row constraint (spec.md §4.4 "Member access").
type MemberAccess struct {
	base
	Collection Node
	Field      string
}

// Assignment is `lhs = rhs`; LHS must be structurally mutable.
type Assignment struct {
	base
	LHS Node
	RHS Node
}

// Return unwinds with the value of Expr. Per spec.md §9 this never
// constrains the enclosing function's return type.
type Return struct {
	base
	Expr Node
}

// Sequence is a semicolon-joined list of statements evaluated for effect,
// with the final element's value escaping.
type Sequence struct {
	base
	Stmts []Node
}

// Extern declares a foreign binding. Externs are global and never
// duplicated across modules (spec.md §3 "Definitions").
type Extern struct {
	base
	Name string
	Def  cache.DefID
	Sig  TypeExpr
}

// TypeExpr is the surface syntax for a type, used in annotations and
// extern signatures, before inference resolves it to a types.Type.
type TypeExpr interface {
	Position() Pos
	typeExprNode()
}

type typeExprBase struct{ Pos Pos }

func (b typeExprBase) Position() Pos { return b.Pos }
func (typeExprBase) typeExprNode()   {}

// NamedType is a bare type-constructor reference, e.g. `i32` or `Option`.
type NamedType struct {
	typeExprBase
	Name string
}

// AppType is a type-constructor application, e.g. `Option a`.
type AppType struct {
	typeExprBase
	Ctor TypeExpr
	Args []TypeExpr
}

// FuncType is a function-type annotation.
type FuncType struct {
	typeExprBase
	Params  []TypeExpr
	Return  TypeExpr
	Varargs bool
}

// RefType is a `&T` reference-type annotation.
type RefType struct {
	typeExprBase
	Elem TypeExpr
}

// Field is one named, typed field of a constructor clause. FieldName is
// empty for a positional (tuple-style) constructor field.
type Field struct {
	FieldName string
	Type      TypeExpr
}

// CtorDecl is one constructor clause of a TypeDef.
type CtorDecl struct {
	Name   string
	Fields []Field
	Def    cache.DefID
}

// TypeDef declares a nominal type: a struct (single ctor, named fields)
// or a sum (multiple ctors).
type TypeDef struct {
	base
	Name   string
	Params []string
	Ctors  []CtorDecl
	Info   cache.TypeInfoID
}

// TraitDef declares a trait with its type parameters and member
// signatures.
type TraitDef struct {
	base
	Name    string
	Arity   int
	Members []string
	Trait   cache.TraitID
}

// TraitImpl implements a trait for a concrete argument-type list.
type TraitImpl struct {
	base
	Trait TypeExpr
	Args  []TypeExpr
	Defs  []*Definition
	Impl  cache.ImplID
}

// Pattern is the surface syntax for irrefutable and refutable bindings.
type Pattern interface {
	Position() Pos
	patternNode()
}

type patternBase struct{ Pos Pos }

func (b patternBase) Position() Pos { return b.Pos }
func (patternBase) patternNode()    {}

// VarPattern binds the matched value to a fresh name.
type VarPattern struct {
	patternBase
	Name string
	Def  cache.DefID
}

// WildcardPattern discards the matched value.
type WildcardPattern struct {
	patternBase
}

// TuplePattern destructures a tuple positionally.
type TuplePattern struct {
	patternBase
	Elems []Pattern
}

// AnnotPattern is `pat : T`.
type AnnotPattern struct {
	patternBase
	Inner Pattern
	Annot TypeExpr
}

// CtorPattern matches a nominal-type constructor and destructures its
// fields; refutable, valid only inside Match arms.
type CtorPattern struct {
	patternBase
	Ctor   string
	Def    cache.DefID
	Fields []Pattern
}

// LiteralPattern matches an exact literal value; refutable.
type LiteralPattern struct {
	patternBase
	Lit *Literal
}

// IsIrrefutable reports whether p is one of the irrefutable pattern forms
// (variable, wildcard, tuple, annotation) that spec.md §7 requires for
// definition-site bindings.
func IsIrrefutable(p Pattern) bool {
	switch v := p.(type) {
	case *VarPattern, *WildcardPattern:
		return true
	case *AnnotPattern:
		return IsIrrefutable(v.Inner)
	case *TuplePattern:
		for _, e := range v.Elems {
			if !IsIrrefutable(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
