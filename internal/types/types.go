// Package types implements the type term representation of spec.md §3:
// primitives, function types, nominal types, type applications, type
// variables and reference types, plus the sparse-binding union-find over
// type variables (unification.go), generalisation and instantiation
// (scheme.go), and the trait constraint machinery of spec.md §4.3
// (constraints.go).
package types

import (
	"fmt"
	"strings"

	"github.com/locriacyber/ante/internal/cache"
)

// Type is any type term. Implementations are small value-like structs;
// equality and traversal go through Follow (unification.go), never raw struct
// comparison, since a TVar may be bound.
type Type interface {
	isType()
	String() string
}

// PrimKind enumerates the primitive type shapes of spec.md §3.
type PrimKind int

const (
	PInt PrimKind = iota
	PFloat
	PChar
	PBool
	PUnit
	PRawPtr
)

// TPrim is a primitive type: an integer of specified signedness and width,
// a float, char, bool, unit, or raw pointer.
type TPrim struct {
	Kind   PrimKind
	Signed bool // meaningful only when Kind == PInt
	Width  int  // bits; meaningful only when Kind == PInt
}

func (*TPrim) isType() {}

func (t *TPrim) String() string {
	switch t.Kind {
	case PInt:
		sign := "i"
		if !t.Signed {
			sign = "u"
		}
		return fmt.Sprintf("%s%d", sign, t.Width)
	case PFloat:
		return "float"
	case PChar:
		return "char"
	case PBool:
		return "bool"
	case PUnit:
		return "()"
	case PRawPtr:
		return "rawptr"
	default:
		return "?prim"
	}
}

// Common primitives. Int32 is the default target of integer-kind
// defaulting (spec.md §4.3, §9).
var (
	Int32 = &TPrim{Kind: PInt, Signed: true, Width: 32}
	Bool  = &TPrim{Kind: PBool}
	Unit  = &TPrim{Kind: PUnit}
	Float = &TPrim{Kind: PFloat}
	Char  = &TPrim{Kind: PChar}
)

// IntOfWidth returns the primitive integer type of a given signedness and width.
func IntOfWidth(signed bool, width int) *TPrim {
	return &TPrim{Kind: PInt, Signed: signed, Width: width}
}

// TFunc is a function type: an ordered parameter list, a return type, a
// closure environment type (Unit when not a closure), and a varargs flag.
type TFunc struct {
	Params  []Type
	Return  Type
	Env     Type
	Varargs bool
}

func (*TFunc) isType() {}

func (t *TFunc) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	variadic := ""
	if t.Varargs {
		variadic = ", ..."
	}
	env := ""
	if !isUnit(t.Env) {
		env = fmt.Sprintf(" [env=%s]", t.Env)
	}
	return fmt.Sprintf("(%s%s) -> %s%s", strings.Join(parts, ", "), variadic, t.Return, env)
}

func isUnit(t Type) bool {
	p, ok := t.(*TPrim)
	return ok && p.Kind == PUnit
}

// TNominal is a user-defined nominal type identified by a type-info id.
type TNominal struct {
	Info cache.TypeInfoID
	Name string // cached display name
}

func (*TNominal) isType()      {}
func (t *TNominal) String() string { return t.Name }

// TApp is a type application of a constructor type to an ordered argument list.
type TApp struct {
	Ctor Type
	Args []Type
}

func (*TApp) isType() {}

func (t *TApp) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Ctor, strings.Join(args, ", "))
}

// TVar is a type variable identified by a type-variable id. Its binding
// state lives in the cache, not in this struct.
type TVar struct {
	ID cache.TypeVarID
}

func (*TVar) isType()      {}
func (t *TVar) String() string { return t.ID.String() }

// TRef is a reference type carrying a single lifetime variable id.
type TRef struct {
	Lifetime cache.LifetimeID
	Elem     Type
}

func (*TRef) isType()      {}
func (t *TRef) String() string { return fmt.Sprintf("&'%d %s", uint32(t.Lifetime), t.Elem) }

// IsTypeVar reports whether t is (syntactically, before Follow) a TVar.
func IsTypeVar(t Type) bool {
	_, ok := t.(*TVar)
	return ok
}

// Mono is a monotype: any Type not wrapped in quantifiers.
type Mono = Type

// Scheme is a generalised type: a polytype, a set of quantified type
// variable ids plus a monotype body (spec.md §3 "Generalised types").
type Scheme struct {
	Quantifiers []cache.TypeVarID
	Body        Type
	// Constraints carries the trait obligations attached to the
	// quantified variables, propagated out of the defining RHS
	// (spec.md §4.3). Each constraint's argument types are expressed in
	// terms of the quantifiers above.
	Constraints []*Constraint
}

// IsMonotype reports whether a scheme has no quantifiers (spec.md §3:
// "If empty, keep a monotype").
func (s *Scheme) IsMonotype() bool { return len(s.Quantifiers) == 0 }

func (s *Scheme) String() string {
	if s.IsMonotype() {
		return s.Body.String()
	}
	names := make([]string, len(s.Quantifiers))
	for i, q := range s.Quantifiers {
		names[i] = q.String()
	}
	prefix := fmt.Sprintf("forall %s. ", strings.Join(names, " "))
	if len(s.Constraints) > 0 {
		cs := make([]string, len(s.Constraints))
		for i, c := range s.Constraints {
			cs[i] = c.String()
		}
		prefix += fmt.Sprintf("(%s) => ", strings.Join(cs, ", "))
	}
	return prefix + s.Body.String()
}

// MonoScheme wraps a bare monotype as a (non-generalised) scheme.
func MonoScheme(t Type) *Scheme {
	return &Scheme{Body: t}
}
