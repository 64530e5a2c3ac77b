// Package cache implements the compilation cache: the interning tables for
// type variables, definitions, traits, impls and variable occurrences that
// the inference, monomorphisation and refinement passes share instead of
// threading AST-embedded pointers between them.
package cache

import "fmt"

// TypeVarID identifies a type variable in the bindings table.
type TypeVarID uint32

// DefID identifies a definition (binding, extern, constructor, trait member,
// parameter or pattern binding).
type DefID uint32

// TraitID identifies a trait declaration.
type TraitID uint32

// ImplID identifies a trait impl.
type ImplID uint32

// OccID identifies a single variable occurrence site in the AST.
type OccID uint32

// TypeInfoID identifies a user-defined nominal type (struct or sum).
type TypeInfoID uint32

// ConstraintID identifies one trait-constraint obligation.
type ConstraintID uint32

// LifetimeID identifies a lifetime variable attached to a reference type.
type LifetimeID uint32

func (id TypeVarID) String() string   { return fmt.Sprintf("t%d", uint32(id)) }
func (id DefID) String() string       { return fmt.Sprintf("def%d", uint32(id)) }
func (id TraitID) String() string     { return fmt.Sprintf("trait%d", uint32(id)) }
func (id ImplID) String() string      { return fmt.Sprintf("impl%d", uint32(id)) }
func (id OccID) String() string       { return fmt.Sprintf("occ%d", uint32(id)) }
func (id TypeInfoID) String() string  { return fmt.Sprintf("ty%d", uint32(id)) }
func (id ConstraintID) String() string {
	return fmt.Sprintf("ct%d", uint32(id))
}
func (id LifetimeID) String() string { return fmt.Sprintf("'%d", uint32(id)) }
