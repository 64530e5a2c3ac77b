package types

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
)

// Constraint is a trait constraint signature: (trait, ordered argument
// types, constraint id) (spec.md §3 "Trait constraints").
type Constraint struct {
	Trait cache.TraitID
	Args  []Type
	ID    cache.ConstraintID
}

func (c *Constraint) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("trait%d<%v>", uint32(c.Trait), args)
}

// Obligation is a constraint together with the callsite that produced it
// (spec.md §3 "callsite").
type Obligation struct {
	Constraint *Constraint
	Callsite   cache.CallsiteKind
	Occ        cache.OccID
}

// Resolution is the outcome of resolving one obligation against the impl
// table: either a concrete impl, or a forwarded (indirect) reference that
// the monomorphiser must re-specialise at every concrete call
// (spec.md §4.3).
type Resolution struct {
	Obligation *Obligation
	Impl       cache.ImplID // valid when Forwarded is false
	Forwarded  bool         // true when the constraint escaped and must propagate
}

// ResolveError reports an obligation that could not be discharged
// (spec.md §7 "Unresolved trait").
type ResolveError struct {
	Pos     string
	Trait   cache.TraitID
	Args    []Type
	Ambiguous bool
}

func (e *ResolveError) Error() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	if e.Ambiguous {
		return fmt.Sprintf("%s: ambiguous impl: multiple impls match trait%d<%v>", e.Pos, uint32(e.Trait), args)
	}
	return fmt.Sprintf("%s: unresolved trait constraint: trait%d<%v> has no matching impl", e.Pos, uint32(e.Trait), args)
}

// Resolve matches one obligation against the cache's impl table. An
// obligation whose argument types are fully concrete (contain no unbound
// type variable) must find exactly one matching impl; zero matches is a
// fatal ResolveError, more than one is an ambiguous-impl ResolveError (the
// design forbids overlapping instances, spec.md §7). An obligation that
// still mentions an unbound, as-yet-ungeneralised variable is not resolved
// here — it comes back as a Forwarded resolution, and the caller
// (internal/infer, which already split escaping constraints off with
// Generalise) leaves it to the scheme.
func Resolve(c *cache.Cache, pos string, ob *Obligation) (*Resolution, error) {
	concrete := true
	for _, a := range ob.Constraint.Args {
		if hasUnboundVar(c, a) {
			concrete = false
			break
		}
	}
	if !concrete {
		return &Resolution{Obligation: ob, Forwarded: true}, nil
	}

	var match cache.ImplID
	found := 0
	for _, implID := range c.ImplsForTrait(ob.Constraint.Trait) {
		impl := c.Impl(implID)
		if implMatches(c, impl, ob.Constraint.Args) {
			match = implID
			found++
		}
	}
	switch found {
	case 0:
		return nil, &ResolveError{Pos: pos, Trait: ob.Constraint.Trait, Args: ob.Constraint.Args}
	case 1:
		return &Resolution{Obligation: ob, Impl: match}, nil
	default:
		return nil, &ResolveError{Pos: pos, Trait: ob.Constraint.Trait, Args: ob.Constraint.Args, Ambiguous: true}
	}
}

func implMatches(c *cache.Cache, impl *cache.ImplInfo, args []Type) bool {
	if len(impl.Args) != len(args) {
		return false
	}
	for i, ifaceArg := range impl.Args {
		it := ifaceArg.(Type)
		if !typesEqualGround(c, it, args[i]) {
			return false
		}
	}
	return true
}

// typesEqualGround structurally compares two fully-concrete types (used
// only for impl matching, where both sides are already known-ground).
func typesEqualGround(c *cache.Cache, a, b Type) bool {
	a, b = Follow(c, a), Follow(c, b)
	switch av := a.(type) {
	case *TPrim:
		bv, ok := b.(*TPrim)
		return ok && av.Kind == bv.Kind && av.Signed == bv.Signed && av.Width == bv.Width
	case *TNominal:
		bv, ok := b.(*TNominal)
		return ok && av.Info == bv.Info
	case *TApp:
		bv, ok := b.(*TApp)
		if !ok || len(av.Args) != len(bv.Args) || !typesEqualGround(c, av.Ctor, bv.Ctor) {
			return false
		}
		for i := range av.Args {
			if !typesEqualGround(c, av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *TFunc:
		bv, ok := b.(*TFunc)
		if !ok || len(av.Params) != len(bv.Params) || av.Varargs != bv.Varargs {
			return false
		}
		for i := range av.Params {
			if !typesEqualGround(c, av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return typesEqualGround(c, av.Return, bv.Return) && typesEqualGround(c, av.Env, bv.Env)
	case *TRef:
		bv, ok := b.(*TRef)
		return ok && av.Lifetime == bv.Lifetime && typesEqualGround(c, av.Elem, bv.Elem)
	default:
		return false
	}
}

func hasUnboundVar(c *cache.Cache, t Type) bool {
	t = Follow(c, t)
	switch v := t.(type) {
	case *TVar:
		return true
	case *TFunc:
		for _, p := range v.Params {
			if hasUnboundVar(c, p) {
				return true
			}
		}
		return hasUnboundVar(c, v.Return) || hasUnboundVar(c, v.Env)
	case *TApp:
		if hasUnboundVar(c, v.Ctor) {
			return true
		}
		for _, a := range v.Args {
			if hasUnboundVar(c, a) {
				return true
			}
		}
		return false
	case *TRef:
		return hasUnboundVar(c, v.Elem)
	default:
		return false
	}
}
