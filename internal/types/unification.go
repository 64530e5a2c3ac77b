package types

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
)

// Follow resolves a type variable's binding chain to its current value,
// transitively, bounding the number of hops at cache.MaxBindingChain
// (spec.md §3: "enforce a fixed recursion bound ... and fail loudly if
// exceeded, as this indicates a corrupted cyclic binding").
func Follow(c *cache.Cache, t Type) Type {
	hops := 0
	for {
		tv, ok := t.(*TVar)
		if !ok {
			return t
		}
		b := c.Lookup(tv.ID)
		if !b.Bound {
			return t
		}
		hops++
		if hops > cache.MaxBindingChain {
			panic(fmt.Sprintf("types: binding chain exceeded %d hops at %s; cache is corrupted", cache.MaxBindingChain, tv.ID))
		}
		t = b.Type.(Type)
	}
}

// UnifyError is a diagnostic carrying a source location, returned by a
// failed Unify (spec.md §4.1).
type UnifyError struct {
	Pos     string
	Message string
}

func (e *UnifyError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

func mismatch(pos string, t1, t2 Type) error {
	return &UnifyError{Pos: pos, Message: fmt.Sprintf("type mismatch: cannot unify %s with %s", t1, t2)}
}

// Bindings accumulates speculative variable bindings and level-lowerings
// during a single Unify call. Nothing here touches the cache until the
// caller calls Commit — this is what lets impl resolution try candidates
// speculatively (spec.md §4.1: "Bindings are not committed to the cache
// until the caller commits the accumulator").
type Bindings struct {
	c       *cache.Cache
	binds   map[cache.TypeVarID]Type
	lowers  map[cache.TypeVarID]int
}

// NewBindings creates an empty accumulator bound to a cache.
func NewBindings(c *cache.Cache) *Bindings {
	return &Bindings{c: c, binds: make(map[cache.TypeVarID]Type), lowers: make(map[cache.TypeVarID]int)}
}

// Commit writes every accumulated binding and level-lowering into the cache.
func (b *Bindings) Commit() {
	for id, lvl := range b.lowers {
		b.c.LowerLevel(id, lvl)
	}
	for id, t := range b.binds {
		b.c.Bind(id, t)
	}
}

// follow resolves a variable through both the speculative accumulator and
// (if not found there) the committed cache.
func (b *Bindings) follow(t Type) Type {
	for {
		tv, ok := t.(*TVar)
		if !ok {
			return t
		}
		if bound, ok := b.binds[tv.ID]; ok {
			t = bound
			continue
		}
		cb := b.c.Lookup(tv.ID)
		if !cb.Bound {
			return t
		}
		t = cb.Type.(Type)
	}
}

// Unify attempts to unify two type terms, accumulating bindings. It never
// mutates the cache directly; the caller commits on success.
func Unify(c *cache.Cache, pos string, t1, t2 Type) (*Bindings, error) {
	b := NewBindings(c)
	if err := b.unify(pos, t1, t2); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bindings) unify(pos string, t1, t2 Type) error {
	t1 = b.follow(t1)
	t2 = b.follow(t2)

	if v1, ok := t1.(*TVar); ok {
		if v2, ok := t2.(*TVar); ok && v1.ID == v2.ID {
			return nil
		}
		return b.bindVar(pos, v1.ID, t2)
	}
	if v2, ok := t2.(*TVar); ok {
		return b.bindVar(pos, v2.ID, t1)
	}

	switch a := t1.(type) {
	case *TPrim:
		p2, ok := t2.(*TPrim)
		if !ok || a.Kind != p2.Kind {
			return mismatch(pos, t1, t2)
		}
		if a.Kind == PInt && (a.Signed != p2.Signed || a.Width != p2.Width) {
			return mismatch(pos, t1, t2)
		}
		return nil

	case *TNominal:
		n2, ok := t2.(*TNominal)
		if !ok || a.Info != n2.Info {
			return mismatch(pos, t1, t2)
		}
		return nil

	case *TFunc:
		f2, ok := t2.(*TFunc)
		if !ok {
			return mismatch(pos, t1, t2)
		}
		return b.unifyFunc(pos, a, f2)

	case *TApp:
		app2, ok := t2.(*TApp)
		if !ok {
			return mismatch(pos, t1, t2)
		}
		if err := b.unify(pos, a.Ctor, app2.Ctor); err != nil {
			return err
		}
		if len(a.Args) != len(app2.Args) {
			return &UnifyError{Pos: pos, Message: fmt.Sprintf("arity mismatch: %s has %d argument(s), %s has %d", a, len(a.Args), app2, len(app2.Args))}
		}
		for i := range a.Args {
			if err := b.unify(pos, a.Args[i], app2.Args[i]); err != nil {
				return err
			}
		}
		return nil

	case *TRef:
		r2, ok := t2.(*TRef)
		if !ok {
			return mismatch(pos, t1, t2)
		}
		if err := b.unify(pos, a.Elem, r2.Elem); err != nil {
			return err
		}
		// Lifetimes unify via their variable; lifetimes carry no further
		// structure, so an equal-or-not check suffices (spec.md §4.1).
		if a.Lifetime != r2.Lifetime {
			return &UnifyError{Pos: pos, Message: fmt.Sprintf("lifetime mismatch: %s vs %s", a, r2)}
		}
		return nil

	default:
		return mismatch(pos, t1, t2)
	}
}

func (b *Bindings) unifyFunc(pos string, f1, f2 *TFunc) error {
	n1, n2 := len(f1.Params), len(f2.Params)
	switch {
	case f1.Varargs && !f2.Varargs:
		if n2 < n1 {
			return &UnifyError{Pos: pos, Message: fmt.Sprintf("arity mismatch: variadic function needs at least %d argument(s), got %d", n1, n2)}
		}
		for i := 0; i < n1; i++ {
			if err := b.unify(pos, f1.Params[i], f2.Params[i]); err != nil {
				return err
			}
		}
	case f2.Varargs && !f1.Varargs:
		if n1 < n2 {
			return &UnifyError{Pos: pos, Message: fmt.Sprintf("arity mismatch: variadic function needs at least %d argument(s), got %d", n2, n1)}
		}
		for i := 0; i < n2; i++ {
			if err := b.unify(pos, f1.Params[i], f2.Params[i]); err != nil {
				return err
			}
		}
	default:
		if n1 != n2 {
			return &UnifyError{Pos: pos, Message: fmt.Sprintf("arity mismatch: %d vs %d parameters", n1, n2)}
		}
		for i := 0; i < n1; i++ {
			if err := b.unify(pos, f1.Params[i], f2.Params[i]); err != nil {
				return err
			}
		}
	}
	if err := b.unify(pos, f1.Return, f2.Return); err != nil {
		return err
	}
	return b.unify(pos, f1.Env, f2.Env)
}

// bindVar binds a type variable to a term after an occurs check that also
// lowers the levels of every unbound variable reachable in the other side
// (spec.md §4.1).
func (b *Bindings) bindVar(pos string, id cache.TypeVarID, t Type) error {
	if tv, ok := t.(*TVar); ok && tv.ID == id {
		return nil
	}
	if kind := b.c.Lookup(id).Kind; kind == cache.KInt && !isIntTerm(t) {
		return &UnifyError{Pos: pos, Message: fmt.Sprintf("type mismatch: %s carries an Int constraint, incompatible with %s", cache.TypeVarID(id), t)}
	}
	selfLevel := b.varLevel(id)
	if occursAndLower(b, id, selfLevel, t) {
		return &UnifyError{Pos: pos, Message: fmt.Sprintf("occurs check failed: %s occurs in %s", cache.TypeVarID(id), t)}
	}
	b.binds[id] = t
	return nil
}

// isIntTerm reports whether t is (or, for an as-yet-unbound variable,
// could still become) an integer primitive type.
func isIntTerm(t Type) bool {
	switch v := t.(type) {
	case *TVar:
		return true
	case *TPrim:
		return v.Kind == PInt
	default:
		return false
	}
}

func (b *Bindings) varLevel(id cache.TypeVarID) int {
	if lvl, ok := b.lowers[id]; ok {
		return lvl
	}
	return b.c.Lookup(id).Level
}

// occursAndLower walks t looking for id. Along the way it lowers the level
// of every unbound variable it finds to min(currentLevel, selfLevel), as
// required even when no occurrence is found (spec.md §4.1).
func occursAndLower(b *Bindings, id cache.TypeVarID, selfLevel int, t Type) bool {
	t = b.follow(t)
	switch v := t.(type) {
	case *TVar:
		if v.ID == id {
			return true
		}
		cur := b.varLevel(v.ID)
		if selfLevel < cur {
			b.lowers[v.ID] = selfLevel
		}
		return false
	case *TFunc:
		found := false
		for _, p := range v.Params {
			if occursAndLower(b, id, selfLevel, p) {
				found = true
			}
		}
		if occursAndLower(b, id, selfLevel, v.Return) {
			found = true
		}
		if occursAndLower(b, id, selfLevel, v.Env) {
			found = true
		}
		return found
	case *TApp:
		found := occursAndLower(b, id, selfLevel, v.Ctor)
		for _, a := range v.Args {
			if occursAndLower(b, id, selfLevel, a) {
				found = true
			}
		}
		return found
	case *TRef:
		return occursAndLower(b, id, selfLevel, v.Elem)
	default:
		return false
	}
}
