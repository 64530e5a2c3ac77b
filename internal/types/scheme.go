package types

import "github.com/locriacyber/ante/internal/cache"

// Generalise collects every unbound variable transitively reachable from t
// whose level strictly exceeds atLevel, and quantifies over them
// (spec.md §4.2). Constraints accumulated on those variables are attached
// to the resulting scheme; constraints whose type still mentions a
// non-quantified (escaping) variable are returned separately so the caller
// can propagate them outward instead (spec.md §4.3).
func Generalise(c *cache.Cache, atLevel int, t Type, constraints []*Constraint) (*Scheme, []*Constraint) {
	seen := make(map[cache.TypeVarID]bool)
	var quantifiers []cache.TypeVarID
	collectGeneralisable(c, atLevel, t, seen, &quantifiers)

	quantSet := make(map[cache.TypeVarID]bool, len(quantifiers))
	for _, q := range quantifiers {
		quantSet[q] = true
	}

	var kept, propagated []*Constraint
	for _, ct := range constraints {
		if constraintEscapes(c, atLevel, ct, quantSet) {
			propagated = append(propagated, ct)
		} else {
			kept = append(kept, ct)
		}
	}

	return &Scheme{Quantifiers: quantifiers, Body: t, Constraints: kept}, propagated
}

// collectGeneralisable walks t (following bindings) and appends every
// unbound variable whose level exceeds atLevel to out, each at most once.
func collectGeneralisable(c *cache.Cache, atLevel int, t Type, seen map[cache.TypeVarID]bool, out *[]cache.TypeVarID) {
	t = Follow(c, t)
	switch v := t.(type) {
	case *TVar:
		if seen[v.ID] {
			return
		}
		seen[v.ID] = true
		b := c.Lookup(v.ID)
		if !b.Bound && b.Level > atLevel {
			*out = append(*out, v.ID)
		}
	case *TFunc:
		for _, p := range v.Params {
			collectGeneralisable(c, atLevel, p, seen, out)
		}
		collectGeneralisable(c, atLevel, v.Return, seen, out)
		collectGeneralisable(c, atLevel, v.Env, seen, out)
	case *TApp:
		collectGeneralisable(c, atLevel, v.Ctor, seen, out)
		for _, a := range v.Args {
			collectGeneralisable(c, atLevel, a, seen, out)
		}
	case *TRef:
		collectGeneralisable(c, atLevel, v.Elem, seen, out)
	}
}

// constraintEscapes reports whether a constraint's argument types mention
// any unbound variable that is not among the scheme's quantifiers (i.e. it
// escapes to an enclosing scope and must be propagated, spec.md §4.3).
func constraintEscapes(c *cache.Cache, atLevel int, ct *Constraint, quantSet map[cache.TypeVarID]bool) bool {
	escapes := false
	seen := make(map[cache.TypeVarID]bool)
	var walk func(Type)
	walk = func(t Type) {
		t = Follow(c, t)
		switch v := t.(type) {
		case *TVar:
			if seen[v.ID] {
				return
			}
			seen[v.ID] = true
			if !quantSet[v.ID] {
				escapes = true
			}
		case *TFunc:
			for _, p := range v.Params {
				walk(p)
			}
			walk(v.Return)
			walk(v.Env)
		case *TApp:
			walk(v.Ctor)
			for _, a := range v.Args {
				walk(a)
			}
		case *TRef:
			walk(v.Elem)
		}
	}
	for _, arg := range ct.Args {
		walk(arg)
	}
	return escapes
}

// Instantiate replaces every quantifier of a scheme with a fresh unbound
// variable at the cache's current level, substituting through both the
// body and the attached constraints (spec.md §4.2). It returns the
// monotype, the rewritten constraints, and the substitution map (the
// latter is stored on the variable occurrence for later use by the
// monomorphiser, per spec.md §4.2 and §4.5).
func Instantiate(c *cache.Cache, s *Scheme) (Type, []*Constraint, map[cache.TypeVarID]Type) {
	if s.IsMonotype() {
		return s.Body, nil, nil
	}
	subst := make(map[cache.TypeVarID]Type, len(s.Quantifiers))
	for _, q := range s.Quantifiers {
		kind := cache.KStar
		if b := c.Lookup(q); !b.Bound {
			kind = b.Kind
		}
		fresh := c.FreshVar(kind)
		subst[q] = &TVar{ID: fresh}
	}
	body := substitute(subst, s.Body)
	var constraints []*Constraint
	for _, ct := range s.Constraints {
		args := make([]Type, len(ct.Args))
		for i, a := range ct.Args {
			args[i] = substitute(subst, a)
		}
		constraints = append(constraints, &Constraint{Trait: ct.Trait, Args: args, ID: ct.ID})
	}
	return body, constraints, subst
}

// substitute replaces every quantified TVar in t per subst. It does not
// consult the cache, since a scheme's quantifiers are (by construction)
// never bound.
func substitute(subst map[cache.TypeVarID]Type, t Type) Type {
	switch v := t.(type) {
	case *TVar:
		if r, ok := subst[v.ID]; ok {
			return r
		}
		return v
	case *TFunc:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = substitute(subst, p)
		}
		return &TFunc{Params: params, Return: substitute(subst, v.Return), Env: substitute(subst, v.Env), Varargs: v.Varargs}
	case *TApp:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = substitute(subst, a)
		}
		return &TApp{Ctor: substitute(subst, v.Ctor), Args: args}
	case *TRef:
		return &TRef{Lifetime: v.Lifetime, Elem: substitute(subst, v.Elem)}
	default:
		return t
	}
}
