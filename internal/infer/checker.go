// Package infer implements the polymorphic tree walk of spec.md §4.4: it
// fills in the type slot of every surface AST node, emits trait
// constraints, and records the instantiation substitution used later by
// monomorphisation.
package infer

import (
	"fmt"
	"strings"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// Checker holds the mutable state threaded through one inference pass:
// the shared cache, the definition->scheme table, the field-access trait
// registry, and the diagnostic/obligation stacks.
type Checker struct {
	Cache   *cache.Cache
	Schemes *types.SchemeTable

	fieldTraits map[string]cache.TraitID

	Diags      []*types.CheckError
	ErrorCount int

	obligations [][]*types.Obligation

	trackInstantiations bool
	instantiations      []Instantiation
}

// Instantiation records one polymorphic instantiation site for debugging:
// which definition was referenced, where, and the concrete monotype the
// scheme's quantifiers were replaced with.
type Instantiation struct {
	Pos       string
	VarName   string
	FreshVars []cache.TypeVarID
	Type      types.Type
}

// EnableInstantiationTracking turns on recording of every polymorphic
// instantiation performed during inference. Off by default since most
// callers never look at the log; no other pass in this module reads it.
func (ch *Checker) EnableInstantiationTracking() {
	ch.trackInstantiations = true
	ch.instantiations = make([]Instantiation, 0)
}

// Instantiations returns the instantiation log recorded since the last
// EnableInstantiationTracking call, or nil if tracking was never enabled.
func (ch *Checker) Instantiations() []Instantiation {
	return ch.instantiations
}

func (ch *Checker) recordInstantiation(pos surfacir.Pos, name string, subst map[cache.TypeVarID]types.Type, mono types.Type) {
	if !ch.trackInstantiations || len(subst) == 0 {
		return
	}
	fresh := make([]cache.TypeVarID, 0, len(subst))
	for id := range subst {
		fresh = append(fresh, id)
	}
	ch.instantiations = append(ch.instantiations, Instantiation{
		Pos:       pos.String(),
		VarName:   name,
		FreshVars: fresh,
		Type:      mono,
	})
}

// New creates a checker over an existing cache (the cache is normally
// already populated with the module's definitions, traits, and impls by
// the resolver before inference begins).
func New(c *cache.Cache) *Checker {
	return &Checker{
		Cache:       c,
		Schemes:     types.NewSchemeTable(),
		fieldTraits: make(map[string]cache.TraitID),
		obligations: [][]*types.Obligation{{}},
	}
}

func (ch *Checker) report(kind types.ErrorKind, pos surfacir.Pos, format string, args ...interface{}) {
	ch.ErrorCount++
	ch.Diags = append(ch.Diags, &types.CheckError{Kind: kind, Pos: pos.String(), Msg: fmt.Sprintf(format, args...)})
}

// pushObligation records a trait obligation against the innermost active
// definition frame.
func (ch *Checker) pushObligation(ob *types.Obligation) {
	top := len(ch.obligations) - 1
	ch.obligations[top] = append(ch.obligations[top], ob)
}

func (ch *Checker) pushFrame() {
	ch.obligations = append(ch.obligations, nil)
}

func (ch *Checker) popFrame() []*types.Obligation {
	top := len(ch.obligations) - 1
	obs := ch.obligations[top]
	ch.obligations = ch.obligations[:top]
	return obs
}

// unify wraps types.Unify, reporting and committing on success, reporting
// and continuing (without committing) on failure — per spec.md §7,
// inference errors are non-fatal at the unification site.
func (ch *Checker) unify(pos surfacir.Pos, t1, t2 types.Type) {
	b, err := types.Unify(ch.Cache, pos.String(), t1, t2)
	if err != nil {
		ch.ErrorCount++
		ch.Diags = append(ch.Diags, &types.CheckError{Kind: kindOfUnifyErr(err), Pos: pos.String(), Msg: err.Error()})
		return
	}
	b.Commit()
}

func kindOfUnifyErr(err error) types.ErrorKind {
	ue, ok := err.(*types.UnifyError)
	if !ok {
		return types.ErrTypeMismatch
	}
	switch {
	case strings.Contains(ue.Message, "occurs check"):
		return types.ErrOccursCheck
	case strings.Contains(ue.Message, "arity mismatch"):
		return types.ErrArityMismatch
	default:
		return types.ErrTypeMismatch
	}
}

// InferModule infers every top-level definition of m in declaration order,
// seeding recursive definitions with a placeholder monotype first so that
// forward/mutual references resolve.
func (ch *Checker) InferModule(m *surfacir.Module) {
	for _, td := range m.Types {
		ch.registerTypeDef(td)
	}
	for _, tr := range m.Traits {
		ch.registerTraitDef(tr)
	}
	for _, d := range m.Defs {
		ch.seedRecursive(d)
	}
	for _, imp := range m.Impls {
		ch.registerTraitImpl(imp)
	}
	for _, d := range m.Defs {
		ch.inferTopLevelDefinition(d)
	}
}

// registerTypeDef interns one type declaration's constructors and gives
// each a function scheme (fields... -> the nominal type) so that later
// passes — member access resolution, monomorphisation's constructor
// lowering, and the refinement bridge's datatype translation — can read a
// constructor's field types straight out of the scheme table instead of
// re-walking surface syntax.
func (ch *Checker) registerTypeDef(td *surfacir.TypeDef) {
	var ctors []cache.DefID
	for i := range td.Ctors {
		c := &td.Ctors[i]
		id := ch.Cache.NewDef(cache.DefInfo{Name: c.Name, Pos: td.Pos.String(), Kind: cache.DefCtor, Tag: i})
		c.Def = id
		ctors = append(ctors, id)
	}
	td.Info = ch.Cache.NewTypeInfo(cache.TypeInfo{Name: td.Name, IsSum: len(td.Ctors) > 1, Ctors: ctors})
	nominal := &types.TNominal{Info: td.Info, Name: td.Name}

	for i := range td.Ctors {
		c := &td.Ctors[i]
		params := make([]types.Type, len(c.Fields))
		for fi, f := range c.Fields {
			if f.FieldName != "" {
				ch.registerFieldTrait(f.FieldName)
			}
			params[fi] = ch.resolveTypeExpr(f.Type)
		}
		ctorType := &types.TFunc{Params: params, Return: nominal, Env: types.Unit}
		ch.Schemes.Set(c.Def, types.MonoScheme(ctorType))
	}
}

func (ch *Checker) registerTraitDef(tr *surfacir.TraitDef) {
	tr.Trait = ch.Cache.NewTrait(cache.TraitInfo{Name: tr.Name, Arity: tr.Arity, Members: tr.Members})
}

func (ch *Checker) registerTraitImpl(ti *surfacir.TraitImpl) {
	// Argument types are resolved from TypeExpr syntax by a separate
	// surface-to-type elaboration step (outside this package's scope);
	// tests construct ti.Args already as resolved types via helpers.
}

// registerFieldTrait lazily creates the compiler-synthesised `.field`
// trait used to resolve member access (spec.md §4.4 "Member access").
func (ch *Checker) registerFieldTrait(field string) cache.TraitID {
	if id, ok := ch.fieldTraits[field]; ok {
		return id
	}
	id := ch.Cache.NewTrait(cache.TraitInfo{Name: "." + field, Arity: 2, Members: nil})
	ch.fieldTraits[field] = id
	return id
}

func (ch *Checker) seedRecursive(d *surfacir.Definition) {
	name := definitionName(d)
	if name == "" {
		return
	}
	fresh := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	id := ch.Cache.NewDef(cache.DefInfo{Name: name, Pos: d.Pos.String(), Kind: cache.DefNormal, Required: d.Required})
	d.Def = id
	ch.Schemes.Set(id, types.MonoScheme(fresh))
}

func definitionName(d *surfacir.Definition) string {
	if v, ok := d.Pattern.(*surfacir.VarPattern); ok {
		return v.Name
	}
	return ""
}

// inferTopLevelDefinition infers one top-level binding to completion:
// increment level, infer the RHS, decrement, generalise (spec.md §4.4
// "Definition").
func (ch *Checker) inferTopLevelDefinition(d *surfacir.Definition) {
	ch.inferDefinition(NewEnv(), d)
}

// inferDefinition infers d's RHS at a raised let level, binds the pattern,
// and generalises where the value restriction permits (spec.md §4.2,
// §4.4).
func (ch *Checker) inferDefinition(env *Env, d *surfacir.Definition) types.Type {
	ch.Cache.EnterLevel()
	ch.pushFrame()
	rhsType := ch.inferExpr(env, d.RHS)
	obs := ch.popFrame()
	ch.Cache.ExitLevel()

	d.TypeSlot().Fill(rhsType)

	if !generalisable(d.RHS) {
		ch.bindPattern(env, d.Pattern, rhsType)
		ch.resolveObligations(d.Pos, obs, nil)
		return rhsType
	}

	constraints := make([]*types.Constraint, len(obs))
	for i, ob := range obs {
		constraints[i] = ob.Constraint
	}
	scheme, propagated := types.Generalise(ch.Cache, ch.Cache.Level(), rhsType, constraints)

	var keptObs, escapedObs []*types.Obligation
	propagatedSet := make(map[*types.Constraint]bool, len(propagated))
	for _, c := range propagated {
		propagatedSet[c] = true
	}
	for _, ob := range obs {
		if propagatedSet[ob.Constraint] {
			escapedObs = append(escapedObs, ob)
		} else {
			keptObs = append(keptObs, ob)
		}
	}
	ch.resolveObligations(d.Pos, keptObs, scheme)
	for _, ob := range escapedObs {
		ch.pushObligation(ob)
	}

	if name := definitionName(d); name != "" {
		id := d.Def
		if _, seeded := ch.Schemes.Get(id); !seeded {
			if looked, ok := ch.Cache.LookupDefByName(name); ok {
				id = looked
			} else {
				id = ch.Cache.NewDef(cache.DefInfo{Name: name, Pos: d.Pos.String(), Kind: cache.DefNormal, Required: d.Required})
				d.Def = id
			}
		}
		ch.Schemes.Set(id, scheme)
	}
	ch.bindPattern(env, d.Pattern, rhsType)
	return rhsType
}

// resolveObligations resolves every fully-concrete obligation immediately
// (spec.md §4.3); obligations whose arguments remain generalised stay
// attached to scheme (already folded in by the caller via Generalise) and
// are not re-resolved here.
func (ch *Checker) resolveObligations(pos surfacir.Pos, obs []*types.Obligation, scheme *types.Scheme) {
	for _, ob := range obs {
		res, err := types.Resolve(ch.Cache, pos.String(), ob)
		if err != nil {
			ch.ErrorCount++
			ch.Diags = append(ch.Diags, &types.CheckError{Kind: types.ErrUnresolvedTrait, Pos: pos.String(), Msg: err.Error()})
			continue
		}
		if res.Forwarded {
			// still mentions a to-be-generalised variable; the scheme now
			// owns this constraint, nothing further to do at this site.
			continue
		}
		// concrete and resolved: the resolved impl is not recorded
		// anywhere, and the monomorphiser performs no trait dispatch of
		// its own, so this check only reports missing/ambiguous impls.
	}
}

// generalisable implements the value restriction (spec.md §4.2): only
// named variables and closure-free lambdas are generalised.
func generalisable(rhs surfacir.Node) bool {
	switch v := rhs.(type) {
	case *surfacir.Variable:
		return true
	case *surfacir.Lambda:
		return len(v.ClosureEnv) == 0
	default:
		return false
	}
}
