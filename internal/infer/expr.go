package infer

import (
	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// inferExpr is the fixed per-node-kind inference rule of spec.md §4.4. It
// always returns a best-effort type (a fresh variable on failure) so that
// inference can continue past an error and surface more diagnostics, per
// spec.md §7's non-fatal-at-the-site policy.
func (ch *Checker) inferExpr(env *Env, n surfacir.Node) types.Type {
	switch v := n.(type) {
	case *surfacir.Literal:
		return ch.inferLiteral(v)
	case *surfacir.Variable:
		return ch.inferVariable(env, v)
	case *surfacir.Lambda:
		return ch.inferLambda(env, v)
	case *surfacir.Call:
		return ch.inferCall(env, v)
	case *surfacir.Definition:
		return ch.inferDefinition(env, v)
	case *surfacir.If:
		return ch.inferIf(env, v)
	case *surfacir.Match:
		return ch.inferMatch(env, v)
	case *surfacir.TypeAnnotation:
		return ch.inferAnnotation(env, v)
	case *surfacir.MemberAccess:
		return ch.inferMemberAccess(env, v)
	case *surfacir.Assignment:
		return ch.inferAssignment(env, v)
	case *surfacir.Return:
		return ch.inferReturn(env, v)
	case *surfacir.Sequence:
		return ch.inferSequence(env, v)
	case *surfacir.Extern:
		return ch.inferExtern(v)
	default:
		fresh := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
		return fresh
	}
}

func (ch *Checker) fill(n surfacir.Node, t types.Type) types.Type {
	n.TypeSlot().Fill(t)
	return t
}

// inferLiteral: untyped integers get a fresh Int-kinded variable;
// everything else returns its known type (spec.md §4.4 "Literal").
func (ch *Checker) inferLiteral(l *surfacir.Literal) types.Type {
	switch l.Kind {
	case surfacir.LitInt:
		if l.Annotated {
			return ch.fill(l, types.IntOfWidth(l.Signed, l.Width))
		}
		v := &types.TVar{ID: ch.Cache.FreshVar(cache.KInt)}
		return ch.fill(l, v)
	case surfacir.LitFloat:
		return ch.fill(l, types.Float)
	case surfacir.LitChar:
		return ch.fill(l, types.Char)
	case surfacir.LitBool:
		return ch.fill(l, types.Bool)
	case surfacir.LitString:
		return ch.fill(l, &types.TApp{Ctor: &types.TNominal{Name: "String"}, Args: nil})
	default:
		return ch.fill(l, types.Unit)
	}
}

// inferVariable: instantiate the definition's scheme and record the
// substitution on the occurrence for the monomorphiser (spec.md §4.4
// "Variable", §4.2 "Instantiation").
func (ch *Checker) inferVariable(env *Env, v *surfacir.Variable) types.Type {
	id := v.Def
	if id == 0 {
		if resolved, err := env.Lookup(v.Name); err == nil {
			id = resolved
		} else if looked, ok := ch.Cache.LookupDefByName(v.Name); ok {
			id = looked
		} else {
			ch.report(types.ErrTypeMismatch, v.Pos, "unbound variable: %s", v.Name)
			return ch.fill(v, &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)})
		}
		v.Def = id
	}

	scheme, ok := ch.Schemes.Get(id)
	if !ok {
		fresh := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
		return ch.fill(v, fresh)
	}

	mono, constraints, subst := types.Instantiate(ch.Cache, scheme)
	occ := ch.Cache.NewOcc(cache.OccInfo{Def: id, Pos: v.Pos.String(), Subs: substToIface(subst)})
	v.Occ = occ
	ch.recordInstantiation(v.Pos, v.Name, subst, mono)

	info := ch.Cache.Def(id)
	for _, tid := range info.Required {
		ch.pushObligation(&types.Obligation{
			Constraint: &types.Constraint{Trait: tid},
			Callsite:   cache.Direct,
			Occ:        occ,
		})
	}
	for _, ct := range constraints {
		ch.pushObligation(&types.Obligation{Constraint: ct, Callsite: cache.Indirect, Occ: occ})
	}
	return ch.fill(v, mono)
}

func substToIface(subst map[cache.TypeVarID]types.Type) map[cache.TypeVarID]interface{} {
	if subst == nil {
		return nil
	}
	out := make(map[cache.TypeVarID]interface{}, len(subst))
	for k, v := range subst {
		out[k] = v
	}
	return out
}

// inferLambda allocates fresh parameter variables at the current level,
// binds them into scope, infers the body, and builds a function type
// (spec.md §4.4 "Lambda").
func (ch *Checker) inferLambda(env *Env, l *surfacir.Lambda) types.Type {
	inner := env.Child()
	params := make([]types.Type, len(l.Params))
	for i, p := range l.Params {
		pv := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
		params[i] = pv
		id := ch.Cache.NewDef(cache.DefInfo{Name: p.Name, Pos: l.Pos.String(), Kind: cache.DefParam})
		l.Params[i].Def = id
		ch.Schemes.Set(id, types.MonoScheme(pv))
		inner.Bind(p.Name, id)
	}
	body := ch.inferExpr(inner, l.Body)

	env2 := types.Unit
	if len(l.ClosureEnv) > 0 {
		env2 = &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	}
	return ch.fill(l, &types.TFunc{Params: params, Return: body, Env: env2})
}

// inferCall infers the function and arguments, then unifies the function
// type against a synthetic (args...) -> ret with a fresh environment
// variable (spec.md §4.4 "Call").
func (ch *Checker) inferCall(env *Env, c *surfacir.Call) types.Type {
	fnType := ch.inferExpr(env, c.Fn)
	argTypes := make([]types.Type, len(c.Args))
	for i, a := range c.Args {
		argTypes[i] = ch.inferExpr(env, a)
	}
	ret := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	envVar := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	synthetic := &types.TFunc{Params: argTypes, Return: ret, Env: envVar}
	ch.unify(c.Pos, fnType, synthetic)
	return ch.fill(c, ret)
}

// inferIf unifies the condition with bool and the branches with each
// other; a missing else forces the then-branch to unit (spec.md §4.4
// "If").
func (ch *Checker) inferIf(env *Env, i *surfacir.If) types.Type {
	cond := ch.inferExpr(env, i.Cond)
	ch.unify(i.Cond.Position(), cond, types.Bool)
	thenT := ch.inferExpr(env, i.Then)
	if i.Else == nil {
		ch.unify(i.Pos, thenT, types.Unit)
		return ch.fill(i, types.Unit)
	}
	elseT := ch.inferExpr(env, i.Else)
	ch.unify(i.Pos, thenT, elseT)
	return ch.fill(i, thenT)
}

// inferMatch infers the scrutinee, then each arm's pattern against it and
// each arm's body against the first arm's body (spec.md §4.4 "Match").
// Decision-tree compilation itself is driven by internal/dtree once
// monomorphisation has a concrete scrutinee type; this pass only ensures
// every arm type-checks.
func (ch *Checker) inferMatch(env *Env, m *surfacir.Match) types.Type {
	scrut := ch.inferExpr(env, m.Scrutinee)
	var result types.Type
	for i, arm := range m.Arms {
		inner := env.Child()
		ch.bindMatchPattern(inner, arm.Pattern, scrut)
		if arm.Guard != nil {
			g := ch.inferExpr(inner, arm.Guard)
			ch.unify(arm.Guard.Position(), g, types.Bool)
		}
		bodyT := ch.inferExpr(inner, arm.Body)
		if i == 0 {
			result = bodyT
		} else {
			ch.unify(m.Pos, bodyT, result)
		}
	}
	if result == nil {
		result = types.Unit
	}
	return ch.fill(m, result)
}

// inferAnnotation unifies the inner expression's inferred type with the
// annotation (spec.md §4.4 "Type annotation").
func (ch *Checker) inferAnnotation(env *Env, a *surfacir.TypeAnnotation) types.Type {
	inner := ch.inferExpr(env, a.Expr)
	annotT := ch.resolveTypeExpr(a.Annot)
	ch.unify(a.Pos, inner, annotT)
	return ch.fill(a, annotT)
}

// inferMemberAccess synthesises a `.field` row constraint resolved by a
// compiler-generated trait (spec.md §4.4 "Member access").
func (ch *Checker) inferMemberAccess(env *Env, m *surfacir.MemberAccess) types.Type {
	collT := ch.inferExpr(env, m.Collection)
	fieldT := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	trait := ch.registerFieldTrait(m.Field)
	ch.pushObligation(&types.Obligation{
		Constraint: &types.Constraint{Trait: trait, Args: []types.Type{collT, fieldT}},
		Callsite:   cache.Direct,
	})
	return ch.fill(m, fieldT)
}

// inferAssignment requires the LHS to be structurally mutable; the result
// is always unit (spec.md §4.4 "Assignment").
func (ch *Checker) inferAssignment(env *Env, a *surfacir.Assignment) types.Type {
	if !ch.isMutableLValue(env, a.LHS) {
		ch.report(types.ErrTypeMismatch, a.Pos, "assignment target is not mutable")
	}
	lhsT := ch.inferExpr(env, a.LHS)
	rhsT := ch.inferExpr(env, a.RHS)
	ch.unify(a.Pos, lhsT, rhsT)
	return ch.fill(a, types.Unit)
}

func (ch *Checker) isMutableLValue(env *Env, n surfacir.Node) bool {
	switch v := n.(type) {
	case *surfacir.Variable:
		id := v.Def
		if id == 0 {
			return true // resolved defensively elsewhere; don't double-diagnose
		}
		return ch.Cache.Def(id).Kind != cache.DefExtern
	case *surfacir.MemberAccess:
		return ch.isMutableLValue(env, v.Collection)
	default:
		return false
	}
}

// inferReturn infers the expression but never constrains the enclosing
// function's return type, per spec.md §9's documented open question.
func (ch *Checker) inferReturn(env *Env, r *surfacir.Return) types.Type {
	ch.inferExpr(env, r.Expr)
	fresh := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	return ch.fill(r, fresh)
}

func (ch *Checker) inferSequence(env *Env, s *surfacir.Sequence) types.Type {
	var last types.Type = types.Unit
	for _, stmt := range s.Stmts {
		last = ch.inferExpr(env, stmt)
	}
	return ch.fill(s, last)
}

func (ch *Checker) inferExtern(e *surfacir.Extern) types.Type {
	t := ch.resolveTypeExpr(e.Sig)
	id := ch.Cache.NewDef(cache.DefInfo{Name: e.Name, Pos: e.Pos.String(), Kind: cache.DefExtern, Extern: true})
	e.Def = id
	ch.Schemes.Set(id, types.MonoScheme(t))
	return ch.fill(e, t)
}

// resolveTypeExpr lowers a surface type-annotation expression to a
// types.Type. Any name that is not a primitive becomes an opaque
// TNominal carrying only that name (Info is left zero); no lookup against
// the module's type table is made.
func (ch *Checker) resolveTypeExpr(te surfacir.TypeExpr) types.Type {
	switch v := te.(type) {
	case *surfacir.NamedType:
		switch v.Name {
		case "i8":
			return types.IntOfWidth(true, 8)
		case "i16":
			return types.IntOfWidth(true, 16)
		case "i32":
			return types.Int32
		case "i64":
			return types.IntOfWidth(true, 64)
		case "u8":
			return types.IntOfWidth(false, 8)
		case "u16":
			return types.IntOfWidth(false, 16)
		case "u32":
			return types.IntOfWidth(false, 32)
		case "u64":
			return types.IntOfWidth(false, 64)
		case "float":
			return types.Float
		case "bool":
			return types.Bool
		case "char":
			return types.Char
		case "()":
			return types.Unit
		default:
			return &types.TNominal{Name: v.Name}
		}
	case *surfacir.AppType:
		ctor := ch.resolveTypeExpr(v.Ctor)
		args := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = ch.resolveTypeExpr(a)
		}
		return &types.TApp{Ctor: ctor, Args: args}
	case *surfacir.FuncType:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = ch.resolveTypeExpr(p)
		}
		ret := ch.resolveTypeExpr(v.Return)
		return &types.TFunc{Params: params, Return: ret, Env: types.Unit, Varargs: v.Varargs}
	case *surfacir.RefType:
		return &types.TRef{Lifetime: ch.Cache.FreshLifetime(), Elem: ch.resolveTypeExpr(v.Elem)}
	default:
		return &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
	}
}
