package infer

import (
	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// bindPattern binds a definition-site pattern, which spec.md §7 requires
// to be irrefutable (variable, wildcard, tuple, or annotation).
func (ch *Checker) bindPattern(env *Env, p surfacir.Pattern, t types.Type) {
	if !surfacir.IsIrrefutable(p) {
		ch.ErrorCount++
		ch.Diags = append(ch.Diags, types.NewInvalidPatternError(p.Position().String(), patternDesc(p)))
		return
	}
	ch.bindMatchPattern(env, p, t)
}

// bindMatchPattern binds (and, for refutable forms, unifies) a pattern
// appearing in a match arm against the scrutinee type.
func (ch *Checker) bindMatchPattern(env *Env, p surfacir.Pattern, t types.Type) {
	switch v := p.(type) {
	case *surfacir.WildcardPattern:
		return
	case *surfacir.VarPattern:
		id := ch.Cache.NewDef(cache.DefInfo{Name: v.Name, Pos: v.Pos.String(), Kind: cache.DefPatternBinding})
		v.Def = id
		ch.Schemes.Set(id, types.MonoScheme(t))
		env.Bind(v.Name, id)
	case *surfacir.AnnotPattern:
		annotT := ch.resolveTypeExpr(v.Annot)
		ch.unify(v.Pos, t, annotT)
		ch.bindMatchPattern(env, v.Inner, annotT)
	case *surfacir.TuplePattern:
		elemTypes := make([]types.Type, len(v.Elems))
		for i := range v.Elems {
			elemTypes[i] = &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
		}
		tupleT := &types.TApp{Ctor: &types.TNominal{Name: "Tuple"}, Args: elemTypes}
		ch.unify(v.Pos, t, tupleT)
		for i, e := range v.Elems {
			ch.bindMatchPattern(env, e, elemTypes[i])
		}
	case *surfacir.CtorPattern:
		info := ch.Cache.Def(v.Def)
		_ = info
		for _, f := range v.Fields {
			fv := &types.TVar{ID: ch.Cache.FreshVar(cache.KStar)}
			ch.bindMatchPattern(env, f, fv)
		}
	case *surfacir.LiteralPattern:
		litT := ch.inferLiteral(v.Lit)
		ch.unify(v.Pos, t, litT)
	}
}

func patternDesc(p surfacir.Pattern) string {
	switch p.(type) {
	case *surfacir.CtorPattern:
		return "constructor pattern"
	case *surfacir.LiteralPattern:
		return "literal pattern"
	default:
		return "refutable pattern"
	}
}
