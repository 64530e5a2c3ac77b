package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locriacyber/ante/internal/cache"
)

func TestResolveConcreteConstraintSucceeds(t *testing.T) {
	c := cache.New()
	addTrait := c.NewTrait(cache.TraitInfo{Name: "Add", Arity: 1})
	def := c.NewDef(cache.DefInfo{Name: "addInt", Kind: cache.DefTraitMember})
	c.NewImpl(cache.ImplInfo{Trait: addTrait, Args: []interface{}{Type(Int32)}, Def: def})

	ob := &Obligation{Constraint: &Constraint{Trait: addTrait, Args: []Type{Int32}}}
	res, err := Resolve(c, "t", ob)
	require.NoError(t, err)
	assert.False(t, res.Forwarded)
	assert.Equal(t, def, c.Impl(res.Impl).Def)
}

func TestResolveNoMatchIsFatal(t *testing.T) {
	c := cache.New()
	addTrait := c.NewTrait(cache.TraitInfo{Name: "Add", Arity: 1})
	ob := &Obligation{Constraint: &Constraint{Trait: addTrait, Args: []Type{Int32}}}
	_, err := Resolve(c, "t", ob)
	require.Error(t, err)
	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.False(t, rerr.Ambiguous)
}

func TestResolveAmbiguousIsFatal(t *testing.T) {
	c := cache.New()
	addTrait := c.NewTrait(cache.TraitInfo{Name: "Add", Arity: 1})
	d1 := c.NewDef(cache.DefInfo{Name: "a"})
	d2 := c.NewDef(cache.DefInfo{Name: "b"})
	c.NewImpl(cache.ImplInfo{Trait: addTrait, Args: []interface{}{Type(Int32)}, Def: d1})
	c.NewImpl(cache.ImplInfo{Trait: addTrait, Args: []interface{}{Type(Int32)}, Def: d2})

	ob := &Obligation{Constraint: &Constraint{Trait: addTrait, Args: []Type{Int32}}}
	_, err := Resolve(c, "t", ob)
	require.Error(t, err)
	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.True(t, rerr.Ambiguous)
}

func TestResolveForwardsUnresolvedVariable(t *testing.T) {
	c := cache.New()
	addTrait := c.NewTrait(cache.TraitInfo{Name: "Add", Arity: 1})
	v := &TVar{ID: c.FreshVar(cache.KStar)}
	ob := &Obligation{Constraint: &Constraint{Trait: addTrait, Args: []Type{v}}}
	res, err := Resolve(c, "t", ob)
	require.NoError(t, err)
	assert.True(t, res.Forwarded)
}
