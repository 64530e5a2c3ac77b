package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locriacyber/ante/internal/cache"
)

func TestUnifyPrimitivesSucceed(t *testing.T) {
	c := cache.New()
	b, err := Unify(c, "t", Int32, Int32)
	require.NoError(t, err)
	b.Commit()
}

func TestUnifyPrimitivesMismatch(t *testing.T) {
	c := cache.New()
	_, err := Unify(c, "t", Int32, Bool)
	require.Error(t, err)
}

func TestUnifyVariableBindsAndFollows(t *testing.T) {
	c := cache.New()
	v := &TVar{ID: c.FreshVar(cache.KStar)}
	b, err := Unify(c, "t", v, Int32)
	require.NoError(t, err)
	b.Commit()

	assert.Equal(t, Int32, Follow(c, v))
}

func TestOccursCheckFails(t *testing.T) {
	c := cache.New()
	v := &TVar{ID: c.FreshVar(cache.KStar)}
	fn := &TFunc{Params: []Type{v}, Return: Unit, Env: Unit}
	_, err := Unify(c, "t", v, fn)
	require.Error(t, err)
}

func TestUnifyLowersLevelOfEscapingVariable(t *testing.T) {
	c := cache.New()
	outer := &TVar{ID: c.FreshVar(cache.KStar)} // level 0
	c.EnterLevel()
	inner := &TVar{ID: c.FreshVar(cache.KStar)} // level 1
	// Binding outer to inner makes inner reachable from level 0, so its
	// level must drop from 1 to 0.
	b, err := Unify(c, "t", outer, inner)
	require.NoError(t, err)
	b.Commit()
	c.ExitLevel()

	assert.Equal(t, 0, c.Lookup(inner.ID).Level)
}

func TestUnifyFuncArityMismatch(t *testing.T) {
	c := cache.New()
	f1 := &TFunc{Params: []Type{Int32}, Return: Unit, Env: Unit}
	f2 := &TFunc{Params: []Type{Int32, Int32}, Return: Unit, Env: Unit}
	_, err := Unify(c, "t", f1, f2)
	require.Error(t, err)
}

func TestUnifyVarargsAcceptsExtraArgs(t *testing.T) {
	c := cache.New()
	variadic := &TFunc{Params: []Type{Int32}, Return: Bool, Env: Unit, Varargs: true}
	concrete := &TFunc{Params: []Type{Int32, Int32, Int32}, Return: Bool, Env: Unit}
	b, err := Unify(c, "t", variadic, concrete)
	require.NoError(t, err)
	b.Commit()
}

func TestUnifyAppArityMismatch(t *testing.T) {
	c := cache.New()
	option := &TNominal{Name: "Option"}
	a1 := &TApp{Ctor: option, Args: []Type{Int32}}
	a2 := &TApp{Ctor: option, Args: []Type{Int32, Bool}}
	_, err := Unify(c, "t", a1, a2)
	require.Error(t, err)
}

func TestFollowBoundedChainPanicsOnCorruption(t *testing.T) {
	c := cache.New()
	ids := make([]cache.TypeVarID, cache.MaxBindingChain+5)
	for i := range ids {
		ids[i] = c.FreshVar(cache.KStar)
	}
	for i := 0; i < len(ids)-1; i++ {
		c.Bind(ids[i], Type(&TVar{ID: ids[i+1]}))
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from an over-long binding chain")
		}
	}()
	Follow(c, &TVar{ID: ids[0]})
}
