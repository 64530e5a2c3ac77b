package infer

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
)

// Env is a lexical scope mapping surface names to definition ids. Per
// spec.md §6, the parser/resolver normally assigns every variable its Def
// before the inference pass runs. Inference still keeps an Env: lambda
// parameters and pattern bindings are bound into it, and a Variable whose
// Def is unset is looked up here first, then by name in the cache.
type Env struct {
	names  map[string]cache.DefID
	parent *Env
}

// NewEnv creates an empty top-level scope.
func NewEnv() *Env {
	return &Env{names: make(map[string]cache.DefID)}
}

// Child creates a nested scope.
func (e *Env) Child() *Env {
	return &Env{names: make(map[string]cache.DefID), parent: e}
}

// Bind introduces name into this scope.
func (e *Env) Bind(name string, id cache.DefID) {
	e.names[name] = id
}

// Lookup resolves name, searching outward through enclosing scopes.
func (e *Env) Lookup(name string) (cache.DefID, error) {
	if id, ok := e.names[name]; ok {
		return id, nil
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return 0, fmt.Errorf("unbound variable: %s", name)
}
