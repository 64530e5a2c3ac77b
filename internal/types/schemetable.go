package types

import "github.com/locriacyber/ante/internal/cache"

// SchemeTable maps a definition id to its generalised type. It lives
// outside Cache (which cannot import types without a cycle) and is owned
// by the inference pass for the lifetime of a compilation.
type SchemeTable struct {
	schemes map[cache.DefID]*Scheme
}

func NewSchemeTable() *SchemeTable {
	return &SchemeTable{schemes: make(map[cache.DefID]*Scheme)}
}

func (t *SchemeTable) Get(id cache.DefID) (*Scheme, bool) {
	s, ok := t.schemes[id]
	return s, ok
}

func (t *SchemeTable) Set(id cache.DefID, s *Scheme) {
	t.schemes[id] = s
}
