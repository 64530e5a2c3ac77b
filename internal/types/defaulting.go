package types

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
)

// DefaultingTrace records one integer-kind defaulting decision, for
// reproducibility and debugging (grounded on the teacher's
// DefaultingTrace/FormatDefaultingTraces idiom).
type DefaultingTrace struct {
	Var      cache.TypeVarID
	Default  Type
	Location string
}

func (d DefaultingTrace) String() string {
	return fmt.Sprintf("%s: %s defaulted to %s", d.Location, d.Var, d.Default)
}

// DefaultInt is the type an otherwise-unconstrained Int-kind type variable
// defaults to (spec.md §4.3, §9: "defaults to signed 32-bit").
var DefaultInt Type = Int32

// DefaultIntegerKind applies integer-kind defaulting to one type variable.
// Per spec.md §9 this applies at most once per variable. The inference
// pass does not call it, and neither does internal/mono, whose literal
// lowering falls back to a signed 32-bit integer on its own when a
// literal's type is still unresolved.
//
// It reports false (and binds nothing) if the variable is already bound,
// or is unbound but tagged with a kind other than cache.KInt.
func DefaultIntegerKind(c *cache.Cache, id cache.TypeVarID, location string) (*DefaultingTrace, bool) {
	b := c.Lookup(id)
	if b.Bound || b.Kind != cache.KInt {
		return nil, false
	}
	c.Bind(id, DefaultInt)
	return &DefaultingTrace{Var: id, Default: DefaultInt, Location: location}, true
}
