package cache

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MaxBindingChain bounds the number of hops Follow will walk down a chain of
// bound type variables before declaring the cache corrupted. A well-formed
// bindings table never needs anywhere near this many hops; hitting it means
// a cycle was bound despite the occurs check, which is an internal-error
// condition rather than a user diagnostic.
const MaxBindingChain = 500

// Kind tags an unbound type variable with the shape of values it may stand
// for. KInt marks a variable that only carries an `Int` literal constraint
// and is eligible for integer-kind defaulting (spec.md §4.3, §9).
type Kind int

const (
	KStar Kind = iota
	KInt
	KRow
)

func (k Kind) String() string {
	switch k {
	case KInt:
		return "Int"
	case KRow:
		return "Row"
	default:
		return "*"
	}
}

// Binding is the state of one type variable: either bound to a concrete type
// term, or unbound with a let-binding level and a kind tag.
type Binding struct {
	Bound bool
	Type  interface{} // types.Type; kept as interface{} to avoid an import cycle
	Level int
	Kind  Kind
}

// Cache owns every interned table the middle-end shares across passes. It is
// mutably borrowed by exactly one pass at a time (spec.md §5); nothing here
// is safe for concurrent use.
type Cache struct {
	bindings []Binding
	lifetime []int // lifetime variable levels, parallel table

	defs  []DefInfo
	names map[string]DefID // last-wins name -> def for simple lookup helpers

	traits []TraitInfo
	impls  []ImplInfo
	occs   []OccInfo
	tinfos []TypeInfo

	level int // current let-binding level; 0 at top level
}

// DefInfo is the cache-resident record for one definition (spec.md §3).
type DefInfo struct {
	Name     string
	Pos      string
	Kind     DefKind
	Tag      int    // numeric tag for type-constructor definitions
	Extern   bool
	Required []TraitID
	// Scheme is stored by the types package via a side table keyed by DefID,
	// to avoid a cache <-> types import cycle; see types.SchemeTable.
}

// DefKind enumerates the definition kinds from spec.md §3.
type DefKind int

const (
	DefNormal DefKind = iota
	DefExtern
	DefCtor
	DefTraitMember
	DefParam
	DefPatternBinding
)

// TraitInfo is the cache-resident record for a trait declaration.
type TraitInfo struct {
	Name    string
	Arity   int // number of type parameters (multi-parameter traits)
	Members []string
}

// ImplInfo is the cache-resident record for a trait impl candidate.
type ImplInfo struct {
	Trait TraitID
	// Args holds the concrete or pattern argument types for this impl, kept
	// as interface{} (types.Type) to avoid an import cycle.
	Args []interface{}
	Def  DefID // the definition implementing the impl's methods
}

// CallsiteKind classifies where a trait constraint obligation arose
// (spec.md §3, §4.3).
type CallsiteKind int

const (
	Direct CallsiteKind = iota
	Indirect
	GivenDirect
	GivenIndirect
)

func (k CallsiteKind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Indirect:
		return "indirect"
	case GivenDirect:
		return "given-direct"
	case GivenIndirect:
		return "given-indirect"
	default:
		return "unknown"
	}
}

// OccInfo is the cache-resident record for one variable occurrence.
type OccInfo struct {
	Def  DefID
	Pos  string
	Subs map[TypeVarID]interface{} // instantiation substitution, filled by inference
}

// TypeInfo is the cache-resident record for a user-defined nominal type.
type TypeInfo struct {
	Name     string
	IsSum    bool
	Ctors    []DefID // constructor definitions, in declaration order
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{names: make(map[string]DefID)}
}

// --- Level management (spec.md §3 "Let binding levels") ---

// Level returns the current let-binding level.
func (c *Cache) Level() int { return c.level }

// EnterLevel increments the current level; call when entering the RHS of a
// definition.
func (c *Cache) EnterLevel() { c.level++ }

// ExitLevel decrements the current level; call on exit from a definition's RHS.
func (c *Cache) ExitLevel() {
	if c.level == 0 {
		panic("cache: ExitLevel without matching EnterLevel")
	}
	c.level--
}

// --- Type variables ---

// FreshVar allocates a new unbound type variable at the current level.
func (c *Cache) FreshVar(kind Kind) TypeVarID {
	id := TypeVarID(len(c.bindings))
	c.bindings = append(c.bindings, Binding{Bound: false, Level: c.level, Kind: kind})
	return id
}

// FreshVarAtLevel allocates a new unbound type variable at an explicit level.
// Instantiation does not use it: it calls FreshVar, which always introduces
// variables at the current level regardless of the quantifier's original
// level.
func (c *Cache) FreshVarAtLevel(kind Kind, level int) TypeVarID {
	id := TypeVarID(len(c.bindings))
	c.bindings = append(c.bindings, Binding{Bound: false, Level: level, Kind: kind})
	return id
}

// Lookup returns the current binding state of a type variable.
func (c *Cache) Lookup(id TypeVarID) Binding {
	return c.bindings[id]
}

// Bind records that a type variable is now bound to a concrete type term.
// Callers are responsible for having performed the occurs check first.
func (c *Cache) Bind(id TypeVarID, t interface{}) {
	c.bindings[id] = Binding{Bound: true, Type: t}
}

// LowerLevel lowers the recorded level of an unbound variable to the minimum
// of its current level and newLevel (spec.md §4.1: unification "lowers the
// level of one variable to match the other").
func (c *Cache) LowerLevel(id TypeVarID, newLevel int) {
	b := c.bindings[id]
	if b.Bound {
		return
	}
	if newLevel < b.Level {
		b.Level = newLevel
		c.bindings[id] = b
	}
}

// --- Lifetime variables ---

// FreshLifetime allocates a new lifetime variable at the current level.
func (c *Cache) FreshLifetime() LifetimeID {
	id := LifetimeID(len(c.lifetime))
	c.lifetime = append(c.lifetime, c.level)
	return id
}

// --- Definitions ---

// NewDef interns a definition and returns its id. The name is
// NFC-normalised first so two source spellings of the same identifier
// (e.g. a precomposed vs. combining-mark accented letter) intern to the
// same id instead of silently shadowing one another.
func (c *Cache) NewDef(info DefInfo) DefID {
	id := DefID(len(c.defs))
	if info.Name != "" {
		info.Name = norm.NFC.String(info.Name)
	}
	c.defs = append(c.defs, info)
	if info.Name != "" {
		c.names[info.Name] = id
	}
	return id
}

// Def returns the cache-resident record for a definition.
func (c *Cache) Def(id DefID) *DefInfo { return &c.defs[id] }

// LookupDefByName finds the most recently interned definition with a given
// name, used by simple driver/test code that doesn't carry pre-resolved ids.
func (c *Cache) LookupDefByName(name string) (DefID, bool) {
	id, ok := c.names[norm.NFC.String(name)]
	return id, ok
}

// --- Traits & impls ---

func (c *Cache) NewTrait(info TraitInfo) TraitID {
	id := TraitID(len(c.traits))
	c.traits = append(c.traits, info)
	return id
}

func (c *Cache) Trait(id TraitID) *TraitInfo { return &c.traits[id] }

func (c *Cache) NewImpl(info ImplInfo) ImplID {
	id := ImplID(len(c.impls))
	c.impls = append(c.impls, info)
	return id
}

func (c *Cache) Impl(id ImplID) *ImplInfo { return &c.impls[id] }

// ImplsForTrait returns every impl registered for a trait, in registration
// order; types.Resolve treats more than one matching impl as an ambiguity
// error (spec.md §7).
func (c *Cache) ImplsForTrait(t TraitID) []ImplID {
	var out []ImplID
	for i, impl := range c.impls {
		if impl.Trait == t {
			out = append(out, ImplID(i))
		}
	}
	return out
}

// --- Occurrences ---

func (c *Cache) NewOcc(info OccInfo) OccID {
	id := OccID(len(c.occs))
	c.occs = append(c.occs, info)
	return id
}

func (c *Cache) Occ(id OccID) *OccInfo { return &c.occs[id] }

// --- Type infos ---

func (c *Cache) NewTypeInfo(info TypeInfo) TypeInfoID {
	id := TypeInfoID(len(c.tinfos))
	c.tinfos = append(c.tinfos, info)
	return id
}

func (c *Cache) TypeInfo(id TypeInfoID) *TypeInfo { return &c.tinfos[id] }

// Stats is a small debugging snapshot, useful for diagnostics and tests.
type Stats struct {
	TypeVars, Defs, Traits, Impls, Occs, TypeInfos int
}

func (c *Cache) Stats() Stats {
	return Stats{
		TypeVars:  len(c.bindings),
		Defs:      len(c.defs),
		Traits:    len(c.traits),
		Impls:     len(c.impls),
		Occs:      len(c.occs),
		TypeInfos: len(c.tinfos),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("vars=%d defs=%d traits=%d impls=%d occs=%d types=%d",
		s.TypeVars, s.Defs, s.Traits, s.Impls, s.Occs, s.TypeInfos)
}
