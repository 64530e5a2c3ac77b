package refine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/types"
)

// defState tracks one definition's position in the unseen -> seen ->
// encoded state machine of spec.md §4.6. The zero value is unseen.
type defState int

const (
	unseen defState = iota
	seen
	encoded
)

// Term is one encoded SMT-LIB2 expression. A Term with Pure == false
// poisons any enclosing expression that consumes it (spec.md §4.6:
// "Impure expressions ... yield an impure refinement value that poisons
// any enclosing refinement").
type Term struct {
	Expr string
	Sort Sort
	Pure bool
}

func impureTerm(sort Sort) Term { return Term{Sort: sort, Pure: false} }

// Encoder lowers a monomorphised IR program to SMT-LIB2 text. It owns the
// sort/datatype declaration tables (sort.go) plus the definition state
// machine and accumulated output.
type Encoder struct {
	Cache   *cache.Cache
	Schemes *types.SchemeTable

	// defTypes gives each top-level ir.Def's concrete monotype, lost by
	// the time it reaches this package's ir.Node tree; the caller is
	// expected to have kept it from the monomorphiser (Monomorphizer.DefTypes).
	defTypes map[string]types.Type

	declaredSorts   map[string]bool
	funcSortNames   map[string]string
	datatypes       map[cache.TypeInfoID]*datatypeDecl
	datatypesByName map[string]*datatypeDecl
	defsByName      map[string]*ir.Def

	decls   strings.Builder // declare-sort / declare-datatypes / declare-fun
	bodies  strings.Builder // forall-equation assertions for encoded bodies
	asserts strings.Builder // given-clause preconditions asserted at call sites

	state  map[string]defState
	hasPre map[string]bool
}

// NewEncoder creates an encoder over a cache/scheme table already
// populated by inference, and a def name -> monotype map recorded by the
// monomorphiser.
func NewEncoder(c *cache.Cache, schemes *types.SchemeTable, defTypes map[string]types.Type) *Encoder {
	return &Encoder{
		Cache:           c,
		Schemes:         schemes,
		defTypes:        defTypes,
		declaredSorts:   make(map[string]bool),
		funcSortNames:   make(map[string]string),
		datatypes:       make(map[cache.TypeInfoID]*datatypeDecl),
		datatypesByName: make(map[string]*datatypeDecl),
		defsByName:      make(map[string]*ir.Def),
		state:           make(map[string]defState),
		hasPre:          make(map[string]bool),
	}
}

// EncodeProgram translates every reachable definition of prog and returns
// the assembled SMT-LIB2 script.
func EncodeProgram(c *cache.Cache, schemes *types.SchemeTable, defTypes map[string]types.Type, prog *ir.Program) (string, error) {
	e := NewEncoder(c, schemes, defTypes)
	byName := make(map[string]*ir.Def, len(prog.Defs))
	for _, d := range prog.Defs {
		byName[d.Name] = d
	}
	e.defsByName = byName
	for _, d := range prog.Defs {
		if err := e.encodeDef(d); err != nil {
			return "", err
		}
	}
	var out strings.Builder
	out.WriteString(e.decls.String())
	out.WriteString(e.bodies.String())
	out.WriteString(e.asserts.String())
	return out.String(), nil
}

func (e *Encoder) encodeDef(d *ir.Def) error {
	if e.state[d.Name] == encoded || e.state[d.Name] == seen {
		return nil
	}

	fn, _ := e.funcTypeOf(d.Name)
	var params []ir.Param
	body := d.Value
	if lam, ok := d.Value.(*ir.Lambda); ok {
		params = lam.Params
		body = lam.Body
	}

	paramSorts := make([]Sort, len(params))
	env := make(map[string]Term, len(params))
	if fn != nil && len(fn.Params) == len(params) {
		for i, p := range params {
			s, err := e.SortOf(fn.Params[i])
			if err != nil {
				return fmt.Errorf("refine: %s param %d: %w", d.Name, i, err)
			}
			paramSorts[i] = s
			env[p.Name] = Term{Expr: p.Name, Sort: s, Pure: true}
		}
	}

	var retSort Sort
	if fn != nil {
		s, err := e.SortOf(fn.Return)
		if err != nil {
			return fmt.Errorf("refine: %s return: %w", d.Name, err)
		}
		retSort = s
	} else {
		retSort = boolSort
	}

	// Placeholder: declare the function symbol before encoding its body,
	// so a self-referential (or mutually recursive) call within the body
	// resolves against a real declaration (spec.md §4.6 "placeholder
	// constant ... prevents infinite recursion on self-referential
	// definitions").
	e.state[d.Name] = seen
	paramDecl := make([]string, len(paramSorts))
	for i, s := range paramSorts {
		paramDecl[i] = s.String()
	}
	fmt.Fprintf(&e.decls, "(declare-fun %s (%s) %s)\n", d.Name, strings.Join(paramDecl, " "), retSort)

	if len(d.Given) > 0 {
		pre, ok := e.encodeConjunction(d.Given, env)
		if ok {
			fmt.Fprintf(&e.decls, "(declare-fun %s$pre (%s) Bool)\n", d.Name, strings.Join(paramDecl, " "))
			fmt.Fprintf(&e.bodies, "(assert (forall (%s) (= (%s$pre %s) %s)))\n",
				forallParams(params, paramSorts), d.Name, spaceNames(params), pre.Expr)
			e.hasPre[d.Name] = true
		}
	}

	bodyTerm, err := e.encodeExpr(body, env)
	if err != nil {
		return err
	}
	if bodyTerm.Pure {
		fmt.Fprintf(&e.bodies, "(assert (forall (%s) (= (%s %s) %s)))\n",
			forallParams(params, paramSorts), d.Name, spaceNames(params), bodyTerm.Expr)
	}
	// An impure body leaves the declare-fun as a pure uninterpreted
	// symbol: correct (it poisons any caller that inlines it further) but
	// unconstrained, which is the intended fallback for anything not
	// purely translatable.

	e.state[d.Name] = encoded
	return nil
}

func forallParams(params []ir.Param, sorts []Sort) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("(%s %s)", p.Name, sorts[i])
	}
	return strings.Join(parts, " ")
}

func spaceNames(params []ir.Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return strings.Join(names, " ")
}

// encodeConjunction encodes a list of boolean expressions and ANDs them
// together; returns ok=false if any clause is impure (the precondition is
// then skipped rather than asserted unsoundly).
func (e *Encoder) encodeConjunction(nodes []ir.Node, env map[string]Term) (Term, bool) {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		t, err := e.encodeExpr(n, env)
		if err != nil || !t.Pure {
			return Term{}, false
		}
		parts = append(parts, t.Expr)
	}
	if len(parts) == 0 {
		return Term{Expr: "true", Sort: boolSort, Pure: true}, true
	}
	return Term{Expr: fmt.Sprintf("(and %s)", strings.Join(parts, " ")), Sort: boolSort, Pure: true}, true
}

func (e *Encoder) funcTypeOf(name string) (*types.TFunc, bool) {
	t, ok := e.defTypes[name]
	if !ok {
		return nil, false
	}
	fn, ok := types.Follow(e.Cache, t).(*types.TFunc)
	return fn, ok
}

var builtinOps = map[ir.Builtin]string{
	ir.AddInt: "+", ir.SubInt: "-", ir.MulInt: "*", ir.DivInt: "div",
	ir.AddFloat: "+", ir.SubFloat: "-", ir.MulFloat: "*", ir.DivFloat: "/",
	ir.LessInt: "<", ir.LessFloat: "<",
	ir.EqInt: "=", ir.EqFloat: "=", ir.EqBool: "=",
}

// encodeExpr lowers one IR node to an SMT-LIB2 term, propagating
// impurity for anything the bridge cannot purely translate (spec.md
// §4.6).
func (e *Encoder) encodeExpr(n ir.Node, env map[string]Term) (Term, error) {
	switch v := n.(type) {
	case *ir.Lit:
		return e.encodeLit(v)

	case *ir.Var:
		if t, ok := env[v.Name]; ok {
			return t, nil
		}
		def, ok := e.defsByName[v.Name]
		if !ok {
			return impureTerm(Sort{}), nil
		}
		if err := e.encodeDef(def); err != nil {
			return Term{}, err
		}
		if fn, ok := e.funcTypeOf(v.Name); ok && len(fn.Params) > 0 {
			// A bare reference to a multi-arg function names the symbol
			// itself (spec.md §4.6: "first-class function values are
			// represented by fresh constants of that sort").
			sort, err := e.SortOf(fn)
			if err != nil {
				return Term{}, err
			}
			return Term{Expr: v.Name, Sort: sort, Pure: true}, nil
		}
		retSort, err := e.zeroArityReturnSort(v.Name)
		if err != nil {
			return Term{}, err
		}
		return Term{Expr: fmt.Sprintf("(%s)", v.Name), Sort: retSort, Pure: true}, nil

	case *ir.Call:
		return e.encodeCall(v, env)

	case *ir.BuiltinCall:
		return e.encodeBuiltin(v, env)

	case *ir.If:
		cond, err := e.encodeExpr(v.Cond, env)
		if err != nil {
			return Term{}, err
		}
		then, err := e.encodeExpr(v.Then, env)
		if err != nil {
			return Term{}, err
		}
		els, err := e.encodeExpr(v.Else, env)
		if err != nil {
			return Term{}, err
		}
		if !cond.Pure || !then.Pure || !els.Pure {
			return impureTerm(then.Sort), nil
		}
		return Term{Expr: fmt.Sprintf("(ite %s %s %s)", cond.Expr, then.Expr, els.Expr), Sort: then.Sort, Pure: true}, nil

	case *ir.Return:
		return e.encodeExpr(v.Expr, env)

	case *ir.MemberAccess:
		return e.encodeMemberAccess(v, env)

	case *ir.Match, *ir.Sequence, *ir.Assignment, *ir.Extern, *ir.Tuple, *ir.Lambda, *ir.ReinterpretCast:
		// Decision-tree matches, effectful statements, nested closures and
		// raw layout casts are not purely translatable by this bridge;
		// they poison the enclosing refinement (spec.md §4.6).
		return impureTerm(Sort{}), nil

	default:
		return impureTerm(Sort{}), nil
	}
}

func (e *Encoder) encodeLit(l *ir.Lit) (Term, error) {
	switch l.Kind {
	case ir.LitInt:
		return Term{Expr: strconv.FormatInt(l.Int, 10), Sort: intSort, Pure: true}, nil
	case ir.LitFloat:
		s := strconv.FormatFloat(l.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return Term{Expr: s, Sort: realSort, Pure: true}, nil
	case ir.LitChar:
		return Term{Expr: strconv.FormatInt(int64(l.Char), 10), Sort: intSort, Pure: true}, nil
	case ir.LitBool:
		if l.Bool {
			return Term{Expr: "true", Sort: boolSort, Pure: true}, nil
		}
		return Term{Expr: "false", Sort: boolSort, Pure: true}, nil
	case ir.LitUnit:
		return Term{Expr: "true", Sort: boolSort, Pure: true}, nil
	default:
		// String literals have no sort in spec.md §4.6's scope.
		return impureTerm(e.uninterpreted("Str")), nil
	}
}

func (e *Encoder) encodeBuiltin(b *ir.BuiltinCall, env map[string]Term) (Term, error) {
	switch b.Op {
	case ir.SignExtend, ir.ZeroExtend, ir.Truncate:
		// SMT Int is unbounded; a width cast has no visible effect on the
		// logical value.
		if len(b.Args) != 1 {
			return impureTerm(Sort{}), nil
		}
		return e.encodeExpr(b.Args[0], env)

	case ir.Deref, ir.Offset, ir.Transmute, ir.StackAlloc:
		return impureTerm(Sort{}), nil
	}

	op, ok := builtinOps[b.Op]
	if !ok {
		return impureTerm(Sort{}), nil
	}
	args := make([]string, len(b.Args))
	pure := true
	var sort Sort
	for i, a := range b.Args {
		t, err := e.encodeExpr(a, env)
		if err != nil {
			return Term{}, err
		}
		if !t.Pure {
			pure = false
		}
		args[i] = t.Expr
		sort = t.Sort
	}
	if !pure {
		return impureTerm(resultSortFor(b.Op, sort)), nil
	}
	expr := fmt.Sprintf("(%s %s)", op, strings.Join(args, " "))
	return Term{Expr: expr, Sort: resultSortFor(b.Op, sort), Pure: true}, nil
}

func resultSortFor(op ir.Builtin, operandSort Sort) Sort {
	switch op {
	case ir.LessInt, ir.LessFloat, ir.EqInt, ir.EqFloat, ir.EqBool:
		return boolSort
	default:
		return operandSort
	}
}

func (e *Encoder) encodeCall(c *ir.Call, env map[string]Term) (Term, error) {
	fnVar, ok := c.Fn.(*ir.Var)
	if !ok {
		return impureTerm(Sort{}), nil
	}
	def, ok := e.defsByName[fnVar.Name]
	if !ok {
		return impureTerm(Sort{}), nil
	}
	if err := e.encodeDef(def); err != nil {
		return Term{}, err
	}
	args := make([]string, len(c.Args))
	pure := true
	for i, a := range c.Args {
		t, err := e.encodeExpr(a, env)
		if err != nil {
			return Term{}, err
		}
		if !t.Pure {
			pure = false
		}
		args[i] = t.Expr
	}
	retSort, err := e.zeroArityReturnSort(fnVar.Name)
	if err != nil {
		return Term{}, err
	}
	if e.hasPre[fnVar.Name] && pure {
		fmt.Fprintf(&e.asserts, "(assert (%s$pre %s))\n", fnVar.Name, strings.Join(args, " "))
	}
	if !pure {
		return impureTerm(retSort), nil
	}
	return Term{Expr: fmt.Sprintf("(%s %s)", fnVar.Name, strings.Join(args, " ")), Sort: retSort, Pure: true}, nil
}

func (e *Encoder) zeroArityReturnSort(name string) (Sort, error) {
	if fn, ok := e.funcTypeOf(name); ok {
		return e.SortOf(fn.Return)
	}
	return boolSort, nil
}

// encodeMemberAccess supports field projection only for single-
// constructor (struct) nominal types, where the field index unambiguously
// names one SMT accessor; a sum-typed collection poisons the access since
// picking the right variant's accessor needs the decision tree this
// bridge does not run.
func (e *Encoder) encodeMemberAccess(m *ir.MemberAccess, env map[string]Term) (Term, error) {
	coll, err := e.encodeExpr(m.Collection, env)
	if err != nil {
		return Term{}, err
	}
	if !coll.Pure || coll.Sort.Kind != SortDatatype {
		return impureTerm(Sort{}), nil
	}
	d, ok := e.datatypesByName[coll.Sort.Name]
	if !ok || len(d.ctors) != 1 || m.FieldIndex >= len(d.ctors[0].fields) {
		return impureTerm(Sort{}), nil
	}
	field := d.ctors[0].fields[m.FieldIndex]
	return Term{Expr: fmt.Sprintf("(%s %s)", field.name, coll.Expr), Sort: field.sort, Pure: true}, nil
}
