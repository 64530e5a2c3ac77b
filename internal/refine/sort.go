// Package refine implements the refinement/SMT bridge of spec.md §4.6: it
// lowers monomorphised IR (internal/ir) to a first-order SMT-LIB2 text
// encoding, so an external solver can check refinement preconditions. No
// dependency in the example pack offers SMT solving, so this package emits
// SMT-LIB2 as plain text rather than driving a solver binding directly.
package refine

import (
	"fmt"
	"strings"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/types"
)

// SortKind enumerates the SMT sort shapes spec.md §4.6 requires.
type SortKind int

const (
	SortInt SortKind = iota
	SortBool
	SortReal
	SortUninterpreted
	SortDatatype
)

// Sort is an SMT-LIB2 sort: a builtin (Int/Bool/Real) or a named
// uninterpreted/datatype sort declared earlier in the script.
type Sort struct {
	Kind SortKind
	Name string // meaningful only for Uninterpreted/Datatype
}

func (s Sort) String() string {
	switch s.Kind {
	case SortInt:
		return "Int"
	case SortBool:
		return "Bool"
	case SortReal:
		return "Real"
	default:
		return s.Name
	}
}

var (
	intSort  = Sort{Kind: SortInt}
	boolSort = Sort{Kind: SortBool}
	realSort = Sort{Kind: SortReal}
)

// SortOf translates an inferred type to its SMT sort (spec.md §4.6):
// int/char -> Int, bool/unit -> Bool, float -> Real, nominal struct/sum
// types -> a declared datatype sort, function types and references ->
// uninterpreted sorts keyed by their signature.
func (e *Encoder) SortOf(t types.Type) (Sort, error) {
	t = types.Follow(e.Cache, t)
	switch v := t.(type) {
	case *types.TPrim:
		switch v.Kind {
		case types.PInt, types.PChar:
			return intSort, nil
		case types.PBool, types.PUnit:
			return boolSort, nil
		case types.PFloat:
			return realSort, nil
		case types.PRawPtr:
			return e.uninterpreted("RawPtr"), nil
		default:
			return Sort{}, fmt.Errorf("refine: unsupported primitive kind %v", v.Kind)
		}

	case *types.TNominal:
		return e.declareDatatype(v.Info)

	case *types.TApp:
		// Polymorphism is already erased by the time IR reaches this
		// bridge; a TApp surviving here names a concrete instantiation of
		// its constructor, so the constructor's own sort stands in for it.
		return e.SortOf(v.Ctor)

	case *types.TFunc:
		return e.uninterpreted(e.funcSortName(v)), nil

	case *types.TRef:
		elemSort, err := e.SortOf(v.Elem)
		if err != nil {
			return Sort{}, err
		}
		return e.uninterpreted(fmt.Sprintf("Ref_%s", elemSort)), nil

	case *types.TVar:
		return Sort{}, fmt.Errorf("refine: unresolved type variable %s reached the refinement bridge", v)

	default:
		return Sort{}, fmt.Errorf("refine: no SMT sort for %T", t)
	}
}

// uninterpreted returns (declaring if needed) a nullary uninterpreted sort
// of the given name.
func (e *Encoder) uninterpreted(name string) Sort {
	if !e.declaredSorts[name] {
		e.declaredSorts[name] = true
		fmt.Fprintf(&e.decls, "(declare-sort %s 0)\n", name)
	}
	return Sort{Kind: SortUninterpreted, Name: name}
}

// funcSortName derives a stable name for a function type's uninterpreted
// sort from its signature (spec.md §4.6: "uninterpreted sorts keyed by the
// full function signature").
func (e *Encoder) funcSortName(f *types.TFunc) string {
	if name, ok := e.funcSortNames[f.String()]; ok {
		return name
	}
	name := fmt.Sprintf("Fn%d", len(e.funcSortNames))
	e.funcSortNames[f.String()] = name
	return name
}

// datatypeDecl is a pending or emitted SMT datatype declaration for one
// nominal struct or sum type.
type datatypeDecl struct {
	name  string
	ctors []ctorDecl
}

type ctorDecl struct {
	name   string
	fields []fieldDecl
}

type fieldDecl struct {
	name string
	sort Sort
}

// smtlib renders a declare-datatypes command (spec.md §4.6: "Nominal
// struct types → SMT datatypes with one constructor ...; Nominal sum
// types → SMT datatypes with one constructor per variant").
func (d *datatypeDecl) smtlib() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(declare-datatypes ((%s 0)) ((", d.name)
	for i, c := range d.ctors {
		if i > 0 {
			b.WriteByte(' ')
		}
		if len(c.fields) == 0 {
			fmt.Fprintf(&b, "(%s)", c.name)
			continue
		}
		fmt.Fprintf(&b, "(%s", c.name)
		for _, f := range c.fields {
			fmt.Fprintf(&b, " (%s %s)", f.name, f.sort)
		}
		b.WriteByte(')')
	}
	b.WriteString(")))\n")
	return b.String()
}

// declareDatatype emits (once) the SMT datatype for a nominal type,
// reading each constructor's field types from the scheme the checker
// attached in registerTypeDef.
func (e *Encoder) declareDatatype(info cache.TypeInfoID) (Sort, error) {
	if d, ok := e.datatypes[info]; ok {
		return Sort{Kind: SortDatatype, Name: d.name}, nil
	}
	ti := e.Cache.TypeInfo(info)
	d := &datatypeDecl{name: ti.Name}
	// Reserve the slot before recursing into field types, so a
	// self-referential type (e.g. a list constructor) doesn't recurse
	// forever trying to redeclare its own datatype.
	e.datatypes[info] = d
	e.datatypesByName[ti.Name] = d

	for _, ctorID := range ti.Ctors {
		def := e.Cache.Def(ctorID)
		scheme, ok := e.Schemes.Get(ctorID)
		if !ok {
			return Sort{}, fmt.Errorf("refine: constructor %q has no registered field scheme", def.Name)
		}
		fn, ok := scheme.Body.(*types.TFunc)
		if !ok {
			return Sort{}, fmt.Errorf("refine: constructor %q scheme is not a function type", def.Name)
		}
		cd := ctorDecl{name: def.Name}
		for i, p := range fn.Params {
			sort, err := e.SortOf(p)
			if err != nil {
				return Sort{}, fmt.Errorf("refine: field %d of %q: %w", i, def.Name, err)
			}
			cd.fields = append(cd.fields, fieldDecl{name: fmt.Sprintf("%s.%d", def.Name, i), sort: sort})
		}
		d.ctors = append(d.ctors, cd)
	}

	e.decls.WriteString(d.smtlib())
	return Sort{Kind: SortDatatype, Name: d.name}, nil
}
