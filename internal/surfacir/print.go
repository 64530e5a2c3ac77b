package surfacir

import (
	"encoding/json"
	"fmt"
)

// Print produces a deterministic JSON representation of an AST node, used
// for golden snapshot testing. Positions are omitted so golden files stay
// stable across column/line drift in unrelated test fixtures.
func Print(node Node) string {
	if node == nil {
		return "null"
	}
	data, err := json.MarshalIndent(simplify(node), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func simplify(n interface{}) interface{} {
	switch v := n.(type) {
	case *Module:
		return map[string]interface{}{
			"type":    "Module",
			"path":    v.Path,
			"imports": simplifyAll(v.Imports),
			"types":   simplifyAll(v.Types),
			"traits":  simplifyAll(v.Traits),
			"impls":   simplifyAll(v.Impls),
			"defs":    simplifyAll(v.Defs),
		}
	case *Literal:
		return map[string]interface{}{"type": "Literal", "kind": litKindName(v.Kind), "value": litValue(v)}
	case *Variable:
		return map[string]interface{}{"type": "Variable", "name": v.Name}
	case *Lambda:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			params[i] = p.Name
		}
		return map[string]interface{}{"type": "Lambda", "params": params, "body": simplify(v.Body)}
	case *Call:
		return map[string]interface{}{"type": "Call", "fn": simplify(v.Fn), "args": simplifyAll(v.Args)}
	case *Definition:
		return map[string]interface{}{"type": "Definition", "mutable": v.Mutable, "rhs": simplify(v.RHS)}
	case *If:
		return map[string]interface{}{"type": "If", "cond": simplify(v.Cond), "then": simplify(v.Then), "else": simplify(v.Else)}
	case *Match:
		return map[string]interface{}{"type": "Match", "scrutinee": simplify(v.Scrutinee), "arms": len(v.Arms)}
	case *TypeAnnotation:
		return map[string]interface{}{"type": "TypeAnnotation", "expr": simplify(v.Expr)}
	case *MemberAccess:
		return map[string]interface{}{"type": "MemberAccess", "field": v.Field, "collection": simplify(v.Collection)}
	case *Assignment:
		return map[string]interface{}{"type": "Assignment", "lhs": simplify(v.LHS), "rhs": simplify(v.RHS)}
	case *Return:
		return map[string]interface{}{"type": "Return", "expr": simplify(v.Expr)}
	case *Sequence:
		return map[string]interface{}{"type": "Sequence", "stmts": simplifyAll(v.Stmts)}
	case *Extern:
		return map[string]interface{}{"type": "Extern", "name": v.Name}
	case *Import:
		return map[string]interface{}{"type": "Import", "path": v.Path, "symbols": v.Symbols}
	case *TypeDef:
		return map[string]interface{}{"type": "TypeDef", "name": v.Name, "ctors": len(v.Ctors)}
	case *TraitDef:
		return map[string]interface{}{"type": "TraitDef", "name": v.Name, "arity": v.Arity}
	case *TraitImpl:
		return map[string]interface{}{"type": "TraitImpl", "defs": len(v.Defs)}
	case nil:
		return nil
	default:
		return fmt.Sprintf("%v", v)
	}
}

func litKindName(k LiteralKind) string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitChar:
		return "char"
	case LitBool:
		return "bool"
	case LitUnit:
		return "unit"
	case LitString:
		return "string"
	default:
		return "unknown"
	}
}

func litValue(l *Literal) interface{} {
	switch l.Kind {
	case LitInt:
		return l.IntVal
	case LitFloat:
		return l.FloatVal
	case LitChar:
		return string(l.CharVal)
	case LitBool:
		return l.BoolVal
	case LitString:
		return l.StringVal
	default:
		return nil
	}
}

func simplifyAll[T any](nodes []T) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = simplify(n)
	}
	return out
}
