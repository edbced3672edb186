package ruleexpr

import "w3rt.dev/core/internal/ctxtree"

// Eval evaluates e against root, the run/policy context tree.
func Eval(e Expr, root map[string]any) bool {
	switch t := e.(type) {
	case ConstBool:
		return t.Value
	case Truthy:
		v, ok := ctxtree.GetPath(root, t.Path)
		return ctxtree.Truthy(v, ok)
	case Not:
		return !Eval(t.X, root)
	case And:
		return Eval(t.X, root) && Eval(t.Y, root)
	case Or:
		return Eval(t.X, root) || Eval(t.Y, root)
	case Cmp:
		return evalCmp(t, root)
	default:
		return false
	}
}

func evalCmp(c Cmp, root map[string]any) bool {
	v, ok := ctxtree.GetPath(root, c.Path)
	if !ok || v == nil {
		// Missing paths participate in comparisons as undefined: every
		// comparison is false except inequality, which is true (spec.md §9).
		return c.Op == "!="
	}

	switch c.Lit.Kind {
	case LitNumber:
		fv, isNum := asNumber(v)
		if !isNum {
			return c.Op == "!="
		}
		return compareNumbers(fv, c.Lit.Num, c.Op)
	case LitString:
		sv, isStr := v.(string)
		if !isStr {
			return c.Op == "!="
		}
		return compareStrings(sv, c.Lit.Str, c.Op)
	case LitBool:
		bv, isBool := v.(bool)
		if !isBool {
			return c.Op == "!="
		}
		switch c.Op {
		case "==":
			return bv == c.Lit.Bool
		case "!=":
			return bv != c.Lit.Bool
		default:
			return false
		}
	default:
		return false
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func compareNumbers(a, b float64, op string) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case "<=":
		return a <= b
	default:
		return false
	}
}

func compareStrings(a, b, op string) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case "<=":
		return a <= b
	default:
		return false
	}
}

// EvalString parses and evaluates s in one call. Parse errors make the
// expression evaluate false; callers that need to surface parse failures
// should call Parse directly.
func EvalString(s string, root map[string]any) bool {
	e, err := Parse(s)
	if err != nil {
		return false
	}
	return Eval(e, root)
}
