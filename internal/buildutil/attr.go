// Package buildutil provides utilities for reading Starlark declaration
// calls from buildtools AST nodes.
package buildutil

import (
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// Attr returns the expression bound to the named argument of call.
func Attr(call *build.CallExpr, name string) (build.Expr, bool) {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS, true
		}
	}
	return nil, false
}

// AttrNames returns the names of all named arguments in call order.
func AttrNames(call *build.CallExpr) []string {
	var names []string
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok {
			names = append(names, lhs.Name)
		}
	}
	return names
}

// String extracts a string attribute from a function call by name.
// If name is empty, the first positional argument is used instead.
// The second result is false if the attribute is missing or not a string.
func String(call *build.CallExpr, name string) (string, bool) {
	var expr build.Expr
	if name == "" {
		if len(call.List) == 0 {
			return "", false
		}
		expr = call.List[0]
	} else {
		e, ok := Attr(call, name)
		if !ok {
			return "", false
		}
		expr = e
	}

	if str, ok := expr.(*build.StringExpr); ok {
		return str.Value, true
	}
	return "", false
}

// Bool extracts a True/False attribute. The second result is false if the
// attribute is missing or not one of those identifiers.
func Bool(call *build.CallExpr, name string) (bool, bool) {
	expr, ok := Attr(call, name)
	if !ok {
		return false, false
	}
	ident, ok := expr.(*build.Ident)
	if !ok {
		return false, false
	}
	switch ident.Name {
	case "True":
		return true, true
	case "False":
		return false, true
	}
	return false, false
}

// IsNone returns true if the named attribute exists and is set to None.
func IsNone(call *build.CallExpr, name string) bool {
	expr, ok := Attr(call, name)
	if !ok {
		return false
	}
	ident, ok := expr.(*build.Ident)
	return ok && ident.Name == "None"
}

// Value converts a literal expression to a Go value.
// Strings, integers, True/False/None, lists and string-keyed dicts are
// handled; anything else returns ok=false.
func Value(expr build.Expr) (any, bool) {
	switch e := expr.(type) {
	case *build.StringExpr:
		return e.Value, true
	case *build.LiteralExpr:
		if n, err := strconv.ParseInt(e.Token, 0, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(e.Token, 64); err == nil {
			return f, true
		}
		return nil, false
	case *build.UnaryExpr:
		if e.Op != "-" {
			return nil, false
		}
		v, ok := Value(e.X)
		switch n := v.(type) {
		case int64:
			return -n, ok
		case float64:
			return -n, ok
		}
		return nil, false
	case *build.Ident:
		switch e.Name {
		case "True":
			return true, true
		case "False":
			return false, true
		case "None":
			return nil, true
		}
		return nil, false
	case *build.ListExpr:
		result := make([]any, 0, len(e.List))
		for _, item := range e.List {
			v, ok := Value(item)
			if !ok {
				return nil, false
			}
			result = append(result, v)
		}
		return result, true
	case *build.DictExpr:
		result := make(map[string]any, len(e.List))
		for _, kv := range e.List {
			key, ok := kv.Key.(*build.StringExpr)
			if !ok {
				return nil, false
			}
			v, ok := Value(kv.Value)
			if !ok {
				return nil, false
			}
			result[key.Value] = v
		}
		return result, true
	}
	return nil, false
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Position returns the 1-based line and column where expr starts.
func Position(expr build.Expr) (line, column int) {
	start, _ := expr.Span()
	return start.Line, start.LineRune
}
