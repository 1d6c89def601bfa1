package extensibility

import (
	"fmt"
	"strconv"
	"strings"
)

// Values is a host whose named values guard expressions can read, such as
// hsm.Context.
type Values interface {
	Get(key string) (any, bool)
}

// Store is a host that assignment actions can write to.
type Store interface {
	Values
	Set(key string, val any)
}

// GuardExpr is a parsed guard expression. Three forms are accepted:
//
//	key            key holds a truthy value
//	!key           key is absent or holds a falsy value
//	key op value   op is one of == != < <= > >=
//
// Truthy means true, a non-zero number or a non-empty string. Numbers
// compare by value whatever their Go type; < <= > >= need numbers on both
// sides and are false otherwise. An absent key makes every comparison
// false except !=.
type GuardExpr struct {
	src    string
	key    string
	op     string
	negate bool
	value  any
}

var comparisons = []string{"==", "!=", "<=", ">=", "<", ">"}

// ParseGuard parses expr.
func ParseGuard(expr string) (*GuardExpr, error) {
	src := strings.TrimSpace(expr)
	g := &GuardExpr{src: src}

	parts := strings.Fields(src)
	switch len(parts) {
	case 1:
		g.key = parts[0]
		if strings.HasPrefix(g.key, "!") {
			g.negate = true
			g.key = g.key[1:]
		}
	case 3:
		g.key, g.op = parts[0], parts[1]
		if !isComparison(g.op) {
			return nil, fmt.Errorf("guard %q: unknown operator %q", expr, g.op)
		}
		g.value = parseLiteral(parts[2])
	default:
		return nil, fmt.Errorf("guard %q: want \"key\", \"!key\" or \"key op value\"", expr)
	}
	if !isKey(g.key) {
		return nil, fmt.Errorf("guard %q: invalid key %q", expr, g.key)
	}
	return g, nil
}

// Eval evaluates the guard against v.
func (g *GuardExpr) Eval(v Values) bool {
	cur, ok := v.Get(g.key)
	if g.op == "" {
		return truthy(cur, ok) != g.negate
	}
	if !ok {
		return g.op == "!="
	}

	switch g.op {
	case "==":
		return equal(cur, g.value)
	case "!=":
		return !equal(cur, g.value)
	}
	a, ok1 := number(cur)
	b, ok2 := number(g.value)
	if !ok1 || !ok2 {
		return false
	}
	switch g.op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func (g *GuardExpr) String() string { return g.src }

// Assignment is a parsed assignment action "key = value". Values are typed
// like guard literals: true, false, nil, integers, floats, quoted or bare
// strings.
type Assignment struct {
	Key   string
	Value any
}

// ParseAssignment parses expr.
func ParseAssignment(expr string) (*Assignment, error) {
	key, val, ok := strings.Cut(expr, "=")
	key, val = strings.TrimSpace(key), strings.TrimSpace(val)
	if !ok || val == "" || strings.ContainsAny(val, "=") {
		return nil, fmt.Errorf("action %q: want \"key = value\"", expr)
	}
	if !isKey(key) {
		return nil, fmt.Errorf("action %q: invalid key %q", expr, key)
	}
	return &Assignment{Key: key, Value: parseLiteral(val)}, nil
}

// Apply stores the value.
func (a *Assignment) Apply(s Store) {
	s.Set(a.Key, a.Value)
}

func (a *Assignment) String() string {
	return fmt.Sprintf("%s = %v", a.Key, a.Value)
}

func isComparison(op string) bool {
	for _, c := range comparisons {
		if op == c {
			return true
		}
	}
	return false
}

func isKey(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func parseLiteral(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "nil":
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equal(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	}
	return false
}

func truthy(v any, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	if n, isNum := number(v); isNum {
		return n != 0
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	}
	return true
}
