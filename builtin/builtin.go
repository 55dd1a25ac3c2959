// Package builtin provides ready-made node functions for graphs loaded from
// YAML or HCL files.
package builtin

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/kbukum/flowgraph/errors"
	"github.com/kbukum/flowgraph/flow"
)

// Functions maps every builtin name to its function.
var Functions = map[string]flow.Func{
	"add":      arith(addInt, func(a, b float64) (float64, error) { return a + b, nil }),
	"sub":      arith(subInt, func(a, b float64) (float64, error) { return a - b, nil }),
	"mul":      arith(mulInt, func(a, b float64) (float64, error) { return a * b, nil }),
	"div":      arith(divInt, divFloat),
	"sum":      sum,
	"concat":   concat,
	"join":     join,
	"upper":    unaryString(strings.ToUpper),
	"lower":    unaryString(strings.ToLower),
	"format":   format,
	"identity": identity,
	"list":     list,
	"record":   record,
	"len":      length,
	"get":      get,
}

// Register adds every builtin to r.
func Register(r *flow.Registry) {
	for name, fn := range Functions {
		r.Register(name, fn)
	}
}

// --- arithmetic ---

// number is an operand. Integers stay exact in i; f holds every operand.
type number struct {
	i     int64
	f     float64
	isInt bool
}

// arith applies intOp when both operands are integers and it reports an
// exact result, and floatOp otherwise.
func arith(intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) (float64, error)) flow.Func {
	return func(_ context.Context, args ...any) (any, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		a, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toNumber(args[1])
		if err != nil {
			return nil, err
		}
		if a.isInt && b.isInt {
			if out, ok := intOp(a.i, b.i); ok {
				return int(out), nil
			}
		}
		out, err := floatOp(a.f, b.f)
		if err != nil {
			return nil, err
		}
		return narrow(out, a.isInt && b.isInt), nil
	}
}

func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (b >= 0) == (c >= a)
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (b >= 0) == (c <= a)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}

// divInt is exact only when b divides a.
func divInt(a, b int64) (int64, bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) || a%b != 0 {
		return 0, false
	}
	return a / b, true
}

func divFloat(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.InvalidInput("divisor", "division by zero")
	}
	return a / b, nil
}

// sum adds its arguments, or the elements of a single list argument.
func sum(_ context.Context, args ...any) (any, error) {
	items := args
	if len(args) == 1 {
		if l, ok := asList(args[0]); ok {
			items = l
		}
	}
	var exact int64
	total, allInt, ok := 0.0, true, true
	for _, it := range items {
		n, err := toNumber(it)
		if err != nil {
			return nil, err
		}
		total += n.f
		allInt = allInt && n.isInt
		if ok && allInt {
			exact, ok = addInt(exact, n.i)
		}
	}
	if allInt && ok {
		return int(exact), nil
	}
	return narrow(total, allInt), nil
}

func toNumber(v any) (number, error) {
	switch n := v.(type) {
	case int:
		return intNumber(int64(n)), nil
	case int8:
		return intNumber(int64(n)), nil
	case int16:
		return intNumber(int64(n)), nil
	case int32:
		return intNumber(int64(n)), nil
	case int64:
		return intNumber(n), nil
	case uint:
		return uintNumber(uint64(n)), nil
	case uint8:
		return intNumber(int64(n)), nil
	case uint16:
		return intNumber(int64(n)), nil
	case uint32:
		return intNumber(int64(n)), nil
	case uint64:
		return uintNumber(n), nil
	case float32:
		return number{f: float64(n)}, nil
	case float64:
		return number{f: n}, nil
	default:
		return number{}, errors.InvalidInput("arg", fmt.Sprintf("%v (%T) is not a number", v, v))
	}
}

func intNumber(i int64) number { return number{i: i, f: float64(i), isInt: true} }

func uintNumber(u uint64) number {
	if u > math.MaxInt64 {
		return number{f: float64(u)}
	}
	return intNumber(int64(u))
}

// narrow turns a whole float computed from integers back into an int when
// it fits.
func narrow(f float64, integral bool) any {
	if integral && f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int(f)
	}
	return f
}

// --- strings ---

// concat joins the string form of every argument.
func concat(_ context.Context, args ...any) (any, error) {
	var b strings.Builder
	for _, a := range args {
		fmt.Fprint(&b, a)
	}
	return b.String(), nil
}

// join joins the elements of a list with a separator.
func join(_ context.Context, args ...any) (any, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	items, ok := asList(args[0])
	if !ok {
		return nil, errors.InvalidInput("arg", fmt.Sprintf("join: %T is not a list", args[0]))
	}
	sep, ok := args[1].(string)
	if !ok {
		return nil, errors.InvalidInput("arg", fmt.Sprintf("join: separator %T is not a string", args[1]))
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprint(it)
	}
	return strings.Join(parts, sep), nil
}

func unaryString(fn func(string) string) flow.Func {
	return func(_ context.Context, args ...any) (any, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, errors.InvalidInput("arg", fmt.Sprintf("%T is not a string", args[0]))
		}
		return fn(s), nil
	}
}

// format applies fmt.Sprintf with the first argument as the format.
func format(_ context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.InvalidInput("arg", "format: missing format string")
	}
	f, ok := args[0].(string)
	if !ok {
		return nil, errors.InvalidInput("arg", fmt.Sprintf("format: %T is not a string", args[0]))
	}
	return fmt.Sprintf(f, args[1:]...), nil
}

// --- collections ---

func identity(_ context.Context, args ...any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	return args[0], nil
}

func list(_ context.Context, args ...any) (any, error) {
	return append([]any{}, args...), nil
}

// record builds a map from alternating keys and values.
func record(_ context.Context, args ...any) (any, error) {
	if len(args)%2 != 0 {
		return nil, errors.InvalidInput("arg", "record: odd number of arguments")
	}
	out := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			return nil, errors.InvalidInput("arg", fmt.Sprintf("record: key %v is not a string", args[i]))
		}
		out[k] = args[i+1]
	}
	return out, nil
}

func length(_ context.Context, args ...any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	default:
		return nil, errors.InvalidInput("arg", fmt.Sprintf("len: %T has no length", args[0]))
	}
}

// get reads a field the way a node.field reference does.
func get(_ context.Context, args ...any) (any, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	name, ok := args[1].(string)
	if !ok {
		return nil, errors.InvalidInput("arg", fmt.Sprintf("get: field %T is not a string", args[1]))
	}
	return flow.Attribute(args[0], name)
}

func asList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func arity(args []any, n int) error {
	if len(args) != n {
		return errors.InvalidInput("args", fmt.Sprintf("expected %d arguments, got %d", n, len(args)))
	}
	return nil
}
