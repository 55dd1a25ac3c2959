package flow

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/kbukum/flowgraph/errors"
)

// Func is the callable of a computed node. It receives the node's resolved
// arguments positionally and returns the node's result.
type Func func(ctx context.Context, args ...any) (any, error)

type nodeKind int

const (
	computedNode nodeKind = iota
	inputNode
	constNode
)

// Node is one named unit of a Definition: a computed node (Func plus
// argument descriptors), a required input, or an input with a default.
type Node struct {
	name   string
	kind   nodeKind
	fn     Func
	args   []Arg
	value  any
	origin string
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Args returns the node's argument descriptors.
func (n *Node) Args() []Arg { return slices.Clone(n.args) }

// IsInput reports whether the node's value is bound from outside.
func (n *Node) IsInput() bool { return n.kind != computedNode }

// Default returns the default value of an input declared with Const.
func (n *Node) Default() (any, bool) {
	if n.kind != constNode {
		return nil, false
	}
	return n.value, true
}

// Origin returns the name of the definition that declared the node. Implicit
// inputs report the definition that first referenced them.
func (n *Node) Origin() string { return n.origin }

// deps returns the names this node's arguments reference.
func (n *Node) deps() []string {
	var out []string
	for _, a := range n.args {
		out = append(out, a.Refs()...)
	}
	return out
}

var (
	ctxType   = reflect.TypeFor[context.Context]()
	errorType = reflect.TypeFor[error]()
)

// Lift adapts an ordinary Go function into a Func. The function may take a
// context.Context first and may be variadic; it must return one value,
// optionally followed by an error. Arguments are converted to the parameter
// types when the conversion is lossless: a number must keep its value in the
// parameter's numeric type, and []any converts element-wise to typed slices.
// Float to float conversions may round.
func Lift(fn any) (Func, error) {
	switch f := fn.(type) {
	case nil:
		return nil, errors.InvalidInput("fn", "nil function")
	case Func:
		return f, nil
	case func(context.Context, ...any) (any, error):
		return f, nil
	}

	rv := reflect.ValueOf(fn)
	t := rv.Type()
	if t.Kind() != reflect.Func {
		return nil, errors.InvalidInput("fn", fmt.Sprintf("%T is not a function", fn))
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return nil, errors.InvalidInput("fn", fmt.Sprintf("%s must return (T) or (T, error)", t))
	}

	offset := 0
	if t.NumIn() > 0 && t.In(0) == ctxType {
		offset = 1
	}
	params := t.NumIn() - offset

	return func(ctx context.Context, args ...any) (any, error) {
		if t.IsVariadic() {
			if len(args) < params-1 {
				return nil, fmt.Errorf("flow: %s takes at least %d arguments, got %d", t, params-1, len(args))
			}
		} else if len(args) != params {
			return nil, fmt.Errorf("flow: %s takes %d arguments, got %d", t, params, len(args))
		}

		in := make([]reflect.Value, 0, len(args)+offset)
		if offset == 1 {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, a := range args {
			var pt reflect.Type
			if t.IsVariadic() && offset+i >= t.NumIn()-1 {
				pt = t.In(t.NumIn() - 1).Elem()
			} else {
				pt = t.In(offset + i)
			}
			v, err := convert(a, pt)
			if err != nil {
				return nil, fmt.Errorf("flow: argument %d: %w", i, err)
			}
			in = append(in, v)
		}

		out := rv.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, nil
}

// MustLift is like Lift but panics on error.
func MustLift(fn any) Func {
	f, err := Lift(fn)
	if err != nil {
		panic(err)
	}
	return f
}

func convert(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(t.Kind()) {
		return convertNumber(v, t)
	}
	if v.Kind() == t.Kind() && v.Type().ConvertibleTo(t) && v.Kind() != reflect.Slice {
		return v.Convert(t), nil
	}
	if v.Kind() == reflect.Slice && t.Kind() == reflect.Slice {
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, err := convert(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, t)
}

func convertNumber(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := v.Convert(t)
	if isFloat(v.Kind()) && isFloat(t.Kind()) {
		return out, nil
	}
	if !out.Convert(v.Type()).Equal(v) {
		return reflect.Value{}, fmt.Errorf("%v does not fit in %s", v.Interface(), t)
	}
	return out, nil
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
