package flow

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/flowgraph/errors"
)

// ErrAttributeDepth is returned for references with more than one attribute
// step, such as "user.auth.email". Attribute paths are one level deep.
var ErrAttributeDepth = errors.InvalidInput("ref", "attribute references are one level deep")

// ArgKind identifies the variant held by an Arg.
type ArgKind int

const (
	// KindLiteral is passed through unchanged.
	KindLiteral ArgKind = iota
	// KindRef resolves to another node's result.
	KindRef
	// KindAttr resolves to one field of another node's result.
	KindAttr
	// KindList resolves to an ordered []any of its resolved items.
	KindList
)

func (k ArgKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindRef:
		return "ref"
	case KindAttr:
		return "attr"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("ArgKind(%d)", int(k))
	}
}

// Arg is an argument descriptor of a computed node.
type Arg struct {
	kind  ArgKind
	value any
	node  string
	field string
	items []Arg
}

// Literal returns an argument passed to the node's Func unchanged.
func Literal(v any) Arg { return Arg{kind: KindLiteral, value: v} }

// Ref returns an argument resolved to the result of node.
func Ref(node string) Arg { return Arg{kind: KindRef, node: node} }

// Attr returns an argument resolved to field of node's result.
func Attr(node, field string) Arg { return Arg{kind: KindAttr, node: node, field: field} }

// List returns an argument resolved to the ordered values of items.
func List(items ...Arg) Arg { return Arg{kind: KindList, items: items} }

// Refs returns a List of references parsed with ParseRef. It panics on an
// invalid reference and is meant for static declarations.
func Refs(refs ...string) Arg {
	items := make([]Arg, 0, len(refs))
	for _, r := range refs {
		items = append(items, MustParseRef(r))
	}
	return List(items...)
}

// ParseRef parses "node" into a Ref and "node.field" into an Attr.
func ParseRef(s string) (Arg, error) {
	if s == "" {
		return Arg{}, errors.InvalidInput("ref", "empty reference")
	}
	node, field, dotted := strings.Cut(s, ".")
	if !dotted {
		return Ref(s), nil
	}
	if strings.Contains(field, ".") {
		return Arg{}, fmt.Errorf("flow: reference %q: %w", s, ErrAttributeDepth)
	}
	if node == "" || field == "" {
		return Arg{}, errors.InvalidInput("ref", fmt.Sprintf("malformed reference %q", s))
	}
	return Attr(node, field), nil
}

// MustParseRef is like ParseRef but panics on error.
func MustParseRef(s string) Arg {
	a, err := ParseRef(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Kind returns the variant of a.
func (a Arg) Kind() ArgKind { return a.kind }

// Value returns the literal value of a KindLiteral argument.
func (a Arg) Value() any { return a.value }

// Node returns the referenced node name of a KindRef or KindAttr argument.
func (a Arg) Node() string { return a.node }

// Field returns the attribute name of a KindAttr argument.
func (a Arg) Field() string { return a.field }

// Items returns the elements of a KindList argument.
func (a Arg) Items() []Arg { return a.items }

// Refs returns the node names a depends on, in declaration order.
func (a Arg) Refs() []string {
	switch a.kind {
	case KindRef, KindAttr:
		return []string{a.node}
	case KindList:
		var out []string
		for _, item := range a.items {
			out = append(out, item.Refs()...)
		}
		return out
	default:
		return nil
	}
}

func (a Arg) String() string {
	switch a.kind {
	case KindRef:
		return a.node
	case KindAttr:
		return a.node + "." + a.field
	case KindList:
		parts := make([]string, 0, len(a.items))
		for _, item := range a.items {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		if s, ok := a.value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("%v", a.value)
	}
}

// Equal reports whether a and b describe the same argument.
func (a Arg) Equal(b Arg) bool {
	if a.kind != b.kind || a.node != b.node || a.field != b.field || len(a.items) != len(b.items) {
		return false
	}
	for i := range a.items {
		if !a.items[i].Equal(b.items[i]) {
			return false
		}
	}
	return reflect.DeepEqual(a.value, b.value)
}

// resolve computes the value of a against results. Dependencies are present
// because nodes run in topological order.
func (a Arg) resolve(node string, results func(string) (any, bool)) (any, error) {
	switch a.kind {
	case KindLiteral:
		return a.value, nil
	case KindRef:
		v, ok := results(a.node)
		if !ok {
			return nil, errors.Internal(fmt.Errorf("flow: result of %q not ready for %q", a.node, node))
		}
		return v, nil
	case KindAttr:
		v, ok := results(a.node)
		if !ok {
			return nil, errors.Internal(fmt.Errorf("flow: result of %q not ready for %q", a.node, node))
		}
		field, err := attribute(v, a.field)
		if err != nil {
			return nil, &AttributeResolutionError{
				AppError: errors.AttributeResolution(a.node, a.field, err.Error()).WithDetail("consumer", node),
				Node:     node,
				Ref:      a.node,
				Field:    a.field,
			}
		}
		return field, nil
	case KindList:
		out := make([]any, 0, len(a.items))
		for _, item := range a.items {
			v, err := item.resolve(node, results)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, errors.Internal(fmt.Errorf("flow: unknown argument kind %d", a.kind))
	}
}
