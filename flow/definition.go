package flow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/flowgraph/dag"
)

// Options are definition-level settings. They are extension points only:
// the engine performs no memoization.
type Options struct {
	Cache      bool
	CacheDepth int
	Params     []string
}

// DefaultOptions returns the options of a definition that sets none.
func DefaultOptions() Options {
	return Options{Cache: true, CacheDepth: 10}
}

// DefinitionOption sets one field of Options. Fields that a definition does
// not set are inherited from its first parent.
type DefinitionOption func(*optionSet)

type optionSet struct {
	opts Options
	set  map[string]bool
}

// WithCache sets Options.Cache.
func WithCache(enabled bool) DefinitionOption {
	return func(s *optionSet) { s.opts.Cache = enabled; s.set["cache"] = true }
}

// WithCacheDepth sets Options.CacheDepth.
func WithCacheDepth(depth int) DefinitionOption {
	return func(s *optionSet) { s.opts.CacheDepth = depth; s.set["cache_depth"] = true }
}

// WithParams sets Options.Params.
func WithParams(params ...string) DefinitionOption {
	return func(s *optionSet) { s.opts.Params = params; s.set["params"] = true }
}

// Builder collects node declarations for a Definition.
type Builder struct {
	name    string
	parents []*Definition
	nodes   []*Node
	seen    map[string]bool
	options optionSet
	err     error
}

// NewDefinition starts a definition named name.
func NewDefinition(name string, opts ...DefinitionOption) *Builder {
	b := &Builder{
		name:    name,
		seen:    make(map[string]bool),
		options: optionSet{opts: DefaultOptions(), set: make(map[string]bool)},
	}
	for _, o := range opts {
		o(&b.options)
	}
	return b
}

// Extend merges the nodes of parents into the definition. A node declared by
// the child must not share a name with an inherited node.
func (b *Builder) Extend(parents ...*Definition) *Builder {
	b.parents = append(b.parents, parents...)
	return b
}

// Node declares a computed node.
func (b *Builder) Node(name string, fn Func, args ...Arg) *Builder {
	if fn == nil {
		b.fail(name, "node %q has no function", name)
		return b
	}
	return b.add(&Node{name: name, kind: computedNode, fn: fn, args: args})
}

// Call declares a computed node from an ordinary Go function, lifted with
// Lift. Each arg is converted with ToArg.
func (b *Builder) Call(name string, fn any, args ...any) *Builder {
	f, err := Lift(fn)
	if err != nil {
		b.fail(name, "node %q: %v", name, err)
		return b
	}
	descs := make([]Arg, 0, len(args))
	for _, a := range args {
		d, err := ToArg(a)
		if err != nil {
			b.fail(name, "node %q: %v", name, err)
			return b
		}
		descs = append(descs, d)
	}
	return b.Node(name, f, descs...)
}

// Input declares required inputs.
func (b *Builder) Input(names ...string) *Builder {
	for _, name := range names {
		b.add(&Node{name: name, kind: inputNode})
	}
	return b
}

// Const declares an input with a default value. A binding overrides it.
func (b *Builder) Const(name string, value any) *Builder {
	return b.add(&Node{name: name, kind: constNode, value: value})
}

// ToArg converts a loosely typed declaration into an Arg: an Arg is kept,
// a string is parsed with ParseRef, a []string becomes a List of refs and
// anything else is a Literal.
func ToArg(v any) (Arg, error) {
	switch t := v.(type) {
	case Arg:
		return t, nil
	case string:
		return ParseRef(t)
	case []string:
		items := make([]Arg, 0, len(t))
		for _, s := range t {
			a, err := ParseRef(s)
			if err != nil {
				return Arg{}, err
			}
			items = append(items, a)
		}
		return List(items...), nil
	default:
		return Literal(v), nil
	}
}

func (b *Builder) add(n *Node) *Builder {
	if b.err != nil {
		return b
	}
	if n.name == "" {
		b.fail("", "node name is empty")
		return b
	}
	if b.seen[n.name] {
		b.fail(n.name, "node %q declared twice", n.name)
		return b
	}
	b.seen[n.name] = true
	n.origin = b.name
	b.nodes = append(b.nodes, n)
	return b
}

func (b *Builder) fail(node, format string, args ...any) {
	if b.err == nil {
		b.err = newDefinitionError(b.name, node, format, args...)
	}
}

// Build validates the declarations, merges inherited nodes and builds the
// dependency graph once. Name collisions are *DefinitionError; cycles are
// *dag.CycleError.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, newDefinitionError("", "", "definition name is empty")
	}

	d := &Definition{
		name:    b.name,
		parents: slices.Clone(b.parents),
		index:   make(map[string]*Node),
		nodes:   slices.Clone(b.nodes),
	}
	for _, n := range d.nodes {
		d.index[n.name] = n
	}

	for _, parent := range b.parents {
		for _, n := range parent.nodes[:parent.declared] {
			existing, ok := d.index[n.name]
			switch {
			case !ok:
				d.index[n.name] = n
				d.nodes = append(d.nodes, n)
			case existing == n:
				// Reached twice through a shared ancestor.
			case !b.seen[n.name] && n.kind == inputNode && existing.kind == inputNode:
				// Sibling parents requiring the same input.
			case b.seen[n.name]:
				return nil, newDefinitionError(b.name, n.name,
					"node %q conflicts with node of the same name from %q", n.name, parent.name)
			default:
				return nil, newDefinitionError(b.name, n.name,
					"node %q from %q conflicts with node of the same name from %q", n.name, parent.name, existing.origin)
			}
		}
	}

	d.options = b.options.opts
	if len(b.parents) > 0 {
		inherited := b.parents[0].options
		if !b.options.set["cache"] {
			d.options.Cache = inherited.Cache
		}
		if !b.options.set["cache_depth"] {
			d.options.CacheDepth = inherited.CacheDepth
		}
		if !b.options.set["params"] {
			d.options.Params = slices.Clone(inherited.Params)
		}
	}

	// Names referenced but never declared are implicit inputs. They are
	// recomputed by every Build and never inherited.
	d.declared = len(d.nodes)
	for _, n := range slices.Clone(d.nodes) {
		for _, ref := range n.deps() {
			if _, ok := d.index[ref]; ok {
				continue
			}
			in := &Node{name: ref, kind: inputNode, origin: n.origin}
			d.index[ref] = in
			d.nodes = append(d.nodes, in)
		}
	}

	entries := make([]dag.Entry, 0, len(d.nodes))
	for _, n := range d.nodes {
		entries = append(entries, dag.Entry{Name: n.name, Deps: n.deps()})
	}
	g, err := dag.New(entries...)
	if err != nil {
		return nil, err
	}
	d.graph = g

	for _, name := range g.Order() {
		if d.index[name].IsInput() {
			d.inputs = append(d.inputs, name)
		}
	}
	d.outputs = g.Sinks()

	return d, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Definition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

// Definition is an immutable, validated graph definition.
type Definition struct {
	name     string
	options  Options
	parents  []*Definition
	nodes    []*Node
	index    map[string]*Node
	declared int // nodes[:declared] excludes implicit inputs
	graph    *dag.Graph
	inputs   []string
	outputs  []string
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.name }

// Options returns the resolved options.
func (d *Definition) Options() Options {
	o := d.options
	o.Params = slices.Clone(o.Params)
	return o
}

// Parents returns the definitions this one extends.
func (d *Definition) Parents() []*Definition { return slices.Clone(d.parents) }

// Nodes returns all nodes: declared ones first, then inherited ones, then
// implicit inputs.
func (d *Definition) Nodes() []*Node { return slices.Clone(d.nodes) }

// Node returns the node named name.
func (d *Definition) Node(name string) (*Node, bool) {
	n, ok := d.index[name]
	return n, ok
}

// Inputs returns the input node names in execution order. Sub-graph
// functions take their arguments in this order.
func (d *Definition) Inputs() []string { return slices.Clone(d.inputs) }

// Required returns the inputs that have no default.
func (d *Definition) Required() []string {
	var out []string
	for _, name := range d.inputs {
		if _, ok := d.index[name].Default(); !ok {
			out = append(out, name)
		}
	}
	return out
}

// Outputs returns the nodes no other node depends on, in execution order.
func (d *Definition) Outputs() []string { return slices.Clone(d.outputs) }

// Order returns every node name in execution order.
func (d *Definition) Order() []string { return d.graph.Order() }

// Graph returns a mutable copy of the dependency graph.
func (d *Definition) Graph() *dag.Graph { return d.graph.Clone() }

// String returns "name(node, ...)" with nodes in declaration order.
func (d *Definition) String() string {
	names := make([]string, 0, len(d.nodes))
	for _, n := range d.nodes {
		names = append(names, n.name)
	}
	return fmt.Sprintf("%s(%s)", d.name, strings.Join(names, ", "))
}
