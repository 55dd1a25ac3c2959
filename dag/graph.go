package dag

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/kbukum/flowgraph/errors"
)

// Entry is one adjacency row: Name depends on every name in Deps.
type Entry struct {
	Name string
	Deps []string
}

// Graph is an ordered adjacency mapping from node name to the names it
// depends on. It is not safe for concurrent mutation.
type Graph struct {
	order  []string
	deps   map[string][]string
	sorted bool
	frozen bool
}

// New builds a graph from adjacency rows. Rows keep their order; a name that
// only appears as a dependency is added with no dependencies of its own.
// It returns a *CycleError if the rows contain a cycle.
func New(entries ...Entry) (*Graph, error) {
	g := &Graph{deps: make(map[string][]string, len(entries))}
	for _, e := range entries {
		g.ensure(e.Name)
		g.deps[e.Name] = append(g.deps[e.Name], e.Deps...)
	}

	// Totality: every dependency target is also a key.
	for _, name := range slices.Clone(g.order) {
		for _, dep := range g.deps[name] {
			g.ensure(dep)
		}
	}

	if err := g.sort(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromMap builds a graph from a loosely typed mapping. Values may be a single
// name, a []string, a []any of strings or an iter.Seq[string]. Keys are taken
// in sorted order so the result does not depend on map iteration.
func FromMap(m map[string]any) (*Graph, error) {
	entries := make([]Entry, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		deps, err := normalize(name, m[name])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: name, Deps: deps})
	}
	return New(entries...)
}

func normalize(name string, v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return slices.Clone(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.InvalidInput(name, fmt.Sprintf("dependency of %q must be a string, got %T", name, item))
			}
			out = append(out, s)
		}
		return out, nil
	case iter.Seq[string]:
		return slices.Collect(t), nil
	default:
		return nil, errors.InvalidInput(name, fmt.Sprintf("unsupported dependency list %T for %q", v, name))
	}
}

// AddEdge records that u depends on v, creating either node if absent, and
// re-sorts. If the edge would introduce a cycle the graph is restored to its
// exact previous content and a *CycleError is returned.
func (g *Graph) AddEdge(u, v string) error {
	if g.frozen {
		return errors.GraphFrozen("add edge")
	}

	prevOrder, prevDeps, prevSorted := slices.Clone(g.order), g.cloneDeps(), g.sorted

	g.ensure(u)
	g.deps[u] = append(g.deps[u], v)
	g.ensure(v)

	if err := g.sort(); err != nil {
		g.order, g.deps, g.sorted = prevOrder, prevDeps, prevSorted
		return err
	}
	return nil
}

// RemoveEdge removes the first u -> v edge. When u is left without
// dependencies and nothing depends on u, u is dropped from the graph.
// Removing an edge cannot create a cycle, so no *CycleError is returned.
func (g *Graph) RemoveEdge(u, v string) error {
	if g.frozen {
		return errors.GraphFrozen("remove edge")
	}

	deps, ok := g.deps[u]
	idx := slices.Index(deps, v)
	if !ok || idx < 0 {
		return errors.NotFound("edge", u+" -> "+v)
	}

	g.deps[u] = slices.Delete(slices.Clone(deps), idx, idx+1)
	if len(g.deps[u]) == 0 && len(g.Dependents(u)) == 0 {
		delete(g.deps, u)
		g.order = slices.DeleteFunc(g.order, func(name string) bool { return name == u })
	}

	if err := g.sort(); err != nil {
		g.sorted = false
	}
	return nil
}

// Order returns the node names in dependency-first order. The order is a
// valid topological order only while Sorted reports true.
func (g *Graph) Order() []string { return slices.Clone(g.order) }

// Sorted reports whether Order is a valid topological order.
func (g *Graph) Sorted() bool { return g.sorted }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.deps[name]
	return ok
}

// Deps returns the names that name depends on, in declaration order.
func (g *Graph) Deps(name string) ([]string, bool) {
	deps, ok := g.deps[name]
	return slices.Clone(deps), ok
}

// Dependents returns the names that depend on name, in graph order.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, n := range g.order {
		if slices.Contains(g.deps[n], name) {
			out = append(out, n)
		}
	}
	return out
}

// Roots returns the nodes with no dependencies, in graph order.
func (g *Graph) Roots() []string {
	var out []string
	for _, n := range g.order {
		if len(g.deps[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Sinks returns the nodes nothing depends on, in graph order.
func (g *Graph) Sinks() []string {
	used := make(map[string]bool, len(g.order))
	for _, deps := range g.deps {
		for _, d := range deps {
			used[d] = true
		}
	}
	var out []string
	for _, n := range g.order {
		if !used[n] {
			out = append(out, n)
		}
	}
	return out
}

// Entries returns a deep copy of the adjacency rows in graph order.
func (g *Graph) Entries() []Entry {
	out := make([]Entry, 0, len(g.order))
	for _, n := range g.order {
		out = append(out, Entry{Name: n, Deps: slices.Clone(g.deps[n])})
	}
	return out
}

// Clone returns an unfrozen deep copy of the graph.
func (g *Graph) Clone() *Graph {
	return &Graph{
		order:  slices.Clone(g.order),
		deps:   g.cloneDeps(),
		sorted: g.sorted,
	}
}

// Freeze disallows further mutation. Executors freeze the graph they run.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether the graph rejects mutation.
func (g *Graph) Frozen() bool { return g.frozen }

// String renders the adjacency in graph order, e.g. "c:[] b:[c] a:[b]".
func (g *Graph) String() string {
	parts := make([]string, 0, len(g.order))
	for _, n := range g.order {
		parts = append(parts, fmt.Sprintf("%s:[%s]", n, strings.Join(g.deps[n], " ")))
	}
	return "dag.Graph{" + strings.Join(parts, " ") + "}"
}

func (g *Graph) ensure(name string) {
	if _, ok := g.deps[name]; ok {
		return
	}
	g.deps[name] = nil
	g.order = append(g.order, name)
}

func (g *Graph) cloneDeps() map[string][]string {
	out := make(map[string][]string, len(g.deps))
	for k, v := range g.deps {
		out[k] = slices.Clone(v)
	}
	return out
}

// sort performs a depth-first post-order traversal from every node in current
// order. A node met again while still on the recursion path closes a cycle.
func (g *Graph) sort() error {
	out := make([]string, 0, len(g.order))
	done := make(map[string]bool, len(g.order))
	onPath := make(map[string]bool)
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		if done[name] {
			return nil
		}
		if onPath[name] {
			start := slices.Index(path, name)
			cycle := append(slices.Clone(path[start:]), name)
			return newCycleError(cycle, g.Entries())
		}

		onPath[name] = true
		path = append(path, name)
		for _, dep := range g.deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		delete(onPath, name)

		done[name] = true
		out = append(out, name)
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			g.sorted = false
			return err
		}
	}

	g.order = out
	g.sorted = true
	return nil
}
