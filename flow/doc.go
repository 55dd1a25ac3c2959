// Package flow executes declarative dependency graphs.
//
// A Definition is a named, ordered set of nodes. Each computed node pairs a
// Func with argument descriptors (literals, references to other nodes,
// one-level attribute references, or lists of those). The dependency graph
// is inferred from the references, checked for cycles once at build time,
// and every node runs exactly once per execution, after its dependencies.
//
//	def := flow.NewDefinition("example").
//		Call("one", add, "a", "b").
//		Call("two", mul, "one", "c").
//		MustBuild()
//
//	inst, err := def.New(map[string]any{"a": 1, "b": 2, "c": 3})
//	results, err := inst.Execute(ctx)
//	// results["two"] == 9
//
// Definitions compose: AsFunc turns a definition into a Func usable as a
// node of an enclosing graph. Definitions can also be loaded from YAML
// (this package) or HCL (package hcldef) through a Registry of named funcs.
package flow
