// Package flowtest provides test helpers for code that builds or runs flow
// definitions: recording mock functions and one-call execution helpers.
//
//	double := flowtest.NewMockFunc(42, nil)
//	def := flow.NewDefinition("g").Node("y", double.Func(), flow.Ref("x")).MustBuild()
//	res := flowtest.Run(t, def, map[string]any{"x": 21})
//	// double.Calls() == 1, double.Args(0) == []any{21}
package flowtest
