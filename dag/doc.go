// Package dag provides a minimal directed acyclic graph keyed by node name.
//
// An edge u -> v means "u depends on v": v must be computed before u. The
// graph keeps its rows in insertion order and, once sorted, in a
// dependency-first topological order. Every mutation re-validates
// acyclicity; a mutation that would introduce a cycle is rolled back and
// reported as a *CycleError.
//
// The package owns no execution logic. See package flow for the executor
// built on top of it.
package dag
