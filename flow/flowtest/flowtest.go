package flowtest

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/kbukum/flowgraph/flow"
)

// MockFunc is a node function for tests. It records every call and returns
// a preset output or error, or delegates to a custom function.
type MockFunc struct {
	output any
	err    error
	fn     flow.Func

	mu    sync.Mutex
	calls [][]any
}

// NewMockFunc returns a mock that always returns output and err.
func NewMockFunc(output any, err error) *MockFunc {
	return &MockFunc{output: output, err: err}
}

// NewMockFuncWith returns a mock backed by fn.
func NewMockFuncWith(fn flow.Func) *MockFunc {
	return &MockFunc{fn: fn}
}

// Func returns the flow.Func to declare on a node.
func (m *MockFunc) Func() flow.Func {
	return func(ctx context.Context, args ...any) (any, error) {
		m.mu.Lock()
		m.calls = append(m.calls, slices.Clone(args))
		m.mu.Unlock()

		if m.fn != nil {
			return m.fn(ctx, args...)
		}
		return m.output, m.err
	}
}

// Calls returns how many times the function ran.
func (m *MockFunc) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Args returns the arguments of call i, or nil when there is no such call.
func (m *MockFunc) Args(i int) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.calls) {
		return nil
	}
	return slices.Clone(m.calls[i])
}

// Reset clears the recorded calls.
func (m *MockFunc) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Run binds def and executes it, failing the test on any error.
func Run(t testing.TB, def *flow.Definition, bindings map[string]any, opts ...flow.Option) flow.Results {
	t.Helper()
	inst, err := def.New(bindings, opts...)
	if err != nil {
		t.Fatalf("binding %s: %v", def.Name(), err)
	}
	res, err := inst.Execute(context.Background())
	if err != nil {
		t.Fatalf("executing %s: %v", def.Name(), err)
	}
	return res
}

// RunErr binds def and executes it, returning the first error of either
// step.
func RunErr(def *flow.Definition, bindings map[string]any, opts ...flow.Option) (flow.Results, error) {
	inst, err := def.New(bindings, opts...)
	if err != nil {
		return nil, err
	}
	return inst.Execute(context.Background())
}

// MustResult returns the result named name, failing the test when absent.
func MustResult(t testing.TB, res flow.Results, name string) any {
	t.Helper()
	v, err := res.Get(name)
	if err != nil {
		t.Fatalf("result %q: %v", name, err)
	}
	return v
}
