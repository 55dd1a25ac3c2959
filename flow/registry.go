package flow

import (
	"sort"
	"sync"
)

// Registry maps function names used by spec documents to Funcs.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds fn under name, replacing any previous entry.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// RegisterFunc lifts an ordinary Go function with Lift and registers it.
func (r *Registry) RegisterFunc(name string, fn any) error {
	f, err := Lift(fn)
	if err != nil {
		return err
	}
	r.Register(name, f)
	return nil
}

// RegisterDefinition registers def as a sub-graph function. See
// Definition.AsFunc for the meaning of output.
func (r *Registry) RegisterDefinition(name string, def *Definition, output string, opts ...Option) {
	r.Register(name, def.AsFunc(output, opts...))
}

// Get retrieves a function by name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// List returns sorted names of all registered functions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
