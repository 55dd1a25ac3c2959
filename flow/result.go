package flow

import "fmt"

// Results maps node names to their computed values.
type Results map[string]any

// Get returns the result of name. Unknown names are a *NotFoundError.
func (r Results) Get(name string) (any, error) {
	v, ok := r[name]
	if !ok {
		return nil, newNotFoundError("result", name)
	}
	return v, nil
}

// Value returns the result of name as a T.
func Value[T any](r Results, name string) (T, error) {
	var zero T
	raw, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("flow: result %q: expected %T, got %T", name, zero, raw)
	}
	return v, nil
}
