package flow

import (
	"fmt"
	"maps"
	"sync"
)

// resultTable is the results table of one run. Every key is written once.
type resultTable struct {
	mu   sync.RWMutex
	data map[string]any
}

func newResultTable(size int) *resultTable {
	return &resultTable{data: make(map[string]any, size)}
}

func (t *resultTable) get(name string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.data[name]
	return v, ok
}

func (t *resultTable) set(name string, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.data[name]; ok {
		return fmt.Errorf("flow: result of %q written twice", name)
	}
	t.data[name] = v
	return nil
}

func (t *resultTable) snapshot() Results {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.data)
}
