package logger

import (
	"slices"
	"sync"
)

// named holds loggers registered by component name.
var named sync.Map // map[string]*Logger

// Register stores a named logger.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Get retrieves a named logger. An unregistered name yields the global
// logger tagged with the component name.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults registers component loggers derived from the global
// logger. Call it after Init so the components pick up the configuration.
func RegisterDefaults(names ...string) {
	for _, name := range names {
		Register(name, GetGlobalLogger().WithComponent(name))
	}
}

// Registered returns the sorted names of registered loggers.
func Registered() []string {
	var out []string
	named.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	slices.Sort(out)
	return out
}
