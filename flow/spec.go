package flow

import (
	"fmt"
	"slices"

	"github.com/kbukum/flowgraph/errors"
	"github.com/kbukum/flowgraph/validation"
)

// Spec is a definition document, independent of the file format it was
// read from.
type Spec struct {
	// Name is the definition name. Extends entries refer to other specs by
	// this name.
	Name string `yaml:"name"`
	// Extends lists the specs whose nodes are merged into this one.
	Extends []string `yaml:"extends,omitempty"`
	// Options overrides definition options. Unset fields are inherited.
	Options *OptionsSpec `yaml:"options,omitempty"`
	// Inputs declares required inputs.
	Inputs []string `yaml:"inputs,omitempty"`
	// Constants declares inputs with default values.
	Constants []ConstSpec `yaml:"constants,omitempty"`
	// Nodes declares computed nodes.
	Nodes []NodeSpec `yaml:"nodes"`
}

// OptionsSpec is the document form of Options.
type OptionsSpec struct {
	Cache      *bool    `yaml:"cache,omitempty"`
	CacheDepth *int     `yaml:"cache_depth,omitempty"`
	Params     []string `yaml:"params,omitempty"`
}

// ConstSpec declares one input with a default.
type ConstSpec struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// NodeSpec declares one computed node.
type NodeSpec struct {
	// Name is the node name.
	Name string `yaml:"name"`
	// Func is the registry key of the node's function.
	Func string `yaml:"func"`
	// Args are the node's argument descriptors.
	Args ArgList `yaml:"args,omitempty"`
}

// SpecLoader loads spec documents by name.
type SpecLoader interface {
	Load(name string) (*Spec, error)
}

// Validate checks the fields every spec needs.
func (s *Spec) Validate() error {
	v := validation.New().Required("name", s.Name).Name("name", s.Name).
		Unique("extends", s.Extends).
		Check(!slices.Contains(s.Extends, s.Name) || s.Name == "", "extends", "must not name the definition itself")
	for i, n := range s.Nodes {
		v.Required(fmt.Sprintf("nodes[%d].name", i), n.Name).Name(fmt.Sprintf("nodes[%d].name", i), n.Name)
		v.Required(fmt.Sprintf("nodes[%d].func", i), n.Func)
	}
	for i, in := range s.Inputs {
		v.Required(fmt.Sprintf("inputs[%d]", i), in).Name(fmt.Sprintf("inputs[%d]", i), in)
	}
	for i, c := range s.Constants {
		v.Required(fmt.Sprintf("constants[%d].name", i), c.Name).Name(fmt.Sprintf("constants[%d].name", i), c.Name)
	}
	if s.Options != nil && s.Options.CacheDepth != nil {
		v.Min("options.cache_depth", *s.Options.CacheDepth, 0)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr.WithDetail("definition", s.Name)
	}
	return nil
}

// Resolve turns spec into a Definition. Extends are loaded through loader
// and resolved recursively; a spec reached twice through different parents
// is resolved once. Node functions are looked up in registry.
func Resolve(spec *Spec, registry *Registry, loader SpecLoader) (*Definition, error) {
	stack := make(map[string]bool)           // current extends path
	resolved := make(map[string]*Definition) // already resolved (diamonds)
	return resolveSpec(spec, registry, loader, stack, resolved)
}

func resolveSpec(spec *Spec, registry *Registry, loader SpecLoader, stack map[string]bool, resolved map[string]*Definition) (*Definition, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if stack[spec.Name] {
		return nil, newDefinitionError(spec.Name, "", "circular extends of %q", spec.Name)
	}
	stack[spec.Name] = true
	defer delete(stack, spec.Name)

	var parents []*Definition
	for _, name := range spec.Extends {
		if def, ok := resolved[name]; ok {
			parents = append(parents, def)
			continue
		}
		if stack[name] {
			return nil, newDefinitionError(spec.Name, "", "circular extends of %q", name)
		}
		if loader == nil {
			return nil, errors.NotFound("definition", name).WithDetail("definition", spec.Name)
		}

		sub, err := loader.Load(name)
		if err != nil {
			return nil, fmt.Errorf("flow: loading %q extended by %q: %w", name, spec.Name, err)
		}
		def, err := resolveSpec(sub, registry, loader, stack, resolved)
		if err != nil {
			return nil, err
		}
		parents = append(parents, def)
	}

	var opts []DefinitionOption
	if o := spec.Options; o != nil {
		if o.Cache != nil {
			opts = append(opts, WithCache(*o.Cache))
		}
		if o.CacheDepth != nil {
			opts = append(opts, WithCacheDepth(*o.CacheDepth))
		}
		if o.Params != nil {
			opts = append(opts, WithParams(o.Params...))
		}
	}

	b := NewDefinition(spec.Name, opts...).Extend(parents...)
	b.Input(spec.Inputs...)
	for _, c := range spec.Constants {
		b.Const(c.Name, c.Value)
	}
	for _, n := range spec.Nodes {
		fn, ok := registry.Get(n.Func)
		if !ok {
			return nil, newNotFoundError("function", n.Func)
		}
		b.Node(n.Name, fn, n.Args...)
	}

	def, err := b.Build()
	if err != nil {
		return nil, err
	}
	resolved[spec.Name] = def
	return def, nil
}
