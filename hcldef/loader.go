package hcldef

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/kbukum/flowgraph/errors"
	"github.com/kbukum/flowgraph/flow"
	"github.com/kbukum/flowgraph/logger"
)

// Loader parses HCL files and serves the graphs they declare by name. It
// implements flow.SpecLoader, so extends across files resolve through it.
type Loader struct {
	mu     sync.RWMutex
	parser *hclparse.Parser
	specs  map[string]*flow.Spec
	origin map[string]string
	log    *logger.Logger
}

var _ flow.SpecLoader = (*Loader)(nil)

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{
		parser: hclparse.NewParser(),
		specs:  make(map[string]*flow.Spec),
		origin: make(map[string]string),
		log:    logger.Get("hcldef"),
	}
}

// LoadFile parses path and registers every graph in it. A graph name
// already registered from another file is a DEFINITION_CONFLICT.
func (l *Loader) LoadFile(path string) ([]*flow.Spec, error) {
	path = filepath.Clean(path)
	l.mu.Lock()
	defer l.mu.Unlock()

	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, errors.NotFound("definition file", path)
		}
		return nil, diagError(path, diags)
	}
	specs, err := decode(path, file.Body)
	if err != nil {
		return nil, err
	}

	for _, s := range specs {
		if prev, ok := l.origin[s.Name]; ok && prev != path {
			return nil, errors.DefinitionConflict(s.Name, "declared in both "+prev+" and "+path)
		}
	}
	for _, s := range specs {
		l.specs[s.Name] = s
		l.origin[s.Name] = path
	}
	l.log.Debug("definition file loaded", logger.Fields("path", path, "graphs", len(specs)))
	return specs, nil
}

// LoadDir loads every .hcl file under dir, in lexical order.
func (l *Loader) LoadDir(dir string) ([]*flow.Spec, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var all []*flow.Spec
	for _, f := range files {
		specs, err := l.LoadFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, specs...)
	}
	return all, nil
}

// Load returns the loaded graph named name.
func (l *Loader) Load(name string) (*flow.Spec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.specs[name]
	if !ok {
		return nil, errors.NotFound("definition", name)
	}
	return s, nil
}

// Names returns the loaded graph names, sorted.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.specs))
	for name := range l.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseSpecs decodes the graphs in src. filename is used in diagnostics.
func ParseSpecs(src []byte, filename string) ([]*flow.Spec, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}
	return decode(filename, file.Body)
}

func decode(filename string, body hcl.Body) ([]*flow.Spec, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	specs := make([]*flow.Spec, 0, len(root.Graphs))
	seen := make(map[string]bool, len(root.Graphs))
	for _, g := range root.Graphs {
		if seen[g.Name] {
			return nil, errors.DefinitionConflict(g.Name, "declared twice in "+filename)
		}
		seen[g.Name] = true

		s, diags := toSpec(g)
		if diags.HasErrors() {
			return nil, diagError(filename, diags)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func toSpec(g *graphBlock) (*flow.Spec, hcl.Diagnostics) {
	s := &flow.Spec{Name: g.Name, Extends: g.Extends}
	if g.Options != nil {
		s.Options = &flow.OptionsSpec{
			Cache:      g.Options.Cache,
			CacheDepth: g.Options.CacheDepth,
			Params:     g.Options.Params,
		}
	}
	for _, in := range g.Inputs {
		s.Inputs = append(s.Inputs, in.Name)
	}

	var diags hcl.Diagnostics
	for _, c := range g.Consts {
		v, d := c.Value.Value(nil)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		goVal, err := fromCty(v)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported constant",
				Detail:   err.Error(),
				Subject:  c.Value.Range().Ptr(),
			})
			continue
		}
		s.Constants = append(s.Constants, flow.ConstSpec{Name: c.Name, Value: goVal})
	}
	for _, n := range g.Nodes {
		args, d := argList(n.Args)
		diags = append(diags, d...)
		s.Nodes = append(s.Nodes, flow.NodeSpec{Name: n.Name, Func: n.Func, Args: args})
	}
	return s, diags
}

func diagError(filename string, diags hcl.Diagnostics) error {
	return errors.InvalidInput("hcl", diags.Error()).
		WithDetail("file", filename).
		WithCause(diags)
}
