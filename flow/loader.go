package flow

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/flowgraph/errors"
)

// ArgList is the argument list of a NodeSpec. In YAML, a string is a
// reference parsed with ParseRef, a sequence is a List, a mapping
// {literal: v} is a Literal of v, and any other scalar (number, bool, null)
// is a Literal.
type ArgList []Arg

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *ArgList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("flow: line %d: args must be a sequence", value.Line)
	}
	out := make(ArgList, 0, len(value.Content))
	for _, item := range value.Content {
		a, err := yamlArg(item)
		if err != nil {
			return err
		}
		out = append(out, a)
	}
	*l = out
	return nil
}

func yamlArg(n *yaml.Node) (Arg, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			a, err := ParseRef(n.Value)
			if err != nil {
				return Arg{}, fmt.Errorf("flow: line %d: %w", n.Line, err)
			}
			return a, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return Arg{}, err
		}
		return Literal(v), nil

	case yaml.SequenceNode:
		items := make([]Arg, 0, len(n.Content))
		for _, c := range n.Content {
			a, err := yamlArg(c)
			if err != nil {
				return Arg{}, err
			}
			items = append(items, a)
		}
		return List(items...), nil

	case yaml.MappingNode:
		if len(n.Content) == 2 && n.Content[0].Value == "literal" {
			var v any
			if err := n.Content[1].Decode(&v); err != nil {
				return Arg{}, err
			}
			return Literal(v), nil
		}
		return Arg{}, fmt.Errorf("flow: line %d: a mapping argument must be {literal: value}", n.Line)

	case yaml.AliasNode:
		return yamlArg(n.Alias)

	default:
		return Arg{}, fmt.Errorf("flow: line %d: unsupported argument", n.Line)
	}
}

// ParseSpec decodes one YAML spec document.
func ParseSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FileSpecLoader loads specs from YAML files on disk.
type FileSpecLoader struct {
	dirs []string
}

// NewFileSpecLoader creates a loader that searches the given directories for
// spec YAML files.
func NewFileSpecLoader(dirs ...string) SpecLoader {
	return &FileSpecLoader{dirs: dirs}
}

// Load searches for {name}.yaml and {name}.yml in each directory and then in
// its immediate subdirectories.
func (l *FileSpecLoader) Load(name string) (*Spec, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if s, err := LoadSpecFile(path); err == nil {
				return checkSpecName(s, name, path)
			} else if !os.IsNotExist(err) {
				return nil, err
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				s, err := LoadSpecFile(match)
				if err != nil {
					return nil, err
				}
				return checkSpecName(s, name, match)
			}
		}
	}
	return nil, newNotFoundError("definition", name)
}

// checkSpecName rejects a file whose document names another definition.
func checkSpecName(s *Spec, name, path string) (*Spec, error) {
	if s.Name != name {
		return nil, errors.InvalidInput("name",
			fmt.Sprintf("%s defines %q, expected %q", path, s.Name, name))
	}
	return s, nil
}

// LoadSpecFile reads and decodes the YAML spec at path.
func LoadSpecFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSpec(data)
	if err != nil {
		return nil, fmt.Errorf("flow: parsing %s: %w", path, err)
	}
	return s, nil
}

// LoadSpec loads the spec named name from the first of paths that holds it.
func LoadSpec(name string, paths ...string) (*Spec, error) {
	for _, path := range paths {
		s, err := LoadSpecFile(path)
		if err == nil && s.Name == name {
			return s, nil
		}
	}
	return nil, newNotFoundError("definition", name)
}

// ChainLoaders returns a SpecLoader that asks each loader in turn. A
// NOT_FOUND answer moves on to the next loader; any other error stops.
func ChainLoaders(loaders ...SpecLoader) SpecLoader {
	return chainLoader(loaders)
}

type chainLoader []SpecLoader

func (c chainLoader) Load(name string) (*Spec, error) {
	for _, l := range c {
		s, err := l.Load(name)
		if err == nil {
			return s, nil
		}
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			return nil, err
		}
	}
	return nil, newNotFoundError("definition", name)
}
