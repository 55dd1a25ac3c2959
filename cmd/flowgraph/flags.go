package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
)

// usageError is a command-line mistake; it exits with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type cliOptions struct {
	configFile  string
	file        string
	graph       string
	dirs        []string
	sets        []string
	output      string
	concurrency int
	verbose     bool
	version     bool
}

type listFlag struct {
	values *[]string
}

func (l listFlag) String() string {
	if l.values == nil {
		return ""
	}
	return strings.Join(*l.values, ",")
}

func (l listFlag) Set(v string) error {
	*l.values = append(*l.values, v)
	return nil
}

func parseFlags(args []string, out io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("flowgraph", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, `flowgraph executes a graph definition and prints its results as JSON.

Usage:
  flowgraph [options] [FILE]

FILE is a .yaml, .yml or .hcl definition file.

Options:
`)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configFile, "config", "", "Path to the flowgraph config file.")
	fs.StringVar(&opts.file, "f", "", "Path to the definition file (.yaml, .yml or .hcl).")
	fs.StringVar(&opts.graph, "graph", "", "Name of the graph to run when the file holds several.")
	fs.Var(listFlag{&opts.dirs}, "dir", "Directory searched for extended definitions. Repeatable.")
	fs.Var(listFlag{&opts.sets}, "set", "Input binding name=value; value is JSON or a plain string. Repeatable.")
	fs.StringVar(&opts.output, "output", "", "Print only this node's result.")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Maximum nodes computed at once. 0 uses the config value.")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log every node as it starts.")
	fs.BoolVar(&opts.version, "version", false, "Print the version and exit.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, &usageError{msg: err.Error()}
	}
	if opts.version {
		return opts, nil
	}

	switch {
	case opts.file != "" && fs.NArg() > 0:
		return nil, usagef("give the definition file either with -f or as an argument")
	case opts.file == "" && fs.NArg() == 1:
		opts.file = fs.Arg(0)
	case fs.NArg() > 1:
		return nil, usagef("unexpected arguments %v", fs.Args()[1:])
	}
	if opts.file == "" {
		fs.Usage()
		return nil, usagef("no definition file given")
	}
	if opts.concurrency < 0 {
		return nil, usagef("-concurrency must not be negative")
	}
	return opts, nil
}

// parseBindings turns name=value pairs into input bindings. Values that
// decode as JSON keep their JSON type, with whole numbers as int; anything
// else is a string.
func parseBindings(sets []string) (map[string]any, error) {
	out := make(map[string]any, len(sets))
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, usagef("-set %q: expected name=value", s)
		}
		out[name] = decodeValue(raw)
	}
	return out, nil
}

func decodeValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return normalize(v)
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	default:
		return v
	}
}
