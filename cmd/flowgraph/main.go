// Command flowgraph loads a graph definition from YAML or HCL, binds its
// inputs from the command line, executes it and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/flowgraph/bootstrap"
	"github.com/kbukum/flowgraph/builtin"
	"github.com/kbukum/flowgraph/config"
	"github.com/kbukum/flowgraph/flow"
	"github.com/kbukum/flowgraph/hcldef"
	"github.com/kbukum/flowgraph/logger"
	"github.com/kbukum/flowgraph/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit status: 0 on success, 2 on usage errors and
// 1 on everything else.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if stderrors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err == nil && opts.version {
		fmt.Fprintln(stdout, version.Get())
		return 0
	}
	if err == nil {
		err = execute(ctx, opts, stdout)
	}
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, "flowgraph:", err)
	var ue *usageError
	if stderrors.As(err, &ue) {
		return 2
	}
	return 1
}

func execute(ctx context.Context, opts *cliOptions, stdout io.Writer) error {
	var loadOpts []config.LoaderOption
	if opts.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.configFile))
	}
	var cfg config.Config
	if err := config.LoadConfig("flowgraph", &cfg, loadOpts...); err != nil {
		return err
	}
	if opts.concurrency > 0 {
		cfg.Engine.Concurrency = opts.concurrency
	}
	if opts.verbose {
		cfg.Engine.Verbose = true
	}
	cfg.Engine.DefinitionDirs = append(cfg.Engine.DefinitionDirs, opts.dirs...)

	bindings, err := parseBindings(opts.sets)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	registry := flow.NewRegistry()
	builtin.Register(registry)

	spec, loader, err := loadSpec(opts.file, opts.graph, cfg.Engine.DefinitionDirs)
	if err != nil {
		return err
	}
	def, err := flow.Resolve(spec, registry, loader)
	if err != nil {
		return err
	}
	if opts.output != "" {
		if _, ok := def.Node(opts.output); !ok {
			return usagef("-output %q: graph %q has no such node", opts.output, def.Name())
		}
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		inst, err := def.New(bindings, engineOptions(app)...)
		if err != nil {
			return err
		}

		metrics := app.Telemetry.Metrics
		metrics.RecordRunStart(ctx, def.Name())
		start := time.Now()
		res, err := inst.Execute(ctx)
		status := "ok"
		if err != nil {
			status = "error"
			metrics.RecordError(ctx, "run", def.Name())
		}
		metrics.RecordRun(ctx, def.Name(), status, time.Since(start))
		if err != nil {
			return err
		}

		var out any = res
		if opts.output != "" {
			if out, err = res.Get(opts.output); err != nil {
				return err
			}
		}
		return writeJSON(stdout, out)
	})
}

func engineOptions(app *bootstrap.App[*config.Config]) []flow.Option {
	cfg := app.Cfg
	opts := []flow.Option{
		flow.WithConcurrency(cfg.Engine.Concurrency),
		flow.WithVerbose(cfg.Engine.Verbose),
		flow.WithLogger(app.Logger.WithComponent("flow")),
		flow.WithMiddleware(flow.WithLogging(app.Logger.WithComponent("flow"))),
	}
	if app.Telemetry.TracingEnabled() {
		opts = append(opts, flow.WithMiddleware(flow.WithTracing("flowgraph")))
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, flow.WithMiddleware(flow.WithMetrics(app.Telemetry.Metrics)))
	}
	return opts
}

// loadSpec reads the definition in file and builds the loader that resolves
// its extends: HCL graphs from the definition directories first, then YAML
// files from the file's own directory and the definition directories.
func loadSpec(file, graph string, dirs []string) (*flow.Spec, flow.SpecLoader, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, nil, usagef("definition file %s: %v", file, err)
	}
	hcl := hcldef.NewLoader()
	for _, dir := range dirs {
		if _, err := hcl.LoadDir(dir); err != nil {
			return nil, nil, err
		}
	}
	yamlDirs := append([]string{filepath.Dir(file)}, dirs...)
	loader := flow.ChainLoaders(hcl, flow.NewFileSpecLoader(yamlDirs...))

	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".hcl":
		specs, err := hcl.LoadFile(file)
		if err != nil {
			return nil, nil, err
		}
		s, err := pick(specs, graph, file)
		return s, loader, err
	case ".yaml", ".yml":
		s, err := flow.LoadSpecFile(file)
		if err != nil {
			return nil, nil, err
		}
		if graph != "" && s.Name != graph {
			return nil, nil, usagef("%s defines %q, not %q", file, s.Name, graph)
		}
		return s, loader, nil
	default:
		return nil, nil, usagef("%s: unsupported definition format %q", file, ext)
	}
}

func pick(specs []*flow.Spec, graph, file string) (*flow.Spec, error) {
	if graph == "" {
		if len(specs) == 1 {
			return specs[0], nil
		}
		names := make([]string, 0, len(specs))
		for _, s := range specs {
			names = append(names, s.Name)
		}
		return nil, usagef("%s defines %d graphs %v; choose one with -graph", file, len(specs), names)
	}
	i := slices.IndexFunc(specs, func(s *flow.Spec) bool { return s.Name == graph })
	if i < 0 {
		return nil, usagef("%s has no graph %q", file, graph)
	}
	return specs[i], nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Get("flowgraph").Error("result not encodable", logger.ErrorFields("encode", err))
		return fmt.Errorf("encoding results: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
