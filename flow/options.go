package flow

import "github.com/kbukum/flowgraph/logger"

// Option configures an Instance.
type Option func(*runConfig)

type runConfig struct {
	concurrency int
	log         *logger.Logger
	verbose     bool
	hooks       []Hook
	middleware  []Middleware
}

func newRunConfig(opts []Option) runConfig {
	cfg := runConfig{concurrency: 1}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get("flow")
	}
	return cfg
}

// WithConcurrency sets how many nodes of one level may run at once.
// Values of 1 or less run nodes sequentially in topological order.
func WithConcurrency(n int) Option {
	return func(c *runConfig) { c.concurrency = n }
}

// WithLogger sets the instance logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *runConfig) { c.log = l }
}

// WithVerbose logs every node start at info level.
func WithVerbose(v bool) Option {
	return func(c *runConfig) { c.verbose = v }
}

// WithHook adds a callback invoked at every node start and end.
func WithHook(h Hook) Option {
	return func(c *runConfig) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// WithMiddleware wraps every computed node invocation. The first middleware
// is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *runConfig) { c.middleware = append(c.middleware, mw...) }
}
