package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/flowgraph/logger"
	"github.com/kbukum/flowgraph/observability"
)

const defaultGracefulTimeout = 5 * time.Second

// App carries the typed config and the infrastructure built from it.
type App[C Config] struct {
	Name      string
	Version   string
	Cfg       C
	Logger    *logger.Logger
	Telemetry *observability.Provider

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
}

// NewApp applies defaults to cfg and validates it. Unless WithLogger is
// given, the global logger is initialised from the logging section.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetConfig()
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: defaultGracefulTimeout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RunTask sets up telemetry, runs the start hooks and then task. SIGINT and
// SIGTERM cancel the context passed to task. Stop hooks and telemetry
// shutdown always run; the task error takes precedence over shutdown errors.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	start := time.Now()
	taskErr := task(taskCtx)
	if ctx.Err() == nil && taskCtx.Err() != nil {
		a.Logger.Warn("run interrupted by signal")
	}
	stopSignals()

	fields := logger.MergeWithDuration(logger.Fields("failed", taskErr != nil), time.Since(start))
	a.Logger.Debug("task finished", fields)

	stopErr := a.stop()
	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

func (a *App[C]) start(ctx context.Context) error {
	base := a.Cfg.GetConfig()
	id := observability.Identity{Service: a.Name, Version: a.Version, Environment: base.Environment}
	a.Logger.Debug("starting", logger.Fields(
		"name", id.Service,
		"version", id.Version,
		"environment", id.Environment,
	))

	tel, err := observability.Setup(ctx, base.Observability, id)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	a.Telemetry = tel

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("start hook: %w", err)
	}
	return nil
}

// stop runs the stop hooks and flushes telemetry within the graceful
// timeout.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("stop hook failed", logger.ErrorFields("stop", err))
		errs = append(errs, err)
	}
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			a.Logger.Warn("telemetry shutdown failed", logger.ErrorFields("stop", err))
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
