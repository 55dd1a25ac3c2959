package bootstrap

import (
	"time"

	"github.com/kbukum/flowgraph/logger"
)

// Option adjusts an App while NewApp builds it.
type Option func(app appSettings)

// appSettings is the part of App that options may set, independent of the
// config type parameter.
type appSettings interface {
	setLogger(*logger.Logger)
	setGracefulTimeout(time.Duration)
}

func (a *App[C]) setLogger(l *logger.Logger)         { a.Logger = l }
func (a *App[C]) setGracefulTimeout(d time.Duration) { a.gracefulTimeout = d }

// WithLogger uses l instead of initialising the global logger from the
// config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(app appSettings) { app.setLogger(l) }
}

// WithGracefulTimeout bounds stop hooks and telemetry shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(app appSettings) { app.setGracefulTimeout(d) }
}
