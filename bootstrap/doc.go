// Package bootstrap runs a finite task, such as one graph execution, inside
// the standard flowgraph lifecycle: defaults and validation of the config,
// logger initialisation, telemetry setup, start hooks, signal-driven
// cancellation, then stop hooks and telemetry shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := inst.Execute(ctx)
//	    return err
//	})
package bootstrap
