package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/flowgraph/config"
	"github.com/kbukum/flowgraph/logger"
)

type testConfig struct {
	config.Config
}

func quietLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", buf)
}

// --- NewApp ---

func TestNewApp_AppliesDefaults(t *testing.T) {
	cfg := &testConfig{}
	var buf bytes.Buffer
	app, err := NewApp(cfg, WithLogger(quietLogger(&buf)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Name != "flowgraph" || app.Version == "" {
		t.Errorf("unexpected identity %q/%q", app.Name, app.Version)
	}
	if cfg.Engine.Concurrency != 1 {
		t.Errorf("expected defaults on the caller's config, got %+v", cfg.Engine)
	}
	if app.Cfg != cfg {
		t.Error("expected typed config to be kept")
	}
}

func TestNewApp_ValidationError(t *testing.T) {
	cfg := &testConfig{}
	cfg.Environment = "qa"
	_, err := NewApp(cfg)
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewApp_InitialisesGlobalLogger(t *testing.T) {
	prev := logger.GetGlobalLogger()
	t.Cleanup(func() { logger.SetGlobalLogger(prev) })

	cfg := &testConfig{}
	cfg.Name = "calc"
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Logger != logger.GetGlobalLogger() || app.Logger.Service() != "calc" {
		t.Errorf("expected global logger for calc, got %q", app.Logger.Service())
	}
}

// --- RunTask ---

func TestRunTask_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(&testConfig{}, WithLogger(quietLogger(&buf)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		if app.Telemetry == nil || app.Telemetry.Metrics == nil {
			t.Error("expected telemetry before the task")
		}
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(order, ","); got != "start,task,stop" {
		t.Errorf("unexpected order %s", got)
	}
	if !strings.Contains(buf.String(), `"message":"task finished"`) {
		t.Errorf("expected task log, got %s", buf.String())
	}
}

func TestRunTask_TaskErrorWins(t *testing.T) {
	var buf bytes.Buffer
	app, _ := NewApp(&testConfig{}, WithLogger(quietLogger(&buf)))

	stopped := false
	app.OnStop(func(context.Context) error { stopped = true; return fmt.Errorf("stop failed") })

	taskErr := fmt.Errorf("task failed")
	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if err != taskErr {
		t.Fatalf("expected task error, got %v", err)
	}
	if !stopped {
		t.Error("expected stop hooks after a failed task")
	}
}

func TestRunTask_StopErrorReported(t *testing.T) {
	var buf bytes.Buffer
	app, _ := NewApp(&testConfig{}, WithLogger(quietLogger(&buf)), WithGracefulTimeout(time.Second))
	app.OnStop(func(context.Context) error { return fmt.Errorf("stop failed") })

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "stop failed") {
		t.Fatalf("expected stop error, got %v", err)
	}
}

func TestRunTask_StartHookAborts(t *testing.T) {
	var buf bytes.Buffer
	app, _ := NewApp(&testConfig{}, WithLogger(quietLogger(&buf)))
	app.OnStart(func(context.Context) error { return fmt.Errorf("no") })

	stopped, ran := false, false
	app.OnStop(func(context.Context) error { stopped = true; return nil })
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || !strings.Contains(err.Error(), "start hook") {
		t.Fatalf("expected start hook error, got %v", err)
	}
	if ran {
		t.Error("task must not run after a failed start hook")
	}
	if !stopped {
		t.Error("expected stop hooks after a failed start")
	}
}

func TestRunTask_ParentCancel(t *testing.T) {
	var buf bytes.Buffer
	app, _ := NewApp(&testConfig{}, WithLogger(quietLogger(&buf)))

	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
