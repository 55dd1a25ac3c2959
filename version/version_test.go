package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func restoreVars(t *testing.T) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })
}

func buildInfo(mainVersion string, settings ...debug.BuildSetting) *debug.BuildInfo {
	return &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Path: "github.com/kbukum/flowgraph", Version: mainVersion},
		Settings:  settings,
	}
}

// --- resolve ---

func TestResolveDefaults(t *testing.T) {
	restoreVars(t)
	Version, GitCommit, BuildTime = "dev", "", ""

	info := resolve(nil)
	if info.Version != "dev" || info.IsRelease() {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Short() != "dev" {
		t.Errorf("expected short 'dev', got %q", info.Short())
	}
}

func TestResolveLdflagsWin(t *testing.T) {
	restoreVars(t)
	Version, GitCommit, BuildTime = "1.0.0", "abc1234", "2026-01-15T10:30:00Z"

	info := resolve(buildInfo("v0.9.0",
		debug.BuildSetting{Key: "vcs.revision", Value: "fffffffffffffff"},
		debug.BuildSetting{Key: "vcs.time", Value: "2020-01-01T00:00:00Z"},
	))
	if info.Version != "1.0.0" || info.GitCommit != "abc1234" {
		t.Errorf("expected ldflags values, got %+v", info)
	}
	if info.BuildTime.Year() != 2026 {
		t.Errorf("expected build year 2026, got %d", info.BuildTime.Year())
	}
	if !info.IsRelease() {
		t.Error("1.0.0 should be a release")
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("expected go version, got %q", info.GoVersion)
	}
}

func TestResolveFromBuildInfo(t *testing.T) {
	restoreVars(t)
	Version, GitCommit, BuildTime = "dev", "", ""

	info := resolve(buildInfo("v1.2.0",
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
	))
	if info.Version != "v1.2.0" || info.GitCommit != "0123456" || !info.Dirty {
		t.Errorf("unexpected info %+v", info)
	}
	if info.IsRelease() {
		t.Error("dirty build should not be a release")
	}
	if got := info.Short(); got != "v1.2.0-0123456-dirty" {
		t.Errorf("unexpected short %q", got)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !info.BuildTime.Equal(want) {
		t.Errorf("expected %v, got %v", want, info.BuildTime)
	}
}

func TestResolveDevelBuild(t *testing.T) {
	restoreVars(t)
	Version, GitCommit, BuildTime = "dev", "", ""

	if info := resolve(buildInfo("(devel)")); info.Version != "dev" {
		t.Errorf("expected dev for (devel), got %q", info.Version)
	}
}

// --- formatting ---

func TestString(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abc1234",
		BuildTime: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		GoVersion: "go1.26.0",
	}
	want := "flowgraph 1.0.0-abc1234 (built 2026-01-15T10:30:00Z) go1.26.0"
	if got := info.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := (Info{Version: "dev"}).String(); got != "flowgraph dev" {
		t.Errorf("got %q", got)
	}
}

func TestGet(t *testing.T) {
	if Get().Version == "" {
		t.Error("expected a version")
	}
	if GetShortVersion() == "" {
		t.Error("expected a short version")
	}
}
