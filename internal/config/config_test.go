package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/voxedit/internal/config/layer"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func load(t *testing.T, opts ...Option) *Config {
	t.Helper()
	c := New(opts...)
	t.Cleanup(func() { c.Close() })
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := load(t)

	if got, err := c.GetInt("jobs.unitsPerTick"); err != nil || got != 2048 {
		t.Errorf("GetInt(jobs.unitsPerTick) = %d, %v, want 2048", got, err)
	}
	if got, err := c.GetString("logging.level"); err != nil || got != "info" {
		t.Errorf("GetString(logging.level) = %q, %v, want info", got, err)
	}
	if src, ok := c.SourceOf("history.maxEntries"); !ok || src != layer.SourceBuiltin {
		t.Errorf("SourceOf(history.maxEntries) = %v, %v, want builtin", src, ok)
	}
	if _, err := c.GetInt("nope.missing"); err != ErrSettingNotFound {
		t.Errorf("GetInt(missing) error = %v, want ErrSettingNotFound", err)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "voxedit.toml", "[jobs]\nunitsPerTick = 64\n\n[logging]\nlevel = \"debug\"\n"},
		{"yaml", "voxedit.yaml", "jobs:\n  unitsPerTick: 64\nlogging:\n  level: debug\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			c := load(t, WithFile(path))

			if got := c.Jobs().UnitsPerTick; got != 64 {
				t.Errorf("Jobs().UnitsPerTick = %d, want 64", got)
			}
			if got := c.Logging().Level; got != "debug" {
				t.Errorf("Logging().Level = %q, want debug", got)
			}
			if got := c.History().MaxEntries; got != defaultMaxHistory {
				t.Errorf("History().MaxEntries = %d, want %d", got, defaultMaxHistory)
			}
			if src, _ := c.SourceOf("jobs.unitsPerTick"); src != layer.SourceFile {
				t.Errorf("SourceOf() = %v, want file", src)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := load(t, WithFile(filepath.Join(t.TempDir(), "absent.toml")))
	if got := c.Jobs().UnitsPerTick; got != defaultUnitsPerTick {
		t.Errorf("Jobs().UnitsPerTick = %d, want %d", got, defaultUnitsPerTick)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[jobs\n")

	tests := []struct {
		name string
		path string
	}{
		{"parse", bad},
		{"format", filepath.Join(dir, "voxedit.ini")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithFile(tt.path))
			if err := c.Load(context.Background()); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxedit.toml")
	writeFile(t, path, "[jobs]\nunitsPerTick = 64\nmaxJobs = 3\n\n[history]\nmaxEntries = 10\n")
	t.Setenv("VOXEDIT_JOBS_UNITS_PER_TICK", "128")
	t.Setenv("VOXEDIT_HISTORY_MAX_ENTRIES", "20")

	c := load(t, WithFile(path))
	if err := c.Set("history.maxEntries", 30); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := c.Jobs(); got.UnitsPerTick != 128 || got.MaxJobs != 3 {
		t.Errorf("Jobs() = %+v, want {128 3}", got)
	}
	if got := c.History().MaxEntries; got != 30 {
		t.Errorf("History().MaxEntries = %d, want 30", got)
	}
	tests := []struct {
		path string
		want layer.Source
	}{
		{"jobs.maxJobs", layer.SourceFile},
		{"jobs.unitsPerTick", layer.SourceEnv},
		{"history.maxEntries", layer.SourceArgs},
		{"world.tickRate", layer.SourceBuiltin},
	}
	for _, tt := range tests {
		if got, _ := c.SourceOf(tt.path); got != tt.want {
			t.Errorf("SourceOf(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSetNotifies(t *testing.T) {
	c := load(t)
	var got [][]string
	c.OnChange(func(changed []string) { got = append(got, changed) })

	if err := c.Set("logging.level", "warn"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Unchanged value: no notification.
	if err := c.Set("logging.level", "warn"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set("", 1); err != ErrInvalidPath {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidPath", err)
	}

	want := [][]string{{"logging.level"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxedit.toml")
	writeFile(t, path, "[jobs]\nunitsPerTick = 64\n")
	c := load(t, WithFile(path))

	var got []string
	c.OnChange(func(changed []string) { got = changed })

	writeFile(t, path, "[jobs]\nunitsPerTick = 64\n\n[history]\nmaxEntries = 5\n\n[logging]\nlevel = \"error\"\n")
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	want := []string{"history.maxEntries", "logging.level"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changed = %v, want %v", got, want)
	}

	writeFile(t, path, "[jobs\n")
	if err := c.Reload(); err == nil {
		t.Error("Reload() of invalid file error = nil")
	}
	if got := c.History().MaxEntries; got != 5 {
		t.Errorf("History().MaxEntries after failed reload = %d, want 5", got)
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxedit.toml")
	writeFile(t, path, "[jobs]\nunitsPerTick = 64\n")
	c := load(t, WithFile(path), WithWatch(true))

	changes := make(chan []string, 4)
	c.OnChange(func(changed []string) { changes <- changed })
	writeFile(t, path, "[jobs]\nunitsPerTick = 32\n")

	select {
	case changed := <-changes:
		if !reflect.DeepEqual(changed, []string{"jobs.unitsPerTick"}) {
			t.Errorf("changed = %v, want [jobs.unitsPerTick]", changed)
		}
		if got := c.Jobs().UnitsPerTick; got != 32 {
			t.Errorf("Jobs().UnitsPerTick = %d, want 32", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestGetDuration(t *testing.T) {
	c := load(t)
	tests := []struct {
		value any
		want  time.Duration
	}{
		{"250ms", 250 * time.Millisecond},
		{2 * time.Second, 2 * time.Second},
		{int64(40), 40 * time.Millisecond},
		{1.5, 1500 * time.Microsecond},
	}
	for _, tt := range tests {
		if err := c.Set("script.timeout", tt.value); err != nil {
			t.Fatal(err)
		}
		got, err := c.GetDuration("script.timeout")
		if err != nil || got != tt.want {
			t.Errorf("GetDuration(%v) = %v, %v, want %v", tt.value, got, err, tt.want)
		}
	}

	if err := c.Set("script.timeout", "soon"); err != nil {
		t.Fatal(err)
	}
	var te *TypeError
	if _, err := c.GetDuration("script.timeout"); !errors.As(err, &te) {
		t.Errorf("GetDuration(soon) error = %v, want *TypeError", err)
	}
}
