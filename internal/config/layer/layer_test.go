package layer

import (
	"reflect"
	"testing"
)

func TestManagerPriority(t *testing.T) {
	m := NewManager()
	m.Put(New("env", SourceEnv, map[string]any{
		"jobs": map[string]any{"unitsPerTick": 64},
	}))
	m.Put(New("defaults", SourceBuiltin, map[string]any{
		"jobs":    map[string]any{"unitsPerTick": 2048, "maxJobs": 0},
		"logging": map[string]any{"level": "info"},
	}))
	m.Put(New("file", SourceFile, map[string]any{
		"jobs":    map[string]any{"unitsPerTick": 512},
		"logging": map[string]any{"level": "debug"},
	}))

	merged := m.Merge()
	tests := []struct {
		path string
		want any
	}{
		{"jobs.unitsPerTick", 64},
		{"jobs.maxJobs", 0},
		{"logging.level", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := GetByPath(merged, tt.path)
			if !ok || got != tt.want {
				t.Errorf("GetByPath(%q) = %v, %v, want %v", tt.path, got, ok, tt.want)
			}
		})
	}

	v, l, ok := m.Get("logging.level")
	if !ok || v != "debug" || l.Name != "file" {
		t.Errorf("Get() = %v from %v", v, l)
	}
}

func TestManagerPutReplaces(t *testing.T) {
	m := NewManager()
	m.Put(New("file", SourceFile, map[string]any{"a": 1}))
	_ = m.Merge()
	m.Put(New("file", SourceFile, map[string]any{"a": 2}))
	if len(m.Layers()) != 1 {
		t.Fatalf("Layers() = %d, want 1", len(m.Layers()))
	}
	if got, _ := GetByPath(m.Merge(), "a"); got != 2 {
		t.Errorf("a = %v, want 2", got)
	}
	if !m.Remove("file") || m.Remove("file") {
		t.Error("Remove() did not report presence correctly")
	}
	if len(m.Merge()) != 0 {
		t.Error("Merge() after Remove not empty")
	}
}

func TestMergeReturnsCopy(t *testing.T) {
	m := NewManager()
	m.Put(New("defaults", SourceBuiltin, map[string]any{
		"world": map[string]any{"minY": -64},
	}))
	got := m.Merge()
	SetByPath(got, "world.minY", 0)
	if v, _ := GetByPath(m.Merge(), "world.minY"); v != -64 {
		t.Errorf("mutating Merge() result changed the manager: %v", v)
	}
}

func TestDiff(t *testing.T) {
	old := map[string]any{
		"jobs":    map[string]any{"unitsPerTick": 2048, "maxJobs": 0},
		"logging": map[string]any{"level": "info"},
	}
	updated := map[string]any{
		"jobs":    map[string]any{"unitsPerTick": 512, "maxJobs": 0},
		"metrics": map[string]any{"enabled": true},
	}
	want := []string{"jobs.unitsPerTick", "logging.level", "metrics.enabled"}
	if got := Diff(old, updated); !reflect.DeepEqual(got, want) {
		t.Errorf("Diff() = %v, want %v", got, want)
	}
	if got := Diff(old, Clone(old)); len(got) != 0 {
		t.Errorf("Diff() of equal maps = %v", got)
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		s    Source
		want string
	}{
		{SourceBuiltin, "builtin"},
		{SourceFile, "file"},
		{SourceEnv, "environment"},
		{SourceArgs, "arguments"},
		{Source(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
