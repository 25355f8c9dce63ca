package config

import (
	"testing"
	"time"
)

func TestSectionDefaults(t *testing.T) {
	c := load(t)

	if got := c.Jobs(); got != (JobsConfig{UnitsPerTick: 2048}) {
		t.Errorf("Jobs() = %+v", got)
	}
	if got := c.History().MaxEntries; got != 40 {
		t.Errorf("History().MaxEntries = %d, want 40", got)
	}
	if got := c.Selection(); got != (SelectionConfig{DrawOutline: true, DrawInterval: 10, Mode: "cuboid"}) {
		t.Errorf("Selection() = %+v", got)
	}
	if got := c.Brush(); got != (BrushConfig{MaxSize: 6, Range: 128}) {
		t.Errorf("Brush() = %+v", got)
	}
	if got := c.Script().Timeout; got != 50*time.Millisecond {
		t.Errorf("Script().Timeout = %v, want 50ms", got)
	}
	if got := c.Metrics(); got.Enabled || got.Address != ":9464" {
		t.Errorf("Metrics() = %+v", got)
	}
	if got := c.World(); got != (WorldConfig{MinY: -64, MaxY: 319, TickRate: 20}) {
		t.Errorf("World() = %+v", got)
	}
	if errs := c.ConfigErrors(); errs != nil {
		t.Errorf("ConfigErrors() = %v, want nil", errs)
	}
}

func TestSectionInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
		check func(c *Config) bool
	}{
		{"wrong type", "jobs.unitsPerTick", "fast", func(c *Config) bool { return c.Jobs().UnitsPerTick == 2048 }},
		{"not positive", "history.maxEntries", 0, func(c *Config) bool { return c.History().MaxEntries == 40 }},
		{"bool as string", "metrics.enabled", "yes", func(c *Config) bool { return !c.Metrics().Enabled }},
		{"inverted range", "world.maxY", -100, func(c *Config) bool { return c.World().MaxY == 319 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := load(t)
			if err := c.Set(tt.path, tt.value); err != nil {
				t.Fatal(err)
			}
			if !tt.check(c) {
				t.Errorf("%s = %v did not fall back to the default", tt.path, tt.value)
			}
			if _, ok := c.ConfigErrors()[tt.path]; !ok {
				t.Errorf("ConfigErrors() missing %s", tt.path)
			}
			c.ClearConfigErrors()
			if c.ConfigErrors() != nil {
				t.Error("ConfigErrors() after Clear != nil")
			}
		})
	}
}

func TestSectionOverrides(t *testing.T) {
	c := load(t)
	sets := map[string]any{
		"selection.mode":        "sphere",
		"brush.maxSize":         int64(9),
		"script.timeout":        "1s",
		"metrics.enabled":       true,
		"world.tickRate":        10,
		"selection.drawOutline": false,
	}
	for p, v := range sets {
		if err := c.Set(p, v); err != nil {
			t.Fatal(err)
		}
	}

	if got := c.Selection(); got.Mode != "sphere" || got.DrawOutline {
		t.Errorf("Selection() = %+v", got)
	}
	if got := c.Brush().MaxSize; got != 9 {
		t.Errorf("Brush().MaxSize = %d, want 9", got)
	}
	if got := c.Script().Timeout; got != time.Second {
		t.Errorf("Script().Timeout = %v, want 1s", got)
	}
	if !c.Metrics().Enabled {
		t.Error("Metrics().Enabled = false")
	}
	if got := c.World().TickRate; got != 10 {
		t.Errorf("World().TickRate = %d, want 10", got)
	}
}
