package config

import (
	"fmt"
	"time"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// Built-in defaults.
const (
	defaultUnitsPerTick  = 2048
	defaultMaxJobs       = 0
	defaultMaxHistory    = 40
	defaultDrawInterval  = 10
	defaultBrushMaxSize  = 6
	defaultBrushRange    = 128
	defaultScriptTimeout = 50 * time.Millisecond
	defaultMetricsAddr   = ":9464"
	defaultMinY          = -64
	defaultMaxY          = 319
	defaultTickRate      = 20
)

// JobsConfig configures the job scheduler.
type JobsConfig struct {
	// UnitsPerTick is the work budget of each pass per tick.
	UnitsPerTick int

	// MaxJobs limits concurrently registered jobs (0 = unlimited).
	MaxJobs int
}

// HistoryConfig configures undo history.
type HistoryConfig struct {
	// MaxEntries is the undo depth of each session.
	MaxEntries int
}

// SelectionConfig configures new selections.
type SelectionConfig struct {
	DrawOutline  bool
	DrawInterval int

	// Mode is the initial selection mode ("cuboid", "extend", "sphere").
	Mode string
}

// BrushConfig configures brush tools.
type BrushConfig struct {
	// MaxSize is the largest radius or edge a brush accepts.
	MaxSize int

	// Range is how far a brush traces for a target block.
	Range int
}

// ScriptConfig configures expression masks and patterns.
type ScriptConfig struct {
	Timeout time.Duration
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level string
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Address string
}

// WorldConfig configures the in-memory world.
type WorldConfig struct {
	MinY int
	MaxY int

	// TickRate is the number of ticks per second.
	TickRate int
}

func defaultConfig() map[string]any {
	return map[string]any{
		"jobs": map[string]any{
			"unitsPerTick": defaultUnitsPerTick,
			"maxJobs":      defaultMaxJobs,
		},
		"history": map[string]any{
			"maxEntries": defaultMaxHistory,
		},
		"selection": map[string]any{
			"drawOutline":  true,
			"drawInterval": defaultDrawInterval,
			"mode":         "cuboid",
		},
		"brush": map[string]any{
			"maxSize": defaultBrushMaxSize,
			"range":   defaultBrushRange,
		},
		"script": map[string]any{
			"timeout": defaultScriptTimeout.String(),
		},
		"logging": map[string]any{
			"level": "info",
		},
		"metrics": map[string]any{
			"enabled": false,
			"address": defaultMetricsAddr,
		},
		"world": map[string]any{
			"minY":     defaultMinY,
			"maxY":     defaultMaxY,
			"tickRate": defaultTickRate,
		},
	}
}

// Jobs returns the scheduler settings.
func (c *Config) Jobs() JobsConfig {
	return JobsConfig{
		UnitsPerTick: c.getPositiveIntOr("jobs.unitsPerTick", defaultUnitsPerTick),
		MaxJobs:      c.getIntOr("jobs.maxJobs", defaultMaxJobs),
	}
}

// History returns the undo history settings.
func (c *Config) History() HistoryConfig {
	return HistoryConfig{
		MaxEntries: c.getPositiveIntOr("history.maxEntries", defaultMaxHistory),
	}
}

// Selection returns the selection settings.
func (c *Config) Selection() SelectionConfig {
	return SelectionConfig{
		DrawOutline:  c.getBoolOr("selection.drawOutline", true),
		DrawInterval: c.getPositiveIntOr("selection.drawInterval", defaultDrawInterval),
		Mode:         c.getStringOr("selection.mode", "cuboid"),
	}
}

// Brush returns the brush settings.
func (c *Config) Brush() BrushConfig {
	return BrushConfig{
		MaxSize: c.getPositiveIntOr("brush.maxSize", defaultBrushMaxSize),
		Range:   c.getPositiveIntOr("brush.range", defaultBrushRange),
	}
}

// Script returns the scripting settings.
func (c *Config) Script() ScriptConfig {
	return ScriptConfig{
		Timeout: c.getDurationOr("script.timeout", defaultScriptTimeout),
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level: c.getStringOr("logging.level", "info"),
	}
}

// Metrics returns the metrics endpoint settings.
func (c *Config) Metrics() MetricsConfig {
	return MetricsConfig{
		Enabled: c.getBoolOr("metrics.enabled", false),
		Address: c.getStringOr("metrics.address", defaultMetricsAddr),
	}
}

// World returns the world settings. A range with MaxY below MinY falls
// back to the default range.
func (c *Config) World() WorldConfig {
	w := WorldConfig{
		MinY:     c.getIntOr("world.minY", defaultMinY),
		MaxY:     c.getIntOr("world.maxY", defaultMaxY),
		TickRate: c.getPositiveIntOr("world.tickRate", defaultTickRate),
	}
	if w.MaxY < w.MinY {
		c.recordConfigError("world.maxY", fmt.Errorf("maxY %d is below minY %d", w.MaxY, w.MinY))
		w.MinY, w.MaxY = defaultMinY, defaultMaxY
	}
	return w
}

// These methods only return the default for ErrSettingNotFound.
// Type errors are recorded and return the default so callers keep working.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getPositiveIntOr(path string, defaultValue int) int {
	v := c.getIntOr(path, defaultValue)
	if v < 1 {
		c.recordConfigError(path, fmt.Errorf("setting %s: %d is not positive", path, v))
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

// recordConfigError keeps the first error for each path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns the configuration errors seen by section accessors.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.configErrors) == 0 {
		return nil
	}
	result := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		result[k] = v
	}
	return result
}

// ClearConfigErrors clears the stored configuration errors.
func (c *Config) ClearConfigErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configErrors = nil
}
