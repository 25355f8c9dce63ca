package config

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dshills/voxedit/internal/config/layer"
	"github.com/dshills/voxedit/internal/config/loader"
	"github.com/dshills/voxedit/internal/config/watcher"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "VOXEDIT_"

// Layer names.
const (
	layerDefaults = "defaults"
	layerFile     = "file"
	layerEnv      = "environment"
	layerArgs     = "args"
)

// ChangeHandler is called with the sorted paths whose effective values
// changed. Handlers run without the config lock held and may read the
// config.
type ChangeHandler func(changed []string)

// Config provides layered access to voxedit settings: built-in defaults,
// an optional TOML or YAML file, VOXEDIT_ environment variables and
// command-line values, in increasing precedence.
type Config struct {
	mu sync.RWMutex

	layers *layer.Manager

	path      string
	envPrefix string
	watch     bool
	watcher   *watcher.Watcher
	handlers  []ChangeHandler

	// configErrors records type mismatches seen by section accessors.
	configErrors map[string]error
}

// Option configures a Config.
type Option func(*Config)

// WithFile sets the configuration file. The format is chosen by extension.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithWatch reloads the file when it changes on disk.
func WithWatch(enable bool) Option {
	return func(c *Config) {
		c.watch = enable
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// file and environment.
func New(opts ...Option) *Config {
	c := &Config{
		layers:       layer.NewManager(),
		envPrefix:    DefaultEnvPrefix,
		configErrors: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.layers.Put(layer.New(layerDefaults, layer.SourceBuiltin, defaultConfig()))
	c.layers.Put(layer.New(layerArgs, layer.SourceArgs, nil))
	return c
}

// Path returns the configuration file, if any.
func (c *Config) Path() string {
	return c.path
}

// Load reads the file and environment layers and starts the watcher when
// enabled. A missing file is not an error.
func (c *Config) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if err := c.loadFile(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.loadEnvironment(); err != nil {
		c.mu.Unlock()
		return err
	}
	start := c.watch && c.path != "" && c.watcher == nil
	c.mu.Unlock()

	if start {
		return c.startWatcher()
	}
	return nil
}

// Reload rereads the file and environment and notifies handlers of any
// changed paths.
func (c *Config) Reload() error {
	c.mu.Lock()
	before := c.layers.Merge()
	if err := c.loadFile(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.loadEnvironment(); err != nil {
		c.mu.Unlock()
		return err
	}
	changed := layer.Diff(before, c.layers.Merge())
	c.mu.Unlock()

	c.notify(changed)
	return nil
}

// OnChange registers a handler for effective value changes.
func (c *Config) OnChange(h ChangeHandler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

// Close stops the watcher.
func (c *Config) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}

// Set sets a value in the command-line layer, which overrides every other
// source.
func (c *Config) Set(path string, value any) error {
	if path == "" {
		return ErrInvalidPath
	}

	c.mu.Lock()
	before := c.layers.Merge()
	args := c.layers.Layer(layerArgs)
	layer.SetByPath(args.Data, path, value)
	c.layers.Invalidate()
	changed := layer.Diff(before, c.layers.Merge())
	c.mu.Unlock()

	c.notify(changed)
	return nil
}

// Get returns the effective value at path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, _, ok := c.layers.Get(path)
	return v, ok
}

// SourceOf returns the source providing the effective value at path.
func (c *Config) SourceOf(path string) (layer.Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, l, ok := c.layers.Get(path)
	if !ok {
		return 0, false
	}
	return l.Source, true
}

// Merged returns the fully merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layers.Merge()
}

// GetString returns a string value at path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetFloat returns a float64 value at path.
func (c *Config) GetFloat(path string) (float64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "float64", Actual: typeName(v)}
	}
}

// GetDuration returns a duration at path. Strings are parsed with
// time.ParseDuration; bare numbers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: strconv.Quote(val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	case float64:
		return time.Duration(val * float64(time.Millisecond)), nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// loadFile replaces the file layer. Callers hold c.mu.
func (c *Config) loadFile() error {
	if c.path == "" {
		return nil
	}
	l, err := loader.ForFile(c.path)
	if err != nil {
		return err
	}
	data, err := l.Load()
	if err != nil {
		return err
	}
	if data == nil {
		c.layers.Remove(layerFile)
		return nil
	}
	fl := layer.New(layerFile, layer.SourceFile, data)
	fl.Path = c.path
	c.layers.Put(fl)
	return nil
}

// loadEnvironment replaces the environment layer. Callers hold c.mu.
func (c *Config) loadEnvironment() error {
	data, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		c.layers.Remove(layerEnv)
		return nil
	}
	c.layers.Put(layer.New(layerEnv, layer.SourceEnv, data))
	return nil
}

func (c *Config) startWatcher() error {
	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	if err := w.Watch(c.path); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", c.path, err)
	}
	w.OnChange(c.handleFileChange)

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return nil
}

// handleFileChange reloads after the watched file changed. A file that
// fails to parse leaves the previous values in place.
func (c *Config) handleFileChange(event watcher.Event) {
	if event.Op == watcher.OpRemove {
		c.mu.Lock()
		before := c.layers.Merge()
		c.layers.Remove(layerFile)
		changed := layer.Diff(before, c.layers.Merge())
		c.mu.Unlock()
		c.notify(changed)
		return
	}
	_ = c.Reload()
}

func (c *Config) notify(changed []string) {
	if len(changed) == 0 {
		return
	}
	c.mu.RLock()
	handlers := make([]ChangeHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(changed)
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
