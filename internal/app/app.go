// Package app wires the voxedit components together and runs the tick
// loop that advances queued edits.
package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/voxedit/internal/command"
	"github.com/dshills/voxedit/internal/config"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/session"
	"github.com/dshills/voxedit/internal/tool"
	"github.com/dshills/voxedit/internal/world"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file.
	ConfigPath string

	// Watch reloads the configuration file when it changes.
	Watch bool

	// LogLevel overrides logging.level.
	LogLevel string

	// Debug sets the log level to debug.
	Debug bool

	// MetricsAddr enables the metrics endpoint on this address.
	MetricsAddr string

	// Logger receives application logs. A stderr logger is used if nil.
	Logger *Logger

	// Tracer finds the block an operator is looking at.
	Tracer tool.Tracer

	// Display shows outline points to an operator.
	Display tool.Display
}

// Application owns the world, the job scheduler, operator sessions and the
// tool registry, and advances jobs once per tick.
type Application struct {
	mu sync.Mutex

	config   *config.Config
	logger   *Logger
	metrics  *Metrics
	server   *MetricsServer
	world    *world.Memory
	jobs     *job.Scheduler
	runner   *command.Runner
	sessions *session.Manager
	tools    *tool.Registry
	opts     Options

	tickInterval time.Duration
	tick         atomic.Int64

	running      atomic.Bool
	done         chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates an application. Components that fail to start are released
// before the error is returned.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run ticks until ctx ends or Shutdown is called, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	select {
	case <-app.done:
		return ErrShutdown
	default:
	}

	app.logger.Info("running at %d ticks per second", time.Second/app.tickInterval)
	ticker := time.NewTicker(app.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return app.Shutdown()
		case <-app.done:
			return app.shutdownErr
		case <-ticker.C:
			app.Tick()
		}
	}
}

// Tick advances the simulation by one tick: queued programs run within
// their budget and visible selections are drawn. A panic is logged and the
// loop continues.
func (app *Application) Tick() {
	timer := StartTimer()
	n := app.tick.Add(1)

	app.mu.Lock()
	defer app.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err := &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
			app.logger.WithField("tick", n).Error("%v", err)
		}
		app.metrics.RecordTick(timer.Elapsed())
		app.metrics.RecordSessions(app.sessions.Len())
	}()

	app.jobs.Tick()
	app.drawSelections()
}

func (app *Application) drawSelections() {
	if app.opts.Display == nil {
		return
	}
	for _, op := range app.sessions.Operators() {
		s, err := app.sessions.Lookup(op)
		if err != nil {
			continue
		}
		if pts := s.Selection().Draw(); len(pts) > 0 {
			app.opts.Display(s, pts)
		}
	}
}

// Do runs fn with exclusive access to the sessions and scheduler, between
// ticks.
func (app *Application) Do(fn func()) {
	app.mu.Lock()
	defer app.mu.Unlock()
	fn()
}

// Execute runs the named operation for an operator between ticks, creating
// the operator's session if needed. A rejected operation is returned as an
// *OperationError. Done callbacks run inside Tick and must not call Execute
// or Do.
func (app *Application) Execute(operator, op string, fn func(s *session.Session, r *command.Runner) error) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := fn(app.sessions.Get(operator), app.runner); err != nil {
		app.logger.WithFields(map[string]any{"operator": operator, "op": op}).Debug("rejected: %v", err)
		return NewOperationError(op, operator, err)
	}
	return nil
}

// Shutdown stops the loop, finishes outstanding jobs, and releases the
// watcher and metrics server. It is safe to call more than once.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() {
		app.mu.Lock()
		pending := app.jobs.Active()
		app.jobs.Drain()
		app.mu.Unlock()
		if pending > 0 {
			app.logger.Info("finished %d outstanding programs", pending)
		}

		var errs ErrorList
		if err := app.config.Close(); err != nil {
			errs.Add(NewComponentError("config", "close", err))
		}
		if app.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			errs.Add(app.server.Close(ctx))
			cancel()
		}
		app.shutdownErr = errs.AsError()
		snap := app.metrics.Snapshot()
		_, writes := app.world.Stats()
		app.logger.Info("shut down after %d ticks, %.1f%% over budget, %d block writes",
			snap.TickCount, snap.OverrunRate(), writes)
		close(app.done)
	})
	return app.shutdownErr
}

// applyConfig applies settings that can change while running.
func (app *Application) applyConfig(changed []string) {
	log := app.logger.WithComponent("config")
	for _, path := range changed {
		switch path {
		case "logging.level":
			app.logger.SetLevel(ParseLogLevel(app.config.Logging().Level))
		case "jobs.unitsPerTick":
			app.jobs.SetUnitsPerTick(app.config.Jobs().UnitsPerTick)
		case "history.maxEntries":
			app.sessions.SetMaxHistory(app.config.History().MaxEntries)
		default:
			continue
		}
		log.Info("applied %s", path)
	}
	if unapplied := slices.DeleteFunc(slices.Clone(changed), reloadable); len(unapplied) > 0 {
		log.Warn("restart to apply %v", unapplied)
	}
}

func reloadable(path string) bool {
	switch path {
	case "logging.level", "jobs.unitsPerTick", "history.maxEntries":
		return true
	}
	return false
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// CurrentTick returns the number of ticks run.
func (app *Application) CurrentTick() int64 {
	return app.tick.Load()
}

// Config returns the configuration.
func (app *Application) Config() *config.Config { return app.config }

// Logger returns the application logger.
func (app *Application) Logger() *Logger { return app.logger }

// Metrics returns the tick metrics.
func (app *Application) Metrics() *Metrics { return app.metrics }

// World returns the block store.
func (app *Application) World() *world.Memory { return app.world }

// Jobs returns the job scheduler.
func (app *Application) Jobs() *job.Scheduler { return app.jobs }

// Commands returns the command runner.
func (app *Application) Commands() *command.Runner { return app.runner }

// Sessions returns the session manager.
func (app *Application) Sessions() *session.Manager { return app.sessions }

// Tools returns the tool registry.
func (app *Application) Tools() *tool.Registry { return app.tools }

// String describes the application state.
func (app *Application) String() string {
	return fmt.Sprintf("voxedit tick %d, %d sessions, %d jobs",
		app.tick.Load(), app.sessions.Len(), app.jobs.Len())
}
