package app

import (
	"context"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/dshills/voxedit/internal/command"
	"github.com/dshills/voxedit/internal/config"
	"github.com/dshills/voxedit/internal/engine/brush"
	"github.com/dshills/voxedit/internal/engine/job"
	"github.com/dshills/voxedit/internal/engine/pattern"
	"github.com/dshills/voxedit/internal/engine/selection"
	"github.com/dshills/voxedit/internal/session"
	"github.com/dshills/voxedit/internal/tool"
	"github.com/dshills/voxedit/internal/world"
)

// defaultBrushRadius is the radius of a newly bound brush.
const defaultBrushRadius = 3

// bootstrapper handles component initialization with cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order. On failure it
// cleans up the components already initialized.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initWorld,
		b.initScheduler,
		b.initSessions,
		b.initTools,
		b.initMetrics,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.config.OnChange(b.app.applyConfig)
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg := config.New(
		config.WithFile(b.opts.ConfigPath),
		config.WithWatch(b.opts.Watch && b.opts.ConfigPath != ""),
	)
	if err := cfg.Load(context.Background()); err != nil {
		cfg.Close()
		return &InitError{Component: "config", Err: err}
	}
	level := b.opts.LogLevel
	if b.opts.Debug {
		level = "debug"
	}
	if level != "" {
		_ = cfg.Set("logging.level", level)
	}
	if b.opts.MetricsAddr != "" {
		_ = cfg.Set("metrics.enabled", true)
		_ = cfg.Set("metrics.address", b.opts.MetricsAddr)
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initLogger() error {
	l := b.opts.Logger
	if l == nil {
		l = NewLogger(DefaultLoggerConfig())
	}
	l.SetLevel(ParseLogLevel(b.app.config.Logging().Level))
	b.app.logger = l
	if path := b.app.config.Path(); path != "" {
		l.WithComponent("config").Info("loaded %s", path)
	}
	for path, err := range b.app.config.ConfigErrors() {
		l.WithComponent("config").Warn("%s: %v, using default", path, err)
	}
	return nil
}

func (b *bootstrapper) initWorld() error {
	wc := b.app.config.World()
	b.app.world = world.NewMemory(cube.Range{wc.MinY, wc.MaxY})
	b.app.tickInterval = time.Second / time.Duration(wc.TickRate)
	return nil
}

func (b *bootstrapper) initScheduler() error {
	jc := b.app.config.Jobs()
	b.app.jobs = job.NewScheduler(job.Config{
		UnitsPerTick: jc.UnitsPerTick,
		MaxJobs:      jc.MaxJobs,
	}, job.WithListener(newJobLogger(b.app.logger)))
	b.app.runner = command.NewRunner(b.app.jobs)
	b.initOrder = append(b.initOrder, "jobs")
	return nil
}

func (b *bootstrapper) initSessions() error {
	sc := b.app.config.Selection()
	mode, err := selection.ParseMode(sc.Mode)
	if err != nil {
		b.app.logger.WithComponent("config").Warn("selection.mode: %v, using cuboid", err)
		mode = selection.ModeCuboid
	}
	b.app.sessions = session.NewManager(b.app.world, session.Config{
		MaxHistory:   b.app.config.History().MaxEntries,
		DrawOutline:  sc.DrawOutline,
		DrawInterval: sc.DrawInterval,
		Mode:         mode,
	})
	return nil
}

func (b *bootstrapper) initTools() error {
	reg := tool.NewRegistry()
	bc := b.app.config.Brush()
	timeout := b.app.config.Script().Timeout
	tracer := b.opts.Tracer
	if tracer == nil {
		tracer = noTracer{}
	}

	brushes := func() (tool.Tool, error) {
		br, err := brush.NewSphere(min(defaultBrushRadius, bc.MaxSize), pattern.Of(world.Block{Name: "minecraft:stone"}), false,
			brush.WithMaxSize(bc.MaxSize))
		if err != nil {
			return nil, err
		}
		return tool.NewBrushTool(br, b.app.runner, tracer,
			tool.WithRange(bc.Range),
			tool.WithScriptTimeout(timeout),
			tool.WithDisplay(b.opts.Display),
		), nil
	}
	if err := reg.Register(tool.KindBrush, brushes, ""); err != nil {
		return &InitError{Component: "tools", Err: err}
	}
	wand := func() (tool.Tool, error) { return tool.SelectionWand{}, nil }
	if err := reg.Register(tool.KindSelectionWand, wand, tool.WandItem); err != nil {
		return &InitError{Component: "tools", Err: err}
	}

	b.app.sessions.OnRemove(func(s *session.Session) {
		reg.DeleteBindings(s.Operator())
	})
	b.app.tools = reg
	return nil
}

func (b *bootstrapper) initMetrics() error {
	b.app.metrics = NewMetrics(b.app.tickInterval)
	mc := b.app.config.Metrics()
	if !mc.Enabled {
		return nil
	}
	srv, err := StartMetricsServer(mc.Address)
	if err != nil {
		return &InitError{Component: "metrics", Err: err}
	}
	b.app.server = srv
	b.app.logger.WithComponent("metrics").Info("serving /metrics on %s", srv.Addr())
	b.initOrder = append(b.initOrder, "metrics")
	return nil
}

// cleanup releases components in reverse initialization order.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "config":
			b.app.config.Close()
		case "jobs":
			b.app.jobs.Drain()
		case "metrics":
			if b.app.server != nil {
				_ = b.app.server.Close(ctx)
				b.app.server = nil
			}
		}
	}
}

// noTracer is used when the host provides no line-of-sight tracing.
type noTracer struct{}

func (noTracer) Trace(string, int, world.Mask) (cube.Pos, bool) {
	return cube.Pos{}, false
}
