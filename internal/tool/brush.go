package tool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dshills/voxedit/internal/command"
	"github.com/dshills/voxedit/internal/engine/brush"
	"github.com/dshills/voxedit/internal/engine/pattern"
	"github.com/dshills/voxedit/internal/engine/script"
	"github.com/dshills/voxedit/internal/engine/selection"
	"github.com/dshills/voxedit/internal/session"
	"github.com/dshills/voxedit/internal/world"
)

// KindBrush is the kind of BrushTool.
const KindBrush = "brush"

// DefaultRange is how far a brush traces when no range is set.
const DefaultRange = 128

// previewInterval is the number of ticks between brush target previews.
const previewInterval = 3

// ErrNoTarget is returned when the trace hits nothing in range.
var ErrNoTarget = errors.New("no block in sight")

// Tracer finds the block an operator is looking at. It is provided by the
// host.
type Tracer interface {
	Trace(operator string, maxRange int, mask world.Mask) (cube.Pos, bool)
}

// Display shows outline points to an operator.
type Display func(s *session.Session, points []mgl64.Vec3)

// BrushTool applies a brush where the operator looks.
type BrushTool struct {
	runner  *command.Runner
	tracer  Tracer
	display Display

	brush     brush.Brush
	rng       int
	mask      world.Mask
	traceMask world.Mask
	timeout   time.Duration

	// strokes counts applied strokes whose done has not run. Expressions
	// replaced meanwhile wait in retired until the count drops to zero.
	strokes int
	retired []*script.Expr
}

// BrushOption configures a BrushTool.
type BrushOption func(*BrushTool)

// WithRange sets the trace distance.
func WithRange(n int) BrushOption {
	return func(t *BrushTool) {
		if n > 0 {
			t.rng = n
		}
	}
}

// WithDisplay sets where target previews are shown. Without it Tick does
// nothing.
func WithDisplay(d Display) BrushOption {
	return func(t *BrushTool) {
		t.display = d
	}
}

// WithScriptTimeout bounds each evaluation of a scripted mask.
func WithScriptTimeout(d time.Duration) BrushOption {
	return func(t *BrushTool) {
		t.timeout = d
	}
}

// WithTraceMask limits which blocks stop the trace.
func WithTraceMask(m world.Mask) BrushOption {
	return func(t *BrushTool) {
		t.traceMask = m
	}
}

// NewBrushTool creates a brush tool.
func NewBrushTool(b brush.Brush, runner *command.Runner, tracer Tracer, opts ...BrushOption) *BrushTool {
	t := &BrushTool{
		runner:  runner,
		tracer:  tracer,
		brush:   b,
		rng:     DefaultRange,
		timeout: script.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Kind implements Tool.
func (t *BrushTool) Kind() string { return KindBrush }

// Brush returns the brush.
func (t *BrushTool) Brush() brush.Brush { return t.brush }

// Range returns the trace distance.
func (t *BrushTool) Range() int { return t.rng }

// Mask returns the application mask, or nil.
func (t *BrushTool) Mask() world.Mask { return t.mask }

// Use traces for a target block and applies the brush there. The action's
// own target is ignored so the brush works at range.
func (t *BrushTool) Use(s *session.Session, _ Action, done command.Done) error {
	hit, ok := t.tracer.Trace(s.Operator(), t.rng, t.traceMask)
	if !ok {
		return ErrNoTarget
	}
	t.strokes++
	_, err := t.runner.Brush(s, t.brush, hit, t.mask, func(res command.Result, err error) {
		t.strokeDone()
		if done != nil {
			done(res, err)
		}
	})
	if err != nil {
		t.strokeDone()
	}
	return err
}

func (t *BrushTool) strokeDone() {
	t.strokes--
	if t.strokes > 0 {
		return
	}
	for _, e := range t.retired {
		e.Close()
	}
	t.retired = nil
}

// retire closes e once no stroke can still evaluate it.
func (t *BrushTool) retire(e *script.Expr) {
	if t.strokes == 0 {
		e.Close()
		return
	}
	t.retired = append(t.retired, e)
}

// Tick previews the traced target every few ticks.
func (t *BrushTool) Tick(s *session.Session, tick int64) {
	if t.display == nil || tick%previewInterval != 0 {
		return
	}
	hit, ok := t.tracer.Trace(s.Operator(), t.rng, t.traceMask)
	if !ok {
		return
	}
	sel := selection.New(s.World(), selection.WithMode(selection.ModeExtend), selection.WithVisible(true))
	if err := sel.Set(0, hit); err != nil {
		return
	}
	if pts := sel.Draw(); len(pts) > 0 {
		t.display(s, pts)
	}
}

// Properties implements Configurable.
func (t *BrushTool) Properties() []string {
	return []string{"size", "material", "range", "mask"}
}

// SetProperty implements Configurable. A material or mask starting with "="
// is a scripted expression; an empty mask clears it.
func (t *BrushTool) SetProperty(s *session.Session, name, value string) error {
	switch name {
	case "size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("brush size %q: %w", value, err)
		}
		return t.brush.Resize(n)
	case "material":
		return t.setMaterial(s, value)
	case "range":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("brush range %q must be a positive integer", value)
		}
		t.rng = n
		return nil
	case "mask":
		return t.setMask(s, value)
	}
	return fmt.Errorf("%w: %s has no %q", ErrUnknownProperty, KindBrush, name)
}

func (t *BrushTool) setMaterial(s *session.Session, value string) error {
	var p world.Pattern
	if strings.HasPrefix(value, "=") {
		e, err := script.Pattern(value[1:], script.WithStore(s.World()), script.WithTimeout(t.timeout))
		if err != nil {
			return err
		}
		p = e
	} else {
		pp, err := pattern.Parse(value)
		if err != nil {
			return err
		}
		p = pp
	}
	if old, ok := t.brush.Pattern().(*script.Expr); ok {
		t.retire(old)
	}
	t.brush.PaintWith(p)
	return nil
}

func (t *BrushTool) setMask(s *session.Session, value string) error {
	var m world.Mask
	switch {
	case value == "":
	case strings.HasPrefix(value, "="):
		e, err := script.Mask(value[1:], script.WithStore(s.World()), script.WithTimeout(t.timeout))
		if err != nil {
			return err
		}
		m = e
	default:
		pm, err := pattern.ParseMask(value, s.World())
		if err != nil {
			return err
		}
		m = pm
	}
	if old, ok := t.mask.(*script.Expr); ok {
		t.retire(old)
	}
	t.mask = m
	return nil
}
