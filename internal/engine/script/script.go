// Package script evaluates sandboxed Lua expressions as masks and patterns.
//
// An expression sees the globals x, y and z for the position under test.
// When compiled with a store it may also call block(x, y, z), which returns
// the name of the block at that position:
//
//	m, _ := script.Mask("y > 64 and block(x, y-1, z) == 'minecraft:grass'", script.WithStore(w))
//	p, _ := script.Pattern("(x + z) % 2 == 0 and 'stone' or 'dirt'")
//
// Expressions run in a state with only the base, table, string and math
// libraries. Every evaluation is bounded by a timeout.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/voxedit/internal/engine/pattern"
	"github.com/dshills/voxedit/internal/world"
)

// Errors returned by expressions.
var (
	// ErrCompile indicates an expression that does not parse.
	ErrCompile = errors.New("script compile error")

	// ErrEvaluation indicates an expression that failed at run time.
	ErrEvaluation = errors.New("script evaluation error")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("script closed")
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 50 * time.Millisecond

// Option configures an Expr.
type Option func(*Expr)

// WithStore exposes block(x, y, z) backed by store.
func WithStore(store world.Store) Option {
	return func(e *Expr) {
		e.store = store
	}
}

// WithTimeout bounds each evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Expr) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Expr is a compiled expression. It is safe for concurrent use; evaluations
// are serialized.
type Expr struct {
	mu      sync.Mutex
	src     string
	L       *lua.LState
	fn      *lua.LFunction
	store   world.Store
	timeout time.Duration
	err     error
	closed  bool
}

// Compile compiles src as a Lua expression.
func Compile(src string, opts ...Option) (*Expr, error) {
	e := &Expr{src: src, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	L := newSandboxedState()
	if e.store != nil {
		L.SetGlobal("block", L.NewFunction(e.luaBlock))
	}

	chunk := "return function(x, y, z) return (" + src + ") end"
	if err := L.DoString(chunk); err != nil {
		L.Close()
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	fn, ok := L.Get(-1).(*lua.LFunction)
	L.Pop(1)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%w: %q did not produce a function", ErrCompile, src)
	}
	e.L = L
	e.fn = fn
	return e, nil
}

func (e *Expr) luaBlock(L *lua.LState) int {
	pos := cube.Pos{L.CheckInt(1), L.CheckInt(2), L.CheckInt(3)}
	L.Push(lua.LString(e.store.Block(pos).Name))
	return 1
}

// Eval evaluates the expression at pos.
func (e *Expr) Eval(pos cube.Pos) (lua.LValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return lua.LNil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	err := e.L.CallByParam(lua.P{Fn: e.fn, NRet: 1, Protect: true},
		lua.LNumber(pos[0]), lua.LNumber(pos[1]), lua.LNumber(pos[2]))
	if err != nil {
		err = fmt.Errorf("%w: %q at %v: %v", ErrEvaluation, e.src, pos, err)
		if e.err == nil {
			e.err = err
		}
		return lua.LNil, err
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)
	return ret, nil
}

// Err returns the first evaluation error seen through Mask or Pattern, which
// cannot report errors themselves.
func (e *Expr) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// String returns the source expression.
func (e *Expr) String() string { return e.src }

// Close releases the Lua state.
func (e *Expr) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}

// Test implements world.Mask. Evaluation errors reject the position.
func (e *Expr) Test(pos cube.Pos) bool {
	v, err := e.Eval(pos)
	if err != nil {
		return false
	}
	return lua.LVAsBool(v)
}

// Resolve implements world.Pattern. The expression must return a block name;
// anything else resolves to air.
func (e *Expr) Resolve(pos cube.Pos) world.Block {
	v, err := e.Eval(pos)
	if err != nil {
		return world.Air
	}
	s, ok := v.(lua.LString)
	if !ok {
		e.recordErr(fmt.Errorf("%w: %q returned %s, want block name", ErrEvaluation, e.src, v.Type()))
		return world.Air
	}
	b, err := pattern.ParseBlock(string(s))
	if err != nil {
		e.recordErr(fmt.Errorf("%w: %v", ErrEvaluation, err))
		return world.Air
	}
	return b
}

func (e *Expr) recordErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

// Mask compiles src as a mask.
func Mask(src string, opts ...Option) (*Expr, error) {
	return Compile(src, opts...)
}

// Pattern compiles src as a pattern.
func Pattern(src string, opts ...Option) (*Expr, error) {
	return Compile(src, opts...)
}
