// Package sketch executes artist code inside a time-bounded, isolated
// interpreter.
//
// Each execution builds one fresh JavaScript runtime, injects a single
// immutable capability environment (drawing, randomness, geometry, parameters,
// frame time), and locates the artist's setup/draw functions structurally by
// looking them up in the evaluated program. Nothing is resolved from ambient
// process state and nothing outlives the execution.
package sketch

import (
	"errors"
	"time"

	"github.com/dop251/goja"

	"lumen.art/node/rng"
	"lumen.art/node/surface"
)

// DefaultTimeout is the hard wall-clock cap for one whole execution
// (program evaluation, setup, and every draw call combined).
const DefaultTimeout = 2 * time.Second

// Env is the immutable capability bundle handed to artist code. Construct one
// per execution; it must never be shared across executions.
type Env struct {
	Canvas      *surface.Canvas
	Stream      *rng.Stream
	Vars        [10]float64
	TotalFrames int
	FPS         float64
}

// Context is one prepared artist-code execution. Not safe for concurrent use.
type Context struct {
	vm       *goja.Runtime
	env      Env
	setup    goja.Callable
	draw     goja.Callable
	deadline time.Time

	// violation records a protocol violation raised from inside a capability
	// binding. It wins over the interpreter interrupt it triggers.
	violation error
}

// New compiles and evaluates the artist code under the wall-clock cap and
// resolves setup/draw. A compile or evaluation failure is fatal.
func New(code string, env Env, timeout time.Duration) (*Context, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Context{
		vm:       goja.New(),
		env:      env,
		deadline: time.Now().Add(timeout),
	}
	if err := c.bind(); err != nil {
		return nil, err
	}

	prog, err := goja.Compile("sketch", code, false)
	if err != nil {
		return nil, &CodeError{Phase: "compile", Err: err}
	}
	if err := c.run("evaluate", func() error {
		_, err := c.vm.RunProgram(prog)
		return err
	}); err != nil {
		return nil, err
	}

	// Structural lookup: the functions are resolved from the evaluated
	// program, never scraped out of the source text.
	if fn, ok := goja.AssertFunction(c.vm.Get("setup")); ok {
		c.setup = fn
	}
	if fn, ok := goja.AssertFunction(c.vm.Get("draw")); ok {
		c.draw = fn
	}
	return c, nil
}

// HasSetup reports whether the artist code defines setup.
func (c *Context) HasSetup() bool { return c.setup != nil }

// HasDraw reports whether the artist code defines draw.
func (c *Context) HasDraw() bool { return c.draw != nil }

// RunSetup runs setup once, with frame 0 timing injected. Missing setup is
// not an error.
func (c *Context) RunSetup() error {
	if c.setup == nil {
		return nil
	}
	c.injectFrame(0)
	return c.run("setup", func() error {
		_, err := c.setup(goja.Undefined())
		return err
	})
}

// RunDraw runs draw for one frame with the frame's timing injected.
func (c *Context) RunDraw(frame int) error {
	if c.draw == nil {
		return ErrNoDraw
	}
	c.injectFrame(frame)
	return c.run("draw", func() error {
		_, err := c.draw(goja.Undefined())
		return err
	})
}

// injectFrame publishes per-frame timing: the frame index, normalized loop
// position t = frame/totalFrames, and wall time = frame/fps.
func (c *Context) injectFrame(frame int) {
	c.vm.Set("frame", frame)
	if c.env.TotalFrames > 0 {
		c.vm.Set("t", float64(frame)/float64(c.env.TotalFrames))
	} else {
		c.vm.Set("t", 0.0)
	}
	if c.env.FPS > 0 {
		c.vm.Set("time", float64(frame)/c.env.FPS)
	} else {
		c.vm.Set("time", 0.0)
	}
}

var errInterrupted = errors.New("sketch: interrupted")

// run executes fn under the remaining wall-clock budget. On expiry the
// interpreter is interrupted and the execution fails with ErrTimeout.
func (c *Context) run(phase string, fn func() error) error {
	remaining := time.Until(c.deadline)
	if remaining <= 0 {
		return ErrTimeout
	}
	timer := time.AfterFunc(remaining, func() {
		c.vm.Interrupt(errInterrupted)
	})
	err := fn()
	timer.Stop()
	c.vm.ClearInterrupt()

	if c.violation != nil {
		v := c.violation
		c.violation = nil
		return v
	}
	if err == nil {
		return nil
	}
	var intr *goja.InterruptedError
	if errors.As(err, &intr) {
		return ErrTimeout
	}
	return &CodeError{Phase: phase, Err: err}
}

// abort records a fatal violation and interrupts the interpreter so artist
// code cannot catch or suppress it.
func (c *Context) abort(err error) {
	if c.violation == nil {
		c.violation = err
	}
	c.vm.Interrupt(errInterrupted)
}
