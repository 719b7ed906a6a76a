package sequence

import (
	"sync"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/render"
	"github.com/coreman2200/ledstrip/internal/scene"
)

// DefaultStepMs is the STEP quantum when Options.StepMs is zero: one frame at 50 fps.
const DefaultStepMs = 20

// Options configures a Controller. Every field may be left zero.
type Options struct {
	Rotation Rotation
	Source   color.Source // random draws for scene loads; nil uses math/rand/v2
	StepMs   float64
	Hooks    Hooks
}

// Controller owns an Engine and decides whether it advances. Like the engine
// it assumes a single owner; wrap it in a SafeController to share it.
type Controller struct {
	State State

	engine *render.Engine
	opts   Options
}

// NewController starts Running with whatever the engine holds.
func NewController(e *render.Engine, o Options) *Controller {
	if o.StepMs <= 0 {
		o.StepMs = DefaultStepMs
	}
	return &Controller{State: Running, engine: e, opts: o}
}

// Engine exposes the controlled engine.
func (c *Controller) Engine() *render.Engine { return c.engine }

// Load hands a new scene to the engine. While blacked out the scene is only
// held; output stays dark until ON.
func (c *Controller) Load(s scene.Scene) {
	c.load(s)
	if c.State != BlackedOut {
		c.setState(Running)
	}
}

// Apply runs one action and reports whether it changed anything. While
// blacked out every action except ON is rejected.
func (c *Controller) Apply(a Action) bool {
	if c.State == BlackedOut {
		if a != On {
			return false
		}
		c.setState(Running)
		return true
	}

	switch a {
	case Blackout:
		c.setState(BlackedOut)
		return true
	case On:
		return false
	case Restart:
		if c.engine.Idle() {
			return false
		}
		c.load(c.engine.Scene())
		c.setState(Running)
		return true
	case Pause:
		if c.State == Paused {
			return false
		}
		c.setState(Paused)
		return true
	case Rotate:
		if c.opts.Rotation == nil {
			return false
		}
		next := c.opts.Rotation.Next()
		if next == nil {
			return false
		}
		c.load(next)
		c.setState(Running)
		return true
	case Step:
		if c.engine.Idle() {
			return false
		}
		c.engine.Tick(c.opts.StepMs)
		return true
	}
	return false
}

// Tick advances the engine by dtMs when Running and returns the frame for
// the sink: black when blacked out, the held frame when paused.
func (c *Controller) Tick(dtMs float64) render.Pixels {
	switch c.State {
	case BlackedOut:
		return c.engine.Blank()
	case Paused:
		return c.engine.Frame()
	}
	return c.engine.Tick(dtMs)
}

// Frame is the frame the sink should currently show, without advancing.
func (c *Controller) Frame() render.Pixels {
	if c.State == BlackedOut {
		return c.engine.Blank()
	}
	return c.engine.Frame()
}

func (c *Controller) load(s scene.Scene) {
	c.engine.Load(s, c.opts.Source)
	if c.opts.Hooks.OnLoad != nil {
		c.opts.Hooks.OnLoad(s)
	}
}

func (c *Controller) setState(to State) {
	from := c.State
	if from == to {
		return
	}
	c.State = to
	if c.opts.Hooks.OnState != nil {
		c.opts.Hooks.OnState(from, to)
	}
}

// SafeController serializes access to a Controller across goroutines.
type SafeController struct {
	mu sync.Mutex
	C  *Controller
}

func NewSafeController(e *render.Engine, o Options) *SafeController {
	return &SafeController{C: NewController(e, o)}
}

func (s *SafeController) With(f func(c *Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.C)
}
