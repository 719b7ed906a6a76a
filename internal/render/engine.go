// Package render turns a decoded scene into per-pixel colors over time.
package render

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

// MaxPixels caps the strip length an Engine accepts.
const MaxPixels = 4096

const (
	// RandomPaletteSize is the number of hues drawn for the random swap/flow form.
	RandomPaletteSize = 8
	// RandomStepMs is the step length of the random swap/flow form.
	RandomStepMs = 1000
	// RainbowCycleMs is one full trip around the hue wheel for a rainbow chase.
	RainbowCycleMs = 5000
)

var ErrInvalidLength = errors.New("render: invalid strip length")

// Pixels is one rendered frame.
type Pixels []color.RGBW

// Clone returns a copy that does not alias p.
func (p Pixels) Clone() Pixels {
	out := make(Pixels, len(p))
	copy(out, p)
	return out
}

// animation is the per-scene mutable state.
type animation interface {
	advance(dtMs float64)
	render(dst Pixels)
	done() bool
}

// Engine renders one strip. It is not safe for concurrent use; the frame loop
// owns it and serializes Load, Tick and control actions.
type Engine struct {
	buf     Pixels
	scene   scene.Scene
	anim    animation
	elapsed float64
}

// NewEngine allocates a frame buffer for n pixels and starts Idle.
func NewEngine(n int) (*Engine, error) {
	if n <= 0 || n > MaxPixels {
		return nil, fmt.Errorf("%w: %d (1..%d)", ErrInvalidLength, n, MaxPixels)
	}
	return &Engine{buf: make(Pixels, n)}, nil
}

// Len is the strip length.
func (e *Engine) Len() int { return len(e.buf) }

// Scene returns the loaded scene, or nil when Idle.
func (e *Engine) Scene() scene.Scene { return e.scene }

// Idle reports whether no scene is loaded.
func (e *Engine) Idle() bool { return e.scene == nil }

// Elapsed is the time in ms the current scene has been advanced.
func (e *Engine) Elapsed() float64 { return e.elapsed }

// Done reports whether a finite scene (strobe) has completed.
func (e *Engine) Done() bool { return e.anim != nil && e.anim.done() }

// Load replaces the current scene and discards all phase, timer and random
// state. Unset colors are resolved from src once, here; a nil src draws from
// math/rand/v2. A nil scene returns the engine to Idle.
func (e *Engine) Load(s scene.Scene, src color.Source) {
	e.scene = s
	e.elapsed = 0
	if s == nil {
		e.anim = nil
	} else {
		e.anim = newAnimation(s, len(e.buf), src)
	}
	e.draw()
}

// Reset returns the engine to Idle.
func (e *Engine) Reset() { e.Load(nil, nil) }

// Tick advances the current scene by dtMs and returns the new frame. Negative
// or non-finite steps are treated as zero. The returned slice is a copy.
func (e *Engine) Tick(dtMs float64) Pixels {
	if dtMs < 0 || math.IsNaN(dtMs) || math.IsInf(dtMs, 0) {
		dtMs = 0
	}
	if e.anim != nil && !e.anim.done() {
		e.elapsed += dtMs
		e.anim.advance(dtMs)
	}
	e.draw()
	return e.buf.Clone()
}

// Frame returns a copy of the last rendered frame without advancing.
func (e *Engine) Frame() Pixels { return e.buf.Clone() }

// Blank returns an all-off frame sized for this strip.
func (e *Engine) Blank() Pixels { return make(Pixels, len(e.buf)) }

func (e *Engine) draw() {
	if e.anim == nil {
		fill(e.buf, color.Off)
		return
	}
	e.anim.render(e.buf)
}

// globalSource draws from the math/rand/v2 top-level generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

func newAnimation(s scene.Scene, n int, src color.Source) animation {
	if src == nil {
		src = globalSource{}
	}
	switch v := s.(type) {
	case scene.Static:
		return solid{px: color.ToRGBW(color.Resolve(v.Color, src))}
	case scene.StaticRandom:
		return solid{px: color.ToRGBW(color.RandomHue(src))}
	case scene.Pattern:
		return newPattern(v, n, src)
	case scene.Swap:
		return newSwap(v, src)
	case scene.Flow:
		return newFlow(v, src)
	case scene.Strobe:
		return newStrobe(v, src)
	case scene.Chase:
		return newChase(v, n, src)
	}
	return solid{px: color.Off}
}

// solid renders one color everywhere and never changes.
type solid struct{ px color.RGBW }

func (solid) advance(float64)     {}
func (s solid) render(dst Pixels) { fill(dst, s.px) }
func (solid) done() bool          { return false }

func fill(dst Pixels, px color.RGBW) {
	for i := range dst {
		dst[i] = px
	}
}

// wrap keeps a running phase inside [0, period).
func wrap(phase, period float64) float64 {
	if period <= 0 {
		return 0
	}
	phase = math.Mod(phase, period)
	if phase < 0 {
		phase += period
	}
	return phase
}
