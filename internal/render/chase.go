package render

import (
	"math"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

// chase moves evenly spaced lit sections along the strip over a background.
// One period carries each section the full length of the strip.
type chase struct {
	moving   color.RGBW
	bg       color.RGBW
	rainbow  bool
	period   float64
	sections int
	length   int
	reverse  bool
	comet    bool

	pos    float64 // LEDs travelled, in [0, n)
	hue    float64 // rainbow hue, in [0, 256)
	weight []float64
}

func newChase(c scene.Chase, n int, src color.Source) animation {
	ch := &chase{
		bg:       color.ToRGBW(color.Resolve(c.Background, src)),
		rainbow:  c.Moving.IsRainbow() && !c.Options.RandomMoving,
		period:   float64(c.PeriodMs),
		sections: int(c.Sections),
		length:   min(int(c.LedsPerSection), n),
		reverse:  c.Options.Reverse,
		comet:    c.Options.Comet,
		weight:   make([]float64, n),
	}
	if !ch.rainbow {
		m := color.Resolve(c.Moving, src)
		if c.Options.RandomMoving {
			m = color.RandomHue(src)
		}
		ch.moving = color.ToRGBW(m)
	}
	if c.Options.RandomBackground {
		ch.bg = color.ToRGBW(color.RandomHue(src))
	}
	return ch
}

func (c *chase) advance(dtMs float64) {
	n := float64(len(c.weight))
	if c.period > 0 {
		c.pos = wrap(c.pos+dtMs/c.period*n, n)
	}
	if c.rainbow {
		c.hue = wrap(c.hue+dtMs/RainbowCycleMs*256, 256)
	}
}

func (c *chase) render(dst Pixels) {
	fill(dst, c.bg)
	if c.sections == 0 || c.length == 0 {
		return
	}
	n := len(dst)
	for i := range c.weight {
		c.weight[i] = 0
	}
	spacing := float64(n) / float64(c.sections)
	for k := 0; k < c.sections; k++ {
		lead := int(math.Floor(c.pos+float64(k)*spacing)) % n
		for j := 0; j < c.length; j++ {
			idx := lead - j
			if c.reverse {
				idx = n - 1 - lead + j
			}
			idx = ((idx % n) + n) % n
			w := 1.0
			if c.comet {
				w = float64(c.length-j) / float64(c.length)
			}
			c.weight[idx] = max(c.weight[idx], w)
		}
	}
	moving := c.moving
	if c.rainbow {
		moving = color.ToRGBW(color.NewHV(uint8(c.hue), color.MaxValue))
	}
	for i, w := range c.weight {
		if w > 0 {
			dst[i] = c.bg.Lerp(moving, w)
		}
	}
}

func (*chase) done() bool { return false }
