package render

import (
	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

// strobe alternates on and off for a fixed number of flashes and then rests
// on the off color for good.
type strobe struct {
	on, off  color.RGBW
	onMs     float64
	cycle    float64
	length   float64
	t        float64
	finished bool
}

func newStrobe(s scene.Strobe, src color.Source) animation {
	st := &strobe{
		on:    color.ToRGBW(color.Resolve(s.OnColor, src)),
		off:   color.ToRGBW(color.Resolve(s.OffColor, src)),
		onMs:  float64(s.OnMs),
		cycle: float64(s.OnMs) + float64(s.OffMs),
	}
	st.length = float64(s.Flashes) * st.cycle
	st.finished = st.length <= 0
	return st
}

func (s *strobe) advance(dtMs float64) {
	if s.finished {
		return
	}
	s.t += dtMs
	if s.t >= s.length {
		s.finished = true
	}
}

func (s *strobe) render(dst Pixels) {
	if s.finished || wrap(s.t, s.cycle) >= s.onMs {
		fill(dst, s.off)
		return
	}
	fill(dst, s.on)
}

func (s *strobe) done() bool { return s.finished }
