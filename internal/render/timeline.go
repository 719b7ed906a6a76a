package render

import (
	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

// timeline is the shared cyclic clock of swap and flow. Steps with a zero
// duration are never current.
type timeline struct {
	cols  []color.Color
	dur   []float64
	total float64
	phase float64
}

func newTimeline(steps []scene.Timed, random bool, src color.Source) timeline {
	var tl timeline
	if random {
		for i := 0; i < RandomPaletteSize; i++ {
			tl.cols = append(tl.cols, color.RandomHue(src))
			tl.dur = append(tl.dur, RandomStepMs)
		}
	} else {
		for _, st := range steps {
			tl.cols = append(tl.cols, color.Resolve(st.Color, src))
			tl.dur = append(tl.dur, float64(st.N))
		}
	}
	for _, d := range tl.dur {
		tl.total += d
	}
	return tl
}

func (tl *timeline) advance(dtMs float64) {
	if tl.total > 0 {
		tl.phase = wrap(tl.phase+dtMs, tl.total)
	}
}

// current returns the active step and how far into it the clock is, in [0,1).
func (tl *timeline) current() (int, float64) {
	if tl.total <= 0 {
		return 0, 0
	}
	acc := 0.0
	for i, d := range tl.dur {
		if tl.phase < acc+d {
			return i, (tl.phase - acc) / d
		}
		acc += d
	}
	// Float drift at the very end of the cycle.
	for i := len(tl.dur) - 1; i >= 0; i-- {
		if tl.dur[i] > 0 {
			return i, 1
		}
	}
	return 0, 0
}

// swap holds each step's color for its duration, then jumps to the next.
type swap struct{ tl timeline }

func newSwap(s scene.Swap, src color.Source) animation {
	tl := newTimeline(s.Steps, s.Random, src)
	if len(tl.cols) == 0 {
		return solid{px: color.Off}
	}
	return &swap{tl: tl}
}

func (s *swap) advance(dtMs float64) { s.tl.advance(dtMs) }

func (s *swap) render(dst Pixels) {
	i, _ := s.tl.current()
	fill(dst, color.ToRGBW(s.tl.cols[i]))
}

func (*swap) done() bool { return false }

// flow blends each step's color into the next over its duration; the last
// step blends back into the first.
type flow struct{ tl timeline }

func newFlow(f scene.Flow, src color.Source) animation {
	tl := newTimeline(f.Steps, f.Random, src)
	switch len(tl.cols) {
	case 0:
		return solid{px: color.Off}
	case 1:
		return solid{px: color.ToRGBW(tl.cols[0])}
	}
	return &flow{tl: tl}
}

func (f *flow) advance(dtMs float64) { f.tl.advance(dtMs) }

func (f *flow) render(dst Pixels) {
	i, frac := f.tl.current()
	next := f.tl.cols[(i+1)%len(f.tl.cols)]
	fill(dst, color.ToRGBW(color.Interpolate(f.tl.cols[i], next, frac)))
}

func (*flow) done() bool { return false }
