package render

import (
	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

// newPattern lays the segments out once. Segments repeat from the start when
// their lengths add up to less than the strip and stop at the strip end when
// they add up to more.
func newPattern(p scene.Pattern, n int, src color.Source) animation {
	total := 0
	cols := make([]color.RGBW, len(p.Segments))
	for i, seg := range p.Segments {
		total += int(seg.N)
		cols[i] = color.ToRGBW(color.Resolve(seg.Color, src))
	}
	if total == 0 {
		return solid{px: color.Off}
	}
	px := make(Pixels, n)
	for i := 0; i < n; {
		for k, seg := range p.Segments {
			for j := 0; j < int(seg.N) && i < n; j++ {
				px[i] = cols[k]
				i++
			}
		}
	}
	return fixed{px: px}
}

// fixed renders a precomputed frame that never changes.
type fixed struct{ px Pixels }

func (fixed) advance(float64)     {}
func (f fixed) render(dst Pixels) { copy(dst, f.px) }
func (fixed) done() bool          { return false }
