package render

import (
	"math"

	"github.com/coreman2200/ledstrip/internal/color"
)

// Limiter is the output post stage: global brightness, then a per-LED white
// cap, then a soft-knee global current budget. The zero value passes frames
// through untouched.
//
//   - Brightness scales every channel; 0 means full.
//   - WhiteCap caps R+G+B+W per LED as a fraction of one full channel
//     (1.5 allows one and a half channels at full); 0 disables it.
//   - ChanMA is the draw of one channel at full scale (WS2812 ≈ 20mA).
//   - BudgetMA is the whole-strip budget; 0 disables it.
//   - Knee is the budget fraction where soft limiting starts (default 0.9).
type Limiter struct {
	Brightness float64 `yaml:"brightness"`
	WhiteCap   float64 `yaml:"white_cap"`
	ChanMA     float64 `yaml:"chan_ma"`
	BudgetMA   float64 `yaml:"budget_ma"`
	Knee       float64 `yaml:"knee"`
}

// Apply limits px in place.
func (l Limiter) Apply(px Pixels) {
	if l.Brightness > 0 && l.Brightness < 1 {
		scaleAll(px, l.Brightness)
	}

	if l.WhiteCap > 0 {
		limit := l.WhiteCap * 255
		for i := range px {
			s := float64(px[i].Sum())
			if s > limit {
				px[i] = scaleDown(px[i], limit/s)
			}
		}
	}

	if l.BudgetMA <= 0 {
		return
	}
	total := l.Current(px)
	if total <= 0 {
		return
	}
	knee := l.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	k := knee * l.BudgetMA
	if total <= k {
		return
	}
	// Above the knee the draw is compressed towards the budget: slope 1 at
	// the knee, never reaching BudgetMA.
	span := l.BudgetMA - k
	out := k + span*(1-math.Exp(-(total-k)/span))
	scaleAll(px, out/total)
}

// Current estimates the strip draw in mA for px.
func (l Limiter) Current(px Pixels) float64 {
	chanMA := l.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	var sum int
	for i := range px {
		sum += px[i].Sum()
	}
	return float64(sum) / 255 * chanMA
}

func scaleAll(px Pixels, s float64) {
	if s >= 1 {
		return
	}
	for i := range px {
		px[i] = scaleDown(px[i], s)
	}
}

// scaleDown truncates so a cap is never overshot by rounding.
func scaleDown(p color.RGBW, s float64) color.RGBW {
	return color.RGBW{
		R: uint8(float64(p.R) * s),
		G: uint8(float64(p.G) * s),
		B: uint8(float64(p.B) * s),
		W: uint8(float64(p.W) * s),
	}
}
