package color

import "math"

// RGBW is one output pixel.
type RGBW struct{ R, G, B, W uint8 }

// Off is the dark pixel.
var Off = RGBW{}

// Scale multiplies every channel by f (clamped to [0,1]).
func (p RGBW) Scale(f float64) RGBW {
	f = clamp01(f)
	return RGBW{
		R: uint8(math.Round(float64(p.R) * f)),
		G: uint8(math.Round(float64(p.G) * f)),
		B: uint8(math.Round(float64(p.B) * f)),
		W: uint8(math.Round(float64(p.W) * f)),
	}
}

// Lerp mixes p toward q per channel.
func (p RGBW) Lerp(q RGBW, frac float64) RGBW {
	frac = clamp01(frac)
	return RGBW{
		R: lerp8(p.R, q.R, frac),
		G: lerp8(p.G, q.G, frac),
		B: lerp8(p.B, q.B, frac),
		W: lerp8(p.W, q.W, frac),
	}
}

// Sum is the total of all four channels.
func (p RGBW) Sum() int { return int(p.R) + int(p.G) + int(p.B) + int(p.W) }

func lerp8(a, b uint8, frac float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*frac))
}

func roundInt(x float64) int { return int(math.Round(x)) }

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
