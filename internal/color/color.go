// Package color holds the four wire color formats used by scene payloads and
// the conversion into the RGBW channels written to the strip.
package color

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Type selects a color wire format. The value doubles as the byte size.
type Type uint8

const (
	TypeHue  Type = 1
	TypeHV   Type = 2
	TypeRGB  Type = 3
	TypeRGBW Type = MaxSize
)

// MaxSize is the largest color on the wire (RGBW).
const MaxSize = 4

// MaxValue is the brightness forced onto randomized colors.
const MaxValue uint8 = 0xFF

var ErrTruncated = errors.New("color: truncated buffer")

// Valid reports whether t is one of the four known formats.
func (t Type) Valid() bool { return t >= TypeHue && t <= TypeRGBW }

// Size returns the number of payload bytes one color occupies.
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return int(t)
}

func (t Type) String() string {
	switch t {
	case TypeHue:
		return "H"
	case TypeHV:
		return "HV"
	case TypeRGB:
		return "RGB"
	case TypeRGBW:
		return "RGBW"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Color is a tagged value: Type says which of the channel fields are meaningful.
// Hue colors use H, Hue+Value colors use H and V, RGB and RGBW use R,G,B(,W).
type Color struct {
	Type       Type
	H, V       uint8
	R, G, B, W uint8
}

func NewHue(h uint8) Color           { return Color{Type: TypeHue, H: h} }
func NewHV(h, v uint8) Color         { return Color{Type: TypeHV, H: h, V: v} }
func NewRGB(r, g, b uint8) Color     { return Color{Type: TypeRGB, R: r, G: g, B: b} }
func NewRGBW(r, g, b, w uint8) Color { return Color{Type: TypeRGBW, R: r, G: g, B: b, W: w} }

func (c Color) IsHue() bool    { return c.Type == TypeHue || c.Type == TypeHV }
func (c Color) Size() int      { return c.Type.Size() }
func (c Color) Bytes() []byte  { return Append(nil, c) }
func (c Color) String() string { return fmt.Sprintf("%s%v", c.Type, c.Bytes()) }

// IsRainbow marks the chase "unset and hue zero" moving color.
func (c Color) IsRainbow() bool { return c.Type == TypeHV && c.V == 0 && c.H == 0 }

// Value returns the brightness channel of a hue color (255 for Hue-only, 0 for RGB formats).
func (c Color) Value() uint8 {
	switch c.Type {
	case TypeHue:
		return MaxValue
	case TypeHV:
		return c.V
	}
	return 0
}

// Unset reports whether c asks the consuming scene for a random hue.
// Only Hue+Value colors can be unset; Hue-only colors carry an implicit full value.
func (c Color) Unset() bool { return c.Type == TypeHV && c.V == 0 }

// Decode reads one color of type t from the start of buf.
func Decode(buf []byte, t Type) (Color, error) {
	n := t.Size()
	if n == 0 {
		return Color{}, fmt.Errorf("color: unknown type %d", uint8(t))
	}
	if len(buf) < n {
		return Color{}, fmt.Errorf("%w: need %d bytes for %s, have %d", ErrTruncated, n, t, len(buf))
	}
	switch t {
	case TypeHue:
		return NewHue(buf[0]), nil
	case TypeHV:
		return NewHV(buf[0], buf[1]), nil
	case TypeRGB:
		return NewRGB(buf[0], buf[1], buf[2]), nil
	default:
		return NewRGBW(buf[0], buf[1], buf[2], buf[3]), nil
	}
}

// Append writes the wire bytes of c to dst.
func Append(dst []byte, c Color) []byte {
	switch c.Type {
	case TypeHue:
		return append(dst, c.H)
	case TypeHV:
		return append(dst, c.H, c.V)
	case TypeRGB:
		return append(dst, c.R, c.G, c.B)
	case TypeRGBW:
		return append(dst, c.R, c.G, c.B, c.W)
	}
	return dst
}

// ToRGBW converts any color into output channels. Hue formats go through HSV
// with full saturation; W is only non-zero for RGBW sources.
func ToRGBW(c Color) RGBW {
	switch c.Type {
	case TypeHue, TypeHV:
		deg := float64(c.H) / 256.0 * 360.0
		r, g, b := colorful.Hsv(deg, 1, float64(c.Value())/255.0).Clamped().RGB255()
		return RGBW{R: r, G: g, B: b}
	case TypeRGB:
		return RGBW{R: c.R, G: c.G, B: c.B}
	case TypeRGBW:
		return RGBW{R: c.R, G: c.G, B: c.B, W: c.W}
	}
	return RGBW{}
}

// Interpolate mixes a toward b by frac in [0,1]. Two hue colors of the same
// format travel the shorter arc of the hue wheel; anything else mixes per
// channel in RGBW space and yields an RGBW color.
func Interpolate(a, b Color, frac float64) Color {
	frac = clamp01(frac)
	if a.IsHue() && a.Type == b.Type {
		d := int(b.H) - int(a.H)
		if d > 128 {
			d -= 256
		} else if d < -128 {
			d += 256
		}
		h := uint8((int(a.H) + roundInt(float64(d)*frac) + 256) % 256)
		v := lerp8(a.V, b.V, frac)
		return Color{Type: a.Type, H: h, V: v}
	}
	m := ToRGBW(a).Lerp(ToRGBW(b), frac)
	return NewRGBW(m.R, m.G, m.B, m.W)
}
