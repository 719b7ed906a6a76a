package led

import (
	"fmt"
	"math"
	"strings"

	"github.com/coreman2200/ledstrip/internal/render"
)

// Order is the channel sequence a strip expects on the wire, e.g. "GRB".
type Order string

const (
	GRB  Order = "GRB"
	RGB  Order = "RGB"
	BRG  Order = "BRG"
	RGBW Order = "RGBW"
	GRBW Order = "GRBW"
)

// ParseOrder accepts any permutation of RGB or RGBW, case-insensitively.
func ParseOrder(s string) (Order, error) {
	o := Order(strings.ToUpper(s))
	if len(o) != 3 && len(o) != 4 {
		return "", fmt.Errorf("%w: color order %q", ErrUnsupported, s)
	}
	seen := map[rune]bool{}
	for _, r := range o {
		if !strings.ContainsRune("RGBW", r) || seen[r] {
			return "", fmt.Errorf("%w: color order %q", ErrUnsupported, s)
		}
		seen[r] = true
	}
	if len(o) == 3 && seen['W'] {
		return "", fmt.Errorf("%w: color order %q", ErrUnsupported, s)
	}
	return o, nil
}

// Channels is the number of bytes per pixel.
func (o Order) Channels() int { return len(o) }

// Packer turns rendered pixels into wire bytes: gamma, then channel order.
type Packer struct {
	order Order
	lut   [256]byte
}

// NewPacker validates order and bakes the gamma table. gamma <= 0 means linear.
func NewPacker(order Order, gamma float64) (*Packer, error) {
	o, err := ParseOrder(string(order))
	if err != nil {
		return nil, err
	}
	return &Packer{order: o, lut: GammaLUT(gamma)}, nil
}

func (p *Packer) Order() Order { return p.order }

// Pack appends px to dst[:0] and returns it. A W channel on a three channel
// order is dropped.
func (p *Packer) Pack(dst []byte, px render.Pixels) []byte {
	dst = dst[:0]
	for _, c := range px {
		for _, ch := range p.order {
			var v uint8
			switch ch {
			case 'R':
				v = c.R
			case 'G':
				v = c.G
			case 'B':
				v = c.B
			case 'W':
				v = c.W
			}
			dst = append(dst, p.lut[v])
		}
	}
	return dst
}

// GammaLUT maps a linear 8-bit channel to out = 255 * (in/255)^gamma.
func GammaLUT(gamma float64) [256]byte {
	var lut [256]byte
	for i := range lut {
		if gamma <= 0 || gamma == 1 {
			lut[i] = byte(i)
			continue
		}
		lut[i] = byte(math.Round(255 * math.Pow(float64(i)/255, gamma)))
	}
	return lut
}
