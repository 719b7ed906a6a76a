package scene

import (
	"encoding/binary"
	"fmt"

	"github.com/coreman2200/ledstrip/internal/color"
)

// randomForm is the payload size of the "randomize every hue" swap/flow form.
const randomForm = 3

// Decoder turns raw payloads into scenes. The zero value uses DefaultTable.
type Decoder struct {
	Table *Table
	// LegacyFrames makes DecodeFrame read [tag][payload] for bare tags, using
	// the table default format instead of a color type byte.
	LegacyFrames bool
}

var defaultDecoder = Decoder{}

// Decode parses payload with the default normalization table.
func Decode(tag, colorType uint8, payload []byte) (Scene, error) {
	return defaultDecoder.Decode(tag, colorType, payload)
}

func (d Decoder) table() Table {
	if d.Table != nil {
		return *d.Table
	}
	return DefaultTable()
}

// Decode normalizes the tag, then parses payload into the matching variant.
// Decoding never enforces strip capacity; that is left to rendering.
func (d Decoder) Decode(tag, colorType uint8, payload []byte) (Scene, error) {
	k, ct, err := d.table().Normalize(tag, colorType)
	if err != nil {
		return nil, err
	}

	r := reader{buf: payload, ct: ct}
	switch k {
	case KindOff:
		return Off{}, nil
	case KindStaticRandom:
		return StaticRandom{}, nil
	case KindStatic:
		c := r.color()
		return result(Static{Color: c}, r.err)
	case KindPattern:
		segs, err := sequence(payload, ct, 1)
		return result(Pattern{Segments: segs}, err)
	case KindSwap, KindFlow:
		var steps []Timed
		var seed [3]byte
		random := len(payload) == randomForm
		if random {
			copy(seed[:], payload)
		} else if steps, err = sequence(payload, ct, 2); err != nil {
			return nil, err
		}
		if k == KindFlow {
			return Flow{Steps: steps, Random: random, Seed: seed}, nil
		}
		return Swap{Steps: steps, Random: random, Seed: seed}, nil
	case KindStrobe:
		s := Strobe{}
		s.OnColor = r.color()
		s.OnMs = r.u16()
		s.OffColor = r.color()
		s.OffMs = r.u16()
		s.Flashes = r.u8()
		return result(s, r.err)
	case KindChase:
		c := Chase{}
		c.Moving = r.color()
		c.PeriodMs = r.u16()
		c.Background = r.color()
		c.Sections = r.u8()
		c.LedsPerSection = r.u8()
		c.Options = ParseOptions(r.u8())
		return result(c, r.err)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownScene, tag)
}

func result(s Scene, err error) (Scene, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// sequence splits payload into (color, n) pairs whose timing field is width bytes.
func sequence(payload []byte, ct color.Type, width int) ([]Timed, error) {
	elem := ct.Size() + width
	if len(payload)%elem != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformedSequence, len(payload), elem)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	out := make([]Timed, 0, len(payload)/elem)
	r := reader{buf: payload, ct: ct}
	for len(r.buf) > 0 {
		t := Timed{Color: r.color()}
		if width == 1 {
			t.N = uint16(r.u8())
		} else {
			t.N = r.u16()
		}
		out = append(out, t)
	}
	return out, r.err
}

// reader consumes payload fields and records the first failure.
type reader struct {
	buf []byte
	ct  color.Type
	err error
}

func (r *reader) fail(n int) bool {
	if r.err != nil {
		return true
	}
	if len(r.buf) < n {
		r.err = fmt.Errorf("%w: need %d more bytes, have %d", ErrTruncatedBuffer, n, len(r.buf))
		return true
	}
	return false
}

func (r *reader) color() color.Color {
	if r.fail(r.ct.Size()) {
		return color.Color{}
	}
	c, err := color.Decode(r.buf, r.ct)
	if err != nil {
		r.err = err
		return color.Color{}
	}
	r.buf = r.buf[r.ct.Size():]
	return c
}

func (r *reader) u8() uint8 {
	if r.fail(1) {
		return 0
	}
	v := r.buf[0]
	r.buf = r.buf[1:]
	return v
}

func (r *reader) u16() uint16 {
	if r.fail(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf)
	r.buf = r.buf[2:]
	return v
}
