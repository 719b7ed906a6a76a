package scene

import (
	"encoding/binary"
	"fmt"

	"github.com/coreman2200/ledstrip/internal/color"
)

// Encoded is a scene in the current wire encoding.
type Encoded struct {
	Tag       uint8
	ColorType color.Type
	Payload   []byte
}

// Encode is the inverse of Decode. Colors within one scene must share a
// format. Scenes without colors report the default table format.
func Encode(s Scene) (Encoded, error) {
	w := writer{def: DefaultTable().Default}
	switch v := s.(type) {
	case nil, Off:
		return Encoded{Tag: uint8(KindOff)}, nil
	case StaticRandom:
		return Encoded{Tag: uint8(KindStaticRandom)}, nil
	case Static:
		w.color(v.Color)
	case Pattern:
		for _, seg := range v.Segments {
			w.color(seg.Color)
			w.u8(uint8(min(seg.N, 0xFF)))
		}
	case Swap:
		w.steps(v.Steps, v.Random, v.Seed)
	case Flow:
		w.steps(v.Steps, v.Random, v.Seed)
	case Strobe:
		w.color(v.OnColor)
		w.u16(v.OnMs)
		w.color(v.OffColor)
		w.u16(v.OffMs)
		w.u8(v.Flashes)
	case Chase:
		w.color(v.Moving)
		w.u16(v.PeriodMs)
		w.color(v.Background)
		w.u8(v.Sections)
		w.u8(v.LedsPerSection)
		w.u8(v.Options.Byte())
	default:
		return Encoded{}, fmt.Errorf("%w: %T", ErrUnknownScene, s)
	}
	if w.err != nil {
		return Encoded{}, w.err
	}
	return Encoded{Tag: uint8(s.Kind()), ColorType: w.colorType(), Payload: w.buf}, nil
}

type writer struct {
	buf []byte
	ct  color.Type
	def color.Type
	err error
}

func (w *writer) colorType() color.Type {
	if w.ct == 0 {
		return w.def
	}
	return w.ct
}

func (w *writer) color(c color.Color) {
	if !c.Type.Valid() {
		w.fail(fmt.Errorf("%w: %d", ErrUnknownColorType, uint8(c.Type)))
		return
	}
	if w.ct == 0 {
		w.ct = c.Type
	} else if w.ct != c.Type {
		w.fail(fmt.Errorf("%w: %s after %s", ErrColorTypeMismatch, c.Type, w.ct))
		return
	}
	w.buf = color.Append(w.buf, c)
}

func (w *writer) steps(steps []Timed, random bool, seed [3]byte) {
	if random {
		w.buf = append(w.buf, seed[:]...)
		return
	}
	for _, st := range steps {
		w.color(st.Color)
		w.u16(st.N)
	}
	if len(w.buf) == randomForm {
		w.fail(fmt.Errorf("%w: a single %s step collides with the random palette form", ErrMalformedSequence, w.ct))
	}
}

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}
