package scene

import (
	"errors"
	"fmt"

	"github.com/coreman2200/ledstrip/internal/color"
)

var (
	ErrTruncatedBuffer   = errors.New("scene: truncated buffer")
	ErrUnknownScene      = errors.New("scene: unknown scene tag")
	ErrUnknownColorType  = errors.New("scene: unknown color type")
	ErrMalformedSequence = errors.New("scene: malformed sequence")
	ErrColorTypeMismatch = errors.New("scene: color type mismatch")
)

// Table normalizes the two wire encodings of a scene tag.
//
// Current encoding: tag 0..7 plus a separate color type byte.
// Legacy encoding: tag = offset + kind, where the offset selects the color
// format (e.g. 21 = STATIC in RGB, 41 = STATIC in Hue). A bare tag with a zero
// color type byte falls back to Default.
type Table struct {
	Folded  map[uint8]color.Type
	Default color.Type
}

// DefaultTable is the normalization used by the reference firmware.
func DefaultTable() Table {
	return Table{
		Folded: map[uint8]color.Type{
			20: color.TypeRGB,
			40: color.TypeHue,
			60: color.TypeRGBW,
		},
		Default: color.TypeHV,
	}
}

// Normalize maps a (tag, colorType) pair from either encoding to one kind and format.
// Colorless kinds return a zero color type.
func (t Table) Normalize(tag, colorType uint8) (Kind, color.Type, error) {
	if tag >= 10 {
		offset := tag / 10 * 10
		ct, ok := t.Folded[offset]
		k := Kind(tag - offset)
		if !ok || k == KindOff || k.Colorless() || !k.Valid() {
			return 0, 0, fmt.Errorf("%w: %d", ErrUnknownScene, tag)
		}
		return k, ct, nil
	}

	k := Kind(tag)
	if !k.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownScene, tag)
	}
	if k.Colorless() {
		return k, 0, nil
	}
	ct := color.Type(colorType)
	if colorType == 0 {
		ct = t.Default
	}
	if !ct.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownColorType, colorType)
	}
	return k, ct, nil
}

// FoldedTag returns the legacy tag for kind k in format ct, if the table has one.
func (t Table) FoldedTag(k Kind, ct color.Type) (uint8, bool) {
	if k.Colorless() {
		return 0, false
	}
	for off, c := range t.Folded {
		if c == ct {
			return off + uint8(k), true
		}
	}
	return 0, false
}
