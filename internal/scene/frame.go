package scene

import "fmt"

// DecodeFrame parses a whole scene message as published on the scene topic:
//
//	[]                          OFF
//	[tag]                       colorless kinds
//	[tag][colorType][payload]   current encoding
//	[tag>=10][payload]          legacy folded encoding
//	[tag][payload]              legacy default format, when LegacyFrames is set
func (d Decoder) DecodeFrame(frame []byte) (Scene, error) {
	if len(frame) == 0 {
		return Off{}, nil
	}
	tag := frame[0]
	if tag >= 10 || Kind(tag).Colorless() || d.LegacyFrames {
		return d.Decode(tag, 0, frame[1:])
	}
	if len(frame) < 2 {
		return nil, fmt.Errorf("%w: frame for %s has no color type", ErrTruncatedBuffer, Kind(tag))
	}
	return d.Decode(tag, frame[1], frame[2:])
}

// DecodeFrame parses a frame with the default table.
func DecodeFrame(frame []byte) (Scene, error) { return defaultDecoder.DecodeFrame(frame) }

// EncodeFrame is the inverse of DecodeFrame in the current encoding.
func EncodeFrame(s Scene) ([]byte, error) {
	e, err := Encode(s)
	if err != nil {
		return nil, err
	}
	if Kind(e.Tag) == KindOff {
		return []byte{}, nil
	}
	if Kind(e.Tag).Colorless() {
		return []byte{e.Tag}, nil
	}
	out := make([]byte, 0, 2+len(e.Payload))
	out = append(out, e.Tag, uint8(e.ColorType))
	return append(out, e.Payload...), nil
}

// EncodeLegacyFrame writes the folded form, for firmware that predates the
// separate color type byte. Scenes in the default format get a bare tag and
// decode with a Decoder that has LegacyFrames set.
func (t Table) EncodeLegacyFrame(s Scene) ([]byte, error) {
	e, err := Encode(s)
	if err != nil {
		return nil, err
	}
	k := Kind(e.Tag)
	if k.Colorless() {
		return EncodeFrame(s)
	}
	if e.ColorType == t.Default {
		return append([]byte{e.Tag}, e.Payload...), nil
	}
	tag, ok := t.FoldedTag(k, e.ColorType)
	if !ok {
		return nil, fmt.Errorf("%w: no folded tag for %s in %s", ErrUnknownColorType, k, e.ColorType)
	}
	return append([]byte{tag}, e.Payload...), nil
}
