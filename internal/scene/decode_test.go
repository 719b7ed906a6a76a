package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledstrip/internal/color"
)

func TestDecodeSwapRGB(t *testing.T) {
	payload := []byte{
		0xFF, 0x00, 0x00, 0xF4, 0x01, // red, 500ms
		0x00, 0xFF, 0x00, 0xF4, 0x01, // green, 500ms
	}
	s, err := Decode(uint8(KindSwap), uint8(color.TypeRGB), payload)
	require.NoError(t, err)
	assert.Equal(t, Swap{Steps: []Timed{
		{Color: color.NewRGB(255, 0, 0), N: 500},
		{Color: color.NewRGB(0, 255, 0), N: 500},
	}}, s)
}

func TestDecodeKinds(t *testing.T) {
	hv := uint8(color.TypeHV)
	cases := []struct {
		name    string
		tag, ct uint8
		payload []byte
		want    Scene
	}{
		{"off", 0, 0, nil, Off{}},
		{"off ignores color type", 0, 99, []byte{1, 2}, Off{}},
		{"static random", 7, 0, nil, StaticRandom{}},
		{"static hv", 1, hv, []byte{0x55, 0x01}, Static{Color: color.NewHV(0x55, 0x01)}},
		{"static padded", 1, uint8(color.TypeHue), []byte{0x42, 0, 0}, Static{Color: color.NewHue(0x42)}},
		{"pattern", 2, hv, []byte{1, 2, 10, 3, 4, 20}, Pattern{Segments: []Timed{
			{Color: color.NewHV(1, 2), N: 10},
			{Color: color.NewHV(3, 4), N: 20},
		}}},
		{"empty swap", 3, hv, nil, Swap{}},
		{"empty flow", 4, hv, []byte{}, Flow{}},
		{"random swap", 3, uint8(color.TypeRGB), []byte{9, 8, 7}, Swap{Random: true, Seed: [3]byte{9, 8, 7}}},
		{"random flow", 4, hv, []byte{1, 2, 3}, Flow{Random: true, Seed: [3]byte{1, 2, 3}}},
		{"flow", 4, uint8(color.TypeHue), []byte{0x10, 0xE8, 0x03, 0x80, 0xE8, 0x03, 0x20, 0x10, 0x00}, Flow{Steps: []Timed{
			{Color: color.NewHue(0x10), N: 1000},
			{Color: color.NewHue(0x80), N: 1000},
			{Color: color.NewHue(0x20), N: 16},
		}}},
		{"strobe", 5, uint8(color.TypeRGB), []byte{255, 255, 255, 50, 0, 0, 0, 0, 0x2C, 0x01, 10}, Strobe{
			OnColor: color.NewRGB(255, 255, 255), OnMs: 50,
			OffColor: color.NewRGB(0, 0, 0), OffMs: 300, Flashes: 10,
		}},
		{"chase", 6, hv, []byte{0x20, 0xFF, 0x64, 0x00, 0, 0, 3, 5, 0x03}, Chase{
			Moving: color.NewHV(0x20, 0xFF), PeriodMs: 100, Background: color.NewHV(0, 0),
			Sections: 3, LedsPerSection: 5, Options: Options{Reverse: true, Comet: true},
		}},
		{"legacy static rgb", 21, 0, []byte{1, 2, 3}, Static{Color: color.NewRGB(1, 2, 3)}},
		{"legacy static hue", 41, 0, []byte{7}, Static{Color: color.NewHue(7)}},
		{"legacy static rgbw", 61, 0, []byte{1, 2, 3, 4}, Static{Color: color.NewRGBW(1, 2, 3, 4)}},
		{"legacy folded tag ignores color type byte", 23, hv, []byte{1, 2, 3, 0x10, 0}, Swap{Steps: []Timed{{Color: color.NewRGB(1, 2, 3), N: 16}}}},
		{"bare tag defaults to hv", 1, 0, []byte{9, 9}, Static{Color: color.NewHV(9, 9)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Decode(c.tag, c.ct, c.payload)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.want.Kind(), got.Kind())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	rgb := uint8(color.TypeRGB)
	cases := []struct {
		name    string
		tag, ct uint8
		payload []byte
		want    error
	}{
		{"unknown tag", 8, rgb, nil, ErrUnknownScene},
		{"unknown folded offset", 31, 0, []byte{1}, ErrUnknownScene},
		{"folded off", 20, 0, nil, ErrUnknownScene},
		{"folded kind out of range", 28, 0, nil, ErrUnknownScene},
		{"unknown color type", 1, 9, []byte{1, 2, 3}, ErrUnknownColorType},
		{"static truncated", 1, rgb, []byte{1, 2}, ErrTruncatedBuffer},
		{"strobe truncated", 5, rgb, []byte{1, 2, 3, 4, 0, 5, 6, 7, 8}, ErrTruncatedBuffer},
		{"chase truncated", 6, rgb, []byte{1, 2, 3, 4, 0, 5, 6, 7, 1, 1}, ErrTruncatedBuffer},
		{"swap not a multiple", 3, rgb, []byte{1, 2, 3, 4, 5, 6}, ErrMalformedSequence},
		{"pattern not a multiple", 2, rgb, []byte{1, 2, 3}, ErrMalformedSequence},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Decode(c.tag, c.ct, c.payload)
			assert.ErrorIs(t, err, c.want)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeNeverLimitsElementCount(t *testing.T) {
	payload := make([]byte, 0, 1000*3)
	for i := 0; i < 1000; i++ {
		payload = append(payload, uint8(i), 0xFF, 1)
	}
	s, err := Decode(uint8(KindPattern), uint8(color.TypeHV), payload)
	require.NoError(t, err)
	assert.Len(t, s.(Pattern).Segments, 1000)
}

func TestCustomTable(t *testing.T) {
	tbl := DefaultTable()
	tbl.Default = color.TypeRGB
	tbl.Folded = map[uint8]color.Type{80: color.TypeHV}
	d := Decoder{Table: &tbl}

	s, err := d.Decode(1, 0, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Static{Color: color.NewRGB(1, 2, 3)}, s)

	s, err = d.Decode(81, 0, []byte{4, 5})
	require.NoError(t, err)
	assert.Equal(t, Static{Color: color.NewHV(4, 5)}, s)

	_, err = d.Decode(21, 0, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestOptionsByte(t *testing.T) {
	for b := 0; b < 16; b++ {
		assert.Equal(t, uint8(b), ParseOptions(uint8(b)).Byte())
	}
	assert.Equal(t, Options{RandomBackground: true}, ParseOptions(0xF8), "unknown high bits are dropped")
}

func TestDecodeFrame(t *testing.T) {
	s, err := DecodeFrame(nil)
	require.NoError(t, err)
	assert.Equal(t, Off{}, s)

	s, err = DecodeFrame([]byte{7})
	require.NoError(t, err)
	assert.Equal(t, StaticRandom{}, s)

	s, err = DecodeFrame([]byte{1, uint8(color.TypeRGB), 10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, Static{Color: color.NewRGB(10, 20, 30)}, s)

	s, err = DecodeFrame([]byte{41, 0x80})
	require.NoError(t, err)
	assert.Equal(t, Static{Color: color.NewHue(0x80)}, s)

	_, err = DecodeFrame([]byte{1})
	assert.ErrorIs(t, err, ErrTruncatedBuffer)

	legacy := Decoder{LegacyFrames: true}
	s, err = legacy.DecodeFrame([]byte{1, 0x10, 0x20})
	require.NoError(t, err)
	assert.Equal(t, Static{Color: color.NewHV(0x10, 0x20)}, s)
}
