package scene

import (
	"fmt"

	"github.com/coreman2200/ledstrip/internal/color"
)

// TestPattern names a wiring check built from ordinary scenes.
type TestPattern string

const (
	// One white LED walks the strip, 100 ms per LED.
	IndexSweep   TestPattern = "index_sweep"
	// Whole strip red, green, blue, one second each.
	RGBChannels  TestPattern = "rgb_channels"
	// Repeating red, green, blue pixels; a wrong color order shows at a glance.
	ChannelOrder TestPattern = "channel_order"
)

var TestPatterns = []TestPattern{IndexSweep, RGBChannels, ChannelOrder}

var (
	white = color.NewRGB(255, 255, 255)
	black = color.NewRGB(0, 0, 0)
	red   = color.NewRGB(255, 0, 0)
	green = color.NewRGB(0, 255, 0)
	blue  = color.NewRGB(0, 0, 255)
)

// Calibration builds the named test pattern for an n pixel strip.
func Calibration(p TestPattern, n int) (Scene, error) {
	switch p {
	case IndexSweep:
		return Chase{
			Moving:         white,
			Background:     black,
			PeriodMs:       uint16(min(max(n, 1)*100, 0xFFFF)),
			Sections:       1,
			LedsPerSection: 1,
		}, nil
	case RGBChannels:
		return Swap{Steps: []Timed{{red, 1000}, {green, 1000}, {blue, 1000}}}, nil
	case ChannelOrder:
		return Pattern{Segments: []Timed{{red, 1}, {green, 1}, {blue, 1}}}, nil
	}
	return nil, fmt.Errorf("%w: test pattern %q", ErrUnknownScene, p)
}
