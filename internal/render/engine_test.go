package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

var (
	red   = color.NewRGB(255, 0, 0)
	green = color.NewRGB(0, 255, 0)
	blue  = color.NewRGB(0, 0, 255)
	black = color.NewRGB(0, 0, 0)
)

// strideSource hands out well separated hues in a fixed order.
type strideSource struct{ i int }

func (s *strideSource) IntN(n int) int {
	s.i++
	return (s.i * 37) % n
}

func px(c color.Color) color.RGBW { return color.ToRGBW(c) }

func uniform(n int, c color.Color) Pixels {
	out := make(Pixels, n)
	fill(out, px(c))
	return out
}

func newEngine(t *testing.T, n int, s scene.Scene) *Engine {
	t.Helper()
	e, err := NewEngine(n)
	require.NoError(t, err)
	e.Load(s, &strideSource{})
	return e
}

func TestNewEngineLength(t *testing.T) {
	_, err := NewEngine(0)
	assert.ErrorIs(t, err, ErrInvalidLength)
	_, err = NewEngine(MaxPixels + 1)
	assert.ErrorIs(t, err, ErrInvalidLength)

	e, err := NewEngine(MaxPixels)
	require.NoError(t, err)
	assert.Equal(t, MaxPixels, e.Len())
	assert.True(t, e.Idle())
}

func TestIdleRendersOff(t *testing.T) {
	e := newEngine(t, 4, nil)
	assert.Equal(t, e.Blank(), e.Tick(100))
	assert.False(t, e.Done())
}

func TestTickReturnsCopy(t *testing.T) {
	e := newEngine(t, 3, scene.Static{Color: red})
	f := e.Tick(0)
	f[0] = color.Off
	assert.Equal(t, uniform(3, red), e.Frame())
}

func TestStatic(t *testing.T) {
	e := newEngine(t, 5, scene.Static{Color: color.NewRGBW(1, 2, 3, 4)})
	assert.Equal(t, uniform(5, color.NewRGBW(1, 2, 3, 4)), e.Tick(1000))
	assert.Equal(t, scene.Static{Color: color.NewRGBW(1, 2, 3, 4)}, e.Scene())
}

func TestStaticUnsetIsRandomAndStable(t *testing.T) {
	e := newEngine(t, 4, scene.Static{Color: color.NewHV(0x10, 0)})
	first := e.Frame()
	assert.NotEqual(t, e.Blank(), first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Tick(333))
	}
}

func TestStaticRandomDiffersAcrossLoads(t *testing.T) {
	src := &strideSource{}
	e, err := NewEngine(4)
	require.NoError(t, err)

	e.Load(scene.StaticRandom{}, src)
	a := e.Frame()
	assert.Equal(t, a, e.Tick(50))

	e.Load(scene.StaticRandom{}, src)
	assert.NotEqual(t, a, e.Frame())
}

func TestPatternTiles(t *testing.T) {
	e := newEngine(t, 5, scene.Pattern{Segments: []scene.Timed{{Color: red, N: 2}, {Color: green, N: 1}}})
	want := Pixels{px(red), px(red), px(green), px(red), px(red)}
	assert.Equal(t, want, e.Tick(10))
}

func TestPatternTruncates(t *testing.T) {
	e := newEngine(t, 3, scene.Pattern{Segments: []scene.Timed{{Color: red, N: 2}, {Color: green, N: 5}}})
	assert.Equal(t, Pixels{px(red), px(red), px(green)}, e.Frame())
}

func TestPatternSkipsEmptySegments(t *testing.T) {
	e := newEngine(t, 3, scene.Pattern{Segments: []scene.Timed{{Color: red, N: 0}, {Color: blue, N: 1}}})
	assert.Equal(t, uniform(3, blue), e.Frame())

	e.Load(scene.Pattern{Segments: []scene.Timed{{Color: red, N: 0}}}, nil)
	assert.Equal(t, e.Blank(), e.Frame())
}

func TestSwapRedGreen(t *testing.T) {
	e := newEngine(t, 2, scene.Swap{Steps: []scene.Timed{{Color: red, N: 500}, {Color: green, N: 500}}})
	assert.Equal(t, uniform(2, red), e.Frame())
	assert.Equal(t, uniform(2, red), e.Tick(499))
	assert.Equal(t, uniform(2, green), e.Tick(1))
	assert.Equal(t, uniform(2, green), e.Tick(499))
	assert.Equal(t, uniform(2, red), e.Tick(1), "the sequence repeats")
	assert.Equal(t, uniform(2, green), e.Tick(1000+500))
}

func TestSwapEdgeCases(t *testing.T) {
	e := newEngine(t, 2, scene.Swap{})
	assert.Equal(t, e.Blank(), e.Tick(100))

	e.Load(scene.Swap{Steps: []scene.Timed{{Color: blue, N: 0}, {Color: red, N: 0}}}, nil)
	assert.Equal(t, uniform(2, blue), e.Tick(100), "all-zero durations hold the first step")

	e.Load(scene.Swap{Steps: []scene.Timed{{Color: blue, N: 0}, {Color: red, N: 10}}}, nil)
	assert.Equal(t, uniform(2, red), e.Tick(3), "zero-length steps are skipped")
}

func TestSwapRandomPalette(t *testing.T) {
	src := &strideSource{}
	e, err := NewEngine(3)
	require.NoError(t, err)

	e.Load(scene.Swap{Random: true}, src)
	first := e.Frame()
	assert.NotEqual(t, e.Blank(), first)
	assert.Equal(t, first, e.Tick(RandomStepMs-1), "stable within a step")
	assert.NotEqual(t, first, e.Tick(1))
	assert.Equal(t, first, e.Tick(RandomStepMs*(RandomPaletteSize-1)), "palette repeats")

	e.Load(scene.Swap{Random: true}, src)
	assert.NotEqual(t, first, e.Frame(), "a reload draws a new palette")
}

func TestLoadDiscardsState(t *testing.T) {
	s := scene.Swap{Steps: []scene.Timed{{Color: red, N: 500}, {Color: green, N: 500}}}
	e := newEngine(t, 1, s)
	e.Tick(600)
	assert.Equal(t, 600.0, e.Elapsed())
	e.Load(s, nil)
	assert.Equal(t, 0.0, e.Elapsed())
	assert.Equal(t, uniform(1, red), e.Frame())
}

func TestFlowBlends(t *testing.T) {
	e := newEngine(t, 1, scene.Flow{Steps: []scene.Timed{{Color: red, N: 1000}, {Color: blue, N: 1000}}})
	assert.Equal(t, uniform(1, red), e.Frame())
	assert.Equal(t, Pixels{{R: 191, B: 64}}, e.Tick(250))
	assert.Equal(t, Pixels{{R: 128, B: 128}}, e.Tick(250))
	assert.Equal(t, uniform(1, blue), e.Tick(500))
	assert.Equal(t, Pixels{{R: 128, B: 128}}, e.Tick(500), "last step blends back into the first")
}

func TestFlowHueShorterArc(t *testing.T) {
	a, b := color.NewHV(250, 255), color.NewHV(6, 255)
	e := newEngine(t, 1, scene.Flow{Steps: []scene.Timed{{Color: a, N: 100}, {Color: b, N: 100}}})
	assert.Equal(t, Pixels{px(color.NewHV(0, 255))}, e.Tick(50))
}

func TestFlowEdgeCases(t *testing.T) {
	e := newEngine(t, 2, scene.Flow{})
	assert.Equal(t, e.Blank(), e.Tick(10))

	e.Load(scene.Flow{Steps: []scene.Timed{{Color: green, N: 100}}}, nil)
	assert.Equal(t, uniform(2, green), e.Tick(50))

	e.Load(scene.Flow{Steps: []scene.Timed{{Color: green, N: 0}, {Color: red, N: 0}}}, nil)
	assert.Equal(t, uniform(2, green), e.Tick(50))
}

func TestStrobe(t *testing.T) {
	s := scene.Strobe{OnColor: red, OnMs: 50, OffColor: blue, OffMs: 50, Flashes: 2}
	e := newEngine(t, 2, s)
	on, off := uniform(2, red), uniform(2, blue)

	assert.Equal(t, on, e.Frame())
	assert.Equal(t, off, e.Tick(50))
	assert.Equal(t, on, e.Tick(50))
	assert.Equal(t, off, e.Tick(50))
	assert.False(t, e.Done())
	assert.Equal(t, off, e.Tick(50))
	assert.True(t, e.Done())

	for i := 0; i < 5; i++ {
		assert.Equal(t, off, e.Tick(37), "terminal state is idempotent")
	}
	assert.Equal(t, 200.0, e.Elapsed())
}

func TestStrobeNoFlashes(t *testing.T) {
	e := newEngine(t, 1, scene.Strobe{OnColor: red, OnMs: 50, OffColor: black, OffMs: 50})
	assert.True(t, e.Done())
	assert.Equal(t, e.Blank(), e.Tick(10))

	e.Load(scene.Strobe{OnColor: red, OffColor: green, Flashes: 3}, nil)
	assert.True(t, e.Done())
	assert.Equal(t, uniform(1, green), e.Frame())
}

func TestStrobeUnsetOffColor(t *testing.T) {
	e := newEngine(t, 1, scene.Strobe{OnColor: red, OnMs: 50, OffColor: color.NewHV(9, 0), OffMs: 50, Flashes: 1})
	off := e.Tick(50)[0]
	assert.NotEqual(t, color.Off, off, "unset off color gets a random hue")
	assert.Equal(t, off, e.Tick(500)[0])
}

func chaseScene(opts scene.Options) scene.Chase {
	return scene.Chase{
		Moving: red, Background: black, PeriodMs: 1000,
		Sections: 1, LedsPerSection: 3, Options: opts,
	}
}

func TestChaseCometForward(t *testing.T) {
	e := newEngine(t, 10, chaseScene(scene.Options{Comet: true}))
	f := e.Tick(500)
	want := make(Pixels, 10)
	want[5] = color.RGBW{R: 255}
	want[4] = color.RGBW{R: 170}
	want[3] = color.RGBW{R: 85}
	assert.Equal(t, want, f)
}

func TestChaseCometReverse(t *testing.T) {
	e := newEngine(t, 10, chaseScene(scene.Options{Comet: true, Reverse: true}))
	f := e.Tick(500)
	want := make(Pixels, 10)
	want[4] = color.RGBW{R: 255}
	want[5] = color.RGBW{R: 170}
	want[6] = color.RGBW{R: 85}
	assert.Equal(t, want, f)
}

func brightest(f Pixels) int {
	best := -1
	for i, p := range f {
		if best < 0 || p.Sum() > f[best].Sum() {
			best = i
		}
	}
	return best
}

func TestChaseReverseMovesDown(t *testing.T) {
	e := newEngine(t, 10, chaseScene(scene.Options{Comet: true, Reverse: true}))
	prev := brightest(e.Tick(100))
	for i := 0; i < 5; i++ {
		cur := brightest(e.Tick(100))
		assert.Equal(t, prev-1, cur)
		prev = cur
	}
}

func TestChaseSections(t *testing.T) {
	c := chaseScene(scene.Options{})
	c.Sections, c.LedsPerSection = 2, 1
	e := newEngine(t, 10, c)
	f := e.Frame()
	assert.Equal(t, color.RGBW{R: 255}, f[0])
	assert.Equal(t, color.RGBW{R: 255}, f[5])
	assert.Equal(t, 2*255, sum(f))
}

func TestChaseEdgeCases(t *testing.T) {
	c := chaseScene(scene.Options{})
	c.PeriodMs = 0
	e := newEngine(t, 6, c)
	assert.Equal(t, e.Frame(), e.Tick(1234), "zero period holds position")

	c = chaseScene(scene.Options{})
	c.Background = green
	c.Sections = 0
	e.Load(c, nil)
	assert.Equal(t, uniform(6, green), e.Tick(10))

	c.Sections, c.LedsPerSection = 1, 0
	e.Load(c, nil)
	assert.Equal(t, uniform(6, green), e.Tick(10))
}

func TestChaseRainbowCycles(t *testing.T) {
	c := chaseScene(scene.Options{})
	c.Moving = color.NewHV(0, 0)
	c.PeriodMs = 0
	e := newEngine(t, 4, c)
	assert.Equal(t, px(color.NewHV(0, 255)), e.Frame()[0])
	assert.Equal(t, px(color.NewHV(128, 255)), e.Tick(RainbowCycleMs/2)[0])
	assert.Equal(t, px(color.NewHV(0, 255)), e.Tick(RainbowCycleMs/2)[0])
}

func TestChaseRandomBackground(t *testing.T) {
	c := chaseScene(scene.Options{RandomBackground: true})
	e := newEngine(t, 4, c)
	assert.NotEqual(t, color.Off, e.Frame()[1])
}

func TestChaseUnsetBackground(t *testing.T) {
	c := chaseScene(scene.Options{})
	c.Background = color.NewHV(0, 0)
	e := newEngine(t, 8, c)
	bg := e.Frame()[3]
	assert.NotEqual(t, color.Off, bg, "unset background gets a random hue")
	assert.Equal(t, bg, e.Frame()[4])

	c.Background = black
	e.Load(c, nil)
	assert.Equal(t, color.Off, e.Frame()[3], "RGB black stays black")
}

func sum(f Pixels) int {
	s := 0
	for _, p := range f {
		s += p.Sum()
	}
	return s
}
