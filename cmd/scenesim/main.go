// Command scenesim plays one scene frame on a simulated strip in the terminal.
//
//	scenesim -frame 0603ff0000e803000000010302 -pixels 30
//	scenesim -morse "sos" -pixels 10
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/led"
	"github.com/coreman2200/ledstrip/internal/render"
	"github.com/coreman2200/ledstrip/internal/scene"
	"github.com/coreman2200/ledstrip/internal/sequence"
)

func main() {
	var (
		frameHex string
		morse    string
		pattern  string
		pixels   int
		fps      int
		duration time.Duration
		legacy   bool
	)
	flag.StringVar(&frameHex, "frame", "", "scene frame as hex")
	flag.StringVar(&morse, "morse", "", "spell text as a white-on-off morse swap instead of -frame")
	flag.StringVar(&pattern, "test", "", "play a wiring test pattern (index_sweep, rgb_channels, channel_order)")
	flag.IntVar(&pixels, "pixels", 30, "strip length")
	flag.IntVar(&fps, "fps", 30, "simulation frames per second")
	flag.DurationVar(&duration, "duration", 10*time.Second, "stop after this long")
	flag.BoolVar(&legacy, "legacy", false, "bare tags carry no color type byte")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var (
		s   scene.Scene
		err error
	)
	switch {
	case morse != "":
		s = scene.Morse(morse, color.NewRGB(255, 255, 255), color.NewRGB(0, 0, 0), scene.MorseTiming{})
	case pattern != "":
		s, err = scene.Calibration(scene.TestPattern(pattern), pixels)
	case frameHex != "":
		var b []byte
		if b, err = hex.DecodeString(frameHex); err == nil {
			s, err = scene.Decoder{LegacyFrames: legacy}.DecodeFrame(b)
		}
	default:
		log.Fatal().Msg("provide -frame, -morse or -test")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("scene")
	}
	log.Info().Str("scene", s.Kind().String()).Int("pixels", pixels).Msg("playing")

	eng, err := render.NewEngine(pixels)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	sim, err := led.NewSim(pixels, led.RGB, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("sim")
	}
	defer sim.Close()
	pack, _ := led.NewPacker(led.RGB, 0)
	ctl := sequence.NewController(eng, sequence.Options{})
	ctl.Load(s)

	dt := time.Second / time.Duration(max(1, fps))
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	var wire []byte
	start := time.Now()
	for range ticker.C {
		wire = pack.Pack(wire, ctl.Tick(float64(dt)/float64(time.Millisecond)))
		if err := sim.Write(wire); err != nil {
			log.Fatal().Err(err).Msg("write")
		}
		// Finite scenes (a strobe burst) end when the engine says so.
		if eng.Done() || time.Since(start) >= duration {
			fmt.Println()
			log.Info().Float64("elapsed_ms", eng.Elapsed()).Msg("done")
			return
		}
	}
}
