// Package scene decodes and encodes the binary scene descriptors sent to a strip.
package scene

import (
	"fmt"

	"github.com/coreman2200/ledstrip/internal/color"
)

// Kind is the scene catalogue. New kinds get new values; values are never reused.
type Kind uint8

const (
	KindOff Kind = iota
	KindStatic
	KindPattern
	KindSwap
	KindFlow
	KindStrobe
	KindChase
	KindStaticRandom
)

func (k Kind) String() string {
	switch k {
	case KindOff:
		return "OFF"
	case KindStatic:
		return "STATIC"
	case KindPattern:
		return "PATTERN"
	case KindSwap:
		return "SWAP"
	case KindFlow:
		return "FLOW"
	case KindStrobe:
		return "STROBE"
	case KindChase:
		return "CHASE"
	case KindStaticRandom:
		return "STATIC_RANDOM"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is in the catalogue.
func (k Kind) Valid() bool { return k <= KindStaticRandom }

// Colorless kinds carry no payload and no color type byte.
func (k Kind) Colorless() bool { return k == KindOff || k == KindStaticRandom }

// Scene is implemented by exactly the variants in this file. Decoded scenes
// are treated as immutable.
type Scene interface {
	Kind() Kind
	isScene()
}

// Timed pairs a color with a duration in ms (Swap, Flow) or a segment length in LEDs (Pattern).
type Timed struct {
	Color color.Color
	N     uint16
}

type Off struct{}

type Static struct {
	Color color.Color
}

type StaticRandom struct{}

// Pattern tiles the strip with segments, repeating or truncating to fit.
type Pattern struct {
	Segments []Timed
}

// Swap holds each step for its duration and cycles forever. Random marks the
// three-byte palette form; Seed keeps those bytes for re-encoding.
type Swap struct {
	Steps  []Timed
	Random bool
	Seed   [3]byte
}

// Flow moves continuously between successive colors; a step's duration is the
// transition time to the next.
type Flow struct {
	Steps  []Timed
	Random bool
	Seed   [3]byte
}

// Strobe flashes OnColor/OffColor Flashes times, then holds the off color.
type Strobe struct {
	OnColor  color.Color
	OnMs     uint16
	OffColor color.Color
	OffMs    uint16
	Flashes  uint8
}

type Chase struct {
	Moving         color.Color
	Background     color.Color
	PeriodMs       uint16
	Sections       uint8
	LedsPerSection uint8
	Options        Options
}

func (Off) Kind() Kind          { return KindOff }
func (Static) Kind() Kind       { return KindStatic }
func (StaticRandom) Kind() Kind { return KindStaticRandom }
func (Pattern) Kind() Kind      { return KindPattern }
func (Swap) Kind() Kind         { return KindSwap }
func (Flow) Kind() Kind         { return KindFlow }
func (Strobe) Kind() Kind       { return KindStrobe }
func (Chase) Kind() Kind        { return KindChase }

func (Off) isScene()          {}
func (Static) isScene()       {}
func (StaticRandom) isScene() {}
func (Pattern) isScene()      {}
func (Swap) isScene()         {}
func (Flow) isScene()         {}
func (Strobe) isScene()       {}
func (Chase) isScene()        {}

// Options is the chase option byte.
type Options struct {
	Reverse          bool
	Comet            bool
	RandomMoving     bool
	RandomBackground bool
}

const (
	optReverse uint8 = 1 << iota
	optComet
	optRandomMoving
	optRandomBackground
)

// ParseOptions reads the known bits; unknown bits are ignored.
func ParseOptions(b uint8) Options {
	return Options{
		Reverse:          b&optReverse != 0,
		Comet:            b&optComet != 0,
		RandomMoving:     b&optRandomMoving != 0,
		RandomBackground: b&optRandomBackground != 0,
	}
}

func (o Options) Byte() uint8 {
	var b uint8
	if o.Reverse {
		b |= optReverse
	}
	if o.Comet {
		b |= optComet
	}
	if o.RandomMoving {
		b |= optRandomMoving
	}
	if o.RandomBackground {
		b |= optRandomBackground
	}
	return b
}
