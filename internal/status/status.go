// Package status formats and parses the one-line device status report
// "scene:colorType:bufferSize:power:data:sceneOn:updating:r,g,b,w".
package status

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
	"github.com/coreman2200/ledstrip/internal/sequence"
)

var ErrMalformed = errors.New("status: malformed line")

// Tri is a flag the device may not know.
type Tri int8

const (
	Unknown Tri = iota
	No
	Yes
)

func (t Tri) token() string {
	switch t {
	case No:
		return "0"
	case Yes:
		return "1"
	}
	return "-"
}

func parseTri(s string) Tri {
	switch s {
	case "-":
		return Unknown
	case "1":
		return Yes
	}
	return No
}

// Status is a device report. Scene is only meaningful when SceneOK; Color
// only when HasColor.
type Status struct {
	Scene      scene.Kind
	SceneOK    bool
	ColorType  color.Type
	BufferSize int
	Power      Tri
	Data       Tri
	SceneOn    bool
	Updating   bool
	HasColor   bool
	Color      color.RGBW
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// String renders the status line.
func (s Status) String() string {
	sc := "-1"
	if s.SceneOK {
		sc = strconv.Itoa(int(s.Scene))
	}
	col := ""
	if s.HasColor {
		col = fmt.Sprintf("%d,%d,%d,%d", s.Color.R, s.Color.G, s.Color.B, s.Color.W)
	}
	return strings.Join([]string{
		sc,
		strconv.Itoa(int(s.ColorType)),
		strconv.Itoa(s.BufferSize),
		s.Power.token(),
		s.Data.token(),
		flag(s.SceneOn),
		flag(s.Updating),
		col,
	}, ":")
}

// Parse reads a status line. Like the device clients it is lenient: unknown
// scene or color-type numbers clear SceneOK / leave ColorType invalid, and a
// color field that is not four bytes (e.g. "x,x,x" during an animation) is
// simply absent. Only a line with fewer than seven fields is an error.
func Parse(line string) (Status, error) {
	f := strings.Split(strings.TrimSpace(line), ":")
	if len(f) < 7 {
		return Status{}, fmt.Errorf("%w: %d fields in %q", ErrMalformed, len(f), line)
	}
	var s Status
	if n, err := strconv.Atoi(f[0]); err == nil && n >= 0 && scene.Kind(n).Valid() {
		s.Scene, s.SceneOK = scene.Kind(n), true
	}
	if n, err := strconv.Atoi(f[1]); err == nil && color.Type(n).Valid() {
		s.ColorType = color.Type(n)
	}
	s.BufferSize, _ = strconv.Atoi(f[2])
	s.Power = parseTri(f[3])
	s.Data = parseTri(f[4])
	s.SceneOn = f[5] == "1"
	s.Updating = f[6] == "1"
	if len(f) > 7 {
		s.Color, s.HasColor = parseColor(f[7])
	}
	return s, nil
}

// parseColor takes up to four comma separated bytes; missing ones are zero.
func parseColor(field string) (color.RGBW, bool) {
	if field == "" {
		return color.RGBW{}, false
	}
	parts := strings.Split(field, ",")
	if len(parts) > 4 {
		return color.RGBW{}, false
	}
	var ch [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return color.RGBW{}, false
		}
		ch[i] = uint8(n)
	}
	return color.RGBW{R: ch[0], G: ch[1], B: ch[2], W: ch[3]}, true
}

// Of reports what a controller is doing. Power and data lines are not
// observable from here and stay Unknown. The color is reported for Off and
// Static scenes only, as the first rendered pixel.
func Of(c *sequence.Controller, updating bool) Status {
	s := Status{Updating: updating}
	e := c.Engine()
	sc := e.Scene()
	if sc == nil {
		return s
	}
	s.Scene, s.SceneOK = sc.Kind(), true
	if enc, err := scene.Encode(sc); err == nil {
		s.ColorType = enc.ColorType
		s.BufferSize = len(enc.Payload)
	}
	s.SceneOn = c.State != sequence.BlackedOut && sc.Kind() != scene.KindOff
	switch sc.Kind() {
	case scene.KindOff, scene.KindStatic:
		if f := c.Frame(); len(f) > 0 {
			s.Color, s.HasColor = f[0], true
		}
	}
	return s
}
