// Package sequence gates the animation engine behind the top-level control
// actions: blackout, on, restart, pause, rotate and step.
package sequence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/ledstrip/internal/scene"
)

// State enumerates controller states.
type State string

const (
	Running    State = "running"
	Paused     State = "paused"
	BlackedOut State = "blacked-out"
)

// Action is a one-shot control command.
type Action uint8

const (
	Blackout Action = iota
	On
	Restart
	Pause
	Rotate
	Step
)

var actionNames = [...]string{"blackout", "on", "restart", "pause", "rotate", "step"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", a)
}

// Valid reports whether a names a known action.
func (a Action) Valid() bool { return int(a) < len(actionNames) }

var ErrUnknownAction = errors.New("sequence: unknown action")

// ParseActionName maps "blackout", "ON", "Rotate"... to an Action.
func ParseActionName(s string) (Action, error) {
	for i, n := range actionNames {
		if strings.EqualFold(s, n) {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ActionTable maps wire bytes to actions. Firmware versions disagree on the
// rotate and step bytes, so the table is data, not code.
type ActionTable map[uint8]Action

// DefaultActionTable is BLACKOUT=0, ON=1, RESTART=2, PAUSE=3, ROTATE=4, STEP=5.
func DefaultActionTable() ActionTable {
	t := make(ActionTable, len(actionNames))
	for i := range actionNames {
		t[uint8(i)] = Action(i)
	}
	return t
}

// Parse resolves a wire byte.
func (t ActionTable) Parse(b uint8) (Action, error) {
	a, ok := t[b]
	if !ok {
		return 0, fmt.Errorf("%w: byte %d", ErrUnknownAction, b)
	}
	return a, nil
}

// Byte returns the lowest wire byte mapped to a.
func (t ActionTable) Byte(a Action) (uint8, bool) {
	best, found := uint8(0), false
	for b, v := range t {
		if v == a && (!found || b < best) {
			best, found = b, true
		}
	}
	return best, found
}

// Rotation supplies the next scene for ROTATE. Next returns nil when it has
// nothing to offer.
type Rotation interface {
	Next() scene.Scene
}

// List rotates through a fixed slice of scenes, wrapping at the end.
type List struct {
	Scenes []scene.Scene
	i      int
}

func (l *List) Next() scene.Scene {
	if len(l.Scenes) == 0 {
		return nil
	}
	s := l.Scenes[l.i%len(l.Scenes)]
	l.i = (l.i + 1) % len(l.Scenes)
	return s
}

// Hooks are optional callbacks fired after the controller changes something.
type Hooks struct {
	// Fired on every state change; same-state transitions are not reported.
	OnState func(from, to State)
	// A scene was loaded through Load, RESTART or ROTATE.
	OnLoad func(s scene.Scene)
}
