package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/led"
	"github.com/coreman2200/ledstrip/internal/render"
	"github.com/coreman2200/ledstrip/internal/scene"
	"github.com/coreman2200/ledstrip/internal/sequence"
	"github.com/coreman2200/ledstrip/internal/status"
)

var ErrRateLimited = errors.New("app: update rate limited")

// Persister keeps the last accepted scene and a ledger of updates.
// *store.Store satisfies it.
type Persister interface {
	SaveScene(strip string, s scene.Scene) error
	Record(eventType, source string, payload []byte) error
}

// Options wires a Conductor. Engine, Driver and Packer are required.
type Options struct {
	Engine   *render.Engine
	Driver   led.Driver
	Packer   *led.Packer
	Limiter  render.Limiter
	Decoder  scene.Decoder
	Actions  sequence.ActionTable // nil uses the default numbering
	Rotation sequence.Rotation
	Source   color.Source
	StepMs   float64

	Store Persister // optional
	Strip string

	UpdateRate rate.Limit // inbound scene/action updates per second; 0 = unlimited
	Burst      int
}

// Frame is one rendered and packed frame, as handed to subscribers.
type Frame struct {
	ID     uint64
	Pixels render.Pixels
	Wire   []byte
}

// Conductor is the frame loop. Transports hand it scenes and actions from
// any goroutine; they are parked in a single pending-scene slot and an
// action queue and applied only at the next frame boundary, so the engine
// itself is only ever touched by the loop.
type Conductor struct {
	ctl     *sequence.Controller
	drv     led.Driver
	pack    *led.Packer
	limit   render.Limiter
	decoder scene.Decoder
	actions sequence.ActionTable
	store   Persister
	strip   string
	updates *rate.Limiter

	mu         sync.Mutex
	pending    scene.Scene
	hasPending bool
	queue      []sequence.Action
	snapshot   status.Status
	frameID    uint64
	wire       []byte
	subs       map[chan Frame]struct{}
}

func NewConductor(o Options) (*Conductor, error) {
	if o.Engine == nil || o.Driver == nil || o.Packer == nil {
		return nil, errors.New("app: engine, driver and packer are required")
	}
	if o.Actions == nil {
		o.Actions = sequence.DefaultActionTable()
	}
	limit := rate.Inf
	if o.UpdateRate > 0 {
		limit = o.UpdateRate
	}
	c := &Conductor{
		drv:     o.Driver,
		pack:    o.Packer,
		limit:   o.Limiter,
		decoder: o.Decoder,
		actions: o.Actions,
		store:   o.Store,
		strip:   o.Strip,
		updates: rate.NewLimiter(limit, max(1, o.Burst)),
		subs:    map[chan Frame]struct{}{},
	}
	c.ctl = sequence.NewController(o.Engine, sequence.Options{
		Rotation: o.Rotation,
		Source:   o.Source,
		StepMs:   o.StepMs,
		Hooks: sequence.Hooks{
			OnState: func(from, to sequence.State) {
				log.Info().Str("from", string(from)).Str("to", string(to)).Msg("playback state")
			},
		},
	})
	return c, nil
}

// SubmitFrame decodes a wire frame and parks it for the next frame boundary.
// A frame that fails to decode leaves the running scene untouched.
func (c *Conductor) SubmitFrame(frame []byte, source string) error {
	if !c.updates.Allow() {
		return ErrRateLimited
	}
	s, err := c.decoder.DecodeFrame(frame)
	if err != nil {
		log.Debug().Err(err).Str("source", source).Hex("frame", frame).Msg("scene rejected")
		return err
	}
	c.park(s, source)
	c.record("scene", source, frame)
	return nil
}

// SubmitScene parks an already decoded scene.
func (c *Conductor) SubmitScene(s scene.Scene, source string) error {
	if !c.updates.Allow() {
		return ErrRateLimited
	}
	c.park(s, source)
	if frame, err := scene.EncodeFrame(s); err == nil {
		c.record("scene", source, frame)
	}
	return nil
}

// SubmitAction resolves a wire action byte through the action table and
// queues it.
func (c *Conductor) SubmitAction(b uint8, source string) error {
	a, err := c.actions.Parse(b)
	if err != nil {
		return err
	}
	return c.submitAction(a, b, source)
}

// SubmitActionValue queues a by value. The ledger gets the byte the action
// table maps to a.
func (c *Conductor) SubmitActionValue(a sequence.Action, source string) error {
	b, ok := c.actions.Byte(a)
	if !ok {
		b = uint8(a)
	}
	return c.submitAction(a, b, source)
}

func (c *Conductor) submitAction(a sequence.Action, wire uint8, source string) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %d", sequence.ErrUnknownAction, a)
	}
	if !c.updates.Allow() {
		return ErrRateLimited
	}
	c.mu.Lock()
	c.queue = append(c.queue, a)
	c.mu.Unlock()
	log.Debug().Str("action", a.String()).Str("source", source).Msg("action queued")
	c.record("action", source, []byte{wire})
	return nil
}

// Restore parks the persisted scene, if any, without rate limiting.
func (c *Conductor) Restore(load func(strip string, d scene.Decoder) (scene.Scene, error)) error {
	s, err := load(c.strip, c.decoder)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	c.mu.Lock()
	c.pending, c.hasPending = s, true
	c.mu.Unlock()
	log.Info().Str("strip", c.strip).Str("scene", s.Kind().String()).Msg("scene restored")
	return nil
}

func (c *Conductor) park(s scene.Scene, source string) {
	c.mu.Lock()
	c.pending, c.hasPending = s, true
	c.mu.Unlock()
	log.Debug().Str("scene", s.Kind().String()).Str("source", source).Msg("scene accepted")
	if c.store != nil {
		if err := c.store.SaveScene(c.strip, s); err != nil {
			log.Warn().Err(err).Msg("persist scene")
		}
	}
}

func (c *Conductor) record(eventType, source string, payload []byte) {
	if c.store == nil {
		return
	}
	if err := c.store.Record(eventType, source, payload); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("ledger")
	}
}

// Advance runs one frame: pending scene, then queued actions, then tick,
// limiter, pack and driver write. Only the loop goroutine may call it.
func (c *Conductor) Advance(dtMs float64) error {
	c.mu.Lock()
	s, load := c.pending, c.hasPending
	c.pending, c.hasPending = nil, false
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()

	if load {
		c.ctl.Load(s)
	}
	for _, a := range queue {
		if !c.ctl.Apply(a) {
			log.Debug().Str("action", a.String()).Str("state", string(c.ctl.State)).Msg("action ignored")
		}
	}

	px := c.ctl.Tick(dtMs)
	c.limit.Apply(px)

	c.mu.Lock()
	c.wire = c.pack.Pack(c.wire, px)
	wire := append([]byte(nil), c.wire...)
	c.frameID++
	f := Frame{ID: c.frameID, Pixels: px, Wire: wire}
	c.snapshot = status.Of(c.ctl, c.hasPending)
	for ch := range c.subs {
		select {
		case ch <- f:
		default:
		}
	}
	c.mu.Unlock()

	return c.drv.Write(wire)
}

// Run drives Advance at fps until ctx is done, then blanks the strip. Each
// frame advances by the wall time since the previous one.
func (c *Conductor) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 50
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
	var failures int
	for {
		select {
		case <-ctx.Done():
			return c.blank()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := c.Advance(float64(dt) / float64(time.Millisecond)); err != nil {
				failures++
				if failures == 1 || failures%fps == 0 {
					log.Warn().Err(err).Int("failures", failures).Msg("driver write")
				}
				continue
			}
			failures = 0
		}
	}
}

func (c *Conductor) blank() error {
	c.mu.Lock()
	c.wire = c.pack.Pack(c.wire, c.ctl.Engine().Blank())
	wire := append([]byte(nil), c.wire...)
	c.mu.Unlock()
	return c.drv.Write(wire)
}

// Status is the device status as of the last frame.
func (c *Conductor) Status() status.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshot
	s.Updating = s.Updating || c.hasPending
	return s
}

// FrameID counts frames rendered so far.
func (c *Conductor) FrameID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameID
}

// Len is the strip length.
func (c *Conductor) Len() int { return c.ctl.Engine().Len() }

// Subscribe delivers every frame rendered from now on. Slow readers miss
// frames rather than stall the loop. Call the returned func to stop.
func (c *Conductor) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
		})
	}
}
