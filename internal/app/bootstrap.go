package app

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/coreman2200/ledstrip/internal/config"
	"github.com/coreman2200/ledstrip/internal/led"
	"github.com/coreman2200/ledstrip/internal/render"
	"github.com/coreman2200/ledstrip/internal/sequence"
	"github.com/coreman2200/ledstrip/internal/store"
)

// Core is everything a daemon needs, built from one config.
type Core struct {
	Conductor  *Conductor
	Driver     led.Driver
	DriverName string
	Store      *store.Store // nil when persistence is off

	fps int
}

// InitCore builds the driver, store and conductor for cfg and parks the
// persisted scene, if any. preview receives the simulator's ANSI rows; nil
// keeps the simulator silent. A failing SPI port falls back to the simulator.
func InitCore(cfg *config.Config, preview io.Writer) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	order, err := led.ParseOrder(cfg.ColorOrder)
	if err != nil {
		return nil, err
	}
	eng, err := render.NewEngine(cfg.Pixels)
	if err != nil {
		return nil, err
	}
	pack, err := led.NewPacker(order, cfg.Gamma)
	if err != nil {
		return nil, err
	}
	actions, err := cfg.ActionTable()
	if err != nil {
		return nil, err
	}
	rotation, err := cfg.RotationScenes()
	if err != nil {
		return nil, err
	}

	core := &Core{DriverName: cfg.Driver, fps: cfg.FPS}
	switch cfg.Driver {
	case "spi":
		drv, err := led.OpenSPI(cfg.SPI.Dev, cfg.Pixels)
		if err == nil {
			core.Driver = drv
			break
		}
		log.Warn().Err(err).Str("driver", "spi").Str("dev", cfg.SPI.Dev).Msg("SPI init failed; falling back to SIM")
		core.DriverName = "sim"
		fallthrough
	default:
		sim, err := led.NewSim(cfg.Pixels, order, preview)
		if err != nil {
			return nil, err
		}
		core.Driver = sim
	}

	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			core.Driver.Close()
			return nil, err
		}
		core.Store = st
	}

	opts := Options{
		Engine:     eng,
		Driver:     core.Driver,
		Packer:     pack,
		Limiter:    cfg.Limiter(),
		Decoder:    cfg.Decoder(),
		Actions:    actions,
		Rotation:   &sequence.List{Scenes: rotation},
		StepMs:     cfg.StepMs,
		Strip:      cfg.Strip,
		UpdateRate: rate.Limit(cfg.Server.UpdateRate),
		Burst:      cfg.Server.Burst,
	}
	if core.Store != nil {
		opts.Store = core.Store
	}
	if opts.StepMs <= 0 {
		opts.StepMs = cfg.FrameMs()
	}
	if core.Conductor, err = NewConductor(opts); err != nil {
		core.Close()
		return nil, err
	}
	if core.Store != nil {
		if err := core.Conductor.Restore(core.Store.LastScene); err != nil {
			log.Warn().Err(err).Str("strip", cfg.Strip).Msg("restore scene")
		}
	}
	return core, nil
}

// Run drives the frame loop until ctx is done.
func (c *Core) Run(ctx context.Context) error { return c.Conductor.Run(ctx, c.fps) }

// Close releases the driver and store.
func (c *Core) Close() error {
	var errs []error
	if c.Driver != nil {
		errs = append(errs, c.Driver.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}
