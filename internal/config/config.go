package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/ledstrip/internal/led"
	"github.com/coreman2200/ledstrip/internal/render"
	"github.com/coreman2200/ledstrip/internal/scene"
	"github.com/coreman2200/ledstrip/internal/sequence"
)

type PowerCfg struct {
	LimitAmps float64 `yaml:"limit_amps"` // 0 disables the budget
	WhiteCap  float64 `yaml:"white_cap"`  // channel sum cap per LED, in full channels
	ChanMA    float64 `yaml:"chan_ma"`
	Knee      float64 `yaml:"knee"`
}

type SPI struct {
	Dev string `yaml:"dev"` // e.g. /dev/spidev0.0, "" for the first port
}

type Server struct {
	Addr       string  `yaml:"addr"`
	UpdateRate float64 `yaml:"update_rate"` // scene/action updates per second, 0 = unlimited
	Burst      int     `yaml:"burst"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Config struct {
	Strip      string  `yaml:"strip"` // key for the persisted scene
	Pixels     int     `yaml:"pixels"`
	Driver     string  `yaml:"driver"` // "spi" | "sim"
	ColorOrder string  `yaml:"color_order"`
	Gamma      float64 `yaml:"gamma"`
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`
	StepMs     float64 `yaml:"step_ms"` // STEP quantum, 0 = one frame

	Power  PowerCfg `yaml:"power"`
	SPI    SPI      `yaml:"spi,omitempty"`
	Server Server   `yaml:"server"`
	DBPath string   `yaml:"db_path"` // "" disables persistence
	Log    Log      `yaml:"log"`

	LegacyFrames bool             `yaml:"legacy_frames"` // bare tags carry no color-type byte
	Actions      map[string]uint8 `yaml:"actions,omitempty"`
	Rotation     []string         `yaml:"rotation,omitempty"` // hex scene frames for ROTATE
}

// Default is a 60 pixel GRB strip on the simulator at 50 fps.
func Default() *Config {
	return &Config{
		Strip:      "main",
		Pixels:     60,
		Driver:     "sim",
		ColorOrder: string(led.GRB),
		Gamma:      2.2,
		Brightness: 1,
		FPS:        50,
		Power:      PowerCfg{ChanMA: 20, Knee: 0.9},
		Server:     Server{Addr: ":8080", UpdateRate: 20, Burst: 10},
		DBPath:     "ledstrip.db",
		Log:        Log{Level: "info"},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var ErrInvalid = errors.New("config: invalid")

func (c *Config) Validate() error {
	if c.Pixels <= 0 || c.Pixels > render.MaxPixels {
		return fmt.Errorf("%w: pixels %d (1..%d)", ErrInvalid, c.Pixels, render.MaxPixels)
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	}
	switch c.Driver {
	case "sim", "spi":
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalid, c.Driver)
	}
	o, err := led.ParseOrder(c.ColorOrder)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Driver == "spi" && o.Channels() != 3 {
		return fmt.Errorf("%w: spi driver needs a three channel order, got %s", ErrInvalid, o)
	}
	if _, err := c.ActionTable(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.RotationScenes(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// FrameMs is the frame interval.
func (c *Config) FrameMs() float64 { return 1000 / float64(c.FPS) }

// Limiter builds the output post stage.
func (c *Config) Limiter() render.Limiter {
	return render.Limiter{
		Brightness: c.Brightness,
		WhiteCap:   c.Power.WhiteCap,
		ChanMA:     c.Power.ChanMA,
		BudgetMA:   c.Power.LimitAmps * 1000,
		Knee:       c.Power.Knee,
	}
}

// Decoder is the scene decoder for this strip's firmware.
func (c *Config) Decoder() scene.Decoder {
	return scene.Decoder{LegacyFrames: c.LegacyFrames}
}

// ActionTable starts from the default numbering and applies overrides, e.g.
// {step: 9}. An override frees the default byte of that action.
func (c *Config) ActionTable() (sequence.ActionTable, error) {
	t := sequence.DefaultActionTable()
	for name, b := range c.Actions {
		a, err := sequence.ParseActionName(name)
		if err != nil {
			return nil, err
		}
		if old, ok := t.Byte(a); ok {
			delete(t, old)
		}
		t[b] = a
	}
	return t, nil
}

// RotationScenes decodes the ROTATE list.
func (c *Config) RotationScenes() ([]scene.Scene, error) {
	d := c.Decoder()
	out := make([]scene.Scene, 0, len(c.Rotation))
	for i, h := range c.Rotation {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("rotation[%d]: %w", i, err)
		}
		s, err := d.DecodeFrame(b)
		if err != nil {
			return nil, fmt.Errorf("rotation[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
