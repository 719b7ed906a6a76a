package led

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPIFreq is the only NRZ bit clock nrzled accepts on an SPI port.
const SPIFreq = 2500 * physic.KiloHertz

// SPI drives a WS2812-class strip over an SPI port through periph's nrzled
// encoder. Frames are three channel wire bytes; nrzled always emits GRB, so
// Write swaps the first two channels back before encoding.
type SPI struct {
	mu     sync.Mutex
	dev    *nrzled.Dev
	closer io.Closer
	name   string
	count  int
	buf    []byte
}

// OpenSPI initializes the periph host, opens the named port ("" picks the
// first one, e.g. "/dev/spidev0.0" or "SPI0.0") and attaches a count pixel
// strip to it.
func OpenSPI(name string, count int) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", name, err)
	}
	s, err := NewSPI(p, count)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	s.closer = p
	log.Info().Str("port", p.String()).Int("pixels", count).Msg("spi strip ready")
	return s, nil
}

// NewSPI attaches a strip to an already open port. The port stays owned by
// the caller.
func NewSPI(p spi.Port, count int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d pixels", ErrFrameLength, count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: SPIFreq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	return &SPI{dev: d, name: d.String(), count: count, buf: make([]byte, count*3)}, nil
}

func (s *SPI) String() string { return s.name }

func (s *SPI) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return ErrClosed
	}
	if len(frame) != s.count*3 {
		return fmt.Errorf("%w: %d bytes for %d pixels", ErrFrameLength, len(frame), s.count)
	}
	for i := 0; i < len(frame); i += 3 {
		s.buf[i], s.buf[i+1], s.buf[i+2] = frame[i+1], frame[i], frame[i+2]
	}
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port if OpenSPI opened it.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
