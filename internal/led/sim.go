package led

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Sim is an in-memory sink for development machines without a strip. It keeps
// the last frame and, given a writer, previews each frame as a row of ANSI
// true-color cells.
type Sim struct {
	mu      sync.Mutex
	order   Order
	count   int
	out     io.Writer
	last    []byte
	frames  int
	closed  bool
	preview bytes.Buffer
}

// NewSim builds a sink for count pixels laid out in order. out may be nil.
func NewSim(count int, order Order, out io.Writer) (*Sim, error) {
	o, err := ParseOrder(string(order))
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d pixels", ErrFrameLength, count)
	}
	return &Sim{order: o, count: count, out: out}, nil
}

func (s *Sim) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(frame) != s.count*s.order.Channels() {
		return fmt.Errorf("%w: %d bytes for %d pixels", ErrFrameLength, len(frame), s.count)
	}
	s.last = append(s.last[:0], frame...)
	s.frames++
	if s.out == nil {
		return nil
	}
	s.preview.Reset()
	s.preview.WriteString("\r")
	ch := s.order.Channels()
	for i := 0; i < s.count; i++ {
		r, g, b := s.rgb(frame[i*ch : i*ch+ch])
		fmt.Fprintf(&s.preview, "\x1b[48;2;%d;%d;%dm ", r, g, b)
	}
	s.preview.WriteString("\x1b[0m")
	_, err := s.out.Write(s.preview.Bytes())
	return err
}

// rgb undoes the channel order for display; W is folded into all three.
func (s *Sim) rgb(px []byte) (r, g, b int) {
	var w int
	for i, ch := range s.order {
		switch ch {
		case 'R':
			r = int(px[i])
		case 'G':
			g = int(px[i])
		case 'B':
			b = int(px[i])
		case 'W':
			w = int(px[i])
		}
	}
	return min(r+w, 255), min(g+w, 255), min(b+w, 255)
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.last)
}

// Frames counts successful writes.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
