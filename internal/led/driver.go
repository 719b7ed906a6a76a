// Package led holds the output sinks a rendered frame is pushed to.
package led

import "errors"

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes one frame of packed channel bytes, already in wire order.
	Write(frame []byte) error
	// Close releases resources.
	Close() error
}

var (
	ErrClosed      = errors.New("led: driver closed")
	ErrFrameLength = errors.New("led: frame length does not match strip")
	ErrUnsupported = errors.New("led: unsupported channel layout")
)
