// Package nullsink provides a no-op debug sink.
package nullsink

import (
	"image"

	"github.com/user/vidcast/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards everything.
func (s *Sink) Enabled() bool {
	return false
}

// SaveRawFrame does nothing.
func (s *Sink) SaveRawFrame(index int, data []byte) error {
	return nil
}

// SaveResampledFrame does nothing.
func (s *Sink) SaveResampledFrame(tick int, img image.Image) error {
	return nil
}

// SaveRecordingJSON does nothing.
func (s *Sink) SaveRecordingJSON(data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
