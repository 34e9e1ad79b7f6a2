package mocks

import (
	"image"
	"sync"

	"github.com/user/vidcast/pkg/ports"
)

// EncodedFrame records one frame handed to the mock encoder.
type EncodedFrame struct {
	Image       image.Image
	TimestampMs int
}

// VideoEncoder is a mock implementation of ports.VideoEncoder.
type VideoEncoder struct {
	BeginFunc       func(width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image, timestampMs int) error
	EndFunc         func() ([]byte, error)

	mu     sync.Mutex
	begun  bool
	frames []EncodedFrame
}

func (m *VideoEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	m.mu.Lock()
	m.begun = true
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	m.mu.Lock()
	m.frames = append(m.frames, EncodedFrame{Image: img, TimestampMs: timestampMs})
	m.mu.Unlock()
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img, timestampMs)
	}
	return nil
}

func (m *VideoEncoder) End() ([]byte, error) {
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return []byte("mock video data"), nil
}

// Begun reports whether Begin was called.
func (m *VideoEncoder) Begun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begun
}

// Frames returns a copy of the frames received so far.
func (m *VideoEncoder) Frames() []EncodedFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EncodedFrame, len(m.frames))
	copy(out, m.frames)
	return out
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
