package mocks

import (
	"image"

	"github.com/user/vidcast/pkg/ports"
)

// FrameDecoder is a mock implementation of ports.FrameDecoder.
type FrameDecoder struct {
	DecodeFunc func(data []byte) (image.Image, error)
}

func (m *FrameDecoder) Decode(data []byte) (image.Image, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(data)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

var _ ports.FrameDecoder = (*FrameDecoder)(nil)
