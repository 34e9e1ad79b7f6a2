package ports

import (
	"image"
)

// FrameDecoder turns an encoded still-image payload into a raw pixel
// buffer in the canonical in-memory layout (RGBA at the configured output
// dimensions).
type FrameDecoder interface {
	Decode(data []byte) (image.Image, error)
}
