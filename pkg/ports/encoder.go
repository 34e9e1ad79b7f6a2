package ports

import (
	"image"
)

// VideoEncoder abstracts streaming video encoding into a container.
// Frames are fed in presentation order at a constant frame rate.
type VideoEncoder interface {
	// Begin initializes the encoder with the output dimensions and frame rate.
	Begin(width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame encodes a single frame at the specified timestamp.
	// Frames must arrive in strictly increasing timestamp order.
	EncodeFrame(img image.Image, timestampMs int) error

	// End flushes the encoder and returns the finished container bytes.
	// After End the encoder cannot be reused without Begin.
	End() ([]byte, error)
}

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Bitrate int // Target bitrate in kbps (0 = encoder default)
	Quality int // CRF value: 0-63 (lower is higher quality)
}
