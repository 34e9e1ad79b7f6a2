package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate pipeline results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRawFrame saves a received screencast payload as delivered.
	SaveRawFrame(index int, data []byte) error

	// SaveResampledFrame saves a constant-rate output frame.
	SaveResampledFrame(tick int, img image.Image) error

	// SaveRecordingJSON saves the run summary as JSON.
	SaveRecordingJSON(data []byte) error
}

// Overlay stamps run metadata onto a frame before encoding. Stamp must not
// mutate the source image; duplicated ticks share pixel buffers.
type Overlay interface {
	Stamp(img image.Image, timestampMs int) image.Image
}
