// Package pipeline defines the data types flowing between capture stages.
package pipeline

import (
	"image"
)

// Dimension represents width and height in pixels.
type Dimension struct {
	Width  int
	Height int
}

// RawFrame is one screencast frame as received from the debug target,
// already base64-decoded. It is consumed and acknowledged exactly once.
type RawFrame struct {
	TimestampMs int    // Capture timestamp in milliseconds since session start
	Data        []byte // Encoded still image (JPEG)
	SessionID   int64  // Session-scoped id used for acknowledgment
}

// DecodedFrame is a raw pixel buffer paired with its capture timestamp.
// Ownership transfers stage to stage; the image is never mutated after
// handoff.
type DecodedFrame struct {
	TimestampMs int
	Image       image.Image
}

// ResampledFrame is a decoded frame re-tagged with an output tick index.
// The resampled sequence is strictly monotonic in Tick with no gaps.
// Consecutive ticks may share the same underlying Image.
type ResampledFrame struct {
	Tick        int
	TimestampMs int // Tick * tick duration, rounded to milliseconds
	Image       image.Image
}
