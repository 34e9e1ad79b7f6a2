package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrNoFrames is returned when End is called without any encoded output.
	ErrNoFrames = errors.New("h264encoder: no frames to encode")

	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("h264encoder: ffmpeg not found")
)
