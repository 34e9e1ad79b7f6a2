// Package smartencoder selects the best available video encoder with
// fallback support.
package smartencoder

import (
	"errors"

	"github.com/user/vidcast/pkg/adapters/h264encoder"
	"github.com/user/vidcast/pkg/adapters/mjpegencoder"
	"github.com/user/vidcast/pkg/ports"
)

// Codec represents the video codec type.
type Codec string

const (
	// CodecAuto selects H.264 when ffmpeg is available, Motion-JPEG otherwise.
	CodecAuto Codec = "auto"
	// CodecH264 represents H.264/AVC via ffmpeg.
	CodecH264 Codec = "h264"
	// CodecMJPEG represents the pure-Go Motion-JPEG fallback.
	CodecMJPEG Codec = "mjpeg"
)

// Info describes the selection that was made.
type Info struct {
	// Codec is the codec actually in use.
	Codec Codec
	// RequestedCodec is the codec that was asked for.
	RequestedCodec Codec
	// FallbackUsed indicates the request could not be honored directly.
	FallbackUsed bool
}

// Options configures encoder selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
}

var (
	// ErrUnsupportedCodec is returned for unknown codec names.
	ErrUnsupportedCodec = errors.New("smartencoder: unsupported codec")
	// ErrNoEncoderAvailable is returned when the requested codec has no backend.
	ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")
)

// New selects an encoder for the requested codec.
func New(requested Codec, opts Options) (ports.VideoEncoder, Info, error) {
	if opts.FFmpegPath != "" {
		h264encoder.SetFFmpegPath(opts.FFmpegPath)
	}

	info := Info{RequestedCodec: requested}
	switch requested {
	case CodecAuto, "":
		if h264encoder.IsAvailable() {
			info.Codec = CodecH264
			return h264encoder.New(), info, nil
		}
		info.Codec = CodecMJPEG
		info.FallbackUsed = true
		return mjpegencoder.New(), info, nil
	case CodecH264:
		if !h264encoder.IsAvailable() {
			return nil, info, ErrNoEncoderAvailable
		}
		info.Codec = CodecH264
		return h264encoder.New(), info, nil
	case CodecMJPEG:
		info.Codec = CodecMJPEG
		return mjpegencoder.New(), info, nil
	default:
		return nil, info, ErrUnsupportedCodec
	}
}
