// Package jpegdecoder decodes screencast JPEG payloads into RGBA buffers.
package jpegdecoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/user/vidcast/pkg/ports"
)

// Decoder implements ports.FrameDecoder for JPEG payloads. Decoded frames
// are normalized to RGBA at the configured output dimensions; the browser
// may deliver slightly different sizes during window settling.
type Decoder struct {
	width  int
	height int
}

// New creates a decoder producing width x height RGBA frames.
func New(width, height int) *Decoder {
	return &Decoder{width: width, height: height}
}

// Decode decodes one JPEG payload.
func (d *Decoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	if b := src.Bounds(); b.Dx() == d.width && b.Dy() == d.height {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	return dst, nil
}

// Ensure Decoder implements ports.FrameDecoder
var _ ports.FrameDecoder = (*Decoder)(nil)
