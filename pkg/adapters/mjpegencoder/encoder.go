// Package mjpegencoder provides a pure-Go Motion-JPEG fallback encoder.
//
// Each frame is stored as an independent JPEG sample in an MP4 track, so
// no external encoder binary is required. Files are larger than H.264 but
// every sample is a sync sample and the container is built entirely in
// process with mp4ff.
package mjpegencoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/vidcast/pkg/ports"
)

// ErrNotInitialized is returned when encoder methods are called before Begin.
var ErrNotInitialized = errors.New("mjpegencoder: encoder not initialized")

// ErrNoFrames is returned when End is called without any frames.
var ErrNoFrames = errors.New("mjpegencoder: no frames to encode")

// defaultJPEGQuality is used when EncoderOptions does not map to a usable
// quality value.
const defaultJPEGQuality = 85

// Encoder implements ports.VideoEncoder with JPEG samples in MP4.
type Encoder struct {
	mu sync.Mutex

	width   int
	height  int
	fps     float64
	quality int

	samples [][]byte
	begun   bool
}

// New creates a new Motion-JPEG encoder.
func New() *Encoder {
	return &Encoder{}
}

// Begin initializes the encoder.
func (e *Encoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.width = width
	e.height = height
	e.fps = fps
	e.samples = nil
	e.begun = true

	// Map the 0-63 CRF-style scale (lower is better) onto JPEG quality
	// (higher is better).
	e.quality = defaultJPEGQuality
	if opts.Quality > 0 && opts.Quality <= 63 {
		e.quality = 100 - opts.Quality*70/63
	}
	return nil
}

// EncodeFrame compresses one frame as a JPEG sample.
func (e *Encoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.begun {
		return ErrNotInitialized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("encode jpeg sample: %w", err)
	}
	e.samples = append(e.samples, buf.Bytes())
	return nil
}

// End finalizes encoding and returns the MP4 container bytes.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.begun {
		return nil, ErrNotInitialized
	}
	e.begun = false
	if len(e.samples) == 0 {
		return nil, ErrNoFrames
	}
	return e.buildMP4()
}

// buildMP4 muxes the JPEG samples into a fragmented MP4 at a constant
// frame rate (timescale fps * 1000, sample duration 1000).
func (e *Encoder) buildMP4() ([]byte, error) {
	timescale := uint32(e.fps * 1000)
	const sampleDur = 1000
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	entry := mp4.CreateVisualSampleEntryBox("jpeg", uint16(e.width), uint16(e.height), nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(e.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(e.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	for i, sample := range e.samples {
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(sample)),
				Dur:   sampleDur,
			},
			DecodeTime: uint64(i) * sampleDur,
			Data:       sample,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
