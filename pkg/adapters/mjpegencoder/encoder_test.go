package mjpegencoder

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/user/vidcast/pkg/ports"
)

func testFrame(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEncoder_EndProducesMP4(t *testing.T) {
	enc := New()
	if err := enc.Begin(64, 48, 30.0, ports.EncoderOptions{Quality: 25}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		frame := testFrame(64, 48, color.RGBA{R: byte(i * 40), G: 80, B: 120, A: 255})
		if err := enc.EncodeFrame(frame, i*33); err != nil {
			t.Fatalf("encode frame %d: %v", i, err)
		}
	}

	data, err := enc.End()
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected container bytes")
	}
	// The container starts with an ftyp box.
	if !bytes.Equal(data[4:8], []byte("ftyp")) {
		t.Errorf("expected ftyp box at start, got % X", data[:8])
	}
	// Each JPEG sample appears in the mdat payload.
	if !bytes.Contains(data, []byte{0xFF, 0xD8, 0xFF}) {
		t.Error("expected JPEG sample data in container")
	}
}

func TestEncoder_EndWithoutFrames(t *testing.T) {
	enc := New()
	if err := enc.Begin(64, 48, 30.0, ports.EncoderOptions{}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := enc.End(); err != ErrNoFrames {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestEncoder_NotInitialized(t *testing.T) {
	enc := New()
	if err := enc.EncodeFrame(testFrame(8, 8, color.RGBA{A: 255}), 0); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := enc.End(); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestEncoder_QualityMapping(t *testing.T) {
	enc := New()

	// Lower CRF must map to a higher JPEG quality.
	if err := enc.Begin(8, 8, 30.0, ports.EncoderOptions{Quality: 10}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	better := enc.quality
	if err := enc.Begin(8, 8, 30.0, ports.EncoderOptions{Quality: 60}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	worse := enc.quality
	if better <= worse {
		t.Errorf("expected CRF 10 to map above CRF 60, got %d <= %d", better, worse)
	}

	// Out-of-range values fall back to the default.
	if err := enc.Begin(8, 8, 30.0, ports.EncoderOptions{Quality: 99}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if enc.quality != defaultJPEGQuality {
		t.Errorf("expected default quality %d, got %d", defaultJPEGQuality, enc.quality)
	}
}
