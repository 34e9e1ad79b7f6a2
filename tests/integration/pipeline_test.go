// Package integration contains end-to-end pipeline tests using the real
// decode, resample and encode implementations against a scripted debug
// client. No browser or ffmpeg binary is required.
package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/user/vidcast/pkg/adapters/ggoverlay"
	"github.com/user/vidcast/pkg/adapters/jpegdecoder"
	"github.com/user/vidcast/pkg/adapters/logger"
	"github.com/user/vidcast/pkg/adapters/mjpegencoder"
	"github.com/user/vidcast/pkg/mocks"
	"github.com/user/vidcast/pkg/recorder"
)

const (
	frameWidth  = 64
	frameHeight = 48
)

func jpegFrame(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestPipeline_EndToEnd(t *testing.T) {
	client := mocks.NewDebugClient()
	colors := []color.RGBA{
		{R: 220, G: 40, B: 40, A: 255},
		{R: 40, G: 220, B: 40, A: 255},
		{R: 40, G: 40, B: 220, A: 255},
	}
	for i, c := range colors {
		client.Emit("Page.screencastFrame", map[string]interface{}{
			"data":      jpegFrame(t, c),
			"sessionId": i + 1,
		})
	}

	fs := &mocks.FileSystem{}
	sink := &mocks.DebugSink{EnabledValue: true}
	rec := recorder.New(
		client,
		jpegdecoder.New(frameWidth, frameHeight),
		mjpegencoder.New(),
		nil,
		ggoverlay.New(),
		fs,
		sink,
		logger.NewNoop(),
	)

	cfg := recorder.DefaultConfig()
	cfg.OutputPath = "capture.mp4"
	cfg.Width = frameWidth
	cfg.Height = frameHeight
	cfg.FPS = 30.0
	cfg.DurationMs = 200

	result, err := rec.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ReceivedFrames != 3 {
		t.Errorf("expected 3 received frames, got %d", result.ReceivedFrames)
	}
	if result.DroppedFrames != 0 {
		t.Errorf("expected 0 dropped frames, got %d", result.DroppedFrames)
	}
	if result.EncodedFrames < 3 {
		t.Errorf("expected at least 3 encoded output frames over 200 ms at 30 fps, got %d", result.EncodedFrames)
	}

	data, ok := fs.File("capture.mp4")
	if !ok {
		t.Fatal("expected output file")
	}
	if !bytes.Equal(data[4:8], []byte("ftyp")) {
		t.Errorf("expected MP4 container, got % X", data[:8])
	}
	if result.FileSize != int64(len(data)) {
		t.Errorf("file size mismatch: result %d, written %d", result.FileSize, len(data))
	}
	if len(sink.RecordingJSON()) == 0 {
		t.Error("expected run summary saved to debug sink")
	}
}

func TestPipeline_CorruptFramesTolerated(t *testing.T) {
	client := mocks.NewDebugClient()
	good := jpegFrame(t, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	for i := 0; i < 12; i++ {
		data := good
		if i == 5 {
			data = base64.StdEncoding.EncodeToString([]byte("garbage"))
		}
		client.Emit("Page.screencastFrame", map[string]interface{}{
			"data":      data,
			"sessionId": i + 1,
		})
	}

	fs := &mocks.FileSystem{}
	rec := recorder.New(
		client,
		jpegdecoder.New(frameWidth, frameHeight),
		mjpegencoder.New(),
		nil,
		ggoverlay.New(),
		fs,
		&mocks.DebugSink{},
		logger.NewNoop(),
	)

	cfg := recorder.DefaultConfig()
	cfg.OutputPath = "capture.mp4"
	cfg.Width = frameWidth
	cfg.Height = frameHeight
	cfg.DurationMs = 200

	result, err := rec.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DroppedFrames != 1 {
		t.Errorf("expected 1 dropped frame, got %d", result.DroppedFrames)
	}
	if _, ok := fs.File("capture.mp4"); !ok {
		t.Error("expected output despite the corrupt frame")
	}
}
