package decode

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/user/vidcast/pkg/adapters/logger"
	"github.com/user/vidcast/pkg/mocks"
	"github.com/user/vidcast/pkg/pipeline"
	"github.com/user/vidcast/pkg/ports"
)

var errBadFrame = errors.New("not a jpeg")

// markedDecoder fails on frames whose payload is nil.
func markedDecoder() *mocks.FrameDecoder {
	return &mocks.FrameDecoder{
		DecodeFunc: func(data []byte) (image.Image, error) {
			if data == nil {
				return nil, errBadFrame
			}
			return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
		},
	}
}

func runDecode(t *testing.T, stage *Stage, frames []pipeline.RawFrame) ([]pipeline.DecodedFrame, error) {
	t.Helper()

	in := make(chan pipeline.RawFrame, len(frames)+1)
	for _, f := range frames {
		in <- f
	}
	close(in)

	out := make(chan pipeline.DecodedFrame, len(frames)+1)
	err := stage.Run(context.Background(), in, out)

	var got []pipeline.DecodedFrame
	for f := range out {
		got = append(got, f)
	}
	return got, err
}

func TestStage_Run_DecodesInOrder(t *testing.T) {
	stage := New(markedDecoder(), logger.NewNoop(), Options{})

	frames := []pipeline.RawFrame{
		{TimestampMs: 0, Data: []byte{1}},
		{TimestampMs: 33, Data: []byte{2}},
		{TimestampMs: 66, Data: []byte{3}},
	}
	got, err := runDecode(t, stage, frames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got))
	}
	for i, f := range got {
		if f.TimestampMs != frames[i].TimestampMs {
			t.Errorf("frame %d: expected timestamp %d, got %d", i, frames[i].TimestampMs, f.TimestampMs)
		}
	}
}

func TestStage_Run_ToleratesIsolatedFailures(t *testing.T) {
	stage := New(markedDecoder(), logger.NewNoop(), Options{})

	// 1 undecodable frame in 100 stays well under the threshold.
	var frames []pipeline.RawFrame
	for i := 0; i < 100; i++ {
		data := []byte{byte(i)}
		if i == 50 {
			data = nil
		}
		frames = append(frames, pipeline.RawFrame{TimestampMs: i * 33, Data: data})
	}

	got, err := runDecode(t, stage, frames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 99 {
		t.Errorf("expected 99 decoded frames, got %d", len(got))
	}
	if stage.Dropped() != 1 {
		t.Errorf("expected 1 dropped frame, got %d", stage.Dropped())
	}
}

func TestStage_Run_ThresholdExceeded(t *testing.T) {
	stage := New(markedDecoder(), logger.NewNoop(), Options{})

	// 15% failures: the first threshold check past the minimum sample count
	// escalates to a fatal error.
	var frames []pipeline.RawFrame
	for i := 0; i < 100; i++ {
		data := []byte{byte(i)}
		if i%7 == 0 {
			data = nil
		}
		frames = append(frames, pipeline.RawFrame{TimestampMs: i * 33, Data: data})
	}

	_, err := runDecode(t, stage, frames)
	if !errors.Is(err, ports.ErrDecodeThreshold) {
		t.Fatalf("expected decode threshold error, got %v", err)
	}
}

func TestStage_Run_ThresholdNeedsMinimumSamples(t *testing.T) {
	stage := New(markedDecoder(), logger.NewNoop(), Options{})

	// A failure on the very first frame is a 100% drop rate, but with too
	// few samples it must not abort the session.
	frames := []pipeline.RawFrame{
		{TimestampMs: 0, Data: nil},
		{TimestampMs: 33, Data: []byte{1}},
		{TimestampMs: 66, Data: []byte{2}},
	}
	got, err := runDecode(t, stage, frames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 decoded frames, got %d", len(got))
	}
	if stage.Dropped() != 1 {
		t.Errorf("expected 1 dropped frame, got %d", stage.Dropped())
	}
}

func TestStage_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := New(markedDecoder(), logger.NewNoop(), Options{})
	in := make(chan pipeline.RawFrame)
	out := make(chan pipeline.DecodedFrame)
	if err := stage.Run(ctx, in, out); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
