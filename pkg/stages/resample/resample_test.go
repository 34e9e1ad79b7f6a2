package resample

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user/vidcast/pkg/adapters/logger"
	"github.com/user/vidcast/pkg/pipeline"
)

// testPlaceholder returns a distinguishable blank frame.
type testPlaceholder struct {
	blank image.Image
}

func newTestPlaceholder(width, height int) *testPlaceholder {
	return &testPlaceholder{blank: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (p *testPlaceholder) BlankFrame(width, height int) image.Image {
	return p.blank
}

// runResample feeds the given frames through the stage and collects the
// output. stop is the session stop timestamp in milliseconds.
func runResample(t *testing.T, fps float64, frames []pipeline.DecodedFrame, stop int) ([]pipeline.ResampledFrame, *testPlaceholder, error) {
	t.Helper()

	placeholder := newTestPlaceholder(100, 80)
	stage := New(placeholder, logger.NewNoop(), Options{
		FPS:        fps,
		Dimensions: pipeline.Dimension{Width: 100, Height: 80},
	})

	in := make(chan pipeline.DecodedFrame, len(frames)+1)
	for _, f := range frames {
		in <- f
	}
	close(in)

	stopCh := make(chan int, 1)
	stopCh <- stop
	out := make(chan pipeline.ResampledFrame, 1024)
	err := stage.Run(context.Background(), in, out, stopCh)

	var got []pipeline.ResampledFrame
	for f := range out {
		got = append(got, f)
	}
	return got, placeholder, err
}

func TestStage_Run_HoldLastFrame(t *testing.T) {
	// A single frame at t=0 held over a 2 second session at 30 fps must
	// produce exactly 60 output frames.
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	frames := []pipeline.DecodedFrame{{TimestampMs: 0, Image: src}}

	got, _, err := runResample(t, 30.0, frames, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 60 {
		t.Fatalf("expected 60 frames, got %d", len(got))
	}
	for i, f := range got {
		if f.Tick != i {
			t.Errorf("frame %d: expected tick %d, got %d", i, i, f.Tick)
		}
		if f.Image != src {
			t.Errorf("frame %d: expected held source image, got a different buffer", i)
		}
	}
}

func TestStage_Run_PlaceholderBeforeFirstFrame(t *testing.T) {
	// First frame arrives at 500 ms into a 1 second session at 10 fps:
	// ticks 0-4 show the placeholder, ticks 5-9 the frame.
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	frames := []pipeline.DecodedFrame{{TimestampMs: 500, Image: src}}

	got, placeholder, err := runResample(t, 10.0, frames, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].Image != placeholder.blank {
			t.Errorf("tick %d: expected placeholder", i)
		}
	}
	for i := 5; i < 10; i++ {
		if got[i].Image != src {
			t.Errorf("tick %d: expected real frame", i)
		}
	}
}

func TestStage_Run_SupersededWithinInterval(t *testing.T) {
	// Two frames land inside the same 100 ms tick interval; only the later
	// one is ever emitted.
	first := image.NewRGBA(image.Rect(0, 0, 100, 80))
	second := image.NewRGBA(image.Rect(0, 0, 100, 80))
	frames := []pipeline.DecodedFrame{
		{TimestampMs: 10, Image: first},
		{TimestampMs: 50, Image: second},
	}

	got, placeholder, err := runResample(t, 10.0, frames, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	// Tick 0 is at t=0, before either frame.
	if got[0].Image != placeholder.blank {
		t.Errorf("tick 0: expected placeholder")
	}
	if got[1].Image != second {
		t.Errorf("tick 1: expected the superseding frame")
	}
	for _, f := range got {
		if f.Image == first {
			t.Errorf("tick %d: superseded frame must never be emitted", f.Tick)
		}
	}
}

func TestStage_Run_TrailingPartialTick(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	frames := []pipeline.DecodedFrame{{TimestampMs: 0, Image: src}}

	// 60% of a trailing interval elapsed: the partial tick is emitted.
	got, _, err := runResample(t, 10.0, frames, 1060)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 11 {
		t.Errorf("stop at 1060 ms: expected 11 frames, got %d", len(got))
	}

	// 40% elapsed: below the threshold, no partial tick.
	got, _, err = runResample(t, 10.0, frames, 1040)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("stop at 1040 ms: expected 10 frames, got %d", len(got))
	}
}

func TestStage_Run_NoInputFrames(t *testing.T) {
	// A session that produced no frames still yields placeholder output for
	// its full duration.
	got, placeholder, err := runResample(t, 10.0, nil, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(got))
	}
	for _, f := range got {
		if f.Image != placeholder.blank {
			t.Errorf("tick %d: expected placeholder", f.Tick)
		}
	}
}

func TestStage_Run_FrameCountTolerance(t *testing.T) {
	// Output length stays within one frame of duration x rate across
	// irregular input timings.
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	cases := []struct {
		fps    float64
		stopMs int
		input  []int // input frame timestamps
	}{
		{30.0, 3000, []int{0, 17, 800, 801, 2999}},
		{24.0, 5000, []int{120, 4000}},
		{10.0, 1234, []int{0}},
		{60.0, 987, []int{500, 600, 610, 620}},
	}
	for _, tc := range cases {
		var frames []pipeline.DecodedFrame
		for _, ts := range tc.input {
			frames = append(frames, pipeline.DecodedFrame{TimestampMs: ts, Image: src})
		}
		got, _, err := runResample(t, tc.fps, frames, tc.stopMs)
		if err != nil {
			t.Fatalf("fps=%g stop=%d: unexpected error: %v", tc.fps, tc.stopMs, err)
		}
		expected := int(float64(tc.stopMs) / 1000.0 * tc.fps)
		if len(got) < expected-1 || len(got) > expected+1 {
			t.Errorf("fps=%g stop=%d: expected %d±1 frames, got %d", tc.fps, tc.stopMs, expected, len(got))
		}
	}
}

func TestStage_Run_MonotonicTimestamps(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	frames := []pipeline.DecodedFrame{
		{TimestampMs: 100, Image: src},
		{TimestampMs: 700, Image: src},
	}
	got, _, err := runResample(t, 30.0, frames, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].TimestampMs <= got[i-1].TimestampMs {
			t.Fatalf("tick %d: timestamp %d not after %d", i, got[i].TimestampMs, got[i-1].TimestampMs)
		}
	}
}

func TestStage_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := New(newTestPlaceholder(100, 80), logger.NewNoop(), Options{
		FPS:        30.0,
		Dimensions: pipeline.Dimension{Width: 100, Height: 80},
	})

	in := make(chan pipeline.DecodedFrame)
	out := make(chan pipeline.ResampledFrame)
	err := stage.Run(ctx, in, out, make(chan int))
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStage_Run_UpstreamAbort(t *testing.T) {
	// When the input closes because an upstream stage failed, the session
	// stop timestamp may never be published. The stage must wait for
	// cancellation instead of hanging or inventing a stop time.
	ctx, cancel := context.WithCancel(context.Background())

	stage := New(newTestPlaceholder(100, 80), logger.NewNoop(), Options{
		FPS:        30.0,
		Dimensions: pipeline.Dimension{Width: 100, Height: 80},
	})

	in := make(chan pipeline.DecodedFrame)
	close(in)
	out := make(chan pipeline.ResampledFrame, 16)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := stage.Run(ctx, in, out, make(chan int))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stage.Emitted() != 0 {
		t.Errorf("expected no frames without a stop timestamp, got %d", stage.Emitted())
	}
}
