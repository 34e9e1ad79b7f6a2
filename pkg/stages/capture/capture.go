// Package capture implements the screencast session stage.
//
// The session negotiates the frame feed with the debug target and enforces
// the ack-gated flow control discipline: every received frame is enqueued
// for decoding and acknowledged immediately, before any decoding happens.
// A slow encoder must never stall acknowledgment of new frames.
package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/page"

	"github.com/user/vidcast/pkg/pipeline"
	"github.com/user/vidcast/pkg/ports"
)

// Options configures the screencast session.
type Options struct {
	Quality    int // JPEG quality (0-100)
	MaxWidth   int // Maximum capture width in device pixels
	MaxHeight  int // Maximum capture height in device pixels
	DurationMs int // Recording duration; 0 means run until ctx is cancelled
}

// Stage negotiates and consumes one screencast session.
type Stage struct {
	client ports.DebugClient
	sink   ports.DebugSink
	logger ports.Logger
	opts   Options

	start    time.Time
	lastTs   int
	received int
	stopMs   int
	stopCh   chan int
}

// New creates a new capture stage.
func New(client ports.DebugClient, sink ports.DebugSink, logger ports.Logger, opts Options) *Stage {
	if opts.Quality <= 0 {
		opts.Quality = 80
	}
	return &Stage{
		client: client,
		sink:   sink,
		logger: logger.WithComponent("capture"),
		opts:   opts,
		stopCh: make(chan int, 1),
	}
}

// Run starts the screencast, forwards frames to out and acknowledges each
// one, until the duration elapses or ctx is cancelled. It drains in-flight
// frames, publishes the stop timestamp on Stopped and closes out before
// returning, on both the clean and the error path.
func (s *Stage) Run(ctx context.Context, out chan<- pipeline.RawFrame) (err error) {
	s.start = time.Now()
	defer func() {
		s.stopMs = int(time.Since(s.start).Milliseconds())
		s.stopCh <- s.stopMs
		close(out)
	}()

	params := page.StartScreencast().
		WithFormat(page.ScreencastFormatJpeg).
		WithQuality(int64(s.opts.Quality)).
		WithEveryNthFrame(1)
	if s.opts.MaxWidth > 0 {
		params = params.WithMaxWidth(int64(s.opts.MaxWidth))
	}
	if s.opts.MaxHeight > 0 {
		params = params.WithMaxHeight(int64(s.opts.MaxHeight))
	}

	s.logger.Debug("Starting screencast with JPEG quality %d", s.opts.Quality)
	if err := s.client.Call(ctx, page.CommandStartScreencast, params, nil); err != nil {
		return fmt.Errorf("start screencast: %w", err)
	}

	var timeout <-chan time.Time
	if s.opts.DurationMs > 0 {
		timer := time.NewTimer(time.Duration(s.opts.DurationMs) * time.Millisecond)
		defer timer.Stop()
		timeout = timer.C
	}

	events := s.client.Events()
loop:
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Capture cancelled")
			break loop
		case <-timeout:
			s.logger.Debug("Capture duration elapsed")
			break loop
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: event stream terminated", ports.ErrConnectionLost)
			}
			if err := s.handleEvent(ctx, ev, out); err != nil {
				return err
			}
		}
	}

	return s.stop(events, out)
}

// Stopped delivers the recording stop timestamp in milliseconds since
// session start, exactly once, when the session ends. Downstream stages
// that outlive an aborted session must receive from here instead of
// calling StopMs.
func (s *Stage) Stopped() <-chan int {
	return s.stopCh
}

// StopMs returns the recording stop timestamp in milliseconds since session
// start. Valid only after Run has returned.
func (s *Stage) StopMs() int {
	return s.stopMs
}

// Received returns the number of frame events received.
func (s *Stage) Received() int {
	return s.received
}

// handleEvent acknowledges and forwards one frame notification. Non-frame
// events are ignored.
func (s *Stage) handleEvent(ctx context.Context, ev ports.Event, out chan<- pipeline.RawFrame) error {
	if ev.Method != string(cdproto.EventPageScreencastFrame) {
		return nil
	}

	var frame page.EventScreencastFrame
	if err := json.Unmarshal(ev.Params, &frame); err != nil {
		return fmt.Errorf("%w: screencast frame event: %v", ports.ErrProtocol, err)
	}

	data, err := base64.StdEncoding.DecodeString(frame.Data)
	if err != nil {
		// Corrupt transport payload. Ack so the feed keeps flowing; the
		// decode stage accounts for it as a dropped frame.
		s.logger.Warn("Discarding frame with invalid base64 payload: %s", err)
		data = nil
	}

	raw := pipeline.RawFrame{
		TimestampMs: s.frameTimestamp(&frame),
		Data:        data,
		SessionID:   frame.SessionID,
	}

	// Take ownership (queue for decoding) before acknowledging. The raw
	// queue is deep enough that this never waits on the encoder.
	select {
	case out <- raw:
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.sink.Enabled() {
		s.sink.SaveRawFrame(s.received, raw.Data)
	}
	s.received++

	// Ack immediately, before any decoding. The source withholds the next
	// frame until this lands, so a failed ack means no forward progress.
	ack := page.ScreencastFrameAck(frame.SessionID)
	if err := s.client.Call(ctx, page.CommandScreencastFrameAck, ack, nil); err != nil {
		return fmt.Errorf("acknowledge frame %d: %w", frame.SessionID, err)
	}
	return nil
}

// frameTimestamp converts the device timestamp to milliseconds since
// session start, clamped to be monotonically non-decreasing. Frames without
// metadata fall back to local arrival time.
func (s *Stage) frameTimestamp(frame *page.EventScreencastFrame) int {
	ts := int(time.Since(s.start).Milliseconds())
	if frame.Metadata != nil && frame.Metadata.Timestamp != nil {
		ts = int(frame.Metadata.Timestamp.Time().Sub(s.start).Milliseconds())
	}
	if ts < s.lastTs {
		ts = s.lastTs
	}
	s.lastTs = ts
	return ts
}

// stop ends the screencast and drains frames that were already received.
func (s *Stage) stop(events <-chan ports.Event, out chan<- pipeline.RawFrame) error {
	// Use a fresh context: the run context may already be cancelled and
	// the stop command is part of cooperative shutdown.
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Call(stopCtx, page.CommandStopScreencast, page.StopScreencast(), nil); err != nil {
		// The feed may already be gone (connection lost). Frames received
		// so far are still flushed downstream.
		s.logger.Warn("Stop screencast failed: %s", err)
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.handleEvent(stopCtx, ev, out); err != nil {
				return err
			}
		default:
			s.logger.Debug("Captured %d frames", s.received)
			return nil
		}
	}
}
