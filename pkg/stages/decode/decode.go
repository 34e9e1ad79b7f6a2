// Package decode implements the frame decoding stage.
package decode

import (
	"context"
	"fmt"

	"github.com/user/vidcast/pkg/pipeline"
	"github.com/user/vidcast/pkg/ports"
)

// DefaultDropThreshold is the dropped-frame fraction above which decoding
// failures are treated as systemic rather than transient.
const DefaultDropThreshold = 0.10

// DefaultMinSamples is the number of received frames required before the
// drop threshold is evaluated. Without it a single failure on the first
// frame would read as a 100% drop rate.
const DefaultMinSamples = 10

// Options configures the decode stage.
type Options struct {
	DropThreshold float64 // Fatal when dropped/received exceeds this (0 = default)
	MinSamples    int     // Received frames before the threshold applies
}

// Stage decodes raw frame payloads into pixel buffers. Individual decode
// failures are absorbed here: the frame is dropped and counted, and only a
// drop rate above the threshold escalates to a fatal error.
type Stage struct {
	decoder ports.FrameDecoder
	logger  ports.Logger
	opts    Options

	received int
	dropped  int
}

// New creates a new decode stage.
func New(decoder ports.FrameDecoder, logger ports.Logger, opts Options) *Stage {
	if opts.DropThreshold <= 0 {
		opts.DropThreshold = DefaultDropThreshold
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = DefaultMinSamples
	}
	return &Stage{
		decoder: decoder,
		logger:  logger.WithComponent("decode"),
		opts:    opts,
	}
}

// Run decodes frames from in until it closes, forwarding pixel buffers to
// out in arrival order. out is closed before returning.
func (s *Stage) Run(ctx context.Context, in <-chan pipeline.RawFrame, out chan<- pipeline.DecodedFrame) error {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-in:
			if !ok {
				if s.dropped > 0 {
					s.logger.Warn("Dropped %d of %d frames", s.dropped, s.received)
				}
				return nil
			}

			s.received++
			img, err := s.decoder.Decode(frame.Data)
			if err != nil {
				s.dropped++
				s.logger.Warn("Dropping undecodable frame at %d ms: %s", frame.TimestampMs, err)
				if err := s.checkThreshold(); err != nil {
					return err
				}
				continue
			}

			decoded := pipeline.DecodedFrame{
				TimestampMs: frame.TimestampMs,
				Image:       img,
			}
			select {
			case out <- decoded:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// checkThreshold escalates once the drop rate signals a systemic problem.
func (s *Stage) checkThreshold() error {
	if s.received < s.opts.MinSamples {
		return nil
	}
	ratio := float64(s.dropped) / float64(s.received)
	if ratio > s.opts.DropThreshold {
		return fmt.Errorf("%w: %d of %d frames (limit %.0f%%)",
			ports.ErrDecodeThreshold, s.dropped, s.received, s.opts.DropThreshold*100)
	}
	return nil
}

// Received returns the number of frames received from upstream.
func (s *Stage) Received() int {
	return s.received
}

// Dropped returns the number of frames dropped due to decode failures.
func (s *Stage) Dropped() int {
	return s.dropped
}
