// Package resample converts the irregularly-timed decoded frame sequence
// into a strictly periodic one at the configured output rate.
//
// The stage is a hold-last-frame state machine: the single piece of mutable
// state is the current frame handle. Each output tick re-emits that handle
// until a newer decoded frame supersedes it, so duplication is O(1) and
// never copies pixels. Memory stays bounded regardless of capture length.
package resample

import (
	"context"
	"image"
	"math"

	"github.com/user/vidcast/pkg/pipeline"
	"github.com/user/vidcast/pkg/ports"
)

// DefaultMinPartialTick is the minimum elapsed fraction of a tick interval
// required to emit a trailing partial tick at session stop.
const DefaultMinPartialTick = 0.5

// Options configures the resampler.
type Options struct {
	FPS            float64            // Output frame rate
	Dimensions     pipeline.Dimension // Placeholder frame size before the first real frame
	MinPartialTick float64            // Trailing partial tick threshold (0 = default)
}

// Placeholder renders the blank frame held before the first decoded frame
// arrives.
type Placeholder interface {
	BlankFrame(width, height int) image.Image
}

// Stage is the frame resampler.
type Stage struct {
	placeholder Placeholder
	logger      ports.Logger
	opts        Options

	emitted int
}

// New creates a new resample stage.
func New(placeholder Placeholder, logger ports.Logger, opts Options) *Stage {
	if opts.MinPartialTick <= 0 {
		opts.MinPartialTick = DefaultMinPartialTick
	}
	return &Stage{
		placeholder: placeholder,
		logger:      logger.WithComponent("resample"),
		opts:        opts,
	}
}

// Run consumes decoded frames from in and emits the constant-rate sequence
// to out. stop delivers the session stop timestamp; in may close before the
// capture session has ended (an upstream abort), so the timestamp is
// received rather than read, and cancellation unblocks the wait. out is
// closed before returning.
//
// A frame is visible at tick k when it is the latest frame with a
// timestamp <= k * tick duration. Frames fully superseded within one tick
// interval are never emitted.
func (s *Stage) Run(ctx context.Context, in <-chan pipeline.DecodedFrame, out chan<- pipeline.ResampledFrame, stop <-chan int) error {
	defer close(out)

	tickMs := 1000.0 / s.opts.FPS
	tick := 0
	current := image.Image(nil)

	emit := func() error {
		if current == nil {
			current = s.placeholder.BlankFrame(s.opts.Dimensions.Width, s.opts.Dimensions.Height)
		}
		frame := pipeline.ResampledFrame{
			Tick:        tick,
			TimestampMs: int(math.Round(float64(tick) * tickMs)),
			Image:       current,
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
		tick++
		s.emitted++
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-in:
			if !ok {
				select {
				case stopMs := <-stop:
					return s.finish(emit, float64(stopMs), tickMs)
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			// Emit every tick boundary the new frame does not yet cover,
			// then make it the current frame for subsequent ticks.
			for float64(tick)*tickMs < float64(frame.TimestampMs) {
				if err := emit(); err != nil {
					return err
				}
			}
			current = frame.Image
		}
	}
}

// finish emits the remaining ticks up to the stop timestamp. The trailing
// partial tick appears only when its elapsed fraction reaches the
// configured minimum, so a near-zero-duration final frame is never written.
func (s *Stage) finish(emit func() error, stop, tickMs float64) error {
	const eps = 1e-6
	for float64(s.nextTick())*tickMs+tickMs <= stop+eps {
		if err := emit(); err != nil {
			return err
		}
	}
	if frac := (stop - float64(s.nextTick())*tickMs) / tickMs; frac >= s.opts.MinPartialTick-eps && frac > 0 {
		if err := emit(); err != nil {
			return err
		}
	}
	s.logger.Debug("Resampled %d ticks at %.1f fps", s.emitted, s.opts.FPS)
	return nil
}

// nextTick returns the next tick index to be emitted.
func (s *Stage) nextTick() int {
	return s.emitted
}

// Emitted returns the number of resampled frames produced.
func (s *Stage) Emitted() int {
	return s.emitted
}
