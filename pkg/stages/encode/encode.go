// Package encode implements the video encoding and muxing stage.
package encode

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/vidcast/pkg/pipeline"
	"github.com/user/vidcast/pkg/ports"
)

// Options configures the encode stage.
type Options struct {
	Dimensions pipeline.Dimension
	FPS        float64
	Quality    int // CRF: 0-63 (lower is higher quality)
	Bitrate    int // Target bitrate in kbps
}

// Stage feeds resampled frames to a streaming encoder in tick order and
// finalizes the container when the sequence ends.
type Stage struct {
	encoder ports.VideoEncoder
	overlay ports.Overlay // optional
	sink    ports.DebugSink
	logger  ports.Logger
	opts    Options

	mu        sync.Mutex
	encoded   int
	video     []byte
	finalized bool
}

// New creates a new encode stage. overlay may be nil.
func New(encoder ports.VideoEncoder, overlay ports.Overlay, sink ports.DebugSink, logger ports.Logger, opts Options) *Stage {
	return &Stage{
		encoder: encoder,
		overlay: overlay,
		sink:    sink,
		logger:  logger.WithComponent("encode"),
		opts:    opts,
	}
}

// Run encodes frames from in until it closes, then finalizes the container.
// The finished bytes are available from Video.
func (s *Stage) Run(ctx context.Context, in <-chan pipeline.ResampledFrame) error {
	encOpts := ports.EncoderOptions{
		Quality: s.opts.Quality,
		Bitrate: s.opts.Bitrate,
	}
	s.logger.Debug("Encoding %dx%d at %.1f fps", s.opts.Dimensions.Width, s.opts.Dimensions.Height, s.opts.FPS)
	if err := s.encoder.Begin(s.opts.Dimensions.Width, s.opts.Dimensions.Height, s.opts.FPS, encOpts); err != nil {
		return fmt.Errorf("%w: begin: %v", ports.ErrEncoder, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-in:
			if !ok {
				data, err := s.Finalize()
				if err != nil {
					return err
				}
				s.logger.Debug("Video encoded: %d bytes", len(data))
				return nil
			}

			img := frame.Image
			if s.overlay != nil {
				img = s.overlay.Stamp(img, frame.TimestampMs)
			}
			if err := s.encoder.EncodeFrame(img, frame.TimestampMs); err != nil {
				return fmt.Errorf("%w: frame at tick %d: %v", ports.ErrEncoder, frame.Tick, err)
			}
			if s.sink.Enabled() {
				s.sink.SaveResampledFrame(frame.Tick, img)
			}
			s.mu.Lock()
			s.encoded++
			s.mu.Unlock()
		}
	}
}

// Finalize flushes the encoder and caches the container bytes. Safe to call
// after an aborted Run for best-effort partial output; the container is
// finalized from the frames already consumed, never left truncated.
func (s *Stage) Finalize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return s.video, nil
	}
	data, err := s.encoder.End()
	if err != nil {
		return nil, fmt.Errorf("%w: finalize: %v", ports.ErrEncoder, err)
	}
	s.video = data
	s.finalized = true
	return data, nil
}

// Video returns the finalized container bytes, or nil before Finalize.
func (s *Stage) Video() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

// Encoded returns the number of frames fed to the encoder.
func (s *Stage) Encoded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoded
}
