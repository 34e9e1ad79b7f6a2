// Package recorder coordinates the capture pipeline.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ideamans/go-l10n"

	"github.com/user/vidcast/pkg/pipeline"
	"github.com/user/vidcast/pkg/ports"
	"github.com/user/vidcast/pkg/stages/capture"
	"github.com/user/vidcast/pkg/stages/decode"
	"github.com/user/vidcast/pkg/stages/encode"
	"github.com/user/vidcast/pkg/stages/resample"
)

// Config contains all configuration for one capture run. The connection is
// assumed established and the target page loaded; browser lifecycle and
// navigation belong to the caller.
type Config struct {
	// Output
	OutputPath string
	Width      int
	Height     int
	FPS        float64

	// Recording
	DurationMs int // 0 = record until the context is cancelled
	Quality    int // Screencast JPEG quality (0-100)

	// Decoding
	DropThreshold  float64 // Fatal dropped-frame fraction (default 0.10)
	DropMinSamples int     // Frames received before the threshold applies

	// Resampling
	MinPartialTick float64 // Trailing partial tick threshold (default 0.5)

	// Encoding
	VideoCRF int
	Bitrate  int

	// Failure policy: keep a best-effort playable file on abort instead of
	// discarding partial output.
	KeepPartial bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Width:          800,
		Height:         600,
		FPS:            30.0,
		DurationMs:     10000,
		Quality:        80,
		DropThreshold:  decode.DefaultDropThreshold,
		MinPartialTick: resample.DefaultMinPartialTick,
		VideoCRF:       25,
		Bitrate:        2000,
	}
}

// RunResult summarizes a completed capture run.
type RunResult struct {
	OutputPath     string  `json:"output_path"`
	ReceivedFrames int     `json:"received_frames"`
	DroppedFrames  int     `json:"dropped_frames"`
	EncodedFrames  int     `json:"encoded_frames"`
	DurationMs     int     `json:"duration_ms"`
	FPS            float64 `json:"fps"`
	FileSize       int64   `json:"file_size"`
	Partial        bool    `json:"partial,omitempty"`
}

// Recorder wires the capture, decode, resample and encode stages with
// bounded queues and runs them as a staged pipeline.
type Recorder struct {
	client      ports.DebugClient
	decoder     ports.FrameDecoder
	encoder     ports.VideoEncoder
	overlay     ports.Overlay // optional
	placeholder resample.Placeholder
	fs          ports.FileSystem
	sink        ports.DebugSink
	logger      ports.Logger
}

// New creates a new Recorder. overlay may be nil.
func New(
	client ports.DebugClient,
	decoder ports.FrameDecoder,
	encoder ports.VideoEncoder,
	overlay ports.Overlay,
	placeholder resample.Placeholder,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Recorder {
	return &Recorder{
		client:      client,
		decoder:     decoder,
		encoder:     encoder,
		overlay:     overlay,
		placeholder: placeholder,
		fs:          fs,
		sink:        sink,
		logger:      logger,
	}
}

// Run executes one capture session and writes the output container. On
// failure the returned error wraps one of the ports taxonomy sentinels;
// with KeepPartial a best-effort playable file may still be written.
func (r *Recorder) Run(ctx context.Context, cfg Config) (RunResult, error) {
	result := RunResult{OutputPath: cfg.OutputPath, FPS: cfg.FPS}
	dims := pipeline.Dimension{Width: cfg.Width, Height: cfg.Height}

	captureStage := capture.New(r.client, r.sink, r.logger, capture.Options{
		Quality:    cfg.Quality,
		MaxWidth:   cfg.Width,
		MaxHeight:  cfg.Height,
		DurationMs: cfg.DurationMs,
	})
	decodeStage := decode.New(r.decoder, r.logger, decode.Options{
		DropThreshold: cfg.DropThreshold,
		MinSamples:    cfg.DropMinSamples,
	})
	resampleStage := resample.New(r.placeholder, r.logger, resample.Options{
		FPS:            cfg.FPS,
		Dimensions:     dims,
		MinPartialTick: cfg.MinPartialTick,
	})
	encodeStage := encode.New(r.encoder, r.overlay, r.sink, r.logger, encode.Options{
		Dimensions: dims,
		FPS:        cfg.FPS,
		Quality:    cfg.VideoCRF,
		Bitrate:    cfg.Bitrate,
	})

	rawCh := make(chan pipeline.RawFrame, pipeline.RawQueueDepth)
	decodedCh := make(chan pipeline.DecodedFrame, pipeline.DecodedQueueDepth)
	resampledCh := make(chan pipeline.ResampledFrame, pipeline.ResampledQueueDepth)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.logger.Info(l10n.T("Starting capture pipeline"))

	errCh := make(chan error, 4)
	go func() { errCh <- captureStage.Run(runCtx, rawCh) }()
	go func() { errCh <- decodeStage.Run(runCtx, rawCh, decodedCh) }()
	go func() { errCh <- resampleStage.Run(runCtx, decodedCh, resampledCh, captureStage.Stopped()) }()
	go func() { errCh <- encodeStage.Run(runCtx, resampledCh) }()

	// The first stage failure cancels the rest; cancellation is cooperative
	// so the session still sends its stop command and stages drain.
	var runErr error
	for i := 0; i < 4; i++ {
		err := <-errCh
		if err == nil {
			continue
		}
		if runErr == nil || isContextErr(runErr) && !isContextErr(err) {
			runErr = err
		}
		cancel()
	}

	result.ReceivedFrames = captureStage.Received()
	result.DroppedFrames = decodeStage.Dropped()
	result.EncodedFrames = encodeStage.Encoded()
	result.DurationMs = captureStage.StopMs()

	if runErr != nil {
		r.logger.Error(l10n.F("Capture failed: %s", runErr))
		if cfg.KeepPartial && encodeStage.Encoded() > 0 {
			if data, err := encodeStage.Finalize(); err == nil {
				if werr := r.writeOutput(cfg.OutputPath, data, &result); werr == nil {
					result.Partial = true
					r.logger.Warn(l10n.F("Partial output saved to %s (%d frames)", cfg.OutputPath, result.EncodedFrames))
				}
			}
		}
		return result, runErr
	}

	if err := r.writeOutput(cfg.OutputPath, encodeStage.Video(), &result); err != nil {
		return result, err
	}

	if r.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			r.sink.SaveRecordingJSON(data)
		}
	}

	r.logger.Info(l10n.F("Output saved to %s", cfg.OutputPath))
	r.logger.Info(l10n.F("Captured %d frames, encoded %d ticks in %d ms",
		result.ReceivedFrames, result.EncodedFrames, result.DurationMs))
	return result, nil
}

// writeOutput persists the finalized container. The encoder hands over
// complete container bytes, so the file appears on disk only once it is
// playable.
func (r *Recorder) writeOutput(path string, data []byte, result *RunResult) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: no container data", ports.ErrEncoder)
	}
	if err := r.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ports.ErrWrite, path, err)
	}
	result.FileSize = int64(len(data))
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
