// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/user/vidcast/pkg/ports"
)

// Sink saves intermediate pipeline results to files under a base directory.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new file sink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{baseDir: baseDir, fs: fs}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveRawFrame saves a received screencast payload as delivered (JPEG).
func (s *Sink) SaveRawFrame(index int, data []byte) error {
	path := filepath.Join(s.baseDir, "raw", fmt.Sprintf("frame_%04d.jpg", index))
	return s.fs.WriteFile(path, data)
}

// SaveResampledFrame saves a constant-rate output frame as PNG.
func (s *Sink) SaveResampledFrame(tick int, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode tick %d: %w", tick, err)
	}
	path := filepath.Join(s.baseDir, "resampled", fmt.Sprintf("tick_%04d.png", tick))
	return s.fs.WriteFile(path, buf.Bytes())
}

// SaveRecordingJSON saves the run summary.
func (s *Sink) SaveRecordingJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "recording.json")
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
