// Package h264encoder provides H.264 video encoding via an ffmpeg
// subprocess, muxed into a fragmented MP4 in process.
//
// Raw RGBA frames are streamed to ffmpeg stdin; the Annex B elementary
// stream comes back on stdout with access unit delimiters inserted, so
// sample boundaries are unambiguous when the stream is muxed at End.
package h264encoder

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/vidcast/pkg/ports"
)

// encodedFrame is a single H.264 access unit.
type encodedFrame struct {
	data       []byte
	isKeyframe bool
}

// Encoder implements ports.VideoEncoder using ffmpeg + libx264.
type Encoder struct {
	mu sync.Mutex

	width   int
	height  int
	fps     float64
	options ports.EncoderOptions

	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	readerDone chan struct{}
	frameCount int
	closed     bool
}

// New creates a new H.264 encoder.
func New() *Encoder {
	return &Encoder{}
}

// customFFmpegPath overrides ffmpeg discovery when set via SetFFmpegPath.
var customFFmpegPath string

// SetFFmpegPath sets a custom ffmpeg binary path for all encoders.
func SetFFmpegPath(path string) {
	customFFmpegPath = path
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: SetFFmpegPath, FFMPEG_PATH env, PATH, common locations.
func FindFFmpeg() (string, error) {
	if customFFmpegPath != "" {
		if _, err := os.Stat(customFFmpegPath); err == nil {
			return customFFmpegPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customFFmpegPath)
	}
	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// Begin initializes the encoder and starts the ffmpeg process.
func (e *Encoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return err
	}

	e.width = width
	e.height = height
	e.fps = fps
	e.options = opts
	e.stdout.Reset()
	e.stderr.Reset()
	e.frameCount = 0
	e.closed = false

	args := []string{
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%.3f", fps),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
	}

	// Convert our 0-63 scale to x264's CRF (0-51)
	crf := 23
	if opts.Quality > 0 && opts.Quality <= 63 {
		crf = opts.Quality * 51 / 63
	}
	args = append(args, "-crf", fmt.Sprintf("%d", crf))

	if opts.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", opts.Bitrate))
	}

	// Baseline profile avoids B-frame reordering: output order equals
	// input order. AUDs mark access unit boundaries for the muxer.
	args = append(args,
		"-profile:v", "baseline",
		"-level", "3.1",
		"-bsf:v", "h264_metadata=aud=insert",
		"-f", "h264",
		"pipe:1",
	)

	e.cmd = exec.Command(ffmpegPath, args...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	e.stdin = stdin
	e.readerDone = make(chan struct{})
	go func() {
		defer close(e.readerDone)
		io.Copy(&e.stdout, stdout)
	}()

	return nil
}

// EncodeFrame streams a single frame to the encoder.
func (e *Encoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return ErrNotInitialized
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Dx() != e.width || rgba.Bounds().Dy() != e.height {
		converted := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
		draw.Draw(converted, converted.Bounds(), img, img.Bounds().Min, draw.Src)
		rgba = converted
	}

	if _, err := e.stdin.Write(rgba.Pix); err != nil {
		return fmt.Errorf("write frame: %w (ffmpeg: %s)", err, e.stderr.String())
	}
	e.frameCount++
	return nil
}

// End finalizes encoding and returns the MP4 container bytes.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return nil, ErrNotInitialized
	}

	e.stdin.Close()
	e.stdin = nil
	e.closed = true

	<-e.readerDone
	if err := e.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w\nstderr: %s", err, e.stderr.String())
	}

	frames := splitAccessUnits(e.stdout.Bytes())
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return e.buildMP4(frames)
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
