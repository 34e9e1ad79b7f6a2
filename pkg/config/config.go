// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/vidcast/pkg/ports"
	"github.com/user/vidcast/pkg/recorder"
)

// Config represents the full configuration for vidcast.
type Config struct {
	// Input/Output
	URL        string `yaml:"url"`
	OutputPath string `yaml:"output"`

	// Video
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
	Codec  string  `yaml:"codec"` // auto, h264, mjpeg

	// Recording
	DurationMs int    `yaml:"duration_ms"`
	Quality    int    `yaml:"quality"` // Screencast JPEG quality (0-100)
	UserAgent  string `yaml:"user_agent"`
	Headless   bool   `yaml:"headless"`
	ChromePath string `yaml:"chrome_path"`
	DebugPort  int    `yaml:"debug_port"` // 0 = pick a free port

	// Failure policy
	DropThreshold  float64 `yaml:"drop_threshold"`
	DropMinSamples int     `yaml:"drop_min_samples"`
	KeepPartial    bool    `yaml:"keep_partial"`

	// Resampling
	MinPartialTick float64 `yaml:"min_partial_tick"`

	// Encoding
	VideoCRF int `yaml:"video_crf"`
	Bitrate  int `yaml:"bitrate"`

	// Rendering
	OverlayTimecode bool `yaml:"overlay_timecode"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	rec := recorder.DefaultConfig()
	return Config{
		Width:          rec.Width,
		Height:         rec.Height,
		FPS:            rec.FPS,
		Codec:          "auto",
		DurationMs:     rec.DurationMs,
		Quality:        rec.Quality,
		Headless:       true,
		DropThreshold:  rec.DropThreshold,
		MinPartialTick: rec.MinPartialTick,
		VideoCRF:       rec.VideoCRF,
		Bitrate:        rec.Bitrate,
		DebugDir:       "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %g", c.FPS)
	}
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("quality must be 0-100, got %d", c.Quality)
	}
	if c.DropThreshold < 0 || c.DropThreshold > 1 {
		return fmt.Errorf("drop_threshold must be 0-1, got %g", c.DropThreshold)
	}
	switch c.Codec {
	case "", "auto", "h264", "mjpeg":
	default:
		return fmt.Errorf("unknown codec %q", c.Codec)
	}
	return nil
}

// ResolveOutputPath returns the output path, deriving a default from the
// target URL's host when none is set.
func (c Config) ResolveOutputPath() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Hostname() == "" {
		return "output.mp4"
	}
	host := strings.ReplaceAll(u.Hostname(), ":", "_")
	return host + ".mp4"
}

// ToRecorderConfig converts Config to recorder.Config.
func (c Config) ToRecorderConfig() recorder.Config {
	return recorder.Config{
		OutputPath:     c.ResolveOutputPath(),
		Width:          c.Width,
		Height:         c.Height,
		FPS:            c.FPS,
		DurationMs:     c.DurationMs,
		Quality:        c.Quality,
		DropThreshold:  c.DropThreshold,
		DropMinSamples: c.DropMinSamples,
		MinPartialTick: c.MinPartialTick,
		VideoCRF:       c.VideoCRF,
		Bitrate:        c.Bitrate,
		KeepPartial:    c.KeepPartial,
	}
}

// ToLaunchOptions converts Config to browser launch options.
func (c Config) ToLaunchOptions() ports.LaunchOptions {
	return ports.LaunchOptions{
		Headless:      c.Headless,
		ChromePath:    c.ChromePath,
		UserAgent:     c.UserAgent,
		WindowWidth:   c.Width,
		WindowHeight:  c.Height,
		DebuggingPort: c.DebugPort,
	}
}
