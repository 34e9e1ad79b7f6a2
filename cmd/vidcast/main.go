// Package main provides the CLI entry point for vidcast.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vidcast/pkg/adapters/cdpclient"
	"github.com/user/vidcast/pkg/adapters/chromelauncher"
	"github.com/user/vidcast/pkg/adapters/filesink"
	"github.com/user/vidcast/pkg/adapters/ggoverlay"
	"github.com/user/vidcast/pkg/adapters/jpegdecoder"
	"github.com/user/vidcast/pkg/adapters/logger"
	"github.com/user/vidcast/pkg/adapters/nullsink"
	"github.com/user/vidcast/pkg/adapters/osfilesystem"
	"github.com/user/vidcast/pkg/adapters/smartencoder"
	"github.com/user/vidcast/pkg/config"
	"github.com/user/vidcast/pkg/ports"
	"github.com/user/vidcast/pkg/recorder"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "vidcast",
		Usage:   "Capture a live browser screencast as a constant-frame-rate MP4",
		Version: version,
		Commands: []*cli.Command{
			recordCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "vidcast: %v\n", err)
		os.Exit(1)
	}
}

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:      "record",
		Usage:     "Record a page as MP4 video",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output MP4 file path (default: <host>.mp4)"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: "Output video width"},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: "Output video height"},
			&cli.Float64Flag{Name: "fps", Usage: "Constant output frame rate"},
			&cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Recording duration in milliseconds"},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: "Screencast JPEG quality (0-100)"},
			&cli.IntFlag{Name: "crf", Usage: "Video quality (CRF 0-63, lower is better)"},
			&cli.StringFlag{Name: "codec", Usage: "Video codec (auto, h264, mjpeg)"},
			&cli.BoolFlag{Name: "keep-partial", Usage: "Keep a best-effort playable file on failure"},
			&cli.BoolFlag{Name: "overlay-timecode", Usage: "Stamp a timecode badge on each output frame"},
			&cli.BoolFlag{Name: "no-headless", Usage: "Run browser in non-headless mode"},
			&cli.StringFlag{Name: "chrome-path", Usage: "Path to Chrome executable (falls back to CHROME_PATH env, then system default)"},
			&cli.IntFlag{Name: "debug-port", Usage: "DevTools debugging port (0 = pick a free port)"},
			&cli.BoolFlag{Name: "debug", Usage: "Save intermediate frames and run summary"},
			&cli.StringFlag{Name: "debug-dir", Usage: "Directory for debug output"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "Log level (debug, info, warn, error)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: "Suppress all log output"},
		},
		Action: runRecord,
	}
}

func runRecord(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one URL argument")
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Info(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()

	return record(ctx, cfg, log)
}

// buildConfig layers CLI flags over the config file over the defaults.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	cfg.URL = c.Args().First()
	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("duration") {
		cfg.DurationMs = c.Int("duration")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("crf") {
		cfg.VideoCRF = c.Int("crf")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("keep-partial") {
		cfg.KeepPartial = c.Bool("keep-partial")
	}
	if c.IsSet("overlay-timecode") {
		cfg.OverlayTimecode = c.Bool("overlay-timecode")
	}
	if c.Bool("no-headless") {
		cfg.Headless = false
	}
	if c.IsSet("chrome-path") {
		cfg.ChromePath = c.String("chrome-path")
	}
	if c.IsSet("debug-port") {
		cfg.DebugPort = c.Int("debug-port")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	return cfg, nil
}

// record launches the browser, connects the debug client and runs one
// capture session end to end.
func record(ctx context.Context, cfg config.Config, log ports.Logger) error {
	encoder, encInfo, err := smartencoder.New(smartencoder.Codec(cfg.Codec), smartencoder.Options{})
	if err != nil {
		return err
	}
	log.Debug(l10n.F("Using %s encoder", string(encInfo.Codec)))

	launcher := chromelauncher.New()
	if err := launcher.Launch(ctx, cfg.ToLaunchOptions()); err != nil {
		log.Error(l10n.F("Failed to launch browser: %s", err))
		return err
	}
	defer launcher.Close()

	if err := launcher.Navigate(ctx, cfg.URL); err != nil {
		log.Error(l10n.F("Failed to navigate: %s", err))
		return err
	}

	debuggerURL, err := launcher.PageDebuggerURL(ctx)
	if err != nil {
		return err
	}

	client, err := cdpclient.Dial(ctx, debuggerURL)
	if err != nil {
		return err
	}
	defer client.Close()

	fs := osfilesystem.New()
	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		sink = filesink.New(cfg.DebugDir, fs)
	}

	renderer := ggoverlay.New()
	var overlay ports.Overlay
	if cfg.OverlayTimecode {
		overlay = renderer
	}

	rec := recorder.New(
		client,
		jpegdecoder.New(cfg.Width, cfg.Height),
		encoder,
		overlay,
		renderer,
		fs,
		sink,
		log,
	)

	log.Info(l10n.F("Recording %s for %d ms...", cfg.URL, cfg.DurationMs))
	_, err = rec.Run(ctx, cfg.ToRecorderConfig())
	return err
}
