package ports

import (
	"context"
)

// LaunchOptions configures the browser collaborator.
type LaunchOptions struct {
	Headless          bool
	ChromePath        string
	UserAgent         string
	WindowWidth       int    // Initial window width (controls capture dimensions)
	WindowHeight      int    // Initial window height
	DebuggingPort     int    // DevTools HTTP/websocket port (0 = pick a free port)
	IgnoreHTTPSErrors bool   // Ignore HTTPS certificate errors
	ProxyServer       string // HTTP proxy server (e.g., "http://proxy:8080")
}

// BrowserLauncher manages the browser process that serves the debug
// endpoint. The capture core never talks to it directly: it only needs the
// page-target websocket URL once the target page is loaded.
type BrowserLauncher interface {
	// Launch starts the browser with the given options.
	Launch(ctx context.Context, opts LaunchOptions) error

	// Navigate loads the target page and waits for navigation to settle.
	Navigate(ctx context.Context, url string) error

	// PageDebuggerURL returns the websocket debugger URL of the page target.
	PageDebuggerURL(ctx context.Context) (string, error)

	// Close shuts down the browser.
	Close() error
}
