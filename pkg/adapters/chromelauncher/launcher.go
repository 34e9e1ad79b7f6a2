// Package chromelauncher manages the Chrome process serving the debug
// endpoint, using chromedp for process lifecycle and navigation.
package chromelauncher

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/user/vidcast/pkg/ports"
)

// Launcher implements ports.BrowserLauncher using chromedp.
type Launcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	port int
}

// New creates a new Launcher.
func New() *Launcher {
	return &Launcher{}
}

// Launch starts Chrome with a fixed remote debugging port so the capture
// core can attach its own protocol connection to the page target.
func (l *Launcher) Launch(ctx context.Context, opts ports.LaunchOptions) error {
	port := opts.DebuggingPort
	if port == 0 {
		p, err := freePort()
		if err != nil {
			return fmt.Errorf("pick debugging port: %w", err)
		}
		port = p
	}
	l.port = port

	chromedpOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(port)),
		chromedp.Flag("remote-debugging-address", "127.0.0.1"),
	}

	if opts.Headless {
		// New headless mode for better rendering compatibility
		chromedpOpts = append(chromedpOpts, chromedp.Flag("headless", "new"))
	}

	chromePath := ResolveChromePath(opts.ChromePath)
	if chromePath == "" {
		return fmt.Errorf("chrome not found: install Chrome/Chromium, set CHROME_PATH, or use --chrome-path")
	}
	chromedpOpts = append(chromedpOpts, chromedp.ExecPath(chromePath))

	if opts.UserAgent != "" {
		chromedpOpts = append(chromedpOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		chromedpOpts = append(chromedpOpts,
			chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
			chromedp.Flag("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight)))
	}

	if opts.IgnoreHTTPSErrors {
		chromedpOpts = append(chromedpOpts,
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.Flag("allow-insecure-localhost", true))
	}

	if opts.ProxyServer != "" {
		chromedpOpts = append(chromedpOpts, chromedp.Flag("proxy-server", opts.ProxyServer))
	}

	// Flags for CI/container execution
	chromedpOpts = append(chromedpOpts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
	)

	l.allocCtx, l.allocCancel = chromedp.NewExecAllocator(ctx, chromedpOpts...)
	l.ctx, l.cancel = chromedp.NewContext(l.allocCtx)

	// Force the browser process to start so the debugging endpoint is up.
	if err := chromedp.Run(l.ctx); err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}
	return nil
}

// Navigate loads the target page and waits for navigation to settle.
func (l *Launcher) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(l.ctx, 60*time.Second)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// PageDebuggerURL discovers the websocket debugger URL of the page target
// through the DevTools discovery endpoint.
func (l *Launcher) PageDebuggerURL(ctx context.Context) (string, error) {
	listURL := fmt.Sprintf("http://127.0.0.1:%d/json/list", l.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("devtools discovery: %w", err)
	}
	defer resp.Body.Close()

	var targets []struct {
		Type                 string `json:"type"`
		URL                  string `json:"url"`
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("devtools discovery: %w", err)
	}

	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", fmt.Errorf("no page target found at %s", listURL)
}

// Close shuts down the browser.
func (l *Launcher) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	// Give Chrome a moment to shut down gracefully before the allocator
	// force-kills the process.
	time.Sleep(100 * time.Millisecond)
	if l.allocCancel != nil {
		l.allocCancel()
	}
	return nil
}

// freePort asks the kernel for an unused TCP port.
func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Ensure Launcher implements ports.BrowserLauncher
var _ ports.BrowserLauncher = (*Launcher)(nil)
