package mocks

import (
	"context"

	"github.com/user/vidcast/pkg/ports"
)

// BrowserLauncher is a mock implementation of ports.BrowserLauncher.
type BrowserLauncher struct {
	LaunchFunc          func(ctx context.Context, opts ports.LaunchOptions) error
	NavigateFunc        func(ctx context.Context, url string) error
	PageDebuggerURLFunc func(ctx context.Context) (string, error)
	CloseFunc           func() error
}

func (m *BrowserLauncher) Launch(ctx context.Context, opts ports.LaunchOptions) error {
	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, opts)
	}
	return nil
}

func (m *BrowserLauncher) Navigate(ctx context.Context, url string) error {
	if m.NavigateFunc != nil {
		return m.NavigateFunc(ctx, url)
	}
	return nil
}

func (m *BrowserLauncher) PageDebuggerURL(ctx context.Context) (string, error) {
	if m.PageDebuggerURLFunc != nil {
		return m.PageDebuggerURLFunc(ctx)
	}
	return "ws://127.0.0.1:9222/devtools/page/mock", nil
}

func (m *BrowserLauncher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.BrowserLauncher = (*BrowserLauncher)(nil)
