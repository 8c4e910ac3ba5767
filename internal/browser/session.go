// Package browser wraps playwright-go with the small surface the door
// automation needs: one managed Chromium instance, a page helper, and
// cookie-file session persistence.
package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

var (
	// Playwright instance (singleton)
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// getPlaywright returns the singleton Playwright instance.
func getPlaywright() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		// Install browsers if needed
		if err := playwright.Install(); err != nil {
			pwErr = fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}

		pw, err := playwright.Run()
		if err != nil {
			pwErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}
		pwInstance = pw
	})

	return pwInstance, pwErr
}

// LaunchOptions configures a browser session.
type LaunchOptions struct {
	// Headless runs Chromium without UI. The manual login flow sets this
	// false so the operator can interact with the portal.
	Headless bool
}

// Session owns a launched Chromium instance and its single context.
type Session struct {
	mu sync.Mutex

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	closed  bool
}

// Launch starts a Chromium instance with a fresh context.
func Launch(opts LaunchOptions) (*Session, error) {
	pw, err := getPlaywright()
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	context, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Session{
		pw:      pw,
		browser: browser,
		context: context,
	}, nil
}

// NewPage opens a page in the session's context.
func (s *Session) NewPage() (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}

	pwPage, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &Page{page: pwPage}, nil
}

// Context returns the underlying browser context (for cookie operations).
func (s *Session) Context() playwright.BrowserContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

// Connected reports whether the browser process is still alive.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.browser != nil && s.browser.IsConnected()
}

// Close shuts down the browser. The shared Playwright driver stays up so a
// later Launch doesn't pay the startup cost again.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}
