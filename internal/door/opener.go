// Package door drives the Avigilon access-control portal through a headless
// browser: restore the saved login session, find the configured door button
// by its text, and click it.
package door

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/jberusch/pi-home-server/internal/browser"
)

var (
	// ErrSessionExpired means the portal redirected to its login page;
	// the operator must run `pihome login` again.
	ErrSessionExpired = errors.New("session expired")

	// ErrButtonNotFound means the page loaded but the configured button
	// text was not present.
	ErrButtonNotFound = errors.New("door button not found")
)

// Status is a snapshot of the opener's state.
type Status struct {
	BrowserRunning bool
	SessionValid   bool
	CookiesExist   bool
	LastCheckedAt  time.Time
}

// Controller is the surface the SMS logic and HTTP handlers depend on.
// Opener implements it; tests substitute fakes.
type Controller interface {
	// OpenDoor clicks the door button and returns the time it was clicked.
	OpenDoor(ctx context.Context) (time.Time, error)
	// CheckSession probes the portal and reports whether the saved session
	// is still accepted.
	CheckSession(ctx context.Context) (bool, error)
	// Status returns the last known state without touching the network.
	Status() Status
}

// Config holds the portal coordinates for the opener.
type Config struct {
	PortalURL  string
	ButtonText string
	Headless   bool

	// NavigateTimeout bounds the portal page load. Default 15s.
	NavigateTimeout time.Duration
	// IdleTimeout bounds the post-load network-idle wait. Default 10s.
	IdleTimeout time.Duration
	// SettleDelay is how long to wait after clicking before declaring
	// success. Default 2s.
	SettleDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.NavigateTimeout == 0 {
		c.NavigateTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 10 * time.Second
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 2 * time.Second
	}
}

// Opener owns the single browser session shared by all door attempts.
type Opener struct {
	mu      sync.Mutex
	cfg     Config
	cookies *browser.CookieStore
	session *browser.Session

	lastValid   bool
	lastChecked time.Time
}

// NewOpener creates an opener. The browser is launched lazily on first use.
func NewOpener(cfg Config, cookies *browser.CookieStore) *Opener {
	cfg.applyDefaults()
	return &Opener{cfg: cfg, cookies: cookies}
}

// ensureSession launches the browser and loads the saved cookies if needed.
// Caller must hold o.mu.
func (o *Opener) ensureSession() (*browser.Session, error) {
	if o.session != nil && o.session.Connected() {
		return o.session, nil
	}

	if o.session != nil {
		// Browser process died; discard and relaunch.
		_ = o.session.Close()
		o.session = nil
	}

	logx.Info("starting browser")
	session, err := browser.Launch(browser.LaunchOptions{Headless: o.cfg.Headless})
	if err != nil {
		return nil, err
	}

	loaded, err := o.cookies.Load(session.Context())
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	if !loaded {
		logx.Info("no saved session found")
	}

	o.session = session
	return session, nil
}

// OpenDoor navigates to the portal and clicks the door button.
// Attempts are serialized: there is one browser and the portal is stateful.
func (o *Opener) OpenDoor(ctx context.Context) (time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	session, err := o.ensureSession()
	if err != nil {
		return time.Time{}, err
	}

	page, err := session.NewPage()
	if err != nil {
		return time.Time{}, err
	}
	defer page.Close()

	logx.Infof("navigating to %s", o.cfg.PortalURL)
	if err := page.Navigate(browser.NavigateOptions{
		URL:     o.cfg.PortalURL,
		Timeout: o.cfg.NavigateTimeout,
	}); err != nil {
		return time.Time{}, err
	}

	if isLoginRedirect(page.URL()) {
		o.markSession(false)
		logx.Error("session expired: redirected to login")
		return time.Time{}, ErrSessionExpired
	}

	if err := page.WaitForNetworkIdle(o.cfg.IdleTimeout); err != nil {
		// The page is loaded; a busy widget shouldn't abort the attempt.
		logx.Infof("network idle wait gave up: %v", err)
	}

	logx.Infof("looking for button with text: %s", o.cfg.ButtonText)
	count, err := page.CountText(o.cfg.ButtonText)
	if err != nil {
		return time.Time{}, err
	}
	if count == 0 {
		logx.Errorf("button %q not found on page", o.cfg.ButtonText)
		return time.Time{}, ErrButtonNotFound
	}

	if err := page.ClickText(o.cfg.ButtonText, o.cfg.NavigateTimeout); err != nil {
		return time.Time{}, fmt.Errorf("click door button: %w", err)
	}

	page.Settle(o.cfg.SettleDelay)
	o.markSession(true)

	clickedAt := time.Now()
	logx.Infof("door button clicked at %s", clickedAt.Format(time.RFC3339))
	return clickedAt, nil
}

// CheckSession probes the portal URL and reports whether the saved session
// still grants access (no redirect to a login page).
func (o *Opener) CheckSession(ctx context.Context) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	session, err := o.ensureSession()
	if err != nil {
		return false, err
	}

	page, err := session.NewPage()
	if err != nil {
		return false, err
	}
	defer page.Close()

	if err := page.Navigate(browser.NavigateOptions{
		URL:     o.cfg.PortalURL,
		Timeout: o.cfg.NavigateTimeout,
	}); err != nil {
		return false, err
	}

	valid := !isLoginRedirect(page.URL())
	o.markSession(valid)
	return valid, nil
}

// Status returns the last known state without a portal round-trip.
func (o *Opener) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Status{
		BrowserRunning: o.session != nil && o.session.Connected(),
		SessionValid:   o.lastValid,
		CookiesExist:   o.cookies.Exists(),
		LastCheckedAt:  o.lastChecked,
	}
}

// ReloadCookies drops the current browser session so the next attempt
// launches with the freshly saved cookie file. Called when the cookie file
// changes on disk (re-login while the server is running).
func (o *Opener) ReloadCookies() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		_ = o.session.Close()
		o.session = nil
	}
	o.lastValid = false
	o.lastChecked = time.Time{}
}

// Stop closes the browser.
func (o *Opener) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		_ = o.session.Close()
		o.session = nil
		logx.Info("browser closed")
	}
}

// markSession records the session validity. Caller must hold o.mu.
func (o *Opener) markSession(valid bool) {
	o.lastValid = valid
	o.lastChecked = time.Now()
}

// isLoginRedirect applies the heuristic from the portal's observed behavior:
// unauthenticated requests land on a URL containing "login" or "signin".
func isLoginRedirect(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "login") || strings.Contains(lower, "signin")
}
