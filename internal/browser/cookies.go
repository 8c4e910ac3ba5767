package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/playwright-community/playwright-go"
	"github.com/zeromicro/go-zero/core/logx"
)

// Cookie is the persisted form of a browser cookie. The JSON field names
// match Playwright's storage format so a saved file round-trips cleanly.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // "Strict", "Lax", "None"
}

// CookieStore persists a browser context's cookies to a JSON file so the
// portal login survives restarts. The file is written with owner-only
// permissions since it holds live session credentials.
type CookieStore struct {
	path string
}

// NewCookieStore creates a store backed by the given file path.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// Path returns the backing file path.
func (s *CookieStore) Path() string {
	return s.path
}

// Exists reports whether a saved cookie file is present.
func (s *CookieStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save serializes the context's cookies to the backing file with 0600 perms.
func (s *CookieStore) Save(bctx playwright.BrowserContext) error {
	pwCookies, err := bctx.Cookies()
	if err != nil {
		return fmt.Errorf("get cookies failed: %w", err)
	}

	cookies := make([]Cookie, len(pwCookies))
	for i, c := range pwCookies {
		sameSite := ""
		if c.SameSite != nil {
			sameSite = string(*c.SameSite)
		}
		cookies[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
			SameSite: sameSite,
		}
	}

	if err := s.write(cookies); err != nil {
		return err
	}

	logx.Infof("cookies saved to %s", s.path)
	return nil
}

// write persists the cookies to the backing file, owner read/write only -
// the file is a bearer credential.
func (s *CookieStore) write(cookies []Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookies failed: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cookie directory failed: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file failed: %w", err)
	}
	// WriteFile perms only apply on create; tighten pre-existing files too.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("chmod cookie file failed: %w", err)
	}
	return nil
}

// Read returns the cookies stored in the backing file.
func (s *CookieStore) Read() ([]Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read cookie file failed: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie file failed: %w", err)
	}
	return cookies, nil
}

// Load restores saved cookies into the given browser context.
// Returns false (without error) when no cookie file exists yet.
func (s *CookieStore) Load(bctx playwright.BrowserContext) (bool, error) {
	if !s.Exists() {
		return false, nil
	}

	cookies, err := s.Read()
	if err != nil {
		return false, err
	}

	pwCookies := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		pwCookies = append(pwCookies, c.toPlaywright())
	}

	if err := bctx.AddCookies(pwCookies); err != nil {
		return false, fmt.Errorf("add cookies failed: %w", err)
	}

	logx.Infof("cookies loaded from %s", s.path)
	return true, nil
}

// Clear deletes the saved cookie file.
func (s *CookieStore) Clear() error {
	if !s.Exists() {
		return nil
	}
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("remove cookie file failed: %w", err)
	}
	return nil
}

// Watch invokes onChange whenever the backing file is rewritten, until the
// context is cancelled. Used to pick up a fresh login without a restart.
func (s *CookieStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}

	// Watch the directory, not the file: editors and our own Save replace
	// the file, which drops a direct file watch.
	dir := filepath.Dir(s.path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s failed: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					logx.Infof("cookie file changed, reloading session")
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logx.Errorf("cookie watcher error: %v", err)
			}
		}
	}()

	return nil
}

func (c Cookie) toPlaywright() playwright.OptionalCookie {
	var sameSite *playwright.SameSiteAttribute
	switch c.SameSite {
	case "Strict":
		sameSite = playwright.SameSiteAttributeStrict
	case "None":
		sameSite = playwright.SameSiteAttributeNone
	case "Lax", "":
		sameSite = playwright.SameSiteAttributeLax
	}

	pwCookie := playwright.OptionalCookie{
		Name:     c.Name,
		Value:    c.Value,
		SameSite: sameSite,
	}
	if c.Domain != "" {
		pwCookie.Domain = playwright.String(c.Domain)
	}
	if c.Path != "" {
		pwCookie.Path = playwright.String(c.Path)
	}
	if c.Expires > 0 {
		pwCookie.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		pwCookie.HttpOnly = playwright.Bool(c.HTTPOnly)
	}
	if c.Secure {
		pwCookie.Secure = playwright.Bool(c.Secure)
	}
	return pwCookie
}
