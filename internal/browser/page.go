package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page wraps a playwright page with the handful of actions the door flow uses.
type Page struct {
	page playwright.Page
}

// NavigateOptions configures navigation.
type NavigateOptions struct {
	URL     string
	Timeout time.Duration
}

// Navigate goes to a URL and waits for the load event.
func (p *Page) Navigate(opts NavigateOptions) error {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	_, err := p.page.Goto(opts.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForNetworkIdle waits until the page has no in-flight requests.
func (p *Page) WaitForNetworkIdle(timeout time.Duration) error {
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for network idle failed: %w", err)
	}
	return nil
}

// URL returns the page's current URL.
func (p *Page) URL() string {
	return p.page.URL()
}

// Title returns the page's title.
func (p *Page) Title() (string, error) {
	return p.page.Title()
}

// CountText returns how many elements contain the given text
// (case-insensitive substring match, like Playwright's non-exact GetByText).
func (p *Page) CountText(text string) (int, error) {
	locator := p.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(false),
	})
	count, err := locator.Count()
	if err != nil {
		return 0, fmt.Errorf("count text failed: %w", err)
	}
	return count, nil
}

// ClickText clicks the first element containing the given text.
func (p *Page) ClickText(text string, timeout time.Duration) error {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	locator := p.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(false),
	})
	err := locator.First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Settle waits the given duration for in-page effects to complete.
func (p *Page) Settle(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

// Close closes the page.
func (p *Page) Close() error {
	return p.page.Close()
}
