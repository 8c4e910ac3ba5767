package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jberusch/pi-home-server/internal/browser"
)

// LoginCmd creates the login command (manual portal authentication)
func LoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate on the portal and save the session",
		Long: `Open a visible browser on the access portal so you can log in by hand.
Once you reach the page with the door button, the session cookies are saved
for the webhook server to reuse.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin()
		},
	}
	cmd.Flags().BoolVar(&headed, "headed", true, "show the browser window")
	return cmd
}

func runLogin() error {
	c := ServerConfig
	if c.Portal.URL == "" {
		return fmt.Errorf("AVIGILON_URL is not set")
	}
	if c.Portal.DoorButtonText == "" {
		return fmt.Errorf("DOOR_BUTTON_TEXT is not set")
	}

	session, err := browser.Launch(browser.LaunchOptions{Headless: !headed})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}

	fmt.Printf("Opening %s\n", c.Portal.URL)
	if err := page.Navigate(browser.NavigateOptions{
		URL:     c.Portal.URL,
		Timeout: 60 * time.Second,
	}); err != nil {
		return fmt.Errorf("navigate to portal: %w", err)
	}

	fmt.Println()
	fmt.Println("Log in to the portal in the browser window.")
	fmt.Printf("When you can see the %q button, press ENTER here to save the session.\n", c.Portal.DoorButtonText)
	reader := bufio.NewReader(os.Stdin)
	if _, err := reader.ReadString('\n'); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	// Sanity check: the saved session should actually land on the door page.
	count, err := page.CountText(c.Portal.DoorButtonText)
	if err != nil {
		fmt.Printf("Warning: could not verify door button: %v\n", err)
	}
	if count == 0 {
		fmt.Printf("Warning: %q not found on the current page (%s).\n", c.Portal.DoorButtonText, page.URL())
		fmt.Print("Save cookies anyway? (y/n): ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			return fmt.Errorf("login aborted, cookies not saved")
		}
	}

	store := browser.NewCookieStore(c.Session.CookiesFile)
	if err := store.Save(session.Context()); err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}

	fmt.Printf("Session saved to %s\n", store.Path())
	fmt.Println("The webhook server will pick it up automatically.")
	return nil
}
