package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jberusch/pi-home-server/internal/browser"
	"github.com/jberusch/pi-home-server/internal/door"
)

var probeSession bool

// StatusCmd creates the status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
	cmd.Flags().BoolVar(&probeSession, "probe", false, "open the portal to verify the session is still valid")
	return cmd
}

func runStatus() error {
	c := ServerConfig

	cookies := browser.NewCookieStore(c.Session.CookiesFile)
	if !cookies.Exists() {
		fmt.Println("No session found. Run 'pihome login' to authenticate.")
		return nil
	}
	fmt.Printf("Session file: %s\n", cookies.Path())

	if !probeSession {
		fmt.Println("Session saved. Use --probe to verify it against the portal.")
		return nil
	}

	opener := door.NewOpener(door.Config{
		PortalURL:  c.Portal.URL,
		ButtonText: c.Portal.DoorButtonText,
		Headless:   c.IsHeadless(),
	}, cookies)
	defer opener.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	valid, err := opener.CheckSession(ctx)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if valid {
		fmt.Println("Session active.")
	} else {
		fmt.Println("Session expired. Run 'pihome login' to re-authenticate.")
	}
	return nil
}
