package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jberusch/pi-home-server/internal/browser"
	"github.com/jberusch/pi-home-server/internal/door"
)

// DoorCmd creates the door command (one-shot open from the terminal)
func DoorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "door",
		Short: "Open the door once from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoor()
		},
	}
}

func runDoor() error {
	c := ServerConfig
	if err := c.Validate(); err != nil {
		return err
	}

	cookies := browser.NewCookieStore(c.Session.CookiesFile)
	opener := door.NewOpener(door.Config{
		PortalURL:  c.Portal.URL,
		ButtonText: c.Portal.DoorButtonText,
		Headless:   c.IsHeadless(),
	}, cookies)
	defer opener.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	openedAt, err := opener.OpenDoor(ctx)
	switch {
	case err == nil:
		fmt.Printf("Door opened at %s\n", openedAt.Format("3:04PM"))
		return nil
	case errors.Is(err, door.ErrSessionExpired):
		return fmt.Errorf("session expired, run 'pihome login' to re-authenticate")
	default:
		return fmt.Errorf("open door: %w", err)
	}
}
