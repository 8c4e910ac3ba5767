package cli

import (
	"github.com/spf13/cobra"

	"github.com/jberusch/pi-home-server/internal/config"
)

// Shared CLI flags (used across multiple command files)
var (
	verbose bool
	headed  bool
)

// ServerConfig holds the loaded server configuration (set by main)
var ServerConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "pihome",
		Short: "pihome - SMS door opener",
		Long: `pihome runs the SMS-controlled door opener: authorized numbers text
'door' and a headless browser clicks the open button on the access portal.

Just type 'pihome' to start the webhook server.
Run 'pihome login' first to authenticate and save a browser session.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(LoginCmd())
	rootCmd.AddCommand(DoorCmd())
	rootCmd.AddCommand(StatusCmd())
	rootCmd.AddCommand(EventsCmd())

	return rootCmd
}
