package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jberusch/pi-home-server/internal/db"
	"github.com/jberusch/pi-home-server/internal/db/migrations"
)

var eventsLimit int

// EventsCmd creates the events command (audit log tail)
func EventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent command events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents()
		},
	}
	cmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "number of events to show")
	return cmd
}

func runEvents() error {
	migrations.QuietMode = true

	store, err := db.NewSQLite(ServerConfig.Database.SQLitePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	events, err := store.ListEvents(context.Background(), eventsLimit)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		fmt.Println("No events recorded yet.")
		return nil
	}

	for _, ev := range events {
		line := fmt.Sprintf("%s  %-15s %-8s %s",
			ev.CreatedAt.Local().Format(time.DateTime),
			ev.Sender, ev.Command, ev.Outcome)
		if ev.Detail != "" {
			line += "  (" + ev.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}
