package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talentbridge/crmsync/cmd/migrate"
	"github.com/talentbridge/crmsync/cmd/status"
	"github.com/talentbridge/crmsync/cmd/sync"
)

var rootCmd = &cobra.Command{
	Use:   "crmsync",
	Short: "Sync CRM accounts, contacts and internship roles into a relational database",
	Long: `crmsync is a batch ETL job that pulls records from the CRM's REST API,
reconciles the declared schema against the live database (additive only),
and upserts rows keyed on the CRM record id.

Entities are processed in dependency order (accounts, contacts, intern
roles) so reference columns always point at rows that already exist.`,
	SilenceUsage: true,
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	rootCmd.AddCommand(sync.NewSyncCommand())
	rootCmd.AddCommand(migrate.NewMigrateCommand())
	rootCmd.AddCommand(status.NewStatusCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
