// Package status implements the read-only inspection command.
package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talentbridge/crmsync/config"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/dbschema"
	"github.com/talentbridge/crmsync/etl"
	"github.com/talentbridge/crmsync/load"
	"github.com/talentbridge/crmsync/migration/migrator"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending schema changes and recent sync runs",
	RunE:  runStatus,
}

// NewStatusCommand returns the status command.
func NewStatusCommand() *cobra.Command {
	return statusCmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	registry := schema.DefaultRegistry()
	if cfg.OverridesFile != "" {
		overrides, err := schema.LoadOverrides(cfg.OverridesFile)
		if err != nil {
			return err
		}
		if registry, err = registry.Apply(overrides); err != nil {
			return err
		}
	}

	conn, err := dbschema.ConnectToDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	mig, err := migrator.NewMigrator(conn)
	if err != nil {
		return err
	}

	fmt.Println("Schema:")
	for _, entity := range registry.Entities() {
		statements, err := mig.Plan(ctx, entity)
		if err != nil {
			fmt.Printf("  %s: error: %v\n", entity.Name, err)
			continue
		}
		if len(statements) == 0 {
			fmt.Printf("  %s: up to date\n", entity.Name)
			continue
		}
		fmt.Printf("  %s: %d pending statement(s)\n", entity.Name, len(statements))
		for _, stmt := range statements {
			fmt.Printf("    %s\n", stmt)
		}
	}

	tracker := etl.NewTracker(conn, load.NewLoader(conn))
	runs, err := tracker.LastRuns(ctx)
	if err != nil {
		// The bookkeeping table does not exist before the first sync.
		fmt.Println("\nSync runs: none recorded")
		return nil
	}

	fmt.Println("\nSync runs:")
	if len(runs) == 0 {
		fmt.Println("  none recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("  %-12s %s  %d records\n",
			run.Entity, run.LastSyncedAt.Format("2006-01-02 15:04:05"), run.RecordsSynced)
	}
	return nil
}
