// Package migrate implements the schema-only reconciliation command.
package migrate

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/talentbridge/crmsync/config"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/dbschema"
	"github.com/talentbridge/crmsync/migration/migrator"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Reconcile database tables against the declared schema",
	Long: `Create missing tables and append missing columns for every declared
entity. Reconciliation is additive: nothing is ever dropped, renamed or
retyped. Running it twice with an unchanged schema performs no work.`,
	RunE: runMigrate,
}

const dryRunFlag = "dry-run"

var migrateFlags = map[string]cobraflags.Flag{
	dryRunFlag: &cobraflags.BoolFlag{
		Name:  dryRunFlag,
		Value: false,
		Usage: "Print the planned SQL without executing it",
	},
}

// NewMigrateCommand returns the migrate command.
func NewMigrateCommand() *cobra.Command {
	cobraflags.RegisterMap(migrateCmd, migrateFlags)
	return migrateCmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
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
	mig.SetDryRun(migrateFlags[dryRunFlag].GetBool())

	failed := 0
	for _, entity := range registry.Entities() {
		statements, err := mig.MigrateEntity(ctx, entity)
		if err != nil {
			fmt.Printf("%s: FAILED: %v\n", entity.Name, err)
			failed++
			continue
		}
		if len(statements) == 0 {
			fmt.Printf("%s: up to date\n", entity.Name)
			continue
		}
		for _, stmt := range statements {
			fmt.Printf("%s: %s\n", entity.Name, stmt)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d entities failed to migrate", failed, len(registry.Entities()))
	}
	return nil
}
