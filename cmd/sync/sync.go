// Package sync implements the full pipeline command.
package sync

import (
	"fmt"
	"net/http"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/talentbridge/crmsync/attach"
	"github.com/talentbridge/crmsync/blob"
	"github.com/talentbridge/crmsync/config"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/crm"
	"github.com/talentbridge/crmsync/dbschema"
	"github.com/talentbridge/crmsync/etl"
	"github.com/talentbridge/crmsync/load"
	"github.com/talentbridge/crmsync/migration/migrator"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full sync pipeline",
	Long: `Run the full pipeline: acquire a token, then per entity in dependency
order reconcile the table schema, extract all pages and upsert the records.

A failing entity is logged and skipped; the run only aborts when the token
cannot be acquired. Partial success exits 0 with failures in the log.`,
	RunE: runSync,
}

const attachmentsFlag = "attachments"

var syncFlags = map[string]cobraflags.Flag{
	attachmentsFlag: &cobraflags.BoolFlag{
		Name:  attachmentsFlag,
		Value: false,
		Usage: "Also download contact CV attachments into the blob store",
	},
}

// NewSyncCommand returns the sync command.
func NewSyncCommand() *cobra.Command {
	cobraflags.RegisterMap(syncCmd, syncFlags)
	return syncCmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	conn, err := dbschema.ConnectToDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	httpClient := &http.Client{Timeout: cfg.CRM.HTTPTimeout}
	tokens := crm.NewTokenSource(crm.TokenConfig{
		TokenURL:     cfg.CRM.TokenURL,
		ClientID:     cfg.CRM.ClientID,
		ClientSecret: cfg.CRM.ClientSecret,
		RefreshToken: cfg.CRM.RefreshToken,
	}, httpClient)
	client := crm.NewClient(cfg.CRM.BaseURL, tokens,
		crm.WithHTTPClient(httpClient),
		crm.WithPageSize(cfg.CRM.PageSize),
		crm.WithMaxAttempts(cfg.CRM.MaxAttempts),
	)

	mig, err := migrator.NewMigrator(conn)
	if err != nil {
		return err
	}
	loader := load.NewLoader(conn, load.WithBatchSize(cfg.BatchSize))
	tracker := etl.NewTracker(conn, loader)

	var options []etl.PipelineOption
	if cfg.Attachments.Enabled || syncFlags[attachmentsFlag].GetBool() {
		store, err := blob.Open(ctx, cfg.Attachments.Blob)
		if err != nil {
			return fmt.Errorf("failed to open blob store: %w", err)
		}
		options = append(options, etl.WithAttachments(attach.NewManager(client, store, loader)))
	}

	pipeline := etl.NewPipeline(registry, tokens, client, mig, loader, tracker, options...)
	summary, err := pipeline.Run(ctx)
	if summary != nil {
		fmt.Print(summary.String())
	}
	return err
}

func buildRegistry(cfg *config.Config) (*schema.Registry, error) {
	registry := schema.DefaultRegistry()
	if cfg.OverridesFile == "" {
		return registry, nil
	}
	overrides, err := schema.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		return nil, err
	}
	return registry.Apply(overrides)
}
