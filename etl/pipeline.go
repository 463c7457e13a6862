// Package etl sequences the sync run: schema migration, extraction, and
// loading per entity in dependency order, with best-effort isolation between
// entities.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talentbridge/crmsync/attach"
	"github.com/talentbridge/crmsync/core/errs"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/crm"
	"github.com/talentbridge/crmsync/load"
	"github.com/talentbridge/crmsync/migration/migrator"
)

// Pipeline wires the sync components together for one run.
type Pipeline struct {
	registry    *schema.Registry
	tokens      *crm.TokenSource
	client      *crm.Client
	migrator    *migrator.Migrator
	loader      *load.Loader
	tracker     *Tracker
	attachments *attach.Manager // nil when attachment sync is disabled
	logger      *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithAttachments enables attachment download for contacts.
func WithAttachments(m *attach.Manager) PipelineOption {
	return func(p *Pipeline) { p.attachments = m }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline assembles a pipeline.
func NewPipeline(registry *schema.Registry, tokens *crm.TokenSource, client *crm.Client,
	mig *migrator.Migrator, loader *load.Loader, tracker *Tracker, options ...PipelineOption) *Pipeline {
	p := &Pipeline{
		registry: registry,
		tokens:   tokens,
		client:   client,
		migrator: mig,
		loader:   loader,
		tracker:  tracker,
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Run executes the full pipeline. The returned error is non-nil only when
// the whole run aborted: a failed token acquisition, or every entity failing.
// Individual entity failures are reported in the summary and logged.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	logger := p.logger.With("run_id", summary.RunID)

	// Nothing downstream can succeed without a token; fail the run fast.
	if _, err := p.tokens.Token(ctx); err != nil {
		return nil, err
	}
	logger.Info("run started", "entities", len(p.registry.Entities()))

	// Reconcile every table before any entity syncs. The tracker and the
	// attachment loader write to locally maintained tables that sit after the
	// CRM-backed entities in registry order, so on a first run against an
	// empty database their tables must exist before the first entity finishes.
	migrated := make(map[string]bool)
	for _, entity := range p.registry.Entities() {
		entityLogger := logger.With("entity", entity.Name)
		if _, err := p.migrator.WithLogger(entityLogger).MigrateEntity(ctx, entity); err != nil {
			entityLogger.Error("schema migration failed, skipping entity", "error", err)
			summary.Results = append(summary.Results, EntityResult{Entity: entity.Name, Err: err})
			continue
		}
		migrated[entity.Name] = true
	}

	for _, entity := range p.registry.SyncOrder() {
		if !migrated[entity.Name] {
			continue
		}

		result := p.syncEntity(ctx, entity, logger.With("entity", entity.Name))
		summary.Results = append(summary.Results, result)

		if errors.Is(result.Err, errs.ErrAuth) {
			// The token is gone; every remaining entity would fail the same way.
			summary.Finished = time.Now()
			return summary, result.Err
		}
	}

	summary.Finished = time.Now()
	logger.Info("run finished", "failed_entities", summary.Failed())

	if summary.AllFailed() {
		return summary, fmt.Errorf("all entities failed")
	}
	return summary, nil
}

// syncEntity extracts and loads one entity. Pages are loaded as they arrive
// so memory stays bounded by the page size.
func (p *Pipeline) syncEntity(ctx context.Context, entity schema.Entity, logger *slog.Logger) EntityResult {
	result := EntityResult{
		Entity: entity.Name,
		Report: &load.Report{Entity: entity.Name},
	}

	extractor := crm.NewExtractor(p.client, entity).WithLogger(logger)
	pages := extractor.Pages()

	var contactIDs []string
	for {
		batch, err := pages.Next(ctx)
		if err != nil {
			logger.Error("extraction failed", "error", err)
			result.Err = err
			return result
		}
		if batch == nil {
			break
		}

		records := make([]map[string]any, len(batch))
		for i, r := range batch {
			records[i] = r
		}
		report, err := p.loader.Upsert(ctx, entity, records)
		mergeReport(result.Report, report)
		if err != nil {
			logger.Error("load aborted", "error", err)
			result.Err = err
			return result
		}

		if p.attachments != nil && entity.Name == schema.EntityContact.Name {
			contactIDs = append(contactIDs, loadedIDs(records)...)
		}
	}

	if p.attachments != nil && entity.Name == schema.EntityContact.Name {
		result.Documents = p.syncAttachments(ctx, contactIDs, logger)
	}

	if err := p.tracker.RecordRun(ctx, entity.Name, result.Report.Loaded); err != nil {
		// Bookkeeping is best effort; the data itself is committed.
		logger.Warn("failed to record sync run", "error", err)
	}

	logger.Info("entity synced",
		"extracted", result.Report.Extracted,
		"loaded", result.Report.Loaded,
		"skipped", result.Report.Skipped(),
		"failed", result.Report.Failed())
	return result
}

func (p *Pipeline) syncAttachments(ctx context.Context, contactIDs []string, logger *slog.Logger) int {
	total := 0
	for _, id := range contactIDs {
		n, err := p.attachments.WithLogger(logger).SyncContact(ctx, id)
		if err != nil {
			logger.Warn("attachment sync failed", "contact_id", id, "error", err)
			continue
		}
		total += n
	}
	return total
}

func mergeReport(dst, src *load.Report) {
	if src == nil {
		return
	}
	dst.Extracted += src.Extracted
	dst.Loaded += src.Loaded
	dst.Failures = append(dst.Failures, src.Failures...)
}

// loadedIDs collects the external ids of the given raw records.
func loadedIDs(records []map[string]any) []string {
	var ids []string
	for _, r := range records {
		if id, ok := r["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
