// Package migrator reconciles live database tables against the declared
// entity registry.
//
// Reconciliation is additive: missing tables are created with exactly the
// declared columns, missing columns are appended nullable, and nothing is
// ever dropped, renamed, or retyped. A declared-type change to an existing
// column is silently ignored; deployments depend on that behavior.
package migrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentbridge/crmsync/core/errs"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/dbschema"
	dbtypes "github.com/talentbridge/crmsync/dbschema/types"
	"github.com/talentbridge/crmsync/migration/planner"
	"github.com/talentbridge/crmsync/migration/schemadiff"
	difftypes "github.com/talentbridge/crmsync/migration/schemadiff/types"
)

// Migrator applies schema reconciliation for entities, one transaction per
// entity.
type Migrator struct {
	conn    *dbschema.DatabaseConnection
	planner planner.DialectPlanner
	logger  *slog.Logger
	dryRun  bool
}

// NewMigrator creates a migrator for the given connection, selecting the SQL
// planner matching the connection's dialect.
func NewMigrator(conn *dbschema.DatabaseConnection) (*Migrator, error) {
	p, err := planner.New(conn.Dialect())
	if err != nil {
		return nil, err
	}
	return &Migrator{
		conn:    conn,
		planner: p,
		logger:  slog.Default(),
	}, nil
}

// WithLogger returns a copy of the migrator using the given logger.
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// SetDryRun toggles dry-run mode. In dry-run mode MigrateEntity plans but
// never executes.
func (m *Migrator) SetDryRun(dryRun bool) {
	m.dryRun = dryRun
}

// Diff computes the pending schema changes for one entity without executing
// anything.
func (m *Migrator) Diff(ctx context.Context, entity schema.Entity) (*difftypes.SchemaDiff, error) {
	reader := m.conn.Reader()

	exists, err := reader.TableExists(ctx, entity.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to check table %s: %w", entity.Table, err)
	}

	var live []dbtypes.DBTable
	if exists {
		table, err := reader.ReadTable(ctx, entity.Table)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", entity.Table, err)
		}
		live = append(live, *table)
	}

	return schemadiff.Compare([]schema.Entity{entity}, live), nil
}

// Plan returns the SQL statements that would reconcile the entity's table.
// An up-to-date table yields no statements.
func (m *Migrator) Plan(ctx context.Context, entity schema.Entity) ([]string, error) {
	diff, err := m.Diff(ctx, entity)
	if err != nil {
		return nil, err
	}
	return planner.GenerateSQL(m.planner, entity, diff)
}

// MigrateEntity reconciles one entity's table inside a single transaction and
// returns the executed statements. On failure the transaction is rolled back
// and the returned error wraps errs.ErrSchema. With no pending changes no
// transaction is opened, which keeps repeated runs free of side effects.
func (m *Migrator) MigrateEntity(ctx context.Context, entity schema.Entity) ([]string, error) {
	statements, err := m.Plan(ctx, entity)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrSchema, fmt.Sprintf("planning failed for %s", entity.Name))
	}
	if len(statements) == 0 {
		m.logger.Info("schema up to date", "entity", entity.Name, "table", entity.Table)
		return nil, nil
	}

	if m.dryRun {
		m.logger.Info("dry run, skipping execution", "entity", entity.Name, "statements", len(statements))
		return statements, nil
	}

	tx, err := m.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrSchema, fmt.Sprintf("failed to begin transaction for %s", entity.Name))
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				m.logger.Error("rollback failed", "entity", entity.Name, "error", rbErr)
			}
			return nil, errs.Wrap(err, errs.ErrSchema, fmt.Sprintf("statement failed for %s: %s", entity.Name, stmt))
		}
		m.logger.Info("executed schema statement", "entity", entity.Name, "sql", stmt)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(err, errs.ErrSchema, fmt.Sprintf("failed to commit schema changes for %s", entity.Name))
	}

	m.logger.Info("schema migrated", "entity", entity.Name, "table", entity.Table, "statements", len(statements))
	return statements, nil
}
