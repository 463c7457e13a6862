package load

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentbridge/crmsync/core/errs"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/dbschema"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBatchSize sets how many records are processed between progress log
// lines.
func WithBatchSize(n int) LoaderOption {
	return func(l *Loader) { l.batchSize = n }
}

// WithLogger sets the loader logger.
func WithLogger(lg *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = lg }
}

// Loader upserts transformed rows keyed on the external identifier. Each
// record commits independently, so one bad record never poisons the rest of
// a batch; a lost database connection aborts the entity's remaining records
// with an error wrapping errs.ErrLoad.
type Loader struct {
	conn      *dbschema.DatabaseConnection
	batchSize int
	logger    *slog.Logger
}

// NewLoader creates a loader for the given connection.
func NewLoader(conn *dbschema.DatabaseConnection, options ...LoaderOption) *Loader {
	l := &Loader{
		conn:      conn,
		batchSize: 50,
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Upsert transforms and loads the given raw records for one entity. The
// returned report is complete even when an error is returned; the error is
// non-nil only when the load had to stop early.
func (l *Loader) Upsert(ctx context.Context, entity schema.Entity, records []map[string]any) (*Report, error) {
	report := &Report{Entity: entity.Name, Extracted: len(records)}
	query := l.upsertSQL(entity)

	for i, raw := range records {
		row, err := Transform(entity, raw)
		if err != nil {
			l.logger.Warn("record skipped", "entity", entity.Name, "error", err)
			report.addFailure(rawID(raw), StageTransform, err.Error())
			continue
		}

		if _, err := l.conn.DB().ExecContext(ctx, query, row.Values...); err != nil {
			if pingErr := l.conn.DB().PingContext(ctx); pingErr != nil {
				return report, errs.Wrap(err, errs.ErrLoad,
					fmt.Sprintf("database connection lost loading %s", entity.Name))
			}
			l.logger.Warn("record rejected", "entity", entity.Name, "id", row.Key, "error", err)
			report.addFailure(row.Key, StageUpsert, err.Error())
			continue
		}
		report.Loaded++

		if (i+1)%l.batchSize == 0 {
			l.logger.Info("load progress", "entity", entity.Name, "processed", i+1, "total", len(records))
		}
	}
	return report, nil
}

// UpsertRow loads a single pre-built row, used by the bookkeeping and
// document writers.
func (l *Loader) UpsertRow(ctx context.Context, entity schema.Entity, row *Row) error {
	query := l.upsertSQLFor(entity, row.Columns)
	if _, err := l.conn.DB().ExecContext(ctx, query, row.Values...); err != nil {
		return fmt.Errorf("failed to upsert %s row %s: %w", entity.Name, row.Key, err)
	}
	return nil
}

// upsertSQL builds the insert-or-update statement over the entity's mapped
// columns.
func (l *Loader) upsertSQL(entity schema.Entity) string {
	columns := make([]string, 0, len(entity.Fields))
	for _, f := range entity.Fields {
		if f.APIName == "" {
			continue
		}
		columns = append(columns, f.Column)
	}
	return l.upsertSQLFor(entity, columns)
}

func (l *Loader) upsertSQLFor(entity schema.Entity, columns []string) string {
	return upsertStatement(l.conn.Dialect(), entity, columns)
}

// upsertStatement builds the dialect-specific insert-or-update statement over
// the given columns, keyed on the entity's primary key.
func upsertStatement(dialect string, entity schema.Entity, columns []string) string {
	pk := entity.PrimaryKey().Column

	placeholders := make([]string, len(columns))
	for i := range columns {
		if dialect == dbschema.DialectPostgres {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	var updates []string
	for _, c := range columns {
		if c == pk {
			continue
		}
		if dialect == dbschema.DialectMySQL {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	switch dialect {
	case dbschema.DialectMySQL:
		if len(updates) == 0 {
			// Key-only table: a duplicate key is a no-op update.
			return insert + fmt.Sprintf(" ON DUPLICATE KEY UPDATE %s = %s", pk, pk)
		}
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	default:
		// postgres and sqlite share the ON CONFLICT form
		if len(updates) == 0 {
			return insert + fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", pk)
		}
		return insert + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", pk, strings.Join(updates, ", "))
	}
}

// rawID best-effort extracts the external id of a raw record for failure
// accounting.
func rawID(raw map[string]any) string {
	switch v := raw["id"].(type) {
	case string:
		return v
	default:
		return ""
	}
}
