package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/dbschema"
	"github.com/talentbridge/crmsync/load"
)

// Tracker records per-entity sync bookkeeping in the sync_runs table. It is
// informational only: extraction always starts from the first page, never
// from the recorded timestamp.
type Tracker struct {
	conn   *dbschema.DatabaseConnection
	loader *load.Loader
}

// NewTracker creates a tracker writing through the given loader.
func NewTracker(conn *dbschema.DatabaseConnection, loader *load.Loader) *Tracker {
	return &Tracker{conn: conn, loader: loader}
}

// RecordRun upserts the bookkeeping row for one entity after a successful
// load.
func (t *Tracker) RecordRun(ctx context.Context, entityName string, recordsSynced int) error {
	now := time.Now().UTC()
	row := &load.Row{
		Key:     entityName,
		Columns: []string{"entity", "last_synced_at", "records_synced", "updated_at"},
		Values:  []any{entityName, now, int64(recordsSynced), now},
	}
	return t.loader.UpsertRow(ctx, schema.EntitySyncRun, row)
}

// RunInfo is one sync_runs row.
type RunInfo struct {
	Entity        string
	LastSyncedAt  time.Time
	RecordsSynced int64
}

// LastRuns returns the bookkeeping rows, most recently synced first.
func (t *Tracker) LastRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := t.conn.DB().QueryContext(ctx,
		"SELECT entity, last_synced_at, records_synced FROM sync_runs ORDER BY last_synced_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.Entity, &info.LastSyncedAt, &info.RecordsSynced); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return infos, nil
}
