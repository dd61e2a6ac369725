package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
)

// RunRecord is the stored summary of one run.
type RunRecord struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// RootName is the configured name of the root.
	RootName string

	// RootID is the traversal root.
	RootID model.PageID

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// DryRun is true if no writes were issued.
	DryRun bool

	// Summary holds the counters of the run. PagesUnchanged is not stored
	// and stays zero; load the full report with GetRun when it is needed.
	Summary model.Summary
}

// SaveRun stores a run report and returns its id.
func (sdb *DB) SaveRun(ctx context.Context, scope string, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	summary := report.Summary()

	res, err := sdb.db.ExecContext(ctx, `
	INSERT INTO runs (scope, root_name, root_id, started_at, finished_at, dry_run,
		pages_visited, titles_changed, formats_changed, failures, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		scope,
		report.RootName,
		report.RootID.String(),
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.DryRun,
		summary.PagesVisited,
		summary.TitlesChanged,
		summary.FormatsChanged,
		summary.PagesFailed,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the runs of a scope, newest first. An empty rootName
// lists every root. limit <= 0 means no limit.
func (sdb *DB) ListRuns(ctx context.Context, scope, rootName string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, root_name, root_id, started_at, finished_at, dry_run,
		pages_visited, titles_changed, formats_changed, failures
	FROM runs
	WHERE scope = ? AND (? = '' OR root_name = ?)
	ORDER BY started_at DESC, id DESC
	`
	args := []any{scope, rootName, rootName}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0)
	for rows.Next() {
		var (
			rec               RunRecord
			rootID            string
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &rec.RootName, &rootID, &started, &finished, &rec.DryRun,
			&rec.Summary.PagesVisited, &rec.Summary.TitlesChanged,
			&rec.Summary.FormatsChanged, &rec.Summary.PagesFailed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.RootID = model.PageID(rootID)
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRun loads the full report of a run.
func (sdb *DB) GetRun(ctx context.Context, scope string, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM runs WHERE scope = ? AND id = ?
	`, scope, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}
