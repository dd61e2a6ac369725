package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
)

// CheckpointStore persists traversal progress for one scope.
// It implements normalizer.Checkpoint.
type CheckpointStore struct {
	db    *DB
	scope string
	now   func() time.Time

	// mu guards pending, the rows last written per root.
	mu      sync.Mutex
	pending map[model.PageID][]pendingRow
}

// Checkpoints returns the checkpoint store for a scope.
func (sdb *DB) Checkpoints(scope string) *CheckpointStore {
	return &CheckpointStore{
		db:      sdb,
		scope:   scope,
		now:     time.Now,
		pending: make(map[model.PageID][]pendingRow),
	}
}

// Load returns the saved state for a root.
// A root without saved state yields an empty checkpoint.
func (cs *CheckpointStore) Load(ctx context.Context, root model.PageID) (*model.Checkpoint, error) {
	cs.mu.Lock()
	delete(cs.pending, root)
	cs.mu.Unlock()

	cp := &model.Checkpoint{
		Visited: make([]model.PageID, 0),
		Pending: make([]model.PageID, 0),
	}

	visited, err := cs.queryIDs(ctx, `
	SELECT page_id FROM checkpoint_visited
	WHERE scope = ? AND root_id = ?
	ORDER BY rowid
	`, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load visited pages: %w", err)
	}
	cp.Visited = visited

	pending, err := cs.queryIDs(ctx, `
	SELECT page_id FROM checkpoint_pending
	WHERE scope = ? AND root_id = ?
	ORDER BY seq
	`, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending pages: %w", err)
	}
	cp.Pending = pending

	return cp, nil
}

func (cs *CheckpointStore) queryIDs(ctx context.Context, query string, root model.PageID) ([]model.PageID, error) {
	rows, err := cs.db.db.QueryContext(ctx, query, cs.scope, root.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]model.PageID, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, model.PageID(id))
	}
	return ids, rows.Err()
}

// Save records page as visited and brings the stored worklist in line with
// pending, in one transaction.
//
// Between two saves the normalizer only pops entries and appends children,
// so the stored rows are updated by difference: popped entries are deleted,
// new ones are appended after the highest seq, and the rest are untouched.
// The rows last written for each root are cached, so a save costs a few
// statements however long the worklist is.
func (cs *CheckpointStore) Save(ctx context.Context, root, page model.PageID, pending []model.PageID) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	tx, err := cs.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
	INSERT OR IGNORE INTO checkpoint_visited (scope, root_id, page_id, visited_at)
	VALUES (?, ?, ?, ?)
	`, cs.scope, root.String(), page.String(), formatTimestamp(cs.now())); err != nil {
		return fmt.Errorf("failed to record visited page: %w", err)
	}

	stored, ok := cs.pending[root]
	if !ok {
		stored, err = pendingRows(ctx, tx, cs.scope, root)
		if err != nil {
			return fmt.Errorf("failed to read pending pages: %w", err)
		}
	}

	rows, stale, added := diffPending(stored, pending)
	if err := deletePending(ctx, tx, cs.scope, root, stale); err != nil {
		return err
	}
	if len(added) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO checkpoint_pending (scope, root_id, seq, page_id)
		VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare pending insert: %w", err)
		}
		defer stmt.Close()

		seq := nextSeq(stored)
		for _, id := range added {
			if _, err := stmt.ExecContext(ctx, cs.scope, root.String(), seq, id.String()); err != nil {
				return fmt.Errorf("failed to record pending page: %w", err)
			}
			rows = append(rows, pendingRow{seq: seq, id: id})
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		delete(cs.pending, root)
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	cs.pending[root] = rows
	return nil
}

// pendingRow is one stored worklist entry.
type pendingRow struct {
	seq int64
	id  model.PageID
}

// diffPending matches want against the stored rows in order. Rows that
// line up with a prefix of want are kept; the others are stale. The part of
// want past that prefix is returned as added.
func diffPending(stored []pendingRow, want []model.PageID) (kept []pendingRow, stale []int64, added []model.PageID) {
	kept = make([]pendingRow, 0, len(want))
	j := 0
	for _, row := range stored {
		if j < len(want) && want[j] == row.id {
			kept = append(kept, row)
			j++
			continue
		}
		stale = append(stale, row.seq)
	}
	return kept, stale, want[j:]
}

func nextSeq(rows []pendingRow) int64 {
	var next int64
	for _, r := range rows {
		if r.seq >= next {
			next = r.seq + 1
		}
	}
	return next
}

func pendingRows(ctx context.Context, tx *sql.Tx, scope string, root model.PageID) ([]pendingRow, error) {
	rows, err := tx.QueryContext(ctx, `
	SELECT seq, page_id FROM checkpoint_pending
	WHERE scope = ? AND root_id = ?
	ORDER BY seq
	`, scope, root.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pendingRow, 0)
	for rows.Next() {
		var (
			r  pendingRow
			id string
		)
		if err := rows.Scan(&r.seq, &id); err != nil {
			return nil, err
		}
		r.id = model.PageID(id)
		out = append(out, r)
	}
	return out, rows.Err()
}

func deletePending(ctx context.Context, tx *sql.Tx, scope string, root model.PageID, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
	DELETE FROM checkpoint_pending WHERE scope = ? AND root_id = ? AND seq = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare pending delete: %w", err)
	}
	defer stmt.Close()

	for _, seq := range seqs {
		if _, err := stmt.ExecContext(ctx, scope, root.String(), seq); err != nil {
			return fmt.Errorf("failed to drop pending page: %w", err)
		}
	}
	return nil
}

// Clear removes the saved state for a root.
func (cs *CheckpointStore) Clear(ctx context.Context, root model.PageID) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.pending, root)
	for _, query := range []string{
		`DELETE FROM checkpoint_visited WHERE scope = ? AND root_id = ?`,
		`DELETE FROM checkpoint_pending WHERE scope = ? AND root_id = ?`,
	} {
		if _, err := cs.db.db.ExecContext(ctx, query, cs.scope, root.String()); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}
	return nil
}

// CheckpointInfo summarizes the saved state of one root.
type CheckpointInfo struct {
	// RootID is the traversal root.
	RootID model.PageID

	// Visited is the number of pages already processed.
	Visited int

	// Pending is the number of worklist entries saved.
	Pending int

	// UpdatedAt is when the last page was recorded.
	UpdatedAt time.Time
}

// Info summarizes the checkpoint of a root. It returns ErrNotFound when the
// root has no saved state.
func (cs *CheckpointStore) Info(ctx context.Context, root model.PageID) (*CheckpointInfo, error) {
	info := &CheckpointInfo{RootID: root}
	var updated *string
	err := cs.db.db.QueryRowContext(ctx, `
	SELECT COUNT(*), MAX(visited_at) FROM checkpoint_visited
	WHERE scope = ? AND root_id = ?
	`, cs.scope, root.String()).Scan(&info.Visited, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if err := cs.db.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM checkpoint_pending
	WHERE scope = ? AND root_id = ?
	`, cs.scope, root.String()).Scan(&info.Pending); err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if info.Visited == 0 && info.Pending == 0 {
		return nil, ErrNotFound
	}
	if updated != nil {
		info.UpdatedAt = parseTimestamp(*updated)
	}
	return info, nil
}
