package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
)

const (
	rootA = model.PageID("ad527dc6d4a7420b923494d0b9bfb560")
	rootB = model.PageID("0b121710a160402fa9fd4646b87bed99")
	pageC = model.PageID("ee2c02d47ef44fbf883238558e314394")
	pageD = model.PageID("00000000000000000000000000000001")
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		cs := db.Checkpoints("scope")
		if err := cs.Save(context.Background(), rootA, rootA, []model.PageID{pageC}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		cp, err := db.Checkpoints("scope").Load(context.Background(), rootA)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(cp.Pending) != 1 || cp.Pending[0] != pageC {
			t.Errorf("checkpoint not persisted: %+v", cp)
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("token-a")
	if len(a) != scopeLength {
		t.Errorf("fingerprint length = %d, want %d", len(a), scopeLength)
	}
	if a != Fingerprint("token-a") {
		t.Error("fingerprint should be deterministic")
	}
	if a == Fingerprint("token-b") {
		t.Error("different tokens should have different fingerprints")
	}
	if a == "token-a" {
		t.Error("fingerprint must not be the token")
	}
}

func TestCheckpointStore(t *testing.T) {
	t.Parallel()

	t.Run("empty root loads an empty checkpoint", func(t *testing.T) {
		t.Parallel()

		cp, err := setupTestDB(t).Checkpoints("s").Load(context.Background(), rootA)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !cp.Empty() || len(cp.Visited) != 0 {
			t.Errorf("expected empty checkpoint, got %+v", cp)
		}
	})

	t.Run("save replaces pending and appends visited", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cs := setupTestDB(t).Checkpoints("s")

		if err := cs.Save(ctx, rootA, rootA, []model.PageID{pageC, pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := cs.Save(ctx, rootA, pageC, []model.PageID{pageD, pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		// Saving the same page twice is harmless.
		if err := cs.Save(ctx, rootA, pageC, []model.PageID{pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		cp, err := cs.Load(ctx, rootA)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(cp.Visited) != 2 || cp.Visited[0] != rootA || cp.Visited[1] != pageC {
			t.Errorf("unexpected visited: %v", cp.Visited)
		}
		if len(cp.Pending) != 1 || cp.Pending[0] != pageD {
			t.Errorf("unexpected pending: %v", cp.Pending)
		}
	})

	t.Run("pending order is preserved", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cs := setupTestDB(t).Checkpoints("s")
		pending := []model.PageID{pageD, pageC, rootB, pageC}
		if err := cs.Save(ctx, rootA, rootA, pending); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		cp, err := cs.Load(ctx, rootA)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(cp.Pending) != len(pending) {
			t.Fatalf("expected %d pending, got %d", len(pending), len(cp.Pending))
		}
		for i := range pending {
			if cp.Pending[i] != pending[i] {
				t.Errorf("pending[%d] = %s, want %s", i, cp.Pending[i], pending[i])
			}
		}
	})

	t.Run("scopes and roots are isolated", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)
		if err := db.Checkpoints("one").Save(ctx, rootA, rootA, []model.PageID{pageC}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := db.Checkpoints("one").Save(ctx, rootB, rootB, []model.PageID{pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		other, err := db.Checkpoints("two").Load(ctx, rootA)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !other.Empty() {
			t.Errorf("scope two should not see scope one: %+v", other)
		}

		if err := db.Checkpoints("one").Clear(ctx, rootA); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		cleared, _ := db.Checkpoints("one").Load(ctx, rootA) //nolint:errcheck // checked below
		if cleared == nil || !cleared.Empty() || len(cleared.Visited) != 0 {
			t.Errorf("expected cleared root A, got %+v", cleared)
		}
		kept, err := db.Checkpoints("one").Load(ctx, rootB)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if kept.Empty() {
			t.Error("root B checkpoint should survive clearing root A")
		}
	})

	t.Run("save only touches changed pending rows", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)
		cs := db.Checkpoints("s")

		if err := cs.Save(ctx, rootA, rootA, []model.PageID{rootB, pageC}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		// rootB is popped and pageD discovered; pageC keeps its row.
		if err := cs.Save(ctx, rootA, rootB, []model.PageID{pageC, pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got := pendingSeqs(t, db, rootA)
		want := map[int64]model.PageID{1: pageC, 2: pageD}
		if len(got) != len(want) {
			t.Fatalf("pending rows = %v, want %v", got, want)
		}
		for seq, id := range want {
			if got[seq] != id {
				t.Errorf("seq %d = %s, want %s", seq, got[seq], id)
			}
		}
	})

	t.Run("a new store picks up rows written by another", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)
		if err := db.Checkpoints("s").Save(ctx, rootA, rootA, []model.PageID{rootB, pageC}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		resumed := db.Checkpoints("s")
		if err := resumed.Save(ctx, rootA, rootB, []model.PageID{pageC, pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		cp, err := resumed.Load(ctx, rootA)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(cp.Pending) != 2 || cp.Pending[0] != pageC || cp.Pending[1] != pageD {
			t.Errorf("unexpected pending: %v", cp.Pending)
		}
	})

	t.Run("info", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cs := setupTestDB(t).Checkpoints("s")
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		cs.now = func() time.Time { return fixed }

		if _, err := cs.Info(ctx, rootA); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		if err := cs.Save(ctx, rootA, rootA, []model.PageID{pageC, pageD}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		info, err := cs.Info(ctx, rootA)
		if err != nil {
			t.Fatalf("Info failed: %v", err)
		}
		if info.Visited != 1 || info.Pending != 2 {
			t.Errorf("unexpected info: %+v", info)
		}
		if !info.UpdatedAt.Equal(fixed) {
			t.Errorf("UpdatedAt = %v, want %v", info.UpdatedAt, fixed)
		}
	})
}

func TestDiffPending(t *testing.T) {
	t.Parallel()

	stored := []pendingRow{{0, rootB}, {1, pageC}, {2, pageD}, {3, pageC}}
	tests := []struct {
		name      string
		want      []model.PageID
		wantKept  []int64
		wantStale []int64
		wantAdded int
	}{
		{name: "head popped", want: []model.PageID{pageC, pageD, pageC}, wantKept: []int64{1, 2, 3}, wantStale: []int64{0}},
		{name: "head popped and child appended", want: []model.PageID{pageC, pageD, pageC, rootA}, wantKept: []int64{1, 2, 3}, wantStale: []int64{0}, wantAdded: 1},
		{name: "middle popped", want: []model.PageID{rootB, pageC, pageC}, wantKept: []int64{0, 1, 3}, wantStale: []int64{2}},
		{name: "emptied", want: nil, wantStale: []int64{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kept, stale, added := diffPending(stored, tt.want)
			if len(kept) != len(tt.wantKept) {
				t.Fatalf("kept = %v, want seqs %v", kept, tt.wantKept)
			}
			for i, row := range kept {
				if row.seq != tt.wantKept[i] {
					t.Errorf("kept[%d].seq = %d, want %d", i, row.seq, tt.wantKept[i])
				}
			}
			if len(stale) != len(tt.wantStale) {
				t.Fatalf("stale = %v, want %v", stale, tt.wantStale)
			}
			for i := range stale {
				if stale[i] != tt.wantStale[i] {
					t.Errorf("stale[%d] = %d, want %d", i, stale[i], tt.wantStale[i])
				}
			}
			if len(added) != tt.wantAdded {
				t.Errorf("added = %v, want %d entries", added, tt.wantAdded)
			}
		})
	}
}

// pendingSeqs returns the stored pending rows of a root keyed by seq.
func pendingSeqs(t *testing.T, db *DB, root model.PageID) map[int64]model.PageID {
	t.Helper()

	rows, err := db.db.QueryContext(context.Background(),
		`SELECT seq, page_id FROM checkpoint_pending WHERE root_id = ?`, root.String())
	if err != nil {
		t.Fatalf("query pending: %v", err)
	}
	defer rows.Close()

	out := make(map[int64]model.PageID)
	for rows.Next() {
		var (
			seq int64
			id  string
		)
		if err := rows.Scan(&seq, &id); err != nil {
			t.Fatalf("scan pending: %v", err)
		}
		out[seq] = model.PageID(id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("read pending: %v", err)
	}
	return out
}

func TestRuns(t *testing.T) {
	t.Parallel()

	newReport := func(name string, root model.PageID, started time.Time) *model.RunReport {
		r := model.NewRunReport(name, root)
		r.StartedAt = started
		r.FinishedAt = started.Add(time.Minute)
		p := r.AddPage(root)
		p.Title = "001 Intro"
		p.NewTitle = "Intro"
		p.TitleChanged = true
		f := r.AddPage(pageC)
		f.AddFailure(model.StageFetch, model.ErrTransient, true)
		return r
	}

	t.Run("save and list newest first", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		for i, name := range []string{"cpp", "javascript", "cpp"} {
			if _, err := db.SaveRun(ctx, "s", newReport(name, rootA, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("SaveRun failed: %v", err)
			}
		}
		if _, err := db.SaveRun(ctx, "other", newReport("cpp", rootA, base)); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		all, err := db.ListRuns(ctx, "s", "", 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if !all[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("expected newest first, got %v", all[0].StartedAt)
		}
		if all[0].Summary.PagesVisited != 2 || all[0].Summary.TitlesChanged != 1 || all[0].Summary.PagesFailed != 1 {
			t.Errorf("unexpected summary: %+v", all[0].Summary)
		}

		cpp, err := db.ListRuns(ctx, "s", "cpp", 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(cpp) != 2 {
			t.Errorf("expected 2 cpp runs, got %d", len(cpp))
		}

		limited, err := db.ListRuns(ctx, "s", "", 1)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 run, got %d", len(limited))
		}
	})

	t.Run("get run returns the full report", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)
		id, err := db.SaveRun(ctx, "s", newReport("cpp", rootA, time.Now()))
		if err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		report, err := db.GetRun(ctx, "s", id)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if report.RootName != "cpp" || len(report.Pages) != 2 {
			t.Errorf("unexpected report: %+v", report)
		}
		if report.Pages[0].NewTitle != "Intro" {
			t.Errorf("unexpected page result: %+v", report.Pages[0])
		}

		if _, err := db.GetRun(ctx, "other", id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for another scope, got %v", err)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	for _, s := range []string{
		"2026-05-06T07:08:09Z",
		"2026-05-06 07:08:09",
		formatTimestamp(want),
	} {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", s, got, want)
		}
	}
	if got := parseTimestamp("garbage"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
