package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nao1215/notiontidy/internal/config"
	"github.com/nao1215/notiontidy/internal/model"
	"github.com/nao1215/notiontidy/internal/normalizer"
)

const testToken = "v02%3Auser_token_or_cookies%3Atest"

// Page ids of the test tree:
//
//	treeRoot "1 Intro"
//	├── treeA "2 Basics"
//	│   └── treeC "3 Loops"
//	└── treeB "Advanced"
const (
	treeRoot = model.PageID("10000000000000000000000000000000")
	treeA    = model.PageID("a0000000000000000000000000000000")
	treeB    = model.PageID("b0000000000000000000000000000000")
	treeC    = model.PageID("c0000000000000000000000000000000")
)

// memStore is an in-memory PageStore holding the test tree.
type memStore struct {
	mu     sync.Mutex
	pages  map[model.PageID]*model.Page
	gets   map[model.PageID]int
	calls  int
	writes int
}

func newMemStore() *memStore {
	s := &memStore{
		pages: make(map[model.PageID]*model.Page),
		gets:  make(map[model.PageID]int),
	}
	s.add(treeRoot, "1 Intro", treeA, treeB)
	s.add(treeA, "2 Basics", treeC)
	s.add(treeB, "Advanced")
	s.add(treeC, "3 Loops")
	return s
}

func (s *memStore) add(id model.PageID, title string, children ...model.PageID) {
	s.pages[id] = &model.Page{
		ID:       id,
		Title:    title,
		Format:   map[string]bool{model.FormatFullWidth: false},
		ChildIDs: children,
	}
}

func (s *memStore) copyOf(id model.PageID) (*model.Page, error) {
	p, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s: %w", id, model.ErrPageNotFound)
	}
	c := *p
	c.Format = maps.Clone(p.Format)
	return &c, nil
}

func (s *memStore) Get(_ context.Context, id model.PageID) (*model.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gets[id]++
	return s.copyOf(id)
}

func (s *memStore) Refresh(_ context.Context, page *model.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	fresh, err := s.copyOf(page.ID)
	if err != nil {
		return err
	}
	*page = *fresh
	return nil
}

func (s *memStore) Children(_ context.Context, page *model.Page) ([]model.ChildRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	refs := make([]model.ChildRef, 0, len(page.ChildIDs))
	for _, id := range page.ChildIDs {
		refs = append(refs, model.ChildRef{ID: id, Kind: model.KindPage})
	}
	return refs, nil
}

func (s *memStore) SetTitle(_ context.Context, page *model.Page, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.writes++
	s.pages[page.ID].Title = title
	return nil
}

func (s *memStore) SetFormat(_ context.Context, page *model.Page, flags map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.writes++
	maps.Copy(s.pages[page.ID].Format, flags)
	return nil
}

func (s *memStore) title(id model.PageID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[id].Title
}

func (s *memStore) counts() (calls, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.writes
}

func (s *memStore) getCount(id model.PageID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[id]
}

// testEnv is a config file, a database directory and a fake store.
type testEnv struct {
	dir        string
	configPath string
	dbDir      string
	store      *memStore
	storeBuilt int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, ".notiontidy"),
		dbDir:      filepath.Join(dir, "data"),
		store:      newMemStore(),
	}

	content := fmt.Sprintf(`default_root: tree
roots:
  tree: %s
settings:
  pause: 0s
  db_dir: %s
`, treeRoot.Dashed(), env.dbDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// deps returns collaborators backed by the fake store.
func (e *testEnv) deps() deps {
	return deps{
		credential: func() (string, error) { return testToken, nil },
		newStore: func(_ string, _ *config.Config, _ *slog.Logger) (normalizer.PageStore, error) {
			e.storeBuilt++
			return e.store, nil
		},
	}
}

// execute runs the CLI with the test config and returns stdout and stderr.
func (e *testEnv) execute(t *testing.T, d deps, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(d)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "-c", e.configPath))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
