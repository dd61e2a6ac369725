package normalizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
)

// fakeStore is an in-memory PageStore that records every call.
type fakeStore struct {
	mu       sync.Mutex
	pages    map[model.PageID]*model.Page
	kinds    map[model.PageID]string
	getErr   map[model.PageID]error
	titleErr map[model.PageID]error
	formErr  map[model.PageID]error
	childErr map[model.PageID]error

	gets      []model.PageID
	refreshes []model.PageID
	titles    map[model.PageID][]string
	formats   map[model.PageID][]map[string]bool
	children  []model.PageID

	// onGet runs before every Get.
	onGet func(id model.PageID)

	// abortOnCancel makes Get fail with ctx.Err() once ctx is done, the way
	// an HTTP client aborts an in-flight request.
	abortOnCancel bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pages:    make(map[model.PageID]*model.Page),
		kinds:    make(map[model.PageID]string),
		getErr:   make(map[model.PageID]error),
		titleErr: make(map[model.PageID]error),
		formErr:  make(map[model.PageID]error),
		childErr: make(map[model.PageID]error),
		titles:   make(map[model.PageID][]string),
		formats:  make(map[model.PageID][]map[string]bool),
	}
}

// add registers a page of kind "page" with both flags already set.
func (s *fakeStore) add(id model.PageID, title string, children ...model.PageID) *model.Page {
	p := &model.Page{
		ID:    id,
		Title: title,
		Format: map[string]bool{
			model.FormatFullWidth: true,
			model.FormatSmallText: true,
		},
		ChildIDs: children,
	}
	s.pages[id] = p
	s.kinds[id] = model.KindPage
	return p
}

// addBlock registers a non-page block.
func (s *fakeStore) addBlock(id model.PageID, kind string) {
	s.pages[id] = &model.Page{ID: id}
	s.kinds[id] = kind
}

func (s *fakeStore) Get(ctx context.Context, id model.PageID) (*model.Page, error) {
	if s.onGet != nil {
		s.onGet(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets = append(s.gets, id)
	if s.abortOnCancel && ctx.Err() != nil {
		return nil, fmt.Errorf("get page %s: %w", id, ctx.Err())
	}
	if err := s.getErr[id]; err != nil {
		return nil, err
	}
	p, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s: %w", id, model.ErrPageNotFound)
	}
	return clonePage(p), nil
}

func (s *fakeStore) Refresh(_ context.Context, page *model.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes = append(s.refreshes, page.ID)
	p, ok := s.pages[page.ID]
	if !ok {
		return fmt.Errorf("page %s: %w", page.ID, model.ErrPageNotFound)
	}
	*page = *clonePage(p)
	return nil
}

func (s *fakeStore) Children(_ context.Context, page *model.Page) ([]model.ChildRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, page.ID)
	if err := s.childErr[page.ID]; err != nil {
		return nil, err
	}
	p := s.pages[page.ID]
	refs := make([]model.ChildRef, 0, len(p.ChildIDs))
	for _, id := range p.ChildIDs {
		kind, ok := s.kinds[id]
		if !ok {
			kind = model.KindPage
		}
		refs = append(refs, model.ChildRef{ID: id, Kind: kind})
	}
	return refs, nil
}

func (s *fakeStore) SetTitle(_ context.Context, page *model.Page, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.titleErr[page.ID]; err != nil {
		return err
	}
	s.titles[page.ID] = append(s.titles[page.ID], title)
	s.pages[page.ID].Title = title
	return nil
}

func (s *fakeStore) SetFormat(_ context.Context, page *model.Page, flags map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.formErr[page.ID]; err != nil {
		return err
	}
	s.formats[page.ID] = append(s.formats[page.ID], flags)
	p := s.pages[page.ID]
	if p.Format == nil {
		p.Format = make(map[string]bool)
	}
	for k, v := range flags {
		p.Format[k] = v
	}
	return nil
}

func (s *fakeStore) getCount(id model.PageID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.gets {
		if g == id {
			n++
		}
	}
	return n
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ts := range s.titles {
		n += len(ts)
	}
	for _, fs := range s.formats {
		n += len(fs)
	}
	return n
}

func clonePage(p *model.Page) *model.Page {
	c := *p
	c.Format = make(map[string]bool, len(p.Format))
	for k, v := range p.Format {
		c.Format[k] = v
	}
	c.ChildIDs = append([]model.PageID(nil), p.ChildIDs...)
	return &c
}

// memCheckpoint is an in-memory Checkpoint.
type memCheckpoint struct {
	state   map[model.PageID]*model.Checkpoint
	saves   int
	clears  int
	loadErr error
}

func newMemCheckpoint() *memCheckpoint {
	return &memCheckpoint{state: make(map[model.PageID]*model.Checkpoint)}
}

func (c *memCheckpoint) Load(_ context.Context, root model.PageID) (*model.Checkpoint, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	if st, ok := c.state[root]; ok {
		return &model.Checkpoint{
			Visited: append([]model.PageID(nil), st.Visited...),
			Pending: append([]model.PageID(nil), st.Pending...),
		}, nil
	}
	return &model.Checkpoint{}, nil
}

func (c *memCheckpoint) Save(_ context.Context, root, page model.PageID, pending []model.PageID) error {
	c.saves++
	st, ok := c.state[root]
	if !ok {
		st = &model.Checkpoint{}
		c.state[root] = st
	}
	st.Visited = append(st.Visited, page)
	st.Pending = append([]model.PageID(nil), pending...)
	return nil
}

func (c *memCheckpoint) Clear(_ context.Context, root model.PageID) error {
	c.clears++
	delete(c.state, root)
	return nil
}

// recordSleeper records pauses without waiting.
type recordSleeper struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *recordSleeper) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauses = append(r.pauses, d)
	return nil
}

func (r *recordSleeper) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pauses)
}

// pid builds a valid page id from a short tag, e.g. pid(1) = "000...0001".
func pid(n int) model.PageID {
	return model.PageID(fmt.Sprintf("%032x", n))
}
