package normalizer

import (
	"context"

	"github.com/nao1215/notiontidy/internal/model"
)

// PageStore is the remote page collaborator.
// Implementations should wrap model.ErrTransient and model.ErrPageNotFound
// for the failures they know about.
type PageStore interface {
	// Get fetches the current state of a page.
	Get(ctx context.Context, id model.PageID) (*model.Page, error)

	// Refresh replaces the page's fields with the latest remote state.
	Refresh(ctx context.Context, page *model.Page) error

	// Children lists the direct children of a page with their block kinds.
	Children(ctx context.Context, page *model.Page) ([]model.ChildRef, error)

	// SetTitle writes a new page title.
	SetTitle(ctx context.Context, page *model.Page, title string) error

	// SetFormat merges the given flags into the page's format.
	SetFormat(ctx context.Context, page *model.Page, flags map[string]bool) error
}

// Checkpoint persists traversal progress so a run can be resumed.
type Checkpoint interface {
	// Load returns the saved state for a root. A root without saved state
	// returns an empty checkpoint and no error.
	Load(ctx context.Context, root model.PageID) (*model.Checkpoint, error)

	// Save records that page was visited and stores the current worklist.
	Save(ctx context.Context, root, page model.PageID, pending []model.PageID) error

	// Clear removes the saved state for a root.
	Clear(ctx context.Context, root model.PageID) error
}
