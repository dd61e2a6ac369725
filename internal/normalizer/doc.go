// Package normalizer walks a Notion page tree and normalizes every page it reaches.
//
// # Traversal
//
// The Normalizer keeps a worklist of page ids and a visited set. Each id is
// processed at most once per run, no matter how many times it is enqueued,
// so cycles and pages reachable through several parents are handled without
// extra bookkeeping. Only children whose block kind is "page" are enqueued.
//
// # Fixups
//
// Two idempotent fixups are applied to each page:
//   - FixTitle strips a leading integer token ("003 Getting Started" -> "Getting Started")
//   - the format fixup sets page_full_width and page_small_text to true
//
// A write is issued only when the computed value differs from the current one.
//
// # Failures
//
// The traversal never aborts because of a single page. A failed fetch, write
// or child listing is recorded in the run report, logged, and followed by a
// fixed pause before the next step. Errors wrapping model.ErrTransient or
// model.ErrPageNotFound are logged as warnings; anything else is logged as an
// unexpected error. Only context cancellation ends a run early.
//
// # Usage
//
//	n := normalizer.New(store,
//	    normalizer.WithLogger(logger),
//	    normalizer.WithPause(3*time.Second),
//	    normalizer.WithProgress(os.Stdout),
//	)
//	report, err := n.NormalizeTree(ctx, "ad527dc6d4a7420b923494d0b9bfb560")
package normalizer
