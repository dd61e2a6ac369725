package normalizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/notiontidy/internal/model"
)

// DefaultPause is the wait after a caught page failure.
const DefaultPause = 3 * time.Second

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Normalizer traverses a page tree and applies the title and format fixups.
// A Normalizer may be reused for several runs, but not concurrently.
type Normalizer struct {
	// store is the remote page collaborator.
	store PageStore

	// logger receives structured diagnostics.
	logger *slog.Logger

	// pause is how long to wait after a failed page step.
	pause time.Duration

	// order selects the next page from the worklist.
	order Order

	// rng drives OrderShuffle. nil uses the global source.
	rng *rand.Rand

	// exploreAfterFailure enqueues children even when a fixup failed.
	exploreAfterFailure bool

	// dryRun computes fixups without writing them.
	dryRun bool

	// maxPages stops the run after this many distinct pages. 0 means no limit.
	maxPages int

	// checkpoint persists progress. nil disables persistence.
	checkpoint Checkpoint

	// resume seeds the run from the checkpoint instead of the root.
	resume bool

	// progress receives human-readable progress lines. nil disables them.
	progress io.Writer

	// printer formats progress lines with grouped numbers.
	printer *message.Printer

	// sleep implements the pause.
	sleep Sleeper
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithPause sets the wait after a failed page step.
func WithPause(d time.Duration) Option {
	return func(n *Normalizer) {
		n.pause = d
	}
}

// WithOrder sets the worklist order.
func WithOrder(order Order) Option {
	return func(n *Normalizer) {
		n.order = order
	}
}

// WithRand sets the random source used by OrderShuffle.
func WithRand(rng *rand.Rand) Option {
	return func(n *Normalizer) {
		n.rng = rng
	}
}

// WithExploreAfterFailure controls whether children of a page are still
// enqueued when its title or format fixup failed. The default is true.
func WithExploreAfterFailure(explore bool) Option {
	return func(n *Normalizer) {
		n.exploreAfterFailure = explore
	}
}

// WithDryRun reports would-be changes without writing them.
func WithDryRun(dryRun bool) Option {
	return func(n *Normalizer) {
		n.dryRun = dryRun
	}
}

// WithMaxPages limits the number of distinct pages visited in one run.
func WithMaxPages(maxPages int) Option {
	return func(n *Normalizer) {
		n.maxPages = maxPages
	}
}

// WithCheckpoint persists the visited set and worklist after every page.
func WithCheckpoint(cp Checkpoint) Option {
	return func(n *Normalizer) {
		n.checkpoint = cp
	}
}

// WithResume starts from the saved checkpoint when one exists.
// It has no effect without WithCheckpoint.
func WithResume(resume bool) Option {
	return func(n *Normalizer) {
		n.resume = resume
	}
}

// WithProgress writes per-page progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(n *Normalizer) {
		n.progress = w
	}
}

// WithSleeper replaces the pause implementation.
func WithSleeper(s Sleeper) Option {
	return func(n *Normalizer) {
		if s != nil {
			n.sleep = s
		}
	}
}

// New creates a Normalizer backed by store.
func New(store PageStore, opts ...Option) *Normalizer {
	n := &Normalizer{
		store:               store,
		logger:              slog.Default(),
		pause:               DefaultPause,
		order:               OrderFIFO,
		exploreAfterFailure: true,
		printer:             message.NewPrinter(language.English),
		sleep:               sleepContext,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeTree visits every page reachable from root exactly once and
// normalizes its title and format.
//
// Per-page failures are recorded in the returned report and never abort the
// run. The error is non-nil only when root is not a valid page id or ctx is
// cancelled; in the latter case the partial report is returned as well.
func (n *Normalizer) NormalizeTree(ctx context.Context, root string) (*model.RunReport, error) {
	rootID, err := model.ParsePageID(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}

	report := model.NewRunReport("", rootID)
	report.DryRun = n.dryRun

	work := newWorklist(n.order, n.rng)
	visited := make(map[model.PageID]struct{})
	n.seed(ctx, report, work, visited)

	n.logger.Info("starting traversal",
		"run_id", report.RunID,
		"root", rootID,
		"order", n.order,
		"dry_run", n.dryRun,
		"resumed", report.Resumed,
	)

	for work.len() > 0 {
		if err := ctx.Err(); err != nil {
			return n.finish(report, work, err), err
		}
		if n.maxPages > 0 && len(report.Pages) >= n.maxPages {
			if work.hasUnvisited(visited) {
				report.Truncated = true
				break
			}
		}

		id := work.pop()
		n.printf("Pages left: %d, getting page: %s\n", work.len()+1, id)
		if _, ok := visited[id]; ok {
			n.printf("Skipping page %s because already visited\n", id)
			continue
		}
		visited[id] = struct{}{}

		result := report.AddPage(id)
		if !n.visit(ctx, id, result, work) {
			// Cancelled mid-page: the page stays pending and unvisited so a
			// resumed run handles it and its children. The last checkpoint
			// still lists it as pending.
			report.Pages = report.Pages[:len(report.Pages)-1]
			delete(visited, id)
			work.requeue(id)
			continue
		}
		n.save(ctx, rootID, id, work)
	}

	if err := ctx.Err(); err != nil {
		return n.finish(report, work, err), err
	}

	n.finish(report, work, nil)
	if !report.Truncated && n.checkpoint != nil && !n.dryRun {
		if err := n.checkpoint.Clear(ctx, rootID); err != nil {
			n.logger.Warn("failed to clear checkpoint", "root", rootID, "error", err)
		}
	}

	summary := report.Summary()
	n.logger.Info("traversal finished",
		"run_id", report.RunID,
		"root", rootID,
		"pages", summary.PagesVisited,
		"titles_changed", summary.TitlesChanged,
		"formats_changed", summary.FormatsChanged,
		"failed", summary.PagesFailed,
		"truncated", report.Truncated,
	)
	return report, nil
}

// seed fills the worklist and visited set, either from the checkpoint or
// with the root alone.
func (n *Normalizer) seed(ctx context.Context, report *model.RunReport, work *worklist, visited map[model.PageID]struct{}) {
	rootID := report.RootID
	if n.checkpoint != nil && !n.dryRun {
		if n.resume {
			state, err := n.checkpoint.Load(ctx, rootID)
			switch {
			case err != nil:
				n.logger.Warn("failed to load checkpoint, starting from root", "root", rootID, "error", err)
			case !state.Empty():
				for _, id := range state.Visited {
					visited[id] = struct{}{}
				}
				work.push(state.Pending...)
				report.Resumed = true
				n.logger.Info("resuming from checkpoint",
					"root", rootID,
					"visited", len(state.Visited),
					"pending", len(state.Pending),
				)
				return
			}
		}
		if err := n.checkpoint.Clear(ctx, rootID); err != nil {
			n.logger.Warn("failed to clear checkpoint", "root", rootID, "error", err)
		}
	}
	work.push(rootID)
}

// visit runs the per-page state machine: fetch, fix title, fix format,
// refresh after writes, enumerate children. It returns false when a step
// failed because ctx was cancelled, leaving the page unfinished.
func (n *Normalizer) visit(ctx context.Context, id model.PageID, result *model.PageResult, work *worklist) bool {
	page, err := n.store.Get(ctx, id)
	if err != nil {
		n.fail(ctx, result, model.StageFetch, err)
		return ctx.Err() == nil
	}
	result.Title = page.Title
	n.printf("Got page with title '%s' and id '%s'\n", page.Title, page.ID)

	titleWritten, titleOK := n.fixTitle(ctx, page, result)
	formatWritten, formatOK := n.fixFormat(ctx, page, result)
	if !titleOK || !formatOK {
		if ctx.Err() != nil {
			return false
		}
		if !n.exploreAfterFailure {
			n.logger.Debug("skipping children after failed fixup", "page", id)
			return true
		}
	}

	if titleWritten || formatWritten {
		if err := n.store.Refresh(ctx, page); err != nil {
			n.fail(ctx, result, model.StageRefresh, err)
			if ctx.Err() != nil {
				return false
			}
		}
	}

	children, err := n.store.Children(ctx, page)
	if err != nil {
		n.fail(ctx, result, model.StageChildren, err)
		return ctx.Err() == nil
	}
	for _, child := range children {
		if !child.IsPage() {
			continue
		}
		work.push(child.ID)
		result.SubPages++
	}
	if result.SubPages > 0 {
		n.printf("Has %d sub-pages\n", result.SubPages)
	}
	return true
}

// fixTitle applies FixTitle. It reports whether a write happened and
// whether the step succeeded.
func (n *Normalizer) fixTitle(ctx context.Context, page *model.Page, result *model.PageResult) (written, ok bool) {
	newTitle := FixTitle(page.Title)
	if newTitle == page.Title {
		return false, true
	}
	result.NewTitle = newTitle
	n.printf("Changing title from '%s' to '%s'\n", page.Title, newTitle)
	if n.dryRun {
		result.TitleChanged = true
		return false, true
	}
	if err := n.store.SetTitle(ctx, page, newTitle); err != nil {
		n.fail(ctx, result, model.StageTitle, err)
		return false, false
	}
	result.TitleChanged = true
	page.Title = newTitle
	return true, true
}

// fixFormat forces both layout flags to true when either is not.
func (n *Normalizer) fixFormat(ctx context.Context, page *model.Page, result *model.PageResult) (written, ok bool) {
	if !NeedsFormatFix(page.Format) {
		return false, true
	}
	n.printf("Changing format of %s: %s=%t, %s=%t\n", page.ID,
		model.FormatFullWidth, page.Flag(model.FormatFullWidth),
		model.FormatSmallText, page.Flag(model.FormatSmallText),
	)
	if n.dryRun {
		result.FormatChanged = true
		return false, true
	}
	flags := FormatFix()
	if err := n.store.SetFormat(ctx, page, flags); err != nil {
		n.fail(ctx, result, model.StageFormat, err)
		return false, false
	}
	result.FormatChanged = true
	if page.Format == nil {
		page.Format = make(map[string]bool, len(flags))
	}
	for k, v := range flags {
		page.Format[k] = v
	}
	return true, true
}

// fail records a page failure, logs it according to its class, and pauses.
func (n *Normalizer) fail(ctx context.Context, result *model.PageResult, stage model.Stage, err error) {
	expected := isExpected(err)
	result.AddFailure(stage, err, expected)
	if ctx.Err() != nil {
		return
	}

	if expected {
		n.logger.Warn("page step failed", "page", result.ID, "stage", stage, "error", err)
	} else {
		n.logger.Error("unexpected page store failure", "page", result.ID, "stage", stage, "error", err)
	}
	n.printf("Failed to %s page %s: %v\n", stage, result.ID, err)

	if err := n.sleep(ctx, n.pause); err != nil {
		n.logger.Debug("pause interrupted", "error", err)
	}
}

// save records progress in the checkpoint.
func (n *Normalizer) save(ctx context.Context, root, page model.PageID, work *worklist) {
	if n.checkpoint == nil || n.dryRun {
		return
	}
	// A page that finished is recorded even if ctx was cancelled meanwhile.
	if err := n.checkpoint.Save(context.WithoutCancel(ctx), root, page, work.snapshot()); err != nil {
		n.logger.Warn("failed to save checkpoint", "root", root, "page", page, "error", err)
	}
}

// finish stamps the report at the end of a run.
func (n *Normalizer) finish(report *model.RunReport, work *worklist, err error) *model.RunReport {
	report.FinishedAt = time.Now()
	report.Pending = work.len()
	if err != nil {
		report.Error = err.Error()
		n.logger.Warn("traversal interrupted", "root", report.RootID, "pending", report.Pending, "error", err)
	}
	return report
}

// printf writes a progress line when progress output is enabled.
func (n *Normalizer) printf(format string, args ...any) {
	if n.progress == nil {
		return
	}
	n.printer.Fprintf(n.progress, format, args...)
}

// isExpected reports whether err belongs to the known recoverable classes.
func isExpected(err error) bool {
	return errors.Is(err, model.ErrTransient) || errors.Is(err, model.ErrPageNotFound)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
