package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/nao1215/notiontidy/internal/model"
)

const (
	// DefaultBaseURL is the Notion web application origin.
	DefaultBaseURL = "https://www.notion.so"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRetries is the number of retries after a transient failure.
	DefaultRetries = 3

	// DefaultRetryWait is the constant wait between retries.
	DefaultRetryWait = 3 * time.Second

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "notiontidy"

	// maxRecordsPerCall is the largest getRecordValues batch.
	maxRecordsPerCall = 256

	pathGetRecordValues   = "/api/v3/getRecordValues"
	pathSubmitTransaction = "/api/v3/submitTransaction"

	tokenCookie = "token_v2"
	tableBlock  = "block"
)

// Client reads and updates Notion pages.
// It implements normalizer.PageStore.
type Client struct {
	// http is the underlying REST client with auth and base URL applied.
	http *resty.Client

	// logger receives request diagnostics at debug level.
	logger *slog.Logger

	baseURL   string
	timeout   time.Duration
	userAgent string
	proxyAddr string

	// retries is how many times a transient failure is retried.
	retries uint64

	// retryWait is the constant wait between retries.
	retryWait time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Notion origin. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithSOCKSProxy routes every request through a SOCKS5 proxy ("host:port").
func WithSOCKSProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddr = address
	}
}

// WithRetries sets how many times a transient failure is retried.
// 0 disables retries.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = uint64(n)
	}
}

// WithRetryWait sets the wait between retries.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		c.retryWait = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client authenticated with the token_v2 cookie value.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	c := &Client{
		logger:    slog.Default(),
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
		retryWait: DefaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", c.userAgent).
		SetCookie(&http.Cookie{Name: tokenCookie, Value: token})

	if c.proxyAddr != "" {
		transport, err := newProxyTransport(c.proxyAddr)
		if err != nil {
			return nil, err
		}
		c.http.SetTransport(transport)
	}
	return c, nil
}

// Get fetches one page.
// A block that does not exist, is not visible to the token, or was deleted
// yields an error wrapping model.ErrPageNotFound.
func (c *Client) Get(ctx context.Context, id model.PageID) (*model.Page, error) {
	blocks, err := c.loadBlocks(ctx, []model.PageID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}
	b := blocks[0]
	if b == nil {
		return nil, fmt.Errorf("page %s: %w", id, model.ErrPageNotFound)
	}
	if b.kind != model.KindPage {
		c.logger.Debug("block is not a page", "page", id, "kind", b.kind)
	}
	return b.page, nil
}

// Refresh re-reads the page and replaces its fields.
func (c *Client) Refresh(ctx context.Context, page *model.Page) error {
	fresh, err := c.Get(ctx, page.ID)
	if err != nil {
		return err
	}
	*page = *fresh
	return nil
}

// Children resolves the kinds of the page's content blocks.
// Children that cannot be read are skipped.
func (c *Client) Children(ctx context.Context, page *model.Page) ([]model.ChildRef, error) {
	refs := make([]model.ChildRef, 0, len(page.ChildIDs))
	rest := page.ChildIDs
	for len(rest) > 0 {
		n := min(len(rest), maxRecordsPerCall)
		chunk := rest[:n]
		rest = rest[n:]

		blocks, err := c.loadBlocks(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %s: %w", page.ID, err)
		}
		for i, b := range blocks {
			if b == nil {
				c.logger.Debug("skipping unreadable child", "page", page.ID, "child", chunk[i])
				continue
			}
			refs = append(refs, model.ChildRef{ID: b.page.ID, Kind: b.kind})
		}
	}
	return refs, nil
}

// SetTitle replaces the page title with a single plain text segment.
func (c *Client) SetTitle(ctx context.Context, page *model.Page, title string) error {
	op := operation{
		ID:      page.ID.Dashed(),
		Table:   tableBlock,
		Path:    []string{"properties", "title"},
		Command: "set",
		Args:    [][]string{{title}},
	}
	if err := c.submit(ctx, op); err != nil {
		return fmt.Errorf("failed to set title of %s: %w", page.ID, err)
	}
	return nil
}

// SetFormat merges flags into the page's format.
func (c *Client) SetFormat(ctx context.Context, page *model.Page, flags map[string]bool) error {
	op := operation{
		ID:      page.ID.Dashed(),
		Table:   tableBlock,
		Path:    []string{"format"},
		Command: "update",
		Args:    flags,
	}
	if err := c.submit(ctx, op); err != nil {
		return fmt.Errorf("failed to set format of %s: %w", page.ID, err)
	}
	return nil
}

// loadBlocks reads up to maxRecordsPerCall blocks. The result has one entry
// per id, nil for blocks that are not available.
func (c *Client) loadBlocks(ctx context.Context, ids []model.PageID) ([]*block, error) {
	req := recordValuesRequest{Requests: make([]recordRequest, 0, len(ids))}
	for _, id := range ids {
		req.Requests = append(req.Requests, recordRequest{Table: tableBlock, ID: id.Dashed()})
	}

	body, err := c.post(ctx, pathGetRecordValues, req)
	if err != nil {
		return nil, err
	}
	return parseRecordValues(body, ids)
}

// submit sends a single-operation transaction.
func (c *Client) submit(ctx context.Context, op operation) error {
	_, err := c.post(ctx, pathSubmitTransaction, transaction{Operations: []operation{op}})
	return err
}

// post sends a JSON request and retries transient failures.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	wait := c.retryWait
	if wait <= 0 {
		wait = time.Millisecond
	}
	backoff := retry.WithMaxRetries(c.retries, retry.NewConstant(wait))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := c.postOnce(ctx, path, payload)
		if err != nil {
			if errors.Is(err, model.ErrTransient) {
				c.logger.Debug("notion request failed, retrying",
					"path", path,
					"attempt", attempt,
					"error", err,
				)
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// postOnce sends one request and maps the outcome to the error taxonomy.
func (c *Client) postOnce(ctx context.Context, path string, payload any) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %w", path, model.ErrTransient, err)
	}

	code := resp.StatusCode()
	c.logger.Debug("notion request",
		"path", path,
		"status", code,
		"duration", resp.Time(),
	)
	if err := classifyStatus(code); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resp.Body(), nil
}

// classifyStatus maps an HTTP status code to the error taxonomy.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w (status %d)", model.ErrTransient, code)
	default:
		return fmt.Errorf("%w (status %d)", ErrRequestRejected, code)
	}
}
