// Package notion implements the page store used by the normalizer on top of
// Notion's private v3 web API.
//
// Only two endpoints are used:
//   - POST /api/v3/getRecordValues to read blocks (pages and their children)
//   - POST /api/v3/submitTransaction to write a title or format update
//
// Requests are authenticated with the token_v2 cookie of a logged-in
// browser session. Transient failures (network errors, HTTP 429 and 5xx) are
// retried a bounded number of times with a constant wait and, when retries
// are exhausted, returned wrapped in model.ErrTransient.
//
// The client is not a general Notion SDK. It reads only the block fields
// the normalizer needs: id, type, title, content, format and version.
package notion
