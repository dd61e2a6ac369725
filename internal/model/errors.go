package model

import "errors"

// Page store errors.
// Store implementations wrap these sentinels so that the normalizer can tell
// expected remote failures apart from unexpected ones with errors.Is().
var (
	// ErrInvalidIdentifier is returned when an identifier does not normalize
	// to 32 hexadecimal characters.
	ErrInvalidIdentifier = errors.New("invalid page identifier")

	// ErrPageNotFound is returned when the remote service has no record for
	// the requested page, or the record is not visible to the credential.
	ErrPageNotFound = errors.New("page not found")

	// ErrTransient is returned for failures that may succeed on a later
	// attempt: network errors, rate limiting and server-side errors.
	ErrTransient = errors.New("transient page store error")
)
