package notion

import "errors"

var (
	// ErrUnauthorized is returned when Notion rejects the token (HTTP 401 or 403).
	ErrUnauthorized = errors.New("notion rejected the token")

	// ErrRequestRejected is returned for any other 4xx response.
	// Retrying the same request will not help.
	ErrRequestRejected = errors.New("notion rejected the request")

	// ErrMalformedResponse is returned when a response body cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed notion response")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrMissingToken is returned when a client is created without a token.
	ErrMissingToken = errors.New("notion token is required")
)
