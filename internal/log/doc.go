// Package log wraps log/slog with a handler that keeps secrets out of
// notiontidy's logs.
//
// Every request to Notion carries the token_v2 cookie, and the same token
// sits in NOTION_TOKEN. Neither may reach a log line. SecureHandler masks:
//   - attributes whose key names a token, cookie, auth header or password;
//   - string values that look like secrets (token_v2=..., bearer and basic
//     credentials, JWTs, private keys, long opaque keys).
//
// Page ids are 32 hex characters and would match the opaque-key rule. They
// are exempt, so traversal and failure logs still say which page was hit.
//
// Typical use from the CLI:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Debug("request", "path", "/api/v3/getRecordValues", "cookie", "token_v2=...")
package log
