// Package model defines the core data structures used throughout notiontidy.
//
// This package contains the following main types:
//   - PageID: A normalized 32-character Notion block identifier
//   - Page: A transient view of a remote page (title, format flags, children)
//   - ChildRef: A child block reference with its block kind
//   - RunReport: The result of normalizing one page tree
//
// The models are shared by the normalizer, the Notion client, the database
// and the report writers, so they live in their own package to avoid import
// cycles. RunReport is serializable to JSON for report output and for the
// run history stored in the database.
package model
