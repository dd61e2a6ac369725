// Package main provides the entry point for the notiontidy CLI.
//
// notiontidy walks a Notion page tree breadth-first and normalizes every
// page it reaches: it strips the numeric prefix from titles and turns on
// full width and small text.
//
// Usage:
//
//	notiontidy run
//	notiontidy run cpp javascript
//	notiontidy run --all --dry-run
//
// See --help for all available options.
package main

// main is the entry point for notiontidy.
func main() {
	Execute()
}
