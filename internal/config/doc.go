// Package config provides configuration structures and utilities for notiontidy.
// It defines the traversal settings, the Notion client settings, the named
// page-tree roots and report preferences, and loads the Notion credential.
package config
