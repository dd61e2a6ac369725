package config

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
)

// Built-in page-tree roots.
const (
	// JavaScriptRootID is the top page of the JavaScript book.
	JavaScriptRootID = "0b121710a160402fa9fd4646b87bed99"

	// CppRootID is the top page of the C++ book.
	CppRootID = "ad527dc6d4a7420b923494d0b9bfb560"
)

// BuiltinRoots returns the roots known without a config file.
func BuiltinRoots() map[string]string {
	return map[string]string{
		"javascript": JavaScriptRootID,
		"cpp":        CppRootID,
	}
}

// Settings are the run options that can be set in the config file.
// Pointer fields distinguish "not set" from a zero value.
type Settings struct {
	Pause               *time.Duration `yaml:"pause,omitempty"`
	Order               string         `yaml:"order,omitempty"`
	ExploreAfterFailure *bool          `yaml:"explore_after_failure,omitempty"`
	MaxPages            *int           `yaml:"max_pages,omitempty"`
	BatchSize           *int           `yaml:"batch,omitempty"`
	Timeout             *time.Duration `yaml:"timeout,omitempty"`
	Retries             *int           `yaml:"retries,omitempty"`
	RetryWait           *time.Duration `yaml:"retry_wait,omitempty"`
	SOCKSProxy          string         `yaml:"socks_proxy,omitempty"`
	UserAgent           string         `yaml:"user_agent,omitempty"`
	DBDir               string         `yaml:"db_dir,omitempty"`
}

// File represents the structure of the .notiontidy configuration file.
type File struct {
	// DefaultRoot overrides the root used when `run` gets no arguments.
	DefaultRoot string `yaml:"default_root,omitempty"`

	// Roots maps root names to page ids or notion.so URLs.
	// Entries are added to the built-in roots and override them by name.
	Roots map[string]string `yaml:"roots,omitempty"`

	// Settings override the built-in defaults. CLI flags override both.
	Settings Settings `yaml:"settings,omitempty"`
}

// Root is a named traversal root.
type Root struct {
	Name string
	ID   model.PageID
}

// RootTable returns every known root, built-in and configured, sorted by name.
func (c *Config) RootTable() ([]Root, error) {
	raw := BuiltinRoots()
	if c.File != nil {
		for name, id := range c.File.Roots {
			raw[name] = id
		}
	}

	roots := make([]Root, 0, len(raw))
	for name, value := range raw {
		id, err := model.ParsePageID(value)
		if err != nil {
			return nil, fmt.Errorf("%w for %q: %w", ErrInvalidRootID, name, err)
		}
		roots = append(roots, Root{Name: name, ID: id})
	}
	slices.SortFunc(roots, func(a, b Root) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return roots, nil
}

// LookupRoot returns the root with the given name.
func (c *Config) LookupRoot(name string) (Root, error) {
	table, err := c.RootTable()
	if err != nil {
		return Root{}, err
	}
	for _, r := range table {
		if r.Name == name {
			return r, nil
		}
	}
	return Root{}, fmt.Errorf("%w: %q", ErrUnknownRoot, name)
}

// ResolveRoots returns the roots selected by All, Roots or DefaultRoot,
// in that order of precedence. Duplicate names are collapsed.
func (c *Config) ResolveRoots() ([]Root, error) {
	if c.All && len(c.Roots) > 0 {
		return nil, ErrConflictingRootSelection
	}
	if c.All {
		return c.RootTable()
	}

	names := c.Roots
	if len(names) == 0 {
		names = []string{c.DefaultRoot}
	}

	roots := make([]Root, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		r, err := c.LookupRoot(name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	return roots, nil
}
