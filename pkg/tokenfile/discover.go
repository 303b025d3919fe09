// Package tokenfile finds, reads and watches token JSON files on disk.
package tokenfile

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches the usual token file names.
var DefaultInclude = []string{"**/tokens.json", "**/*.tokens.json", "**/*.tokens"}

// DefaultExclude skips dependency and build directories.
var DefaultExclude = []string{"**/node_modules/**", "**/.git/**", "**/dist/**", "**/build/**"}

// Matcher applies include and exclude globs to slash-separated relative paths.
type Matcher struct {
	Include []string
	Exclude []string
}

// NewMatcher validates the patterns. Empty include falls back to DefaultInclude.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return &Matcher{Include: include, Exclude: exclude}, nil
}

// Excluded reports whether relPath matches an exclude pattern.
func (m *Matcher) Excluded(relPath string) bool {
	for _, pattern := range m.Exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// Included reports whether relPath is a token file to import.
func (m *Matcher) Included(relPath string) bool {
	if m.Excluded(relPath) {
		return false
	}
	for _, pattern := range m.Include {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// Discover walks root and returns matching files as sorted absolute paths.
func Discover(root string, m *Matcher) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := relSlash(absRoot, path)
		if d.IsDir() {
			if rel != "." && (m.Excluded(rel) || m.Excluded(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if m.Included(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
