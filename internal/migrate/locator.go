package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Locator discovers candidate migration scripts under a root path plus a
// driver-specific subdirectory.
type Locator struct{}

// NewLocator creates a script locator
func NewLocator() *Locator {
	return &Locator{}
}

// List returns the scripts found directly under rootPath and
// rootPath/driverName, sorted lexicographically by full path. A directory
// that does not exist contributes no entries. Filenames starting with "_"
// or "." are treated as disabled and skipped.
func (l *Locator) List(rootPath, driverName string) ([]Script, error) {
	dirs := []string{rootPath}
	if driverName != "" {
		dirs = append(dirs, filepath.Join(rootPath, driverName))
	}

	var scripts []Script
	for _, dir := range dirs {
		found, err := l.listDir(dir)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, found...)
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].AbsolutePath < scripts[j].AbsolutePath
	})
	return scripts, nil
}

// listDir collects scripts that are direct children of dir; no recursion.
func (l *Locator) listDir(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read script directory %s: %w", dir, err)
	}

	var scripts []Script
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		kind, ok := KindOf(name)
		if !ok {
			continue
		}
		scripts = append(scripts, Script{
			AbsolutePath: filepath.Join(dir, name),
			Kind:         kind,
		})
	}
	return scripts, nil
}
