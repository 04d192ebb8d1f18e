package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalizer maps absolute filesystem paths to stable relative keys by
// stripping the configured site root. Keys survive deployments at different
// filesystem roots as long as the layout under the root is unchanged.
type Normalizer struct {
	root string
}

// NewNormalizer creates a Normalizer for the given site root. The root must
// name an existing directory.
func NewNormalizer(root string) (*Normalizer, error) {
	if strings.TrimSpace(root) == "" {
		return nil, &ConfigurationError{Message: "site root must not be empty"}
	}

	cleaned := filepath.Clean(root)
	info, err := os.Stat(cleaned)
	if err != nil {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("site root %s is not accessible", cleaned),
			Cause:   err,
		}
	}
	if !info.IsDir() {
		return nil, &ConfigurationError{Message: fmt.Sprintf("site root %s is not a directory", cleaned)}
	}

	return &Normalizer{root: cleaned}, nil
}

// Root returns the configured site root
func (n *Normalizer) Root() string {
	return n.root
}

// ToRelative strips the site root prefix from an absolute path and returns
// the remainder in slash form with no leading or trailing separator.
func (n *Normalizer) ToRelative(absolutePath string) (string, error) {
	cleaned := filepath.Clean(absolutePath)

	rel, err := filepath.Rel(n.root, cleaned)
	if err != nil {
		return "", &ConfigurationError{
			Message: fmt.Sprintf("path %s cannot be made relative to %s", absolutePath, n.root),
			Cause:   err,
		}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &ConfigurationError{
			Message: fmt.Sprintf("path %s is outside site root %s", absolutePath, n.root),
		}
	}
	if rel == "." {
		return "", nil
	}

	return strings.Trim(filepath.ToSlash(rel), "/"), nil
}

// ToAbsolute is the inverse of ToRelative for keys produced by it
func (n *Normalizer) ToAbsolute(relativeKey string) string {
	return filepath.Join(n.root, filepath.FromSlash(relativeKey))
}
