package migrate

import (
	"path/filepath"
	"strings"
)

// Kind classifies a migration script by how it is executed
type Kind int

const (
	// SQL scripts are submitted to the database as one multi-statement batch
	SQL Kind = iota
	// Executable scripts are handed to the script-runner collaborator
	Executable
)

func (k Kind) String() string {
	if k == Executable {
		return "executable"
	}
	return "sql"
}

// Script is a migration script discovered on disk. Identity is purely
// path-based; contents are never hashed.
type Script struct {
	AbsolutePath string
	Kind         Kind
}

// KindOf derives the script kind from a filename extension. The second
// return value is false for files that are not migration scripts.
func KindOf(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sql":
		return SQL, true
	case ".script":
		return Executable, true
	default:
		return 0, false
	}
}
