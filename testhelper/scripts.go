package testhelper

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript creates a script file with the given contents under dir,
// creating intermediate directories as needed, and returns its full path.
func WriteScript(t *testing.T, dir, name, contents string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create script directory %s: %v", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o755); err != nil {
		t.Fatalf("failed to write script %s: %v", path, err)
	}
	return path
}

// ScriptRoot creates a script root directory under the site root and
// returns both. The layout mirrors a deployment: <site>/sql/<driver>/.
func ScriptRoot(t *testing.T) (siteRoot, scriptRoot string) {
	t.Helper()

	siteRoot = t.TempDir()
	scriptRoot = filepath.Join(siteRoot, "sql")
	if err := os.Mkdir(scriptRoot, 0o755); err != nil {
		t.Fatalf("failed to create script root: %v", err)
	}
	return siteRoot, scriptRoot
}
