// Package testutil provides shared test helpers for setting up libraries.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Library is a temporary library layout with a config file pointing at it.
type Library struct {
	Root       string
	RecordDir  string
	NoteDir    string
	ArchiveDir string
	ConfigPath string
}

// TestLibrary creates record and note directories under a temp root and a
// config file that references them through $CONFIG_DIR. extra is appended
// verbatim to the config document.
func TestLibrary(t *testing.T, extra string) *Library {
	t.Helper()
	root := t.TempDir()
	lib := &Library{
		Root:       root,
		RecordDir:  filepath.Join(root, "records"),
		NoteDir:    filepath.Join(root, "notes"),
		ArchiveDir: filepath.Join(root, "records", "archive"),
		ConfigPath: filepath.Join(root, "config.yaml"),
	}
	for _, dir := range []string{lib.RecordDir, lib.NoteDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	doc := "record_dir: $CONFIG_DIR/records\nnote_dir: ${CONFIG_DIR}/notes\n" + extra
	WriteFile(t, lib.ConfigPath, doc)
	return lib
}

// WriteRecord writes a record document named name into dir and returns its path.
func WriteRecord(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	WriteFile(t, p, content)
	return p
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// FixedClock returns a clock stuck at 10:30 local time on date (YYYY-MM-DD).
func FixedClock(t *testing.T, date string) func() time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	now := d.Add(10*time.Hour + 30*time.Minute)
	return func() time.Time { return now }
}
