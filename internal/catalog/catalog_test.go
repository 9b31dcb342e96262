package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
	"github.com/starford/readmana/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// doc builds a minimal record document. Empty strings become null.
func doc(title, author, modified string, tags ...string) string {
	q := func(s string) string {
		if s == "" {
			return "null"
		}
		return fmt.Sprintf("%q", s)
	}
	tagJSON := "[]"
	if len(tags) > 0 {
		tagJSON = "["
		for i, tg := range tags {
			if i > 0 {
				tagJSON += ", "
			}
			tagJSON += fmt.Sprintf("%q", tg)
		}
		tagJSON += "]"
	}
	return fmt.Sprintf(`{"title": %s, "author": %s, "timeLastMod": %s, "pageTotal": 100, "pageCurrent": 50,
"dateAdded": "2020-01-01", "datePlan": "2020-01-11", "tag": %s}`, q(title), q(author), q(modified), tagJSON)
}

func openLibrary(t *testing.T, lib *testutil.Library) *Catalog {
	t.Helper()
	c, err := Load(lib.ConfigPath, WithLogger(quietLogger()), WithClock(testutil.FixedClock(t, "2020-01-06")))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func titles(list []*record.Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Title()
	}
	return out
}

func TestLoad_ResolvesDirectories(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	c := openLibrary(t, lib)

	if c.RecordDir() != lib.RecordDir {
		t.Errorf("RecordDir = %q, want %q", c.RecordDir(), lib.RecordDir)
	}
	if c.NoteDir() != lib.NoteDir {
		t.Errorf("NoteDir = %q, want %q", c.NoteDir(), lib.NoteDir)
	}
	if c.ArchiveDir() != lib.ArchiveDir {
		t.Errorf("ArchiveDir = %q, want %q", c.ArchiveDir(), lib.ArchiveDir)
	}
	if info, err := os.Stat(lib.ArchiveDir); err != nil || !info.IsDir() {
		t.Errorf("archive dir not created: %v", err)
	}
	if c.Config().LogLevel != slog.LevelInfo {
		t.Errorf("default log level = %v", c.Config().LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
	t.Run("config path is a directory", func(t *testing.T) {
		_, err := Load(t.TempDir())
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
	t.Run("missing required field", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "config.yaml")
		testutil.WriteFile(t, p, "record_dir: /tmp\n")
		_, err := Load(p)
		if !errors.Is(err, apperr.ErrSchema) {
			t.Errorf("err = %v, want ErrSchema", err)
		}
	})
	t.Run("malformed document", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "config.yaml")
		testutil.WriteFile(t, p, "record_dir: [oops\n")
		_, err := Load(p)
		if !errors.Is(err, apperr.ErrFormat) {
			t.Errorf("err = %v, want ErrFormat", err)
		}
	})
	t.Run("note dir missing", func(t *testing.T) {
		lib := testutil.TestLibrary(t, "")
		if err := os.Remove(lib.NoteDir); err != nil {
			t.Fatal(err)
		}
		_, err := Load(lib.ConfigPath, WithLogger(quietLogger()))
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestLoad_JSONConfigAndOpeners(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"r", "n", "a"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	p := filepath.Join(root, "config.json")
	testutil.WriteFile(t, p, `{
  "record_dir": "$CONFIG_DIR/r",
  "note_dir": "$CONFIG_DIR/n",
  "archive_dir": "$CONFIG_DIR/a",
  "openers": {".PDF": "zathura", "epub": null}
}`)
	c, err := Load(p, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ArchiveDir() != filepath.Join(root, "a") {
		t.Errorf("ArchiveDir = %q", c.ArchiveDir())
	}
	want := map[string]string{"pdf": "zathura", "epub": ""}
	if diff := cmp.Diff(want, c.Openers()); diff != "" {
		t.Errorf("Openers mismatch (-want +got):\n%s", diff)
	}
	if got := c.Opener("Pdf"); got != "zathura" {
		t.Errorf("Opener(Pdf) = %q", got)
	}
}

func TestScan_CaseInsensitiveExtension(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "a.json", doc("Alpha", "", ""))
	testutil.WriteRecord(t, lib.RecordDir, "B.JSON", doc("Beta", "", ""))
	testutil.WriteRecord(t, lib.RecordDir, "c.txt", doc("Gamma", "", ""))
	testutil.WriteRecord(t, lib.RecordDir, "a.json"+record.BackupSuffix, doc("Old", "", ""))
	testutil.WriteRecord(t, lib.ArchiveDir, "d.json", doc("Delta", "", ""))

	c := openLibrary(t, lib)
	if got := len(c.Active()); got != 2 {
		t.Errorf("active = %v, want 2 records", titles(c.Active()))
	}
	if diff := cmp.Diff([]string{"Delta"}, titles(c.Archived())); diff != "" {
		t.Errorf("archived mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_ExternalDeletionDropsRecord(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "keep.json", doc("Keep", "", ""))
	gone := testutil.WriteRecord(t, lib.RecordDir, "gone.json", doc("Gone", "", ""))

	c := openLibrary(t, lib)
	if len(c.Active()) != 2 {
		t.Fatalf("active = %v", titles(c.Active()))
	}
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	if err := c.Scan(); err != nil {
		t.Fatalf("Scan after deletion: %v", err)
	}
	if diff := cmp.Diff([]string{"Keep"}, titles(c.Active())); diff != "" {
		t.Errorf("active mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_DiscardsUnpersistedEdits(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "a.json", doc("Alpha", "", ""))
	c := openLibrary(t, lib)

	r, _ := c.Record(0)
	if err := r.Set(record.KeyTitle, "Changed"); err != nil {
		t.Fatal(err)
	}
	if err := c.Scan(); err != nil {
		t.Fatal(err)
	}
	r, _ = c.Record(0)
	if r.Title() != "Alpha" {
		t.Errorf("after scan: title %q, want on-disk value", r.Title())
	}
}

func TestScan_MalformedFileReported(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "good.json", doc("Good", "", ""))
	testutil.WriteRecord(t, lib.RecordDir, "bad.json", `{"title": `)

	c := openLibrary(t, lib)
	if diff := cmp.Diff([]string{"Good"}, titles(c.Active())); diff != "" {
		t.Errorf("active mismatch (-want +got):\n%s", diff)
	}
	if err := c.Scan(); !errors.Is(err, apperr.ErrFormat) {
		t.Errorf("Scan err = %v, want ErrFormat", err)
	}
	if len(c.Active()) != 1 {
		t.Errorf("good record dropped after failing scan")
	}
}

func TestSortBy(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "1.json", doc("banana", "Carol", "2020-01-02 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "2.json", doc("Apple", "", "2020-01-05 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "3.json", doc("", "alice", ""))
	testutil.WriteRecord(t, lib.RecordDir, "4.json", doc("cherry", "Bob", "2020-01-03 08:00:00"))
	c := openLibrary(t, lib)

	if diff := cmp.Diff([]string{"Apple", "cherry", "banana", ""}, titles(c.Active())); diff != "" {
		t.Errorf("default order mismatch (-want +got):\n%s", diff)
	}

	cases := []struct {
		key  SortKey
		want []string
	}{
		{SortTitle, []string{"Apple", "banana", "cherry", ""}},
		{SortAuthor, []string{"", "cherry", "banana", "Apple"}},
		{SortModified, []string{"Apple", "cherry", "banana", ""}},
	}
	for _, tc := range cases {
		if err := c.SortBy(tc.key); err != nil {
			t.Fatalf("SortBy(%s): %v", tc.key, err)
		}
		if diff := cmp.Diff(tc.want, titles(c.Active())); diff != "" {
			t.Errorf("SortBy(%s) mismatch (-want +got):\n%s", tc.key, diff)
		}
	}

	if err := c.SortBy("pages"); !errors.Is(err, apperr.ErrKeyNotSupported) {
		t.Errorf("unknown key: err = %v", err)
	}
}

func TestSortBy_ReadIsStable(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "1.json", doc("one", "", "2020-01-04 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "2.json", doc("two", "", "2020-01-03 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "3.json", doc("three", "", "2020-01-02 08:00:00"))
	c := openLibrary(t, lib)

	r, _ := c.Record(2)
	r.UpdateLastRead()
	if err := c.SortBy(SortRead); err != nil {
		t.Fatal(err)
	}
	// Unread records keep their modified order behind the read one.
	if diff := cmp.Diff([]string{"three", "one", "two"}, titles(c.Active())); diff != "" {
		t.Errorf("read order mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateValues(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "1.json", doc("One", "", "2020-01-03 08:00:00", "Fiction", "Classic"))
	testutil.WriteRecord(t, lib.RecordDir, "2.json",
		`{"title": "Two", "timeLastMod": "2020-01-02 08:00:00", "isbn": "978-0", "tag": ["fiction", "Poetry"]}`)
	c := openLibrary(t, lib)

	got, err := c.AggregateValues(record.KeyISBN)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != record.Absent || got[1] != "978-0" {
		t.Errorf("isbn values = %v", got)
	}

	got, err = c.AggregateValues(record.KeyTitle)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"One", "Two"}, got); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	got, err = c.AggregateValues(record.KeyTag)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"Fiction", "Classic", "Poetry"}, got); diff != "" {
		t.Errorf("tag union mismatch (-want +got):\n%s", diff)
	}

	for _, key := range []string{record.KeyLog, record.KeyRemark} {
		if _, err := c.AggregateValues(key); !errors.Is(err, apperr.ErrKeyNotSupported) {
			t.Errorf("AggregateValues(%s): err = %v", key, err)
		}
	}
}

func TestProgressAll(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "1.json", doc("One", "", "2020-01-03 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "2.json", `{"title": "Two", "timeLastMod": "2020-01-02 08:00:00",
"pageTotal": 10, "pageCurrent": 1, "dateAdded": "2020-01-01", "datePlan": "2020-01-21"}`)
	c := openLibrary(t, lib)

	got, err := c.ProgressAll()
	if err != nil {
		t.Fatal(err)
	}
	want := []record.Progress{{Current: 50, Plan: 50}, {Current: 10, Plan: 25}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	r, _ := c.Record(1)
	_ = r.Set(record.KeyDatePlan, "2019-12-01")
	if _, err := c.ProgressAll(); !errors.Is(err, apperr.ErrDateOrder) {
		t.Errorf("err = %v, want ErrDateOrder", err)
	}
}

func TestNotePathAndState(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	external := filepath.Join(lib.Root, "elsewhere")
	testutil.WriteRecord(t, lib.RecordDir, "1.json",
		`{"title": "Rooted", "timeLastMod": "2020-01-04 08:00:00", "noteLocation": "-/hawking", "noteType": "md",
"bookLocalSource": "`+filepath.Join(lib.Root, "hawking.pdf")+`"}`)
	testutil.WriteRecord(t, lib.RecordDir, "2.json",
		`{"title": "Literal", "timeLastMod": "2020-01-03 08:00:00", "noteLocation": "`+external+`", "noteType": "org"}`)
	testutil.WriteRecord(t, lib.RecordDir, "3.json",
		`{"title": "NoType", "timeLastMod": "2020-01-02 08:00:00", "noteLocation": "-/x"}`)
	c := openLibrary(t, lib)

	p, ok, err := c.NotePath(0)
	if err != nil || !ok {
		t.Fatalf("NotePath(0) = %q, %v, %v", p, ok, err)
	}
	if want := filepath.Join(lib.NoteDir, "hawking", "hawking.md"); p != want {
		t.Errorf("NotePath(0) = %q, want %q", p, want)
	}

	p, _, _ = c.NotePath(1)
	if want := filepath.Join(external, "elsewhere.org"); p != want {
		t.Errorf("NotePath(1) = %q, want %q", p, want)
	}

	if _, ok, err := c.NotePath(2); ok || err != nil {
		t.Errorf("NotePath(2) ok=%v err=%v, want absent", ok, err)
	}
	if _, _, err := c.NotePath(3); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("out of range: err = %v", err)
	}

	note, src, err := c.NoteAndSourceState(0)
	if err != nil {
		t.Fatal(err)
	}
	if note != FileMissing || src != FileMissing {
		t.Errorf("states = %v, %v; want missing, missing", note, src)
	}

	testutil.WriteFile(t, filepath.Join(lib.NoteDir, "hawking", "hawking.md"), "# notes\n")
	testutil.WriteFile(t, filepath.Join(lib.Root, "hawking.pdf"), "%PDF")
	note, src, _ = c.NoteAndSourceState(0)
	if note != FilePresent || src != FilePresent {
		t.Errorf("states = %v, %v; want present, present", note, src)
	}

	note, src, _ = c.NoteAndSourceState(2)
	if note != FileAbsent || src != FileAbsent {
		t.Errorf("states = %v, %v; want absent, absent", note, src)
	}
}

func TestAddNewAndCreateRecord(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "old.json", doc("Old", "", ""))
	c := openLibrary(t, lib)

	if err := c.AddNew(nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("AddNew(nil): err = %v", err)
	}
	existing, _ := c.Record(0)
	if err := c.AddNew(existing); !errors.Is(err, apperr.ErrDuplicateKey) {
		t.Errorf("AddNew(dup): err = %v", err)
	}

	r, err := c.CreateRecord("dune")
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if r.Path() != filepath.Join(lib.RecordDir, "dune.json") {
		t.Errorf("path = %q", r.Path())
	}
	if v, _ := r.Get(record.KeyDateAdded); v != "2020-01-06" {
		t.Errorf("dateAdded = %v", v)
	}
	if len(c.Active()) != 2 {
		t.Errorf("active = %d records", len(c.Active()))
	}

	if _, err := c.CreateRecord("../escape"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("path name: err = %v", err)
	}
	if _, err := c.CreateRecord("old.json"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("existing name: err = %v", err)
	}

	if err := c.PersistAll(); err != nil {
		t.Fatalf("PersistAll: %v", err)
	}
	if _, err := os.Stat(r.Path()); err != nil {
		t.Errorf("new record not written: %v", err)
	}
	if _, err := os.Stat(record.BackupPath(r.Path())); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("first write must not leave a backup: %v", err)
	}
}

func TestRefresh_PersistsThenRescans(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	p := testutil.WriteRecord(t, lib.RecordDir, "a.json", doc("Alpha", "", ""))
	c := openLibrary(t, lib)

	r, _ := c.Record(0)
	if err := r.Set(record.KeyTitle, "Omega"); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	r, _ = c.Record(0)
	if r.Title() != "Omega" || r.Dirty() {
		t.Errorf("after refresh: title %q dirty %v", r.Title(), r.Dirty())
	}
	if _, err := os.Stat(record.BackupPath(p)); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "1.json", doc("One", "", "2020-01-04 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "2.json", doc("Two", "", "2020-01-03 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "3.json", doc("Three", "", "2020-01-02 08:00:00"))
	c := openLibrary(t, lib)
	first, _ := c.Record(0)
	wasDirty := first.Dirty()

	if err := c.Archive([]int{2, 0, 2}, OpArchive); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if diff := cmp.Diff([]string{"Two"}, titles(c.Active())); diff != "" {
		t.Errorf("active mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"One", "Three"}, titles(c.Archived())); diff != "" {
		t.Errorf("archived mismatch (-want +got):\n%s", diff)
	}
	moved, _ := c.ArchivedRecord(0)
	if moved.Path() != filepath.Join(lib.ArchiveDir, "1.json") {
		t.Errorf("relocated path = %q", moved.Path())
	}
	if moved != first || moved.Dirty() != wasDirty {
		t.Error("archiving must move the same record without touching its dirty state")
	}

	// A rescan sees the same split.
	if err := c.Scan(); err != nil {
		t.Fatal(err)
	}
	if len(c.Active()) != 1 || len(c.Archived()) != 2 {
		t.Errorf("after scan: %v / %v", titles(c.Active()), titles(c.Archived()))
	}

	if err := c.Archive([]int{1}, OpUnarchive); err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(lib.RecordDir, "3.json")); err != nil {
		t.Errorf("unarchived file not back: %v", err)
	}
}

func TestArchive_Errors(t *testing.T) {
	lib := testutil.TestLibrary(t, "")
	testutil.WriteRecord(t, lib.RecordDir, "1.json", doc("One", "", "2020-01-04 08:00:00"))
	testutil.WriteRecord(t, lib.RecordDir, "2.json", doc("Two", "", "2020-01-03 08:00:00"))
	c := openLibrary(t, lib)

	if err := c.Archive([]int{0, 5}, OpArchive); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad index: err = %v", err)
	}
	if len(c.Active()) != 2 {
		t.Error("a rejected call must not move anything")
	}

	if err := c.Archive([]int{0}, "shred"); !errors.Is(err, apperr.ErrKeyNotSupported) {
		t.Errorf("bad op: err = %v", err)
	}

	testutil.WriteRecord(t, lib.ArchiveDir, "1.json", doc("Clash", "", ""))
	if err := c.Archive([]int{0}, OpArchive); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("clash: err = %v, want ErrAlreadyExists", err)
	}
	if diff := cmp.Diff([]string{"One", "Two"}, titles(c.Active())); diff != "" {
		t.Errorf("active after clash (-want +got):\n%s", diff)
	}

	draft, err := c.CreateRecord("draft")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Archive([]int{1, 2}, OpArchive); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unsaved record: err = %v, want ErrNotFound", err)
	}
	if len(c.Active()) != 3 || !storage.FileExists(filepath.Join(lib.RecordDir, "2.json")) {
		t.Error("an unsaved record must stop the call before anything moves")
	}
	if draft.Path() != filepath.Join(lib.RecordDir, "draft.json") {
		t.Errorf("draft path = %q", draft.Path())
	}
}
