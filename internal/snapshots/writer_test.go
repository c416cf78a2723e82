package snapshots

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

func TestWriterWritesFilesAndManifest(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	m, err := w.Write(sampleTeams(), sampleFixtureList())
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if m.Teams != 2 || m.Fixtures != 1 || m.Version == "" {
		t.Fatalf("unexpected manifest: %+v", m)
	}

	ds, err := NewFSStore(dir).Load()
	if err != nil {
		t.Fatalf("written files did not load: %v", err)
	}
	if ds.Version != m.Version {
		t.Fatalf("manifest version %s does not match loaded %s", m.Version, ds.Version)
	}

	read, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if read.Version != m.Version || !read.UpdatedAt.Equal(m.UpdatedAt) {
		t.Fatalf("manifest mismatch: %+v vs %+v", read, m)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriterRejectsInvalidDataWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	if _, err := w.Write(sampleTeams(), sampleFixtureList()); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}
	before, _ := os.ReadFile(StandingsPath(dir))

	_, err := w.Write([]standings.Team{{Name: "Arsenal"}}, nil)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	after, _ := os.ReadFile(StandingsPath(dir))
	if string(before) != string(after) {
		t.Fatalf("standings file changed after rejected write")
	}
}

func TestWriterHandlesNil(t *testing.T) {
	var w *Writer
	if _, err := w.Write(sampleTeams(), nil); err == nil {
		t.Fatalf("expected error for nil writer")
	}
}

func TestReadManifestMissing(t *testing.T) {
	if _, err := ReadManifest(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}
