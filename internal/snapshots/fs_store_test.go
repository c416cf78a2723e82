package snapshots

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestFSStoreLoad(t *testing.T) {
	dir := t.TempDir()
	writeDataFiles(t, dir, sampleStandings, sampleFixtures)

	store := NewFSStore(dir)
	if !store.Exists() {
		t.Fatalf("expected data files to exist")
	}
	ds, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load dataset: %v", err)
	}
	if ds.Table.Len() != 3 || len(ds.Fixtures) != 2 {
		t.Fatalf("unexpected dataset: %d teams, %d fixtures", ds.Table.Len(), len(ds.Fixtures))
	}
	team, ok := ds.Table.Team("Arsenal")
	if !ok || team.Points != 54 || team.GoalDiff != 28 || team.Wins != 15 {
		t.Fatalf("unexpected team: %+v", team)
	}
	if len(ds.Version) != 12 {
		t.Fatalf("expected 12 char version, got %q", ds.Version)
	}
	if ds.LoadedAt.IsZero() {
		t.Fatalf("expected loaded-at to be set")
	}
}

func TestFSStoreVersionTracksContent(t *testing.T) {
	dir := t.TempDir()
	writeDataFiles(t, dir, sampleStandings, sampleFixtures)
	store := NewFSStore(dir)
	first, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	again, _ := store.Load()
	if first.Version != again.Version {
		t.Fatalf("expected stable version, got %s and %s", first.Version, again.Version)
	}

	writeDataFiles(t, dir, sampleStandings, `[{"home": "Arsenal", "away": "Chelsea"}]`)
	changed, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if changed.Version == first.Version {
		t.Fatalf("expected version to change with fixtures")
	}
}

func TestFSStoreErrors(t *testing.T) {
	store := NewFSStore(t.TempDir())
	if store.Exists() {
		t.Fatalf("expected no data files")
	}
	if _, err := store.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	var nilStore *FSStore
	if _, err := nilStore.Load(); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestParseRejectsBadJSON(t *testing.T) {
	if _, err := Parse([]byte("{bad json"), []byte(sampleFixtures)); err == nil || !strings.Contains(err.Error(), "decode standings") {
		t.Fatalf("expected standings decode error, got %v", err)
	}
	if _, err := Parse([]byte(sampleStandings), []byte(`[{"home": "Arsenal", "visitor": "Chelsea"}]`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParseEmptyFixturesIsValid(t *testing.T) {
	ds, err := Parse([]byte(sampleStandings), []byte("[]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Fixtures == nil || len(ds.Fixtures) != 0 {
		t.Fatalf("expected empty fixture list, got %v", ds.Fixtures)
	}
}
