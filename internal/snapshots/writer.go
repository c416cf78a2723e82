package snapshots

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

// Writer replaces the data files after validating them and keeps the manifest current.
type Writer struct {
	basePath string
	now      func() time.Time
	mu       sync.Mutex
}

// NewWriter constructs a writer rooted at basePath.
func NewWriter(basePath string) *Writer {
	return &Writer{basePath: basePath, now: time.Now}
}

// Write validates the new standings and fixtures and swaps both files in place.
// Nothing is written when validation fails.
func (w *Writer) Write(teams []standings.Team, list []fixtures.Fixture) (Manifest, error) {
	if w == nil {
		return Manifest{}, fmt.Errorf("snapshot writer not configured")
	}
	if list == nil {
		list = []fixtures.Fixture{}
	}
	if err := Validate(teams, list); err != nil {
		return Manifest{}, err
	}
	standingsRaw, err := json.MarshalIndent(teams, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	fixturesRaw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return Manifest{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.basePath, 0o755); err != nil {
		return Manifest{}, err
	}
	if err := writeIfChanged(StandingsPath(w.basePath), standingsRaw); err != nil {
		return Manifest{}, fmt.Errorf("write standings: %w", err)
	}
	if err := writeIfChanged(FixturesPath(w.basePath), fixturesRaw); err != nil {
		return Manifest{}, fmt.Errorf("write fixtures: %w", err)
	}

	m := Manifest{
		Version:   Version(standingsRaw, fixturesRaw),
		Teams:     len(teams),
		Fixtures:  len(list),
		UpdatedAt: w.now().UTC(),
	}
	if err := writeManifest(w.basePath, m); err != nil {
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

func writeIfChanged(target string, data []byte) error {
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	return writeAtomic(target, data)
}

// writeAtomic writes to a sibling temp file and renames it over target.
func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
