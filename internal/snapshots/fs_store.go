package snapshots

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

// Dataset is one consistent view of the standings and remaining fixtures.
type Dataset struct {
	Table    *standings.Table
	Fixtures []fixtures.Fixture
	// Version is a content hash of both files.
	Version  string
	LoadedAt time.Time
}

// FSStore loads the dataset from JSON files on disk.
type FSStore struct {
	basePath string
	now      func() time.Time
}

// NewFSStore constructs an FS-backed store rooted at basePath.
func NewFSStore(basePath string) *FSStore {
	return &FSStore{basePath: basePath, now: time.Now}
}

// Exists reports whether both data files are present.
func (s *FSStore) Exists() bool {
	if s == nil {
		return false
	}
	for _, p := range []string{StandingsPath(s.basePath), FixturesPath(s.basePath)} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Load reads {basePath}/standings.json and {basePath}/fixtures_list.json and validates them together.
func (s *FSStore) Load() (Dataset, error) {
	if s == nil {
		return Dataset{}, errors.New("snapshot store not configured")
	}
	standingsRaw, err := os.ReadFile(StandingsPath(s.basePath))
	if err != nil {
		return Dataset{}, fmt.Errorf("read standings: %w", err)
	}
	fixturesRaw, err := os.ReadFile(FixturesPath(s.basePath))
	if err != nil {
		return Dataset{}, fmt.Errorf("read fixtures: %w", err)
	}
	ds, err := Parse(standingsRaw, fixturesRaw)
	if err != nil {
		return Dataset{}, err
	}
	ds.LoadedAt = s.now().UTC()
	return ds, nil
}

// Parse decodes and validates raw standings and fixtures documents.
func Parse(standingsRaw, fixturesRaw []byte) (Dataset, error) {
	var teams []standings.Team
	if err := decode(standingsRaw, &teams); err != nil {
		return Dataset{}, fmt.Errorf("decode standings: %w", err)
	}
	var list []fixtures.Fixture
	if err := decode(fixturesRaw, &list); err != nil {
		return Dataset{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return build(teams, list, Version(standingsRaw, fixturesRaw))
}

func build(teams []standings.Team, list []fixtures.Fixture, version string) (Dataset, error) {
	if err := Validate(teams, list); err != nil {
		return Dataset{}, err
	}
	table, err := standings.NewTable(teams)
	if err != nil {
		return Dataset{}, err
	}
	if list == nil {
		list = []fixtures.Fixture{}
	}
	return Dataset{Table: table, Fixtures: list, Version: version}, nil
}

func decode(raw []byte, payload any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(payload)
}

// Version hashes both documents so any edit yields a new version.
func Version(standingsRaw, fixturesRaw []byte) string {
	h := sha256.New()
	h.Write(standingsRaw)
	h.Write([]byte{0})
	h.Write(fixturesRaw)
	return hex.EncodeToString(h.Sum(nil))[:12]
}
