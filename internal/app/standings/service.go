package standings

import (
	"errors"
	"time"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	domainstandings "github.com/preston-bernstein/league-sim-service/internal/domain/standings"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

// ErrNoData is returned before the first dataset has been loaded.
var ErrNoData = errors.New("league data not loaded")

// DatasetSource exposes the active dataset.
type DatasetSource interface {
	Current() (snapshots.Dataset, bool)
}

// Service exposes the current table and remaining fixtures.
type Service struct {
	data DatasetSource
}

// NewService constructs a Service backed by data.
func NewService(data DatasetSource) *Service {
	return &Service{data: data}
}

// Table is the league table response.
type Table struct {
	Version   string                     `json:"version"`
	LoadedAt  time.Time                  `json:"loadedAt"`
	Standings []domainstandings.Standing `json:"standings"`
}

// FixtureList is the remaining-fixtures response.
type FixtureList struct {
	Version  string             `json:"version"`
	Fixtures []fixtures.Fixture `json:"fixtures"`
}

// Standings returns the table in league order.
func (s *Service) Standings() (Table, error) {
	ds, ok := s.data.Current()
	if !ok {
		return Table{}, ErrNoData
	}
	return Table{Version: ds.Version, LoadedAt: ds.LoadedAt, Standings: ds.Table.Standings()}, nil
}

// Fixtures returns the remaining fixtures, optionally filtered to one team.
func (s *Service) Fixtures(team string) (FixtureList, error) {
	ds, ok := s.data.Current()
	if !ok {
		return FixtureList{}, ErrNoData
	}
	list := ds.Fixtures
	if team != "" {
		list = fixtures.Involving(list, team)
	}
	if list == nil {
		list = []fixtures.Fixture{}
	}
	return FixtureList{Version: ds.Version, Fixtures: list}, nil
}

// Teams returns team names in league order.
func (s *Service) Teams() []string {
	ds, ok := s.data.Current()
	if !ok {
		return nil
	}
	standings := ds.Table.Standings()
	names := make([]string, len(standings))
	for i, st := range standings {
		names[i] = st.Name
	}
	return names
}

// Version returns the active dataset version, or "" before the first load.
func (s *Service) Version() string {
	ds, _ := s.data.Current()
	return ds.Version
}
