package snapshots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

const (
	sampleStandings = `[
  {"name": "Liverpool", "pts": 67, "goal_diff": 40, "wins": 20},
  {"name": "Arsenal", "pts": 54, "goal_diff": 28, "wins": 15},
  {"name": "Chelsea", "pts": 49, "goal_diff": 15, "wins": 14}
]`
	sampleFixtures = `[
  {"home": "Liverpool", "away": "Arsenal"},
  {"home": "Chelsea", "away": "Liverpool"}
]`
)

func writeDataFiles(t *testing.T, dir, standingsJSON, fixturesJSON string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, StandingsFile), []byte(standingsJSON), 0o644); err != nil {
		t.Fatalf("failed to write standings: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FixturesFile), []byte(fixturesJSON), 0o644); err != nil {
		t.Fatalf("failed to write fixtures: %v", err)
	}
}

func sampleTeams() []standings.Team {
	return []standings.Team{
		{Name: "Liverpool", Points: 67, GoalDiff: 40, Wins: 20},
		{Name: "Arsenal", Points: 54, GoalDiff: 28, Wins: 15},
	}
}

func sampleFixtureList() []fixtures.Fixture {
	return []fixtures.Fixture{{Home: "Arsenal", Away: "Liverpool"}}
}
