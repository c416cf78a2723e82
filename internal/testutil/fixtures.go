package testutil

import (
	"encoding/json"
	"testing"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

// LeagueTeams returns a four-team table with a clear leader and a tight bottom half.
func LeagueTeams() []standings.Team {
	return []standings.Team{
		{Name: "Arsenal", Points: 30, GoalDiff: 20, GoalsFor: 35, Wins: 9, Played: 12},
		{Name: "Chelsea", Points: 24, GoalDiff: 8, GoalsFor: 25, Wins: 7, Played: 12},
		{Name: "Everton", Points: 12, GoalDiff: -10, GoalsFor: 12, Wins: 3, Played: 12},
		{Name: "Fulham", Points: 11, GoalDiff: -18, GoalsFor: 10, Wins: 3, Played: 12},
	}
}

// LeagueFixtures returns one remaining round robin for LeagueTeams.
func LeagueFixtures() []fixtures.Fixture {
	return []fixtures.Fixture{
		{Home: "Arsenal", Away: "Chelsea"},
		{Home: "Everton", Away: "Fulham"},
		{Home: "Chelsea", Away: "Everton"},
		{Home: "Fulham", Away: "Arsenal"},
		{Home: "Arsenal", Away: "Everton"},
		{Home: "Fulham", Away: "Chelsea"},
	}
}

// LeagueDataset parses LeagueTeams and LeagueFixtures the way the file store would.
func LeagueDataset(t testing.TB) snapshots.Dataset {
	t.Helper()
	return DatasetFrom(t, LeagueTeams(), LeagueFixtures())
}

// DatasetFrom builds a validated dataset from in-memory teams and fixtures.
func DatasetFrom(t testing.TB, teams []standings.Team, list []fixtures.Fixture) snapshots.Dataset {
	t.Helper()
	standingsRaw, err := json.Marshal(teams)
	if err != nil {
		t.Fatalf("marshal standings: %v", err)
	}
	fixturesRaw, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshal fixtures: %v", err)
	}
	ds, err := snapshots.Parse(standingsRaw, fixturesRaw)
	if err != nil {
		t.Fatalf("parse dataset: %v", err)
	}
	return ds
}
