package testutil

import (
	"testing"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

// NewLeagueDir writes the sample league into a temp data directory and returns its path.
func NewLeagueDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteLeagueFiles(t, dir, LeagueTeams(), LeagueFixtures())
	return dir
}

// WriteLeagueFiles writes standings and fixtures files into dir.
func WriteLeagueFiles(t *testing.T, dir string, teams []standings.Team, list []fixtures.Fixture) snapshots.Manifest {
	t.Helper()
	manifest, err := snapshots.NewWriter(dir).Write(teams, list)
	if err != nil {
		t.Fatalf("failed to write league files: %v", err)
	}
	return manifest
}
