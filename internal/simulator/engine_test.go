package simulator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

func newTable(t *testing.T, teams ...standings.Team) *standings.Table {
	t.Helper()
	table, err := standings.NewTable(teams)
	require.NoError(t, err)
	return table
}

func fourTeams(t *testing.T) *standings.Table {
	return newTable(t,
		standings.Team{Name: "Liverpool", Points: 67, GoalDiff: 40, Wins: 20},
		standings.Team{Name: "Arsenal", Points: 54, GoalDiff: 28, Wins: 15},
		standings.Team{Name: "Chelsea", Points: 49, GoalDiff: 15, Wins: 14},
		standings.Team{Name: "Everton", Points: 30, GoalDiff: -5, Wins: 7},
	)
}

func roundRobin(names ...string) []fixtures.Fixture {
	var out []fixtures.Fixture
	for _, h := range names {
		for _, a := range names {
			if h != a {
				out = append(out, fixtures.Fixture{Home: h, Away: a})
			}
		}
	}
	return out
}

func TestRunWithoutFixturesKeepsTable(t *testing.T) {
	engine := NewEngine(3, 10, 42)
	tally, err := engine.Run(context.Background(), fourTeams(t), nil, "Arsenal", 2, 100, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, tally.Trials)
	assert.Equal(t, 100, tally.Hits)
	assert.Equal(t, []int{0, 100, 0, 0}, tally.Positions)
	assert.InDelta(t, 1.0, tally.Probability(), 1e-9)
	assert.InDelta(t, 15, tally.AverageWinsAtRank(), 1e-9)
	assert.InDelta(t, 54, tally.AveragePointsAtRank(), 1e-9)

	tally, err = engine.Run(context.Background(), fourTeams(t), nil, "Arsenal", 1, 100, nil)
	require.NoError(t, err)
	assert.Zero(t, tally.Hits)
	assert.Zero(t, tally.AverageWinsAtRank())
}

func TestRunUnreachableRank(t *testing.T) {
	list := []fixtures.Fixture{{Home: "Everton", Away: "Chelsea"}}
	tally, err := NewEngine(2, 50, 9).Run(context.Background(), fourTeams(t), list, "Everton", 1, 400, nil)
	require.NoError(t, err)
	assert.Zero(t, tally.Hits)
	assert.Equal(t, 400, tally.Positions[3])
}

func TestRunTiedTeamsDrawLots(t *testing.T) {
	table := newTable(t,
		standings.Team{Name: "Brentford", Points: 30, GoalDiff: 0},
		standings.Team{Name: "Wolves", Points: 30, GoalDiff: 0},
	)
	tally, err := NewEngine(4, 100, 5).Run(context.Background(), table, nil, "Wolves", 1, 4000, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tally.Probability(), 0.05)
	assert.Equal(t, 4000, tally.Positions[0]+tally.Positions[1])
}

func TestRunIsReproducibleWithSeed(t *testing.T) {
	table := fourTeams(t)
	list := roundRobin("Liverpool", "Arsenal", "Chelsea", "Everton")

	a, err := NewEngine(4, 64, 1234).Run(context.Background(), table, list, "Chelsea", 2, 2000, nil)
	require.NoError(t, err)
	b, err := NewEngine(4, 64, 1234).Run(context.Background(), table, list, "Chelsea", 2, 2000, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunPositionsSumToTrials(t *testing.T) {
	list := roundRobin("Liverpool", "Arsenal", "Chelsea", "Everton")
	tally, err := NewEngine(3, 77, 3).Run(context.Background(), fourTeams(t), list, "Arsenal", 2, 1001, nil)
	require.NoError(t, err)

	sum := 0
	for _, c := range tally.Positions {
		sum += c
	}
	assert.Equal(t, 1001, sum)
	assert.Equal(t, tally.Positions[0]+tally.Positions[1], tally.Hits)

	total := 0.0
	for _, share := range tally.Distribution() {
		total += share
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestRunReportsProgress(t *testing.T) {
	var last, calls, lastHits int
	progress := func(completed, hits int) {
		calls++
		assert.GreaterOrEqual(t, completed, last)
		last = completed
		lastHits = hits
	}
	tally, err := NewEngine(2, 100, 11).Run(context.Background(), fourTeams(t), roundRobin("Arsenal", "Chelsea"), "Arsenal", 2, 1000, progress)
	require.NoError(t, err)
	assert.Equal(t, 1000, last)
	assert.Equal(t, 10, calls)
	assert.Equal(t, tally.Hits, lastHits)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(2, 10, 1).Run(ctx, fourTeams(t), nil, "Arsenal", 1, 100, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunValidatesInput(t *testing.T) {
	engine := NewEngine(2, 10, 1)
	ctx := context.Background()

	_, err := engine.Run(ctx, fourTeams(t), nil, "Spurs", 1, 10, nil)
	assert.ErrorIs(t, err, standings.ErrUnknownTeam)

	_, err = engine.Run(ctx, fourTeams(t), nil, "Arsenal", 0, 10, nil)
	assert.ErrorIs(t, err, ErrRankOutOfRange)

	_, err = engine.Run(ctx, fourTeams(t), nil, "Arsenal", 5, 10, nil)
	assert.ErrorIs(t, err, ErrRankOutOfRange)

	_, err = engine.Run(ctx, fourTeams(t), nil, "Arsenal", 1, 0, nil)
	assert.ErrorIs(t, err, ErrNoTrials)

	_, err = engine.Run(ctx, newTable(t), nil, "Arsenal", 1, 10, nil)
	assert.ErrorIs(t, err, ErrNoTeams)

	_, err = engine.Run(ctx, fourTeams(t), []fixtures.Fixture{{Home: "Arsenal", Away: "Spurs"}}, "Arsenal", 1, 10, nil)
	assert.ErrorIs(t, err, fixtures.ErrUnknownTeam)
}

func TestRunGridDistributions(t *testing.T) {
	list := roundRobin("Liverpool", "Arsenal", "Chelsea", "Everton")
	grid, err := NewEngine(4, 50, 8).RunGrid(context.Background(), fourTeams(t), list, 2000, nil)
	require.NoError(t, err)

	require.Len(t, grid.Positions, 4)
	assert.Equal(t, []string{"Liverpool", "Arsenal", "Chelsea", "Everton"}, grid.Teams)
	for pos := 0; pos < 4; pos++ {
		column := 0
		for team := range grid.Positions {
			column += grid.Positions[team][pos]
		}
		assert.Equal(t, 2000, column, "position %d", pos+1)
	}
	for team := range grid.Positions {
		total := 0.0
		for _, share := range grid.Distribution(team) {
			total += share
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	}
	assert.Less(t, grid.ExpectedPosition(0), grid.ExpectedPosition(3))
}

func TestRunGridWithoutFixtures(t *testing.T) {
	grid, err := NewEngine(1, 10, 2).RunGrid(context.Background(), fourTeams(t), nil, 30, nil)
	require.NoError(t, err)
	for team := range grid.Positions {
		assert.Equal(t, 30, grid.Positions[team][team])
		assert.InDelta(t, float64(team+1), grid.ExpectedPosition(team), 1e-9)
	}
}

func TestSplitSharesTrials(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, split(10, 3))
	assert.Equal(t, []int{1}, split(1, 1))
}

func TestEngineDefaultsWhenZero(t *testing.T) {
	var engine Engine
	assert.Equal(t, defaultWorkers, engine.workers(math.MaxInt32))
	assert.Equal(t, 2, engine.workers(2))
	assert.Equal(t, defaultBatchSize, engine.batchSize())
	assert.True(t, engine.model().valid())
}
