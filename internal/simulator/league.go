package simulator

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

// league is a table and fixture list compiled to flat slices so a trial never touches maps.
type league struct {
	names    []string
	points   []int
	goalDiff []int
	goalsFor []int
	wins     []int
	home     []int
	away     []int
}

func compile(table *standings.Table, list []fixtures.Fixture) (league, error) {
	teams := table.Teams()
	l := league{
		names:    make([]string, len(teams)),
		points:   make([]int, len(teams)),
		goalDiff: make([]int, len(teams)),
		goalsFor: make([]int, len(teams)),
		wins:     make([]int, len(teams)),
		home:     make([]int, len(list)),
		away:     make([]int, len(list)),
	}
	for i, t := range teams {
		l.names[i] = t.Name
		l.points[i] = t.Points
		l.goalDiff[i] = t.GoalDiff
		l.goalsFor[i] = t.GoalsFor
		l.wins[i] = t.Wins
	}
	for i, f := range list {
		if err := f.Validate(table.Has); err != nil {
			return league{}, err
		}
		l.home[i], _ = table.IndexOf(f.Home)
		l.away[i], _ = table.IndexOf(f.Away)
	}
	return l, nil
}

func (l league) size() int { return len(l.names) }

// season is one worker's scratch copy of the table.
type season struct {
	points   []int
	goalDiff []int
	goalsFor []int
	wins     []int
	order    []int
	lots     []uint64
}

func newSeason(n int) *season {
	return &season{
		points:   make([]int, n),
		goalDiff: make([]int, n),
		goalsFor: make([]int, n),
		wins:     make([]int, n),
		order:    make([]int, n),
		lots:     make([]uint64, n),
	}
}

// play resets the scratch table to the base league and plays every remaining fixture.
func (s *season) play(l league, model GoalModel, r *rand.Rand) {
	copy(s.points, l.points)
	copy(s.goalDiff, l.goalDiff)
	copy(s.goalsFor, l.goalsFor)
	copy(s.wins, l.wins)
	for i := range l.home {
		h, a := l.home[i], l.away[i]
		hg, ag := model.Score(r)
		s.goalDiff[h] += hg - ag
		s.goalDiff[a] += ag - hg
		s.goalsFor[h] += hg
		s.goalsFor[a] += ag
		switch {
		case hg > ag:
			s.points[h] += standings.PointsWin
			s.wins[h]++
		case hg < ag:
			s.points[a] += standings.PointsWin
			s.wins[a]++
		default:
			s.points[h] += standings.PointsDraw
			s.points[a] += standings.PointsDraw
		}
	}
}

func (s *season) compare(i, j int) int {
	switch {
	case s.points[i] != s.points[j]:
		return s.points[j] - s.points[i]
	case s.goalDiff[i] != s.goalDiff[j]:
		return s.goalDiff[j] - s.goalDiff[i]
	default:
		return s.goalsFor[j] - s.goalsFor[i]
	}
}

// rankOf returns the 1-based finishing position of one team. Teams level on every
// criterion draw lots, so the team lands uniformly among its tied group.
func (s *season) rankOf(team int, r *rand.Rand) int {
	ahead, tied := 0, 0
	for i := range s.points {
		if i == team {
			continue
		}
		switch c := s.compare(i, team); {
		case c < 0:
			ahead++
		case c == 0:
			tied++
		}
	}
	if tied == 0 {
		return ahead + 1
	}
	return ahead + 1 + r.IntN(tied+1)
}

// rankAll fills s.order with team indexes in finishing order.
func (s *season) rankAll(r *rand.Rand) []int {
	for i := range s.order {
		s.order[i] = i
		s.lots[i] = r.Uint64()
	}
	slices.SortFunc(s.order, func(a, b int) int {
		if c := s.compare(a, b); c != 0 {
			return c
		}
		switch {
		case s.lots[a] < s.lots[b]:
			return -1
		case s.lots[a] > s.lots[b]:
			return 1
		}
		return 0
	})
	return s.order
}

func (l league) index(name string) (int, error) {
	for i, n := range l.names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", standings.ErrUnknownTeam, name)
}
