package standings

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Points awarded per result.
const (
	PointsWin  = 3
	PointsDraw = 1
)

// Team is one row of the league table. JSON keys match the hand-typed standings file.
type Team struct {
	Name     string `json:"name" validate:"required"`
	Points   int    `json:"pts" validate:"min=0"`
	GoalDiff int    `json:"goal_diff"`
	GoalsFor int    `json:"goals_for,omitempty" validate:"min=0"`
	Wins     int    `json:"wins" validate:"min=0"`
	Played   int    `json:"played,omitempty" validate:"min=0"`
}

// Apply records one match result from this team's point of view.
func (t *Team) Apply(goalsFor, goalsAgainst int) {
	t.GoalDiff += goalsFor - goalsAgainst
	t.GoalsFor += goalsFor
	t.Played++
	switch {
	case goalsFor > goalsAgainst:
		t.Points += PointsWin
		t.Wins++
	case goalsFor == goalsAgainst:
		t.Points += PointsDraw
	}
}

// Compare orders teams by league position: points, then goal difference, then goals for.
// A negative result means a ranks above b. Zero means the teams are level on every criterion.
func Compare(a, b Team) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GoalDiff, a.GoalDiff); c != 0 {
		return c
	}
	return cmp.Compare(b.GoalsFor, a.GoalsFor)
}

// Standing is a team with its 1-based league position.
type Standing struct {
	Position int `json:"position"`
	Team
}

// Table is the league table keyed by team name. Insertion order is preserved.
type Table struct {
	teams []Team
	index map[string]int
}

// NewTable builds a table, rejecting blank and duplicate names.
func NewTable(teams []Team) (*Table, error) {
	t := &Table{
		teams: make([]Team, 0, len(teams)),
		index: make(map[string]int, len(teams)),
	}
	for _, team := range teams {
		team.Name = strings.TrimSpace(team.Name)
		if team.Name == "" {
			return nil, ErrEmptyName
		}
		if _, exists := t.index[team.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, team.Name)
		}
		t.index[team.Name] = len(t.teams)
		t.teams = append(t.teams, team)
	}
	return t, nil
}

// Len returns the number of teams.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.teams)
}

// Teams returns a copy of the teams in insertion order.
func (t *Table) Teams() []Team {
	if t == nil {
		return nil
	}
	return slices.Clone(t.teams)
}

// Team looks up a team by name.
func (t *Table) Team(name string) (Team, bool) {
	i, ok := t.IndexOf(name)
	if !ok {
		return Team{}, false
	}
	return t.teams[i], true
}

// IndexOf returns the insertion index of a team.
func (t *Table) IndexOf(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the team is in the table.
func (t *Table) Has(name string) bool {
	_, ok := t.IndexOf(name)
	return ok
}

// Clone returns a deep copy safe to mutate independently.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	index := make(map[string]int, len(t.index))
	for k, v := range t.index {
		index[k] = v
	}
	return &Table{teams: slices.Clone(t.teams), index: index}
}

// ApplyResult updates both teams with a final score.
func (t *Table) ApplyResult(home, away string, homeGoals, awayGoals int) error {
	hi, ok := t.IndexOf(home)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, home)
	}
	ai, ok := t.IndexOf(away)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, away)
	}
	t.teams[hi].Apply(homeGoals, awayGoals)
	t.teams[ai].Apply(awayGoals, homeGoals)
	return nil
}

// Standings returns the table in league order. Teams level on every criterion are listed by name.
func (t *Table) Standings() []Standing {
	ordered := t.Teams()
	slices.SortStableFunc(ordered, func(a, b Team) int {
		if c := Compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	out := make([]Standing, len(ordered))
	for i, team := range ordered {
		out[i] = Standing{Position: i + 1, Team: team}
	}
	return out
}

// Rank returns the 1-based league position of a team as shown by Standings.
func (t *Table) Rank(name string) (int, error) {
	if !t.Has(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTeam, name)
	}
	for _, s := range t.Standings() {
		if s.Name == name {
			return s.Position, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTeam, name)
}
