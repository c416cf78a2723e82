package fixtures

import (
	"errors"
	"fmt"
)

var (
	ErrSelfMatch   = errors.New("team cannot play itself")
	ErrUnknownTeam = errors.New("fixture references unknown team")
)

// Fixture is a remaining match. JSON keys match the hand-typed fixtures file.
type Fixture struct {
	Home string `json:"home" validate:"required"`
	Away string `json:"away" validate:"required"`
}

func (f Fixture) String() string {
	return f.Home + " v " + f.Away
}

// Validate checks the fixture against the set of known team names.
func (f Fixture) Validate(known func(name string) bool) error {
	if f.Home == f.Away {
		return fmt.Errorf("%w: %s", ErrSelfMatch, f)
	}
	if known == nil {
		return nil
	}
	if !known(f.Home) {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, f.Home)
	}
	if !known(f.Away) {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, f.Away)
	}
	return nil
}

// Involving returns the fixtures the team takes part in.
func Involving(list []Fixture, team string) []Fixture {
	var out []Fixture
	for _, f := range list {
		if f.Home == team || f.Away == team {
			out = append(out, f)
		}
	}
	return out
}
