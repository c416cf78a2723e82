package standings

import "errors"

var (
	ErrUnknownTeam   = errors.New("unknown team")
	ErrDuplicateTeam = errors.New("duplicate team")
	ErrEmptyName     = errors.New("team name is required")
)
