package simulations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid simulation request")

var validate = validator.New()

// Request asks for the chance that Team finishes at Rank or better.
// Trials of zero means "use the configured default".
type Request struct {
	Team   string `json:"team" validate:"required"`
	Rank   int    `json:"rank" validate:"min=1"`
	Trials int    `json:"trials,omitempty" validate:"min=0"`
}

// Normalize trims the team name.
func (r Request) Normalize() Request {
	r.Team = strings.TrimSpace(r.Team)
	return r
}

// Validate checks the static request rules; league-dependent bounds are checked by the service.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s", ErrInvalidRequest, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Result is the outcome of one simulation request.
type Result struct {
	ID                  string          `json:"id"`
	Team                string          `json:"team"`
	Rank                int             `json:"rank"`
	Trials              int             `json:"trials"`
	Hits                int             `json:"hits"`
	Probability         float64         `json:"probability"`
	Percent             decimal.Decimal `json:"percent"`
	Positions           []float64       `json:"positions,omitempty"`
	AverageWinsAtRank   float64         `json:"averageWinsAtRank"`
	AveragePointsAtRank float64         `json:"averagePointsAtRank"`
	SnapshotVersion     string          `json:"snapshotVersion"`
	DurationMS          int64           `json:"durationMs"`
	Cached              bool            `json:"cached"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// Summary is the one-line answer shown to users.
func (r Result) Summary() string {
	return fmt.Sprintf("%s has a %s%% chance of finishing %s or better.", r.Team, r.Percent.StringFixed(2), Ordinal(r.Rank))
}

// Ordinal renders 1 as "1st", 12 as "12th", 22 as "22nd".
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// PercentOf converts a probability in [0,1] to a percentage rounded half-up to two places.
func PercentOf(probability float64) decimal.Decimal {
	return decimal.NewFromFloat(probability).Mul(decimal.NewFromInt(100)).Round(2)
}

// Progress is emitted while a simulation is running.
type Progress struct {
	Completed   int     `json:"completed"`
	Trials      int     `json:"trials"`
	Hits        int     `json:"hits"`
	Probability float64 `json:"probability"`
}

// GridRow is one team's finishing-position distribution.
type GridRow struct {
	Team             string    `json:"team"`
	Positions        []float64 `json:"positions"`
	ExpectedPosition float64   `json:"expectedPosition"`
}

// Grid holds the finishing-position distribution for every team.
type Grid struct {
	SnapshotVersion string    `json:"snapshotVersion"`
	Trials          int       `json:"trials"`
	Teams           []GridRow `json:"teams"`
	ComputedAt      time.Time `json:"computedAt"`
	DurationMS      int64     `json:"durationMs"`
}

// Row returns the grid row for a team.
func (g Grid) Row(team string) (GridRow, bool) {
	for _, row := range g.Teams {
		if row.Team == team {
			return row, true
		}
	}
	return GridRow{}, false
}
