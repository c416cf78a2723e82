package snapshots

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

const minTeams = 2

var validate = newValidator()

// newValidator reports fields by their JSON key so problems point at the file contents.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError lists every problem found in a dataset.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid league data: " + strings.Join(e.Problems, "; ")
}

// IsValidationError reports whether err carries dataset problems.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Validate checks standings and fixtures together and reports all problems at once.
func Validate(teams []standings.Team, list []fixtures.Fixture) error {
	var problems []string
	if len(teams) < minTeams {
		problems = append(problems, fmt.Sprintf("need at least %d teams, got %d", minTeams, len(teams)))
	}

	known := make(map[string]struct{}, len(teams))
	for i, team := range teams {
		name := strings.TrimSpace(team.Name)
		if err := validate.Struct(team); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					problems = append(problems, fmt.Sprintf("standings[%d] %s: failed %s", i, fe.Field(), fe.Tag()))
				}
			} else {
				problems = append(problems, fmt.Sprintf("standings[%d]: %v", i, err))
			}
		}
		if name == "" {
			if team.Name != "" {
				problems = append(problems, fmt.Sprintf("standings[%d]: blank name", i))
			}
			continue
		}
		if _, dup := known[name]; dup {
			problems = append(problems, fmt.Sprintf("standings[%d]: duplicate team %q", i, name))
			continue
		}
		known[name] = struct{}{}
	}

	isKnown := func(name string) bool {
		_, ok := known[name]
		return ok
	}
	for i, f := range list {
		if err := validate.Struct(f); err != nil {
			problems = append(problems, fmt.Sprintf("fixtures[%d]: home and away are required", i))
			continue
		}
		if err := f.Validate(isKnown); err != nil {
			problems = append(problems, fmt.Sprintf("fixtures[%d]: %v", i, err))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
