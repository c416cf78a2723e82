package fixtures

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixtureValidate(t *testing.T) {
	known := func(name string) bool { return name == "Arsenal" || name == "Chelsea" }

	assert.NoError(t, Fixture{Home: "Arsenal", Away: "Chelsea"}.Validate(known))
	assert.True(t, errors.Is(Fixture{Home: "Arsenal", Away: "Arsenal"}.Validate(known), ErrSelfMatch))
	assert.True(t, errors.Is(Fixture{Home: "Arsenal", Away: "Spurs"}.Validate(known), ErrUnknownTeam))
	assert.NoError(t, Fixture{Home: "X", Away: "Y"}.Validate(nil))
}

func TestInvolving(t *testing.T) {
	list := []Fixture{
		{Home: "Arsenal", Away: "Chelsea"},
		{Home: "Everton", Away: "Fulham"},
		{Home: "Fulham", Away: "Arsenal"},
	}
	got := Involving(list, "Arsenal")
	assert.Len(t, got, 2)
	assert.Equal(t, "Arsenal v Chelsea", got[0].String())
}
