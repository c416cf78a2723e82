package simulations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Team: "Arsenal", Rank: 4}, false},
		{"valid with trials", Request{Team: "Arsenal", Rank: 1, Trials: 100}, false},
		{"missing team", Request{Rank: 4}, true},
		{"zero rank", Request{Team: "Arsenal"}, true},
		{"negative trials", Request{Team: "Arsenal", Rank: 2, Trials: -1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRequestNormalizeTrims(t *testing.T) {
	req := Request{Team: "  Brighton ", Rank: 4}.Normalize()
	assert.Equal(t, "Brighton", req.Team)
}

func TestPercentOfRoundsToTwoPlaces(t *testing.T) {
	assert.Equal(t, "42.13", PercentOf(0.421284).String())
	assert.Equal(t, "100", PercentOf(1).String())
	assert.Equal(t, "0", PercentOf(0).String())
}

func TestGridRow(t *testing.T) {
	g := Grid{Teams: []GridRow{{Team: "Liverpool", ExpectedPosition: 1.2}}}

	row, ok := g.Row("Liverpool")
	require.True(t, ok)
	assert.InDelta(t, 1.2, row.ExpectedPosition, 1e-9)

	_, ok = g.Row("Arsenal")
	assert.False(t, ok)
}

func TestResultSummary(t *testing.T) {
	r := Result{Team: "Newcastle", Rank: 4, Percent: PercentOf(0.1234)}
	assert.Equal(t, "Newcastle has a 12.34% chance of finishing 4th or better.", r.Summary())
	r.Percent = PercentOf(1)
	assert.Equal(t, "Newcastle has a 100.00% chance of finishing 4th or better.", r.Summary())
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 20: "20th", 21: "21st", 22: "22nd", 111: "111th"}
	for n, want := range cases {
		assert.Equal(t, want, Ordinal(n), "Ordinal(%d)", n)
	}
}
