package simulator

import (
	"errors"
	"math/rand/v2"
)

// Goal weights over 0..7 goals, taken from historical Premier League scorelines.
var (
	DefaultHomeWeights = []float64{18.8, 30.3, 24.8, 14.3, 7.0, 3.1, 1.2, 0.5}
	DefaultAwayWeights = []float64{33.8, 36.2, 19.3, 7.4, 2.3, 0.7, 0.2, 0.1}
)

var ErrInvalidWeights = errors.New("goal weights must be non-negative with a positive total")

// GoalModel draws independent home and away goal counts from weighted distributions.
// Index i of each distribution is the weight of scoring exactly i goals.
type GoalModel struct {
	home distribution
	away distribution
}

type distribution struct {
	cumulative []float64
}

func newDistribution(weights []float64) (distribution, error) {
	if len(weights) == 0 {
		return distribution{}, ErrInvalidWeights
	}
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			return distribution{}, ErrInvalidWeights
		}
		total += w
		cumulative[i] = total
	}
	if total <= 0 {
		return distribution{}, ErrInvalidWeights
	}
	return distribution{cumulative: cumulative}, nil
}

func (d distribution) sample(r *rand.Rand) int {
	x := r.Float64() * d.cumulative[len(d.cumulative)-1]
	for i, c := range d.cumulative {
		if x < c {
			return i
		}
	}
	return len(d.cumulative) - 1
}

// NewGoalModel validates both weight sets.
func NewGoalModel(home, away []float64) (GoalModel, error) {
	h, err := newDistribution(home)
	if err != nil {
		return GoalModel{}, err
	}
	a, err := newDistribution(away)
	if err != nil {
		return GoalModel{}, err
	}
	return GoalModel{home: h, away: a}, nil
}

// DefaultGoalModel returns the model built from the default weights.
func DefaultGoalModel() GoalModel {
	m, _ := NewGoalModel(DefaultHomeWeights, DefaultAwayWeights)
	return m
}

func (m GoalModel) valid() bool {
	return len(m.home.cumulative) > 0 && len(m.away.cumulative) > 0
}

// Score draws one final score.
func (m GoalModel) Score(r *rand.Rand) (home, away int) {
	return m.home.sample(r), m.away.sample(r)
}
