package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/league-sim-service/internal/domain/fixtures"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 500
)

var (
	ErrNoTeams        = errors.New("league has no teams")
	ErrRankOutOfRange = errors.New("rank out of range")
	ErrNoTrials       = errors.New("trials must be positive")
)

// ProgressFunc receives the running totals after each batch. Calls are serialized.
type ProgressFunc func(completed, hits int)

// Engine runs independent season trials across a fixed number of goroutines.
// Each worker owns its random source and tally; tallies are merged once every worker is done.
type Engine struct {
	Workers   int
	BatchSize int
	// Seed makes runs reproducible when non-zero.
	Seed  uint64
	Model GoalModel
}

// NewEngine returns an engine with the default goal model.
func NewEngine(workers, batchSize int, seed uint64) *Engine {
	return &Engine{Workers: workers, BatchSize: batchSize, Seed: seed, Model: DefaultGoalModel()}
}

func (e *Engine) workers(trials int) int {
	w := defaultWorkers
	if e != nil && e.Workers > 0 {
		w = e.Workers
	}
	if w > trials {
		w = trials
	}
	return w
}

func (e *Engine) batchSize() int {
	if e != nil && e.BatchSize > 0 {
		return e.BatchSize
	}
	return defaultBatchSize
}

func (e *Engine) model() GoalModel {
	if e != nil && e.Model.valid() {
		return e.Model
	}
	return DefaultGoalModel()
}

func (e *Engine) rng(worker int) *rand.Rand {
	if e != nil && e.Seed != 0 {
		return rand.New(rand.NewPCG(e.Seed, uint64(worker)+1))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// split divides trials into per-worker shares that differ by at most one.
func split(trials, workers int) []int {
	shares := make([]int, workers)
	for i := range shares {
		shares[i] = trials / workers
		if i < trials%workers {
			shares[i]++
		}
	}
	return shares
}

// Tally is the merged outcome of a targeted run.
type Tally struct {
	Team   string
	Rank   int
	Trials int
	// Hits counts trials finishing at Rank or better.
	Hits int
	// Positions[i] counts trials finishing in position i+1.
	Positions    []int
	WinsAtRank   int
	PointsAtRank int
}

func (t *Tally) merge(o Tally) {
	t.Trials += o.Trials
	t.Hits += o.Hits
	t.WinsAtRank += o.WinsAtRank
	t.PointsAtRank += o.PointsAtRank
	for i, c := range o.Positions {
		t.Positions[i] += c
	}
}

// Probability is the share of trials finishing at Rank or better.
func (t Tally) Probability() float64 {
	if t.Trials == 0 {
		return 0
	}
	return float64(t.Hits) / float64(t.Trials)
}

// Distribution returns the share of trials for every finishing position.
func (t Tally) Distribution() []float64 {
	return shares(t.Positions, t.Trials)
}

// AtRank is the number of trials finishing exactly at Rank.
func (t Tally) AtRank() int {
	if t.Rank < 1 || t.Rank > len(t.Positions) {
		return 0
	}
	return t.Positions[t.Rank-1]
}

// AverageWinsAtRank is the mean season win total over trials finishing exactly at Rank.
func (t Tally) AverageWinsAtRank() float64 {
	n := t.AtRank()
	if n == 0 {
		return 0
	}
	return float64(t.WinsAtRank) / float64(n)
}

// AveragePointsAtRank is the mean points total over trials finishing exactly at Rank.
func (t Tally) AveragePointsAtRank() float64 {
	n := t.AtRank()
	if n == 0 {
		return 0
	}
	return float64(t.PointsAtRank) / float64(n)
}

func shares(counts []int, trials int) []float64 {
	out := make([]float64, len(counts))
	if trials == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(trials)
	}
	return out
}

// Run simulates the rest of the season trials times and tallies where team finishes.
func (e *Engine) Run(ctx context.Context, table *standings.Table, list []fixtures.Fixture, team string, rank, trials int, progress ProgressFunc) (Tally, error) {
	if table.Len() == 0 {
		return Tally{}, ErrNoTeams
	}
	if trials <= 0 {
		return Tally{}, ErrNoTrials
	}
	if rank < 1 || rank > table.Len() {
		return Tally{}, fmt.Errorf("%w: %d not in 1..%d", ErrRankOutOfRange, rank, table.Len())
	}
	l, err := compile(table, list)
	if err != nil {
		return Tally{}, err
	}
	target, err := l.index(team)
	if err != nil {
		return Tally{}, err
	}

	model := e.model()
	workers := e.workers(trials)
	tallies := make([]Tally, workers)
	report := newReporter(progress)

	err = e.fanOut(ctx, trials, workers, func(ctx context.Context, worker, share int) error {
		r := e.rng(worker)
		s := newSeason(l.size())
		tally := Tally{Positions: make([]int, l.size())}
		return e.batches(ctx, share, func(n int) {
			hits := 0
			for range n {
				s.play(l, model, r)
				pos := s.rankOf(target, r)
				tally.Positions[pos-1]++
				if pos <= rank {
					hits++
				}
				if pos == rank {
					tally.WinsAtRank += s.wins[target]
					tally.PointsAtRank += s.points[target]
				}
			}
			tally.Trials += n
			tally.Hits += hits
			tallies[worker] = tally
			report.add(n, hits)
		})
	})
	if err != nil {
		return Tally{}, err
	}

	out := Tally{Team: team, Rank: rank, Positions: make([]int, l.size())}
	for _, t := range tallies {
		out.merge(t)
	}
	return out, nil
}

// GridTally counts every team's finishing positions.
type GridTally struct {
	Teams  []string
	Trials int
	// Positions[t][p] counts trials team t finished in position p+1.
	Positions [][]int
}

// Distribution returns the finishing-position shares of team t.
func (g GridTally) Distribution(t int) []float64 {
	return shares(g.Positions[t], g.Trials)
}

// ExpectedPosition is the mean finishing position of team t.
func (g GridTally) ExpectedPosition(t int) float64 {
	if g.Trials == 0 {
		return 0
	}
	sum := 0
	for p, c := range g.Positions[t] {
		sum += (p + 1) * c
	}
	return float64(sum) / float64(g.Trials)
}

func newPositions(n int) [][]int {
	out := make([][]int, n)
	for i := range out {
		out[i] = make([]int, n)
	}
	return out
}

// RunGrid simulates the rest of the season and tallies the finishing position of every team.
func (e *Engine) RunGrid(ctx context.Context, table *standings.Table, list []fixtures.Fixture, trials int, progress ProgressFunc) (GridTally, error) {
	if table.Len() == 0 {
		return GridTally{}, ErrNoTeams
	}
	if trials <= 0 {
		return GridTally{}, ErrNoTrials
	}
	l, err := compile(table, list)
	if err != nil {
		return GridTally{}, err
	}

	model := e.model()
	workers := e.workers(trials)
	grids := make([][][]int, workers)
	report := newReporter(progress)

	err = e.fanOut(ctx, trials, workers, func(ctx context.Context, worker, share int) error {
		r := e.rng(worker)
		s := newSeason(l.size())
		positions := newPositions(l.size())
		grids[worker] = positions
		return e.batches(ctx, share, func(n int) {
			for range n {
				s.play(l, model, r)
				for pos, t := range s.rankAll(r) {
					positions[t][pos]++
				}
			}
			report.add(n, 0)
		})
	})
	if err != nil {
		return GridTally{}, err
	}

	out := GridTally{Teams: l.names, Trials: trials, Positions: newPositions(l.size())}
	for _, g := range grids {
		for t := range g {
			for p, c := range g[t] {
				out.Positions[t][p] += c
			}
		}
	}
	return out, nil
}

func (e *Engine) fanOut(ctx context.Context, trials, workers int, work func(ctx context.Context, worker, share int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, share := range split(trials, workers) {
		g.Go(func() error {
			return work(gctx, i, share)
		})
	}
	return g.Wait()
}

// batches runs share trials in chunks, checking for cancellation before each one.
func (e *Engine) batches(ctx context.Context, share int, run func(n int)) error {
	size := e.batchSize()
	for done := 0; done < share; done += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		run(min(size, share-done))
	}
	return nil
}

type reporter struct {
	mu        sync.Mutex
	fn        ProgressFunc
	completed int
	hits      int
}

func newReporter(fn ProgressFunc) *reporter {
	return &reporter{fn: fn}
}

func (r *reporter) add(n, hits int) {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed += n
	r.hits += hits
	r.fn(r.completed, r.hits)
}
