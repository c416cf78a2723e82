package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appsims "github.com/preston-bernstein/league-sim-service/internal/app/simulations"
	appstandings "github.com/preston-bernstein/league-sim-service/internal/app/standings"
	"github.com/preston-bernstein/league-sim-service/internal/config"
	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/simulator"
	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
	"github.com/preston-bernstein/league-sim-service/internal/store"
)

// cli carries state shared by every subcommand.
type cli struct {
	out     io.Writer
	dataDir string
	cfg     config.Config
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:          "league-sim",
		Short:        "Monte Carlo finishing odds for a football league",
		Long:         "Simulates the rest of a league season from hand-maintained standings and fixtures files.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.dataDir != "" {
				cfg.DataDir = c.dataDir
			}
			c.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(c.cfg)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "directory holding standings.json and fixtures_list.json (overrides DATA_DIR)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the web interface and JSON API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(c.cfg)
			},
		},
		c.simulateCmd(),
		c.tableCmd(),
		c.oddsCmd(),
	)
	return root
}

func (c *cli) simulateCmd() *cobra.Command {
	var (
		req    domainsims.Request
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the chance a team finishes at or above a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			sims, _, err := c.services(0)
			if err != nil {
				return err
			}
			result, err := sims.Simulate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintln(c.out, result.Summary())
			fmt.Fprintf(c.out, "Average wins when finishing %s: %.1f\n", domainsims.Ordinal(result.Rank), result.AverageWinsAtRank)
			fmt.Fprintf(c.out, "Average points when finishing %s: %.1f\n", domainsims.Ordinal(result.Rank), result.AveragePointsAtRank)
			fmt.Fprintf(c.out, "%d simulated seasons in %dms\n", result.Trials, result.DurationMS)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Team, "team", "", "team name as written in the standings file")
	cmd.Flags().IntVar(&req.Rank, "rank", 0, "target finishing position (1 = champions)")
	cmd.Flags().IntVar(&req.Trials, "trials", 0, "simulated seasons (default SIM_WORKERS x SIM_TRIALS_PER_WORKER)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("rank")
	return cmd
}

func (c *cli) tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the current standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, league, err := c.services(0)
			if err != nil {
				return err
			}
			table, err := league.Standings()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "#\tTeam\tPts\tGD\tW\t")
			for _, s := range table.Standings {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%+d\t%d\t\n", s.Position, s.Name, s.Points, s.GoalDiff, s.Wins)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) oddsCmd() *cobra.Command {
	var trials int
	cmd := &cobra.Command{
		Use:   "odds",
		Short: "Print every team's finishing-position distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			if trials <= 0 {
				trials = c.cfg.Precompute.Trials
			}
			sims, _, err := c.services(trials)
			if err != nil {
				return err
			}
			grid, err := sims.RefreshGrid(cmd.Context())
			if err != nil {
				return err
			}
			return writeGrid(c.out, grid)
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 0, "simulated seasons (default PRECOMPUTE_TRIALS)")
	return cmd
}

func writeGrid(out io.Writer, grid domainsims.Grid) error {
	tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight)
	header := []string{"Team", "Exp"}
	for i := range len(grid.Teams) {
		header = append(header, domainsims.Ordinal(i+1))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range grid.Teams {
		cols := []string{row.Team, fmt.Sprintf("%.2f", row.ExpectedPosition)}
		for _, p := range row.Positions {
			cols = append(cols, domainsims.PercentOf(p).StringFixed(1))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d simulated seasons, data version %s\n", grid.Trials, grid.SnapshotVersion)
	return err
}

// services loads the data directory once and wires the services without history or metrics.
func (c *cli) services(gridTrials int) (*appsims.Service, *appstandings.Service, error) {
	fsStore := snapshots.NewFSStore(c.cfg.DataDir)
	if !fsStore.Exists() {
		return nil, nil, fmt.Errorf("no league data in %s: expected %s and %s", c.cfg.DataDir,
			filepath.Base(snapshots.StandingsPath(c.cfg.DataDir)), filepath.Base(snapshots.FixturesPath(c.cfg.DataDir)))
	}
	ds, err := fsStore.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load league data from %s: %w", c.cfg.DataDir, err)
	}
	mem := store.NewMemoryStore()
	mem.Replace(ds)

	sim := c.cfg.Simulation
	engine := simulator.NewEngine(sim.Workers, sim.BatchSize, sim.Seed)
	sims := appsims.NewService(mem, engine, nil, nil, nil, appsims.Options{
		DefaultTrials: sim.DefaultTrials(),
		MaxTrials:     sim.MaxTrials,
		GridTrials:    gridTrials,
		CacheTTL:      sim.CacheTTL,
	})
	return sims, appstandings.NewService(mem), nil
}
