package cmd

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/boxsim/boxsim/sim"
	"github.com/boxsim/boxsim/sim/scenario"
	"github.com/boxsim/boxsim/sim/trace"
)

// sweepSeeds runs base once per seed, at most parallel at a time. Each run
// owns its simulator, so runs share nothing. Results are ordered by seed;
// the first failure cancels the remaining runs.
func sweepSeeds(ctx context.Context, base *scenario.Scenario, seeds []int64, parallel int) ([]*runResult, error) {
	if len(seeds) == 0 {
		return nil, &sim.ConfigError{Field: "seeds", Reason: "at least one seed is required"}
	}
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	p := pool.NewWithResults[*runResult]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(parallel)
	for _, seed := range seeds {
		s := *base
		s.Seed = seed
		p.Go(func(ctx context.Context) (*runResult, error) {
			logrus.Debugf("sweep: starting seed %d", seed)
			return runScenario(ctx, &s, trace.TraceLevelNone)
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Seed < results[j].Seed })
	return results, nil
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the same scenario across several seeds",
		Example: `  boxsim sweep --preset flapping --seeds 1,2,3 --parallel 4
  boxsim sweep --scenario surge.yaml --seeds 1,2,3,4,5,6,7,8 --process poisson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := newViper(cmd.Flags())
			s, err := loadScenario(v)
			if err != nil {
				return err
			}
			seeds, err := cmd.Flags().GetInt64Slice("seeds")
			if err != nil {
				return err
			}
			results, err := sweepSeeds(cmd.Context(), s, seeds, v.GetInt("parallel"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sweepTable(results))
			return err
		},
	}
	addScenarioFlags(cmd.Flags())
	cmd.Flags().Int64Slice("seeds", []int64{1, 2, 3}, "Seeds to run, comma separated")
	cmd.Flags().Int("parallel", 0, "Maximum concurrent runs (0 = GOMAXPROCS)")
	return cmd
}
