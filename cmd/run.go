package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boxsim/boxsim/sim"
	"github.com/boxsim/boxsim/sim/export"
	"github.com/boxsim/boxsim/sim/scenario"
	"github.com/boxsim/boxsim/sim/trace"
)

// runResult is everything one simulation produced.
type runResult struct {
	Seed    int64
	Summary *sim.Summary
	Samples []sim.Sample
	Trace   *trace.SimulationTrace
}

// runScenario builds and runs s to completion. level selects decision
// tracing; TraceLevelNone disables it.
func runScenario(ctx context.Context, s *scenario.Scenario, level trace.TraceLevel) (*runResult, error) {
	var tr *trace.SimulationTrace
	if level != trace.TraceLevelNone && level != "" {
		tr = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	}
	simulator, err := s.Build(tr)
	if err != nil {
		return nil, err
	}
	summary, err := simulator.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed %d: %w", s.Seed, err)
	}
	return &runResult{Seed: s.Seed, Summary: summary, Samples: simulator.Samples(), Trace: tr}, nil
}

// outputPaths are the optional result files of a run.
type outputPaths struct {
	Series     string
	Summary    string
	Textfile   string
	Trace      string
	TraceLevel trace.TraceLevel
}

func outputPathsFrom(v *viper.Viper) (outputPaths, error) {
	out := outputPaths{
		Series:     v.GetString("series-out"),
		Summary:    v.GetString("summary-out"),
		Textfile:   v.GetString("prom-textfile"),
		Trace:      v.GetString("trace-out"),
		TraceLevel: trace.TraceLevel(v.GetString("trace-level")),
	}
	if !trace.IsValidTraceLevel(string(out.TraceLevel)) {
		return out, &sim.ConfigError{Field: "trace-level", Reason: fmt.Sprintf("unknown level %q", out.TraceLevel)}
	}
	if out.Trace == "" {
		out.TraceLevel = trace.TraceLevelNone
	}
	return out, nil
}

// save writes each requested output file.
func (o outputPaths) save(res *runResult) error {
	if o.Series != "" {
		if err := export.SaveSeries(appFs, o.Series, res.Samples); err != nil {
			return err
		}
		logrus.Infof("Series written to %s", o.Series)
	}
	if o.Summary != "" {
		if err := export.SaveSummary(appFs, o.Summary, res.Summary); err != nil {
			return err
		}
		logrus.Infof("Summary written to %s", o.Summary)
	}
	if o.Textfile != "" {
		if err := export.SaveTextfile(appFs, o.Textfile, res.Summary); err != nil {
			return err
		}
		logrus.Infof("Prometheus textfile written to %s", o.Textfile)
	}
	if o.Trace != "" {
		if err := export.SaveTrace(appFs, o.Trace, res.Trace); err != nil {
			return err
		}
		logrus.Infof("Trace written to %s", o.Trace)
	}
	return nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print its summary",
		Example: `  boxsim run --preset step-surge
  boxsim run --scenario surge.yaml --series-out out/series.csv --summary-out out/summary.json
  BOXSIM_SEED=7 boxsim run --preset flapping --trace-out trace.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := newViper(cmd.Flags())
			s, err := loadScenario(v)
			if err != nil {
				return err
			}
			out, err := outputPathsFrom(v)
			if err != nil {
				return err
			}
			logrus.Infof("Starting simulation: seed=%d horizon=%g capacity=%d", s.Seed, s.Horizon, s.InitialCapacity)
			res, err := runScenario(cmd.Context(), s, out.TraceLevel)
			if err != nil {
				return err
			}
			if err := printSummary(cmd.OutOrStdout(), res.Summary); err != nil {
				return err
			}
			return out.save(res)
		},
	}
	addScenarioFlags(cmd.Flags())
	cmd.Flags().String("series-out", "", "Write the per-interval series to this file (.csv or .json)")
	cmd.Flags().String("summary-out", "", "Write the run summary to this JSON file")
	cmd.Flags().String("prom-textfile", "", "Write the summary as a Prometheus textfile")
	cmd.Flags().String("trace-out", "", "Write autoscaler decisions to this JSON file")
	cmd.Flags().String("trace-level", string(trace.TraceLevelDecisions), "Decisions to keep in --trace-out: decisions or actions")
	return cmd
}

func printSummary(w io.Writer, s *sim.Summary) error {
	_, err := fmt.Fprintln(w, summaryTable(s))
	return err
}
