package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/boxsim/boxsim/sim/scenario"
)

// addScenarioFlags registers the scenario source and the per-field
// overrides shared by run and sweep.
func addScenarioFlags(fs *pflag.FlagSet) {
	fs.String("scenario", "", "Path to a scenario YAML file")
	fs.String("preset", "steady", "Built-in scenario to use when --scenario is not given")

	fs.Int64("seed", 0, "Override the scenario seed")
	fs.Float64("horizon", 0, "Override the simulation horizon (model time units)")
	fs.Float64("service-duration", 0, "Override the per-job service duration")
	fs.Int("initial-capacity", 0, "Override the initial box count")
	fs.Int("min-capacity", 0, "Override the autoscaler floor")
	fs.Int("max-capacity", 0, "Override the autoscaler ceiling (0 = unbounded)")
	fs.Float64("cost", 0, "Override the cost per box per unit time")
	fs.String("process", "", "Override the arrival process (deterministic, poisson, gamma)")
	fs.Float64("cv", 0, "Override the gamma coefficient of variation")
	fs.Bool("autoscale", true, "Enable or disable the autoscaler")
	fs.Float64("interval", 0, "Override the autoscaler evaluation interval")
	fs.Float64("cooldown", 0, "Override the autoscaler cooldown")
	fs.Int64("abort-missed-threshold", 0, "Stop once this many jobs are missed (0 = never)")
}

// loadScenario resolves the scenario named by --scenario or --preset and
// applies every override that was set by flag or BOXSIM_* variable. The
// result is validated.
func loadScenario(v *viper.Viper) (*scenario.Scenario, error) {
	var (
		s   *scenario.Scenario
		err error
	)
	if path := v.GetString("scenario"); path != "" {
		s, err = scenario.Load(appFs, path)
	} else {
		s, err = scenario.Preset(v.GetString("preset"))
	}
	if err != nil {
		return nil, err
	}
	applyOverrides(v, s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyOverrides copies explicitly set keys into s. Flag defaults do not
// count as set.
func applyOverrides(v *viper.Viper, s *scenario.Scenario) {
	if v.IsSet("seed") {
		s.Seed = v.GetInt64("seed")
	}
	if v.IsSet("horizon") {
		s.Horizon = v.GetFloat64("horizon")
	}
	if v.IsSet("service-duration") {
		s.ServiceDuration = v.GetFloat64("service-duration")
	}
	if v.IsSet("initial-capacity") {
		s.InitialCapacity = v.GetInt("initial-capacity")
	}
	if v.IsSet("min-capacity") {
		s.MinCapacity = v.GetInt("min-capacity")
	}
	if v.IsSet("max-capacity") {
		s.MaxCapacity = v.GetInt("max-capacity")
	}
	if v.IsSet("cost") {
		s.CostPerBoxPerTime = v.GetFloat64("cost")
	}
	if v.IsSet("process") {
		s.Arrival.Process = v.GetString("process")
	}
	if v.IsSet("cv") {
		s.Arrival.CV = v.GetFloat64("cv")
	}
	if v.IsSet("autoscale") {
		s.Autoscaler.Enabled = v.GetBool("autoscale")
	}
	if v.IsSet("interval") {
		s.Autoscaler.Interval = v.GetFloat64("interval")
	}
	if v.IsSet("cooldown") {
		s.Autoscaler.Cooldown = v.GetFloat64("cooldown")
	}
	if v.IsSet("abort-missed-threshold") {
		s.AbortMissedThreshold = v.GetInt64("abort-missed-threshold")
	}
}
