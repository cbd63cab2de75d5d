package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boxsim/boxsim/sim"
)

// presets are the reference scenarios, keyed by name.
var presets = map[string]func() Scenario{
	// 5 jobs per unit against 10 boxes: utilization 0.5, no misses, no resizing.
	"steady": DefaultScenario,

	// Load steps from 5 to 50 at t=100 against a fixed pool of 10; about 40
	// jobs per unit are missed after the step.
	"step-surge": func() Scenario {
		s := DefaultScenario()
		s.Horizon = 200
		s.Rate = RateSpec{Kind: RateStep, Before: 5, After: 50, At: 100}
		s.Autoscaler.Enabled = false
		return s
	},

	// Load alternates between 3 and 9 every 2.5 units, straddling the band.
	// The cooldown holds any reversal of direction for 10 units.
	"flapping": func() Scenario {
		s := DefaultScenario()
		s.Horizon = 100
		s.Rate = RateSpec{Kind: RateSquare, Low: 3, High: 9, Period: 5}
		s.Autoscaler.Cooldown = 10
		return s
	},
}

// PresetNames lists the built-in scenarios in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of the named built-in scenario.
func Preset(name string) (*Scenario, error) {
	build, ok := presets[name]
	if !ok {
		return nil, &sim.ConfigError{
			Field:  "preset",
			Reason: fmt.Sprintf("unknown preset %q; valid: %s", name, strings.Join(PresetNames(), ", ")),
		}
	}
	s := build()
	return &s, nil
}
