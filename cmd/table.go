package cmd

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/boxsim/boxsim/sim"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func itoa[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

// summaryTable renders one run summary as metric/value rows.
func summaryTable(s *sim.Summary) string {
	t := newTable("metric", "value").Rows(
		[]string{"run id", s.RunID},
		[]string{"end time", ftoa(s.EndTime)},
		[]string{"arrivals", itoa(s.Arrivals)},
		[]string{"completed", itoa(s.Completed)},
		[]string{"missed", itoa(s.Missed)},
		[]string{"in flight", itoa(s.InFlight)},
		[]string{"avg utilization", ftoa(s.AvgUtilization)},
		[]string{"p95 utilization", ftoa(s.Utilization.P95)},
		[]string{"peak capacity", itoa(s.PeakCapacity)},
		[]string{"final capacity", itoa(s.FinalCapacity)},
		[]string{"box time", ftoa(s.BoxTime)},
		[]string{"total cost", ftoa(s.TotalCost)},
		[]string{"throughput", ftoa(s.AchievedThroughput)},
		[]string{"scale ups", itoa(s.ScaleUps)},
		[]string{"scale downs", itoa(s.ScaleDowns)},
		[]string{"suppressed", itoa(s.Suppressed)},
	)
	if s.Aborted {
		t.Row("aborted", s.AbortReason)
	}
	return t.String()
}

// sweepTable renders one row per seed.
func sweepTable(results []*runResult) string {
	t := newTable("seed", "arrivals", "missed", "avg util", "peak", "final", "cost", "ups", "downs")
	for _, r := range results {
		s := r.Summary
		t.Row(
			itoa(r.Seed), itoa(s.Arrivals), itoa(s.Missed), ftoa(s.AvgUtilization),
			itoa(s.PeakCapacity), itoa(s.FinalCapacity), ftoa(s.TotalCost),
			itoa(s.ScaleUps), itoa(s.ScaleDowns),
		)
	}
	return t.String()
}
