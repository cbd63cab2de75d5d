package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions int     `json:"total_decisions"`
	ScaleUps       int     `json:"scale_ups"`
	ScaleDowns     int     `json:"scale_downs"`
	Holds          int     `json:"holds"`
	Suppressed     int     `json:"suppressed"`
	BoxesAdded     int     `json:"boxes_added"`
	BoxesRemoved   int     `json:"boxes_removed"`
	InBandFraction float64 `json:"in_band_fraction"` // share of decisions observed inside the band
	// MinActionGap is the smallest gap in ticks between consecutive applied
	// actions; -1 when fewer than two actions were applied.
	MinActionGap int64 `json:"min_action_gap"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{MinActionGap: -1}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Scales)
	inBand := 0
	lastAction := int64(-1)
	for _, r := range st.Scales {
		if r.InBand {
			inBand++
		}
		if r.Suppressed {
			summary.Suppressed++
		}
		switch r.Action {
		case "scale_up":
			summary.ScaleUps++
			summary.BoxesAdded += r.Delta
		case "scale_down":
			summary.ScaleDowns++
			summary.BoxesRemoved += -r.Delta
		default:
			summary.Holds++
			continue
		}
		if lastAction >= 0 {
			gap := r.Clock - lastAction
			if summary.MinActionGap < 0 || gap < summary.MinActionGap {
				summary.MinActionGap = gap
			}
		}
		lastAction = r.Clock
	}

	if summary.TotalDecisions > 0 {
		summary.InBandFraction = float64(inBand) / float64(summary.TotalDecisions)
	}
	return summary
}
