// Package trace provides decision-trace recording for autoscaler analysis.
// It stores pure data types and does not import sim.
package trace

// ScaleRecord captures a single autoscaler decision, including holds and
// actions suppressed by the cooldown.
type ScaleRecord struct {
	Clock       int64   `json:"clock"`
	Action      string  `json:"action"` // "scale_up", "scale_down" or "none"
	Delta       int     `json:"delta"`
	Capacity    int     `json:"capacity"`    // active boxes observed
	Desired     int     `json:"desired"`     // capacity the autoscaler aimed for
	Provisioned int     `json:"provisioned"` // boxes counted for cost after the decision
	JobRate     float64 `json:"job_rate"`
	Utilization float64 `json:"utilization"` // may be +Inf when capacity is 0
	InBand      bool    `json:"in_band"`
	Suppressed  bool    `json:"suppressed"`
	Reason      string  `json:"reason"`
}
