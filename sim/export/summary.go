package export

import (
	"io"

	"github.com/spf13/afero"

	"github.com/boxsim/boxsim/sim"
	"github.com/boxsim/boxsim/sim/trace"
)

// WriteSummaryJSON writes the run summary as indented JSON.
func WriteSummaryJSON(w io.Writer, s *sim.Summary) error {
	return writeJSON(w, s)
}

// SaveSummary writes the run summary to path as JSON.
func SaveSummary(fs afero.Fs, path string, s *sim.Summary) error {
	return saveFile(fs, path, func(w io.Writer) error { return WriteSummaryJSON(w, s) })
}

type jsonScaleRecord struct {
	trace.ScaleRecord
	Utilization *float64 `json:"utilization"`
}

// traceOutput is the JSON layout of a decision trace file.
type traceOutput struct {
	Level   trace.TraceLevel    `json:"level"`
	Summary *trace.TraceSummary `json:"summary"`
	Records []jsonScaleRecord   `json:"records"`
}

// WriteTraceJSON writes the trace records and their summary. Infinite
// utilization is written as null.
func WriteTraceJSON(w io.Writer, st *trace.SimulationTrace) error {
	out := traceOutput{Summary: trace.Summarize(st), Records: []jsonScaleRecord{}}
	if st != nil {
		out.Level = st.Config.Level
		for _, r := range st.Scales {
			out.Records = append(out.Records, jsonScaleRecord{ScaleRecord: r, Utilization: finite(r.Utilization)})
		}
	}
	return writeJSON(w, out)
}

// SaveTrace writes the decision trace to path as JSON.
func SaveTrace(fs afero.Fs, path string, st *trace.SimulationTrace) error {
	return saveFile(fs, path, func(w io.Writer) error { return WriteTraceJSON(w, st) })
}
