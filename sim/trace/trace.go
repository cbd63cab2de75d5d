package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every autoscaler decision.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelActions captures only applied or suppressed scale actions.
	TraceLevelActions TraceLevel = "actions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	TraceLevelActions:   true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a simulation.
type SimulationTrace struct {
	Config TraceConfig
	Scales []ScaleRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Scales: make([]ScaleRecord, 0),
	}
}

// RecordScale appends a decision record, filtered by the trace level.
// Safe to call on a nil trace.
func (st *SimulationTrace) RecordScale(record ScaleRecord) {
	if st == nil {
		return
	}
	switch st.Config.Level {
	case TraceLevelDecisions:
	case TraceLevelActions:
		if record.Action == "none" && !record.Suppressed {
			return
		}
	default:
		return
	}
	st.Scales = append(st.Scales, record)
}
