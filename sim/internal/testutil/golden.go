// Package testutil provides shared test infrastructure for the simulator:
// the golden preset dataset and float assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Presets []GoldenPreset `json:"presets"`
}

// GoldenPreset is the expected outcome of running one built-in scenario
// with its default seed.
type GoldenPreset struct {
	Preset string `json:"preset"`

	// Exact match counts
	Arrivals      int64 `json:"arrivals"`
	Completed     int64 `json:"completed"`
	Missed        int64 `json:"missed"`
	InFlight      int64 `json:"in_flight"`
	PeakCapacity  int   `json:"peak_capacity"`
	FinalCapacity int   `json:"final_capacity"`
	ScaleUps      int   `json:"scale_ups"`
	ScaleDowns    int   `json:"scale_downs"`

	// Derived from integer tick arithmetic, compared with a tolerance
	EndTime        float64 `json:"end_time"`
	BoxTime        float64 `json:"box_time"`
	TotalCost      float64 `json:"total_cost"`
	AvgUtilization float64 `json:"avg_utilization"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Presets) == 0 {
		t.Fatal("golden dataset has no presets")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
