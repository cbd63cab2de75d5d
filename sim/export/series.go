// Package export writes simulation results: the per-interval sample series
// (CSV or JSON), the run summary and decision trace (JSON), and a Prometheus
// textfile of the summary. Writers take an afero.Fs so callers and tests can
// choose the filesystem.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/boxsim/boxsim/sim"
)

// SeriesColumns is the CSV header row for the sample series.
var SeriesColumns = []string{"t", "throughput", "utilization", "job_rate", "capacity", "missed", "cost"}

// formatFloat is the shortest representation that round-trips, so identical
// runs produce byte-identical files.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// finite maps non-finite values to nil, which encodes as JSON null.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// WriteSeriesCSV writes samples with a header row. Infinite utilization is
// written as +Inf.
func WriteSeriesCSV(w io.Writer, samples []sim.Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SeriesColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, s := range samples {
		row := []string{
			formatFloat(s.T),
			formatFloat(s.Throughput),
			formatFloat(s.Utilization),
			formatFloat(s.JobRate),
			strconv.Itoa(s.Capacity),
			strconv.FormatInt(s.MissedCount, 10),
			formatFloat(s.Cost),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

type jsonSample struct {
	sim.Sample
	Utilization *float64 `json:"utilization"`
}

// WriteSeriesJSON writes samples as an indented JSON array. Infinite
// utilization is written as null.
func WriteSeriesJSON(w io.Writer, samples []sim.Sample) error {
	out := make([]jsonSample, len(samples))
	for i, s := range samples {
		out[i] = jsonSample{Sample: s, Utilization: finite(s.Utilization)}
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// SaveSeries writes samples to path, as JSON when the extension is .json
// and CSV when it is .csv.
func SaveSeries(fs afero.Fs, path string, samples []sim.Sample) error {
	var write func(io.Writer, []sim.Sample) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		write = WriteSeriesCSV
	case ".json":
		write = WriteSeriesJSON
	default:
		return &sim.ConfigError{Field: "series-out", Reason: fmt.Sprintf("unsupported extension %q (want .csv or .json)", ext)}
	}
	return saveFile(fs, path, func(w io.Writer) error { return write(w, samples) })
}

// saveFile creates path (and missing parent directories) on fs and hands
// it to write.
func saveFile(fs afero.Fs, path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	if err := write(file); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
