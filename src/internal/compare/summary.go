package compare

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Divergence flags a run whose final tracking error exceeds the threshold.
type Divergence struct {
	Index      int
	FinalError float64
}

// Diverging returns the runs whose last tracking-error sample is above
// threshold.
func Diverging(series []*Series, threshold float64) []Divergence {
	var out []Divergence
	for _, s := range series {
		if e := s.FinalError(); e > threshold {
			out = append(out, Divergence{Index: s.Run.Index, FinalError: e})
		}
	}
	return out
}

// RunStats summarises one run.
type RunStats struct {
	Index      int
	Label      string
	Path       string
	Samples    int
	Duration   float64
	FinalError float64
	MaxError   float64
	MeanError  float64
	MeanSpeed  float64
	FinalCost  float64
}

func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !bad(v) {
			out = append(out, v)
		}
	}
	return out
}

// Summarize computes the per-run statistics written to the summary table.
func Summarize(s *Series, label string) RunStats {
	st := RunStats{
		Index:      s.Run.Index,
		Label:      label,
		Path:       s.Run.Path,
		Samples:    len(s.T),
		FinalError: s.FinalError(),
		MaxError:   math.NaN(),
		MeanError:  math.NaN(),
		MeanSpeed:  math.NaN(),
		FinalCost:  math.NaN(),
	}
	if ts := finite(s.T); len(ts) > 0 {
		st.Duration = floats.Max(ts) - floats.Min(ts)
	}
	if errs := finite(s.Error); len(errs) > 0 {
		st.MaxError = floats.Max(errs)
		st.MeanError = stat.Mean(errs, nil)
	}
	if vs := finite(s.V); len(vs) > 0 {
		speeds := make([]float64, len(vs))
		for i, v := range vs {
			speeds[i] = math.Abs(v)
		}
		st.MeanSpeed = stat.Mean(speeds, nil)
	}
	if len(s.Cost) > 0 {
		st.FinalCost = s.Cost[len(s.Cost)-1]
	}
	return st
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// WriteSummary writes one row per run to filename.
func WriteSummary(filename string, rows []RunStats) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("summary: cannot create directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("summary: cannot open %s: %w", filename, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	w := csv.NewWriter(f)
	header := []string{"run", "label", "samples", "duration_s", "final_error_m", "max_error_m", "mean_error_m", "mean_speed_mps", "final_accum_obj", "log"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("summary: cannot write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Index + 1),
			r.Label,
			strconv.Itoa(r.Samples),
			formatStat(r.Duration),
			formatStat(r.FinalError),
			formatStat(r.MaxError),
			formatStat(r.MeanError),
			formatStat(r.MeanSpeed),
			formatStat(r.FinalCost),
			r.Path,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("summary: cannot write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	return nil
}
