package compare

import (
	"errors"
	"fmt"
	"math"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

// Run is one parsed run log bound to its configuration index.
type Run struct {
	// Index is the 0-based configuration index; it picks the legend label
	// and the palette colour.
	Index int
	Path  string
	Table *runlog.Table
}

// Series holds the plotted samples of one run, aligned to T.
type Series struct {
	Run   Run
	T     []float64
	X     []float64
	Y     []float64
	V     []float64
	Omega []float64
	// Error is the distance to the goal at each sample.
	Error []float64
	// Cost is the accumulated objective; nil when the log has none.
	Cost []float64
}

// TrackingError returns the Euclidean distance from each (x, y) sample to
// the goal (gx, gy).
func TrackingError(xs, ys []float64, gx, gy float64) []float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Hypot(xs[i]-gx, ys[i]-gy)
	}
	return out
}

// Derive extracts the plotted series of run. The time, position and velocity
// columns are required; the accumulated objective is optional.
func Derive(run Run, gx, gy float64) (*Series, error) {
	s := &Series{Run: run}
	required := []struct {
		name string
		dst  *[]float64
	}{
		{runlog.ColTime, &s.T},
		{runlog.ColX, &s.X},
		{runlog.ColY, &s.Y},
		{runlog.ColV, &s.V},
		{runlog.ColOmega, &s.Omega},
	}
	for _, r := range required {
		col, err := run.Table.Column(r.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", run.Path, err)
		}
		*r.dst = col
	}

	cost, err := run.Table.Column(runlog.ColAccumCost)
	switch {
	case err == nil:
		s.Cost = cost
	case errors.Is(err, runlog.ErrColumnMissing):
	default:
		return nil, fmt.Errorf("%s: %w", run.Path, err)
	}

	s.Error = TrackingError(s.X, s.Y, gx, gy)
	return s, nil
}

// FinalError is the last tracking-error sample, NaN for an empty run.
func (s *Series) FinalError() float64 {
	if len(s.Error) == 0 {
		return math.NaN()
	}
	return s.Error[len(s.Error)-1]
}
