package unicycle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Header is the column row written after the preamble.
var Header = []string{"t [s]", "x [m]", "y [m]", "alpha [rad]", "run_obj", "accum_obj", "v [m/s]", "omega [rad/s]"}

// Sample is one logged step.
type Sample struct {
	T        float64
	State    State
	RunObj   float64
	AccumObj float64
	Input    Input
}

// substeps per sampling interval; the input is held over the whole interval.
const substeps = 4

// Simulate integrates one run from opts.Init to opts.T1.
func Simulate(opts Options) []Sample {
	g := opts.ControllerGains()
	steps := int(math.Round(opts.T1/opts.Dt)) + 1
	out := make([]Sample, 0, steps)

	s := opts.Init
	accum := 0.0
	h := opts.Dt / substeps
	for k := 0; k < steps; k++ {
		u := Control(g, s, opts.VMax, opts.OmegaMax)
		run := StageCost(opts.Q, opts.R, s, u)
		out = append(out, Sample{
			T:        float64(k) * opts.Dt,
			State:    s,
			RunObj:   run,
			AccumObj: accum,
			Input:    u,
		})
		accum += run * opts.Dt
		for i := 0; i < substeps; i++ {
			rk4Step(&s, h, u)
		}
	}
	return out
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, " ")
}

// WriteLog writes a preamble, the header row and samples to w.
func WriteLog(w io.Writer, opts Options, run int, samples []Sample) error {
	g := opts.ControllerGains()
	preamble := []string{
		"System: 3wrobotNI",
		"Controller: " + opts.Mode,
		fmt.Sprintf("Run: %d of %d", run, opts.NRuns),
		fmt.Sprintf("Initial state [m, m, rad]: %g %g %g", opts.Init.X, opts.Init.Y, opts.Init.Alpha),
		fmt.Sprintf("Sampling period [s]: %g", opts.Dt),
		fmt.Sprintf("Final time [s]: %g", opts.T1),
		fmt.Sprintf("Nactor: %d", opts.Nactor),
		"Q diag: " + formatFloats(opts.Q),
		"R diag: " + formatFloats(opts.R),
		fmt.Sprintf("Gains: k_rho=%g k_alpha=%g k_beta=%g", g.KRho, g.KAlpha, g.KBeta),
		fmt.Sprintf("Limits: v_max=%g omega_max=%g", opts.VMax, opts.OmegaMax),
	}
	for _, line := range preamble {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("CSV: cannot write preamble: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("CSV: cannot write header: %w", err)
	}
	for _, s := range samples {
		row := []string{
			fmt.Sprintf("%.15g", s.T),
			fmt.Sprintf("%.15g", s.State.X),
			fmt.Sprintf("%.15g", s.State.Y),
			fmt.Sprintf("%.15g", s.State.Alpha),
			fmt.Sprintf("%.15g", s.RunObj),
			fmt.Sprintf("%.15g", s.AccumObj),
			fmt.Sprintf("%.15g", s.Input.V),
			fmt.Sprintf("%.15g", s.Input.Omega),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("CSV: cannot write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the simulator's log name, e.g.
// 3wrobotNI_lqr_2025-06-22_17h17m02s__run01.csv.
func FileName(mode string, stamp time.Time, run int) string {
	return fmt.Sprintf("3wrobotNI_%s_%s__run%02d.csv", mode, stamp.Format("2006-01-02_15h04m05s"), run)
}

// Run simulates opts.NRuns runs and, when logging is enabled, writes one log
// per run into opts.Dir(). It returns the written paths.
func Run(opts Options, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := now()
	if opts.LogData {
		stamp = freeStamp(opts, stamp)
	}

	var paths []string
	for run := 1; run <= opts.NRuns; run++ {
		samples := Simulate(opts)
		last := samples[len(samples)-1]
		logger.Info("run finished", "mode", opts.Mode, "run", run,
			"final_x", last.State.X, "final_y", last.State.Y, "accum_obj", last.AccumObj)
		if !opts.LogData {
			continue
		}
		path := filepath.Join(opts.Dir(), FileName(opts.Mode, stamp, run))
		if err := writeLogFile(path, opts, run, samples); err != nil {
			return paths, err
		}
		logger.Debug("log written", "path", path, "samples", len(samples))
		paths = append(paths, path)
	}
	return paths, nil
}

// freeStamp advances stamp by whole seconds until the batch's first log name
// is unused, so batches started within the same second do not overwrite
// each other.
func freeStamp(opts Options, stamp time.Time) time.Time {
	for {
		_, err := os.Stat(filepath.Join(opts.Dir(), FileName(opts.Mode, stamp, 1)))
		if errors.Is(err, fs.ErrNotExist) {
			return stamp
		}
		stamp = stamp.Add(time.Second)
	}
}

func writeLogFile(path string, opts Options, run int, samples []Sample) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("CSV: cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("CSV: cannot open %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))
	return WriteLog(f, opts, run, samples)
}
