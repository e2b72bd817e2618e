package unicycle

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Options configure one emulated batch.
type Options struct {
	Mode     string  // --ctrl_mode
	NRuns    int     // --Nruns
	T1       float64 // --t1, final time (s)
	Dt       float64 // --dt, sampling time (s)
	LogData  bool    // --is_log_data
	LogDir   string  // --log_dir; empty derives the simulator's folder layout
	Init     State   // --init_state x y alpha
	Seed     int     // --seed, only used in the folder name
	Nactor   int     // --Nactor, only used in the folder name and preamble
	Gains    Gains   // --k_rho --k_alpha --k_beta
	VMax     float64 // --v_max
	OmegaMax float64 // --omega_max
	Q        []float64
	R        []float64

	gainsSet bool
	// Now stamps file names; nil uses time.Now.
	Now func() time.Time
}

// DefaultOptions mirrors the simulator's defaults.
func DefaultOptions() Options {
	return Options{
		Mode:     "Nominal",
		NRuns:    1,
		T1:       20,
		Dt:       0.01,
		LogData:  true,
		Init:     State{X: 5, Y: 5, Alpha: 1.57},
		Seed:     1,
		Nactor:   10,
		Gains:    DefaultGains,
		VMax:     1.0,
		OmegaMax: 1.0,
		Q:        []float64{1, 1, 1},
		R:        []float64{1, 1},
	}
}

// ParseArgs reads simulator-style arguments: each flag is followed by zero or
// more values, up to the next argument starting with "--".
func ParseArgs(args []string) (Options, error) {
	opts := DefaultOptions()
	var r1, qf []float64

	for i := 0; i < len(args); {
		name := args[i]
		if !strings.HasPrefix(name, "--") {
			return opts, fmt.Errorf("unexpected argument %q", name)
		}
		name = strings.TrimPrefix(name, "--")
		j := i + 1
		for j < len(args) && !strings.HasPrefix(args[j], "--") {
			j++
		}
		vals := args[i+1 : j]
		i = j

		var err error
		switch name {
		case "ctrl_mode":
			opts.Mode, err = one(name, vals)
		case "log_dir":
			opts.LogDir, err = one(name, vals)
		case "Nruns":
			opts.NRuns, err = oneInt(name, vals)
		case "seed":
			opts.Seed, err = oneInt(name, vals)
		case "Nactor":
			opts.Nactor, err = oneInt(name, vals)
		case "is_visualization":
			_, err = oneInt(name, vals)
		case "is_log_data":
			var v int
			v, err = oneInt(name, vals)
			opts.LogData = v != 0
		case "t1":
			opts.T1, err = oneFloat(name, vals)
		case "dt":
			opts.Dt, err = oneFloat(name, vals)
		case "v_max":
			opts.VMax, err = oneFloat(name, vals)
		case "omega_max":
			opts.OmegaMax, err = oneFloat(name, vals)
		case "k_rho":
			opts.Gains.KRho, err = oneFloat(name, vals)
			opts.gainsSet = true
		case "k_alpha":
			opts.Gains.KAlpha, err = oneFloat(name, vals)
			opts.gainsSet = true
		case "k_beta":
			opts.Gains.KBeta, err = oneFloat(name, vals)
			opts.gainsSet = true
		case "init_state":
			var v []float64
			v, err = floatsN(name, vals, 3)
			if err == nil {
				opts.Init = State{X: v[0], Y: v[1], Alpha: v[2]}
			}
		case "Q", "Qf":
			var v []float64
			v, err = floatsN(name, vals, 3)
			if name == "Q" {
				opts.Q = v
			} else {
				qf = v
			}
		case "R":
			opts.R, err = floatsN(name, vals, 2)
		case "R1_diag":
			r1, err = floatsN(name, vals, 5)
		default:
			err = fmt.Errorf("unknown flag --%s", name)
		}
		if err != nil {
			return opts, err
		}
	}

	// The MPC stage weights stack the state (3) and input (2) diagonals.
	if r1 != nil {
		opts.Q = r1[:3]
		opts.R = r1[3:]
	}
	if qf != nil && r1 == nil {
		opts.Q = qf
	}
	return opts, opts.validate()
}

func (o *Options) validate() error {
	switch {
	case o.NRuns < 1:
		return fmt.Errorf("--Nruns must be at least 1")
	case o.T1 <= 0:
		return fmt.Errorf("--t1 must be positive")
	case o.Dt <= 0 || o.Dt > o.T1:
		return fmt.Errorf("--dt must be in (0, t1]")
	case o.VMax <= 0 || o.OmegaMax <= 0:
		return fmt.Errorf("--v_max and --omega_max must be positive")
	}
	for _, v := range append(append([]float64(nil), o.Q...), o.R...) {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("cost weights must be non-negative")
		}
	}
	for _, v := range o.R {
		if v == 0 {
			return fmt.Errorf("input cost weights must be positive")
		}
	}
	return nil
}

// ControllerGains picks the gains for the configured mode: explicit gains
// win, the nominal mode falls back to DefaultGains, and the cost-based modes
// derive gains from Q and R.
func (o *Options) ControllerGains() Gains {
	if o.gainsSet || strings.EqualFold(o.Mode, "nominal") {
		return o.Gains
	}
	return GainsFromCosts(o.Q, o.R)
}

// Dir returns the folder logs are written to. Without --log_dir it follows
// the simulator's layout simdata/<mode>/Init_angle_<a>_seed_<s>_Nactor_<n>.
func (o *Options) Dir() string {
	if o.LogDir != "" {
		return o.LogDir
	}
	angle := strconv.FormatFloat(o.Init.Alpha, 'f', -1, 64)
	return filepath.Join("simdata", o.Mode,
		fmt.Sprintf("Init_angle_%s_seed_%d_Nactor_%d", angle, o.Seed, o.Nactor))
}

func one(name string, vals []string) (string, error) {
	if len(vals) != 1 {
		return "", fmt.Errorf("--%s expects one value, got %d", name, len(vals))
	}
	return vals[0], nil
}

func oneInt(name string, vals []string) (int, error) {
	s, err := one(name, vals)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}

func oneFloat(name string, vals []string) (float64, error) {
	s, err := one(name, vals)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}

func floatsN(name string, vals []string, n int) ([]float64, error) {
	if len(vals) != n {
		return nil, fmt.Errorf("--%s expects %d values, got %d", name, n, len(vals))
	}
	out := make([]float64, n)
	for i, s := range vals {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		out[i] = v
	}
	return out, nil
}
