package experiment

import (
	"fmt"
	"sort"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

// Preset names.
const (
	PresetNominal = "nominal"
	PresetLQR     = "lqr"
	PresetMPC     = "mpc"
)

var presets = map[string]func() *Experiment{
	PresetNominal: nominalPreset,
	PresetLQR:     lqrPreset,
	PresetMPC:     mpcPreset,
}

// PresetNames lists the built-in experiments in name order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of a built-in experiment with defaults applied.
// It is not validated: the nominal preset needs its log files supplied.
func Preset(name string) (*Experiment, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (known: %v)", name, PresetNames())
	}
	e := build()
	e.ApplyDefaults()
	return e, nil
}

// simulatorBase is the fixed part of every simulator invocation.
func simulatorBase(mode string) []string {
	return []string{
		"--ctrl_mode", mode,
		"--Nruns", "1",
		"--t1", "20",
		"--is_visualization", "0",
		"--is_log_data", "1",
	}
}

func literals(texts ...string) []Number {
	out := make([]Number, len(texts))
	for i, t := range texts {
		n, err := ParseNumber(t)
		if err != nil {
			panic(err)
		}
		out[i] = n
	}
	return out
}

// nominalPreset compares three runs of the kinematic (polar-coordinate)
// controller. The logs are listed explicitly and nothing is simulated.
func nominalPreset() *Experiment {
	gains := func(kRho, kAlpha, kBeta float64) Configuration {
		return NewConfiguration(
			Scalar("k_rho", Float(kRho)),
			Scalar("k_alpha", Float(kAlpha)),
			Scalar("k_beta", Float(kBeta)),
		)
	}
	return &Experiment{
		Name: PresetNominal,
		Configurations: []Configuration{
			gains(2.5, 4.5, -1.5),
			gains(1.0, 3.0, -1.0),
			gains(0.5, 6.0, -0.5),
		},
		Logs: Logs{
			Mode:     LocateExplicit,
			InputDir: "simdata/Nominal/Init_angle_1.57_seed_1_Nactor_10",
			Header:   runlog.Exact,
		},
		Plot: PlotOptions{
			OutputDir: "simdata",
			Palette:   []string{"black", "purple", "pink"},
			Goal:      Goal{Mode: GoalFixed, X: 0, Y: 0},
			Figures: []Figure{
				{Kind: FigureTrajectory, File: "Robot_Trajectories_Kinematics.png", Title: "Robot Trajectories (N_controller)",
					XLabel: "x [m]", YLabel: "y [m]", EqualAxes: true},
				{Kind: FigureLinearVelocity, File: "Linear_Velocity_Kinematics.png", Title: "Linear velocity over time",
					XLabel: "t [s]", YLabel: "v [m/s]"},
				{Kind: FigureAngularVelocity, File: "Angular_Velocity_Kinematics.png", Title: "Angular Velocity Over Time",
					XLabel: "t [s]", YLabel: "omega [rad/s]"},
				{Kind: FigureTrackingError, File: "Tracking_Error_Over_Time.png", Title: "Tracking Error Over Time",
					XLabel: "t [s]", YLabel: "Tracking Error [m]"},
			},
		},
	}
}

// lqrPreset sweeps the LQR state and input cost diagonals.
func lqrPreset() *Experiment {
	costs := func(q, r []Number) Configuration {
		return NewConfiguration(Seq("Q", q...), Seq("R", r...))
	}
	dir := "simdata/lqr/Init_angle_1.57_seed_1_Nactor_10"
	return &Experiment{
		Name: PresetLQR,
		Simulator: &Simulator{
			Command:  []string{"python3", "PRESET_3wrobot_NI.py"},
			BaseArgs: simulatorBase("lqr"),
			Flags: []FlagBinding{
				{Flag: "--Q", Param: "Q"},
				{Flag: "--R", Param: "R"},
			},
			TrailingArgs: []string{"--v_max", "1.0", "--omega_max", "1.0"},
			Env: []EnvBinding{
				{Name: "Q_VALS", Param: "Q"},
				{Name: "R_VALS", Param: "R"},
			},
		},
		Configurations: []Configuration{
			costs(Floats(50, 55, 80), Floats(10, 10)),
			costs(Floats(15, 15, 8), Floats(1, 1)),
			costs(Floats(2, 3, 1), Floats(0.1, 0.1)),
		},
		Logs: Logs{
			Mode:     LocateLatest,
			InputDir: dir,
			Prefix:   "3wrobotNI_lqr_",
			Suffix:   "__run01.csv",
			Count:    3,
			Header:   runlog.Loose,
		},
		Plot: PlotOptions{
			OutputDir:   dir,
			Palette:     []string{"black", "pink", "green"},
			Goal:        Goal{Mode: GoalOrigin},
			Legend:      []LegendParam{{Param: "Q"}, {Param: "R"}},
			Convergence: &Convergence{Threshold: 0.5},
			Summary:     "summary.csv",
			Figures: []Figure{
				{Kind: FigureTrajectory, File: "Trajectory_Plot.png", Title: "LQR: Trajectory (x vs y)",
					XLabel: "x [m]", YLabel: "y [m]", DetailedLegend: true},
				{Kind: FigureTrackingError, File: "Tracking_Error_Plot.png", Title: "LQR: Tracking Error vs Time",
					XLabel: "Time [s]", YLabel: "Position Error [m]"},
				{Kind: FigureControlInputs, File: "Control_Inputs_Plot.png", Title: "LQR: Control Inputs Over Time",
					XLabel: "Time [s]", YLabel: "Input Values"},
			},
		},
	}
}

// mpcPreset sweeps the MPC horizon and its stage and terminal weights.
func mpcPreset() *Experiment {
	horizon := func(n int, r1 []Number, qf []Number) Configuration {
		return NewConfiguration(Scalar("Nactor", Int(n)), Seq("R1_diag", r1...), Seq("Qf", qf...))
	}
	dir := "simdata/MPC"
	return &Experiment{
		Name: PresetMPC,
		Simulator: &Simulator{
			Command:  []string{"python3", "PRESET_3wrobot_NI.py"},
			BaseArgs: simulatorBase("MPC"),
			Flags: []FlagBinding{
				{Flag: "--Nactor", Param: "Nactor"},
				{Flag: "--R1_diag", Param: "R1_diag"},
				{Flag: "--Qf", Param: "Qf"},
			},
			Env: []EnvBinding{
				{Name: "NACTOR", Param: "Nactor"},
				{Name: "R1_DIAG", Param: "R1_diag"},
				{Name: "QF", Param: "Qf"},
			},
		},
		Configurations: []Configuration{
			horizon(5, Ints(200, 200, 15, 15, 10), Ints(100, 100, 10)),
			horizon(20, literals("10", "10", "1", "1", "0.5"), Ints(10, 10, 1)),
			horizon(10, Ints(400, 400, 40, 50, 10), Ints(150, 150, 15)),
		},
		Logs: Logs{
			Mode:     LocatePerSubfolder,
			InputDir: dir,
			Pattern:  "3wrobotNI_MPC_*__run01.csv",
			Limit:    DefaultSubfolderLimit,
			BindKey:  "Nactor_{Nactor}",
			Header:   runlog.Loose,
		},
		Plot: PlotOptions{
			OutputDir: dir,
			Palette:   []string{"black", "pink", "green"},
			Goal:      Goal{Mode: GoalOrigin},
			Legend:    []LegendParam{{Param: "Nactor", As: "N"}},
			Summary:   "summary.csv",
			Figures: []Figure{
				{Kind: FigureTrajectory, File: "MPC_Trajectory.png", Title: "MPC Trajectory (x vs y)",
					XLabel: "x [m]", YLabel: "y [m]", Width: 8, Height: 6, DetailedLegend: true},
				{Kind: FigureTrackingError, File: "MPC_Tracking_Error.png", Title: "MPC Tracking Error vs Time",
					XLabel: "Time [s]", YLabel: "Position Error [m]", Width: 8, Height: 6},
				{Kind: FigureControlInputs, File: "MPC_Control_Inputs.png", Title: "MPC Control Inputs (v and ω) vs Time",
					XLabel: "Time [s]", YLabel: "Control Inputs", Width: 10, Height: 6},
				{Kind: FigureAccumulatedCost, File: "MPC_Accumulated_Cost.png", Title: "MPC Accumulated Cost vs Time",
					XLabel: "Time [s]", YLabel: "Accumulated Cost", Width: 8, Height: 6},
			},
		},
	}
}
