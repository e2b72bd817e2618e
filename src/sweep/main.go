// Command sweep runs batches of the mobile-robot simulator over a list of
// gain or cost configurations and plots the resulting runs side by side.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
	"github.com/mohammadijoo/robot_sweep_go/src/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Robot simulator gain sweeps and comparison plots",
		Long: `sweep launches the robot simulator once per configuration of an
experiment, finds the logs the runs wrote, and overlays them in comparison
figures (trajectory, velocities, control inputs, tracking error, cost).

An experiment comes from a YAML file (--config) or a built-in preset
(--preset nominal|lqr|mpc).

Examples:
  sweep run --preset lqr             # simulate the LQR sweep, then plot
  sweep plot --preset mpc            # plot existing MPC logs only
  sweep plot --preset nominal --file a.csv --file b.csv --file c.csv
  sweep preset lqr > lqr.yaml        # start a custom experiment from a preset`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Experiment YAML file")
	pf.String("preset", "", "Built-in experiment: nominal, lqr or mpc")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", logging.FormatText, "Log format: text or json")
	pf.String("input-dir", "", "Override the folder searched for run logs")
	pf.String("output-dir", "", "Override the folder figures are written to")
	pf.String("pattern", "", "Override the per-subfolder log file pattern")
	pf.Float64("dpi", 0, "Override the figure resolution")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSimulateCmd(),
		newPlotCmd(),
		newPresetCmd(),
		newEmulateCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sweep version %s\n", version)
		},
	}
}

// newLogger builds the command logger from the global flags. Logs go to
// stderr.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(level, format, cmd.ErrOrStderr())
}

// loadExperiment resolves --config or --preset, applies the command-line
// overrides and validates the result.
func loadExperiment(cmd *cobra.Command) (*experiment.Experiment, error) {
	configPath, _ := cmd.Flags().GetString("config")
	preset, _ := cmd.Flags().GetString("preset")

	var exp *experiment.Experiment
	var err error
	switch {
	case configPath != "" && preset != "":
		return nil, fmt.Errorf("--config and --preset are mutually exclusive")
	case configPath != "":
		exp, err = experiment.Load(configPath)
	case preset != "":
		exp, err = experiment.Preset(preset)
	default:
		return nil, fmt.Errorf("an experiment is required: use --config <file> or --preset <%s>", presetList())
	}
	if err != nil {
		return nil, err
	}

	if err := applyOverrides(cmd, exp); err != nil {
		return nil, err
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

func applyOverrides(cmd *cobra.Command, exp *experiment.Experiment) error {
	flags := cmd.Flags()
	if dir, _ := flags.GetString("input-dir"); dir != "" {
		// Figures follow the logs unless they were sent elsewhere.
		if exp.Plot.OutputDir == exp.Logs.InputDir {
			exp.Plot.OutputDir = dir
		}
		exp.Logs.InputDir = dir
	}
	if dir, _ := flags.GetString("output-dir"); dir != "" {
		exp.Plot.OutputDir = dir
	}
	if pattern, _ := flags.GetString("pattern"); pattern != "" {
		if exp.Logs.Mode != experiment.LocatePerSubfolder {
			return fmt.Errorf("--pattern only applies to %s experiments", experiment.LocatePerSubfolder)
		}
		exp.Logs.Pattern = pattern
	}
	if dpi, _ := flags.GetFloat64("dpi"); dpi != 0 {
		exp.Plot.DPI = dpi
	}
	if flags.Lookup("file") != nil {
		if files, _ := flags.GetStringSlice("file"); len(files) > 0 {
			exp.Logs.Mode = experiment.LocateExplicit
			exp.Logs.Files = files
			exp.Logs.BindKey = ""
		}
	}
	return nil
}

func presetList() string {
	return strings.Join(experiment.PresetNames(), "|")
}
