package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/compare"
	"github.com/mohammadijoo/robot_sweep_go/src/internal/driver"
	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
	"github.com/mohammadijoo/robot_sweep_go/src/internal/locate"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate every configuration, then plot the runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			exp, err := loadExperiment(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			results, err := simulate(ctx, cmd, exp, logger)
			if err != nil {
				return err
			}
			return plotRuns(cmd, exp, runWindows(results), logger)
		},
	}
	return cmd
}

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run the simulator once per configuration without plotting",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			exp, err := loadExperiment(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			_, err = simulate(ctx, cmd, exp, logger)
			return err
		},
	}
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot existing run logs",
		Long: `Plot existing run logs.

Logs are found the way the experiment describes (explicit list, newest
files in a folder, or newest file per subfolder). --file replaces that
search with an explicit list, one log per configuration in order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			exp, err := loadExperiment(cmd)
			if err != nil {
				return err
			}
			return plotRuns(cmd, exp, nil, logger)
		},
	}
	cmd.Flags().StringSlice("file", nil, "Run log to plot (repeatable, relative to the input dir)")
	return cmd
}

// simulate drives the experiment's simulator. Runs that exit with an error
// are reported but do not fail the command.
func simulate(ctx context.Context, cmd *cobra.Command, exp *experiment.Experiment, logger *slog.Logger) ([]driver.Result, error) {
	if exp.Simulator == nil {
		return nil, fmt.Errorf("experiment %s has no simulator to run", exp.Name)
	}
	if exp.Logs.InputDir != "" {
		if err := os.MkdirAll(exp.Logs.InputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	d := driver.New(logger)
	d.Stdout = cmd.OutOrStdout()
	d.Stderr = cmd.ErrOrStderr()
	results, err := d.Run(ctx, exp)
	if err != nil {
		return nil, err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("batch finished", "experiment", exp.Name, "runs", len(results), "failed", failed)
	return results, nil
}

// runWindows turns the batch results into the span of each run, so plotting
// only binds logs the batch itself wrote.
func runWindows(results []driver.Result) []locate.Window {
	windows := make([]locate.Window, len(results))
	for i, r := range results {
		windows[i] = locate.Window{Start: r.Started, End: r.Started.Add(r.Duration)}
	}
	return windows
}

// plotRuns draws the comparison figures. Finding no logs at all is reported
// and is not an error.
func plotRuns(cmd *cobra.Command, exp *experiment.Experiment, windows []locate.Window, logger *slog.Logger) error {
	report, err := compare.New(logger).Run(exp, windows)
	if errors.Is(err, locate.ErrNoLogs) {
		fmt.Fprintln(cmd.OutOrStdout(), "no log files found for plotting")
		return nil
	}
	if report != nil && len(report.Files) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "plots saved to %s:\n", exp.Plot.OutputDir)
		for _, f := range report.Files {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
		}
	}
	return err
}
