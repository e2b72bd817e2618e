package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/unicycle"
)

func newEmulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emulate [simulator flags]",
		Short: "Built-in stand-in for the robot simulator",
		Long: `Simulate a kinematic three-wheel robot and write logs in the simulator's
format, so an experiment can be tried without the external simulator.

It accepts the simulator's own flags, for example:
  sweep emulate --ctrl_mode lqr --Nruns 1 --t1 20 --Q 50.0 55.0 80.0 --R 10.0 10.0

Logs go to --log_dir, or to simdata/<mode>/Init_angle_<a>_seed_<s>_Nactor_<n>.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			opts, err := unicycle.ParseArgs(args)
			if err != nil {
				return fmt.Errorf("emulate: %w", err)
			}
			paths, err := unicycle.Run(opts, logger)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
}
