package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
)

func newPresetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preset [name]",
		Short: "List the built-in experiments or print one as YAML",
		Long: `List the built-in experiments or print one as YAML.

The printed experiment can be saved, edited and passed back with --config.
Path overrides (--input-dir, --output-dir, --pattern, --dpi) are applied
before printing.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: experiment.PresetNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range experiment.PresetNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			exp, err := experiment.Preset(args[0])
			if err != nil {
				return err
			}
			if err := applyOverrides(cmd, exp); err != nil {
				return err
			}
			data, err := experiment.Marshal(exp)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
