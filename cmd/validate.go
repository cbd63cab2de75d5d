package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boxsim/boxsim/sim/scenario"
)

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(appFs, path)
			if err != nil {
				return err
			}
			runID, err := s.RunID()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (run id %s)\n", path, runID)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "scenario", "", "Path to a scenario YAML file")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(scenario.PresetNames(), "\n"))
			return err
		},
	}
}
