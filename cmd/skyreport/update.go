package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skyreport/internal/pipeline"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-measure a baseline",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("please provide an update action (next or release <tag>)")
		}
		return fmt.Errorf("unknown update action %q", args[0])
	},
}

var updateNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Re-measure the head of the next branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, pipeline.UpdateNext{})
	},
}

var updateReleaseCmd = &cobra.Command{
	Use:     "release <tag>",
	Short:   "Re-measure a release tag (supply the latest release)",
	Example: "  skyreport update release v0.8.0",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := pipeline.NewUpdateReleaseAction(args[0])
		if err != nil {
			return err
		}
		return runAction(cmd, action)
	},
}

func init() {
	updateCmd.AddCommand(updateNextCmd, updateReleaseCmd)
	rootCmd.AddCommand(updateCmd)
}
