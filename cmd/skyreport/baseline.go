package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"skyreport/internal/benchmark"
	"skyreport/internal/report"
)

var baselineCmd = &cobra.Command{
	Use:       "baseline [release|next]",
	Short:     "Print the persisted baselines",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(benchmark.SlotRelease), string(benchmark.SlotNext)},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cfg)
		if err != nil {
			return err
		}

		slots := []benchmark.Slot{benchmark.SlotRelease, benchmark.SlotNext}
		if len(args) == 1 {
			slots = []benchmark.Slot{benchmark.Slot(args[0])}
		}

		w := cmd.OutOrStdout()
		for _, slot := range slots {
			b, err := store.Read(slot)
			if errors.Is(err, benchmark.ErrNotFound) {
				fmt.Fprintf(w, "%s: not set (run `skyreport update %s`)\n", slot, slot)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprint(w, report.FormatBaseline(slot, b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)
}
