package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"skyreport/internal/benchmark"
	"skyreport/internal/pipeline"
	"skyreport/internal/report"
)

var benchCmd = &cobra.Command{
	Use:   "bench <commit> <pull-request>",
	Short: "Benchmark a commit and report on its pull request",
	Long: `Builds the engine at <commit>, benchmarks it, compares the result with the
next and release baselines, writes the JSON and Markdown reports and comments
on <pull-request> with a link to the report.`,
	Example: "  skyreport bench 3f2a1c9 274",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := pipeline.NewBenchAction(args[0], args[1])
		if err != nil {
			return err
		}
		return runAction(cmd, action)
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)
}

// runAction executes action and prints a short summary.
func runAction(cmd *cobra.Command, action pipeline.Action) error {
	r, err := newRunnerFunc(cfg, slog.Default())
	if err != nil {
		return err
	}
	res, err := r.Run(cmd.Context(), action)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res pipeline.Result) {
	fmt.Fprintf(w, "Run %s (%s)\n", res.RunID, res.Commit)
	fmt.Fprintf(w, "  GET %s  SET %s  UPDATE %s\n",
		report.FormatStat(res.Report.Get), report.FormatStat(res.Report.Set), report.FormatStat(res.Report.Update))

	labels := []benchmark.Slot{benchmark.SlotNext, benchmark.SlotRelease}
	for i, c := range res.Comparisons {
		if i >= len(labels) {
			break
		}
		fmt.Fprintf(w, "  v/s %s (%s): GET %s  SET %s  UPDATE %s\n", labels[i], c.Against,
			report.FormatDelta(c.Result.Get), report.FormatDelta(c.Result.Set), report.FormatDelta(c.Result.Update))
	}
	if res.Artifacts.MarkdownPath != "" {
		fmt.Fprintf(w, "Report: %s\n", res.Artifacts.MarkdownPath)
	}
}
