package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	perrors "skyreport/internal/errors"
	"skyreport/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <report.md>",
	Short: "Render a Markdown report in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return perrors.IO("read report", err)
		}

		if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
			fmt.Fprint(cmd.OutOrStdout(), report.RenderHTML(data))
			return nil
		}

		width, _ := cmd.Flags().GetInt("width")
		noColor, _ := cmd.Flags().GetBool("no-color")
		if !isTerminal(cmd.OutOrStdout()) || !report.ColorEnabled() {
			noColor = true
		}
		out, err := report.RenderTerminal(data, width, noColor)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func init() {
	showCmd.Flags().Int("width", 80, "Word wrap width")
	showCmd.Flags().Bool("html", false, "Print the report as HTML")
	showCmd.Flags().Bool("no-color", false, "Disable colored output")
	rootCmd.AddCommand(showCmd)
}
