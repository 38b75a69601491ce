package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skyreport/internal/config"
	perrors "skyreport/internal/errors"
	"skyreport/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// cfg is loaded once per invocation before any subcommand runs.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skyreport",
	Short: "Benchmark Skytable commits against the release and next baselines",
	Long: `skyreport builds Skytable at a commit, runs sky-bench against it and
compares the throughput with the latest release and the head of next.
Reports are written to the results repository and announced on the pull
request that triggered the run.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	Args:              cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("please provide an action (bench, update, show or baseline)")
		}
		return fmt.Errorf("unknown action %q", args[0])
	},
}

// Execute runs the root command. It is the single place where a failed run is
// logged and turned into a non-zero exit code.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("skyreport panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !perrors.IsFatal(err) {
			slog.Warn("skyreport finished with errors", "kind", perrors.KindOf(err).String(), "error", err)
			return
		}
		slog.Error("skyreport failed", "kind", perrors.KindOf(err).String(), "error", err)
		stop()
		exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./skyreport.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Write artifacts locally without pushing or commenting")
}

// loadConfig reads configuration and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		v.Set("publish.enabled", false)
	}
	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	level, err := telemetry.ParseLevel(c.Logging.Level)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, using info\n", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	telemetry.InitLogger(level, c.Logging.File)

	cfg = c
	slog.Debug("configuration loaded", "publish", c.Publish.Enabled, "repo", c.Source.Repo)
	return nil
}
