package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"skyreport/internal/config"
	"skyreport/internal/pipeline"
)

// fakeRunner records the actions it is asked to run.
type fakeRunner struct {
	actions []pipeline.Action
	result  pipeline.Result
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, action pipeline.Action) (pipeline.Result, error) {
	f.actions = append(f.actions, action)
	return f.result, f.err
}

// useFakeRunner swaps the runner factory and captures the config it receives.
func useFakeRunner(t *testing.T, r *fakeRunner) **config.Config {
	t.Helper()
	var got *config.Config
	old := newRunnerFunc
	newRunnerFunc = func(c *config.Config, logger *slog.Logger) (runner, error) {
		got = c
		return r, nil
	}
	t.Cleanup(func() { newRunnerFunc = old })
	return &got
}

// chdir moves into a scratch directory so no stray skyreport.yaml or .env is
// read. It also sets a token, which the publish-enabled defaults require.
func chdir(t *testing.T) string {
	t.Helper()
	t.Setenv("GH_TOKEN", "ghp_test")
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	cfgFile = ""
	cfg = nil

	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				return
			}
			panic(r)
		}
	}()

	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	root.SetIn(bytes.NewBufferString(""))
	err := root.ExecuteContext(context.Background())
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
