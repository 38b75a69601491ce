package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyreport/internal/benchmark"
	perrors "skyreport/internal/errors"
	"skyreport/internal/pipeline"
	"skyreport/internal/publish"
	"skyreport/internal/report"
)

func TestBenchCommand(t *testing.T) {
	chdir(t)
	r := &fakeRunner{result: pipeline.Result{
		RunID:  "run-1",
		Commit: "abc1234def",
		Report: benchmark.Report{Get: 110, Set: 90, Update: 100},
		Comparisons: []benchmark.Comparison{
			{Against: "aaa111", Result: benchmark.DeltaReport{Get: benchmark.Delta{Value: 10, Valid: true}}},
			{Against: "v0.8.0", Result: benchmark.DeltaReport{Set: benchmark.Delta{Value: -10, Valid: true}}},
		},
		Artifacts: publish.Artifacts{MarkdownPath: "reports/result-01012024-000000.md"},
	}}
	gotCfg := useFakeRunner(t, r)

	out, err := executeCommand(rootCmd, "bench", "abc1234", "42")
	require.NoError(t, err)

	require.Len(t, r.actions, 1)
	assert.Equal(t, pipeline.NewBench{Commit: "abc1234", PullRequest: "42"}, r.actions[0])
	require.NotNil(t, *gotCfg)
	assert.True(t, (*gotCfg).Publish.Enabled)

	assert.Contains(t, out, "Run run-1 (abc1234def)")
	assert.Contains(t, out, "v/s next (aaa111)")
	assert.Contains(t, out, "v/s release (v0.8.0)")
	assert.Contains(t, out, "Report: reports/result-01012024-000000.md")
}

func TestBenchCommand_InvalidArgs(t *testing.T) {
	chdir(t)
	tests := []struct {
		name string
		args []string
	}{
		{"Missing PR", []string{"bench", "abc1234"}},
		{"Too many args", []string{"bench", "abc", "1", "2"}},
		{"Non-numeric PR", []string{"bench", "abc1234", "pr-42"}},
		{"Zero PR", []string{"bench", "abc1234", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{}
			useFakeRunner(t, r)

			_, err := executeCommand(rootCmd, tt.args...)
			assert.Error(t, err)
			assert.Empty(t, r.actions)
		})
	}
}

func TestBenchCommand_DryRun(t *testing.T) {
	chdir(t)
	t.Setenv("GH_TOKEN", "")
	r := &fakeRunner{}
	gotCfg := useFakeRunner(t, r)

	_, err := executeCommand(rootCmd, "bench", "--dry-run", "abc1234", "7")
	require.NoError(t, err)
	require.NotNil(t, *gotCfg)
	assert.False(t, (*gotCfg).Publish.Enabled)
}

func TestBenchCommand_RunError(t *testing.T) {
	chdir(t)
	r := &fakeRunner{err: perrors.Parse("parse benchmark output", errors.New("expected 3 stats, got 2"))}
	useFakeRunner(t, r)

	_, err := executeCommand(rootCmd, "bench", "abc1234", "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrParse)
}

func TestUpdateCommands(t *testing.T) {
	chdir(t)
	r := &fakeRunner{}
	useFakeRunner(t, r)

	_, err := executeCommand(rootCmd, "update", "next")
	require.NoError(t, err)
	_, err = executeCommand(rootCmd, "update", "release", "v0.8.0")
	require.NoError(t, err)

	assert.Equal(t, []pipeline.Action{
		pipeline.UpdateNext{},
		pipeline.UpdateRelease{Tag: "v0.8.0"},
	}, r.actions)
}

func TestUpdateCommands_InvalidArgs(t *testing.T) {
	chdir(t)
	r := &fakeRunner{}
	useFakeRunner(t, r)

	_, err := executeCommand(rootCmd, "update", "release")
	assert.Error(t, err)
	_, err = executeCommand(rootCmd, "update", "next", "extra")
	assert.Error(t, err)

	_, err = executeCommand(rootCmd, "update")
	assert.ErrorContains(t, err, "please provide an update action")
	_, err = executeCommand(rootCmd, "update", "foo")
	assert.ErrorContains(t, err, `unknown update action "foo"`)
	_, err = executeCommand(rootCmd, "update", "nightly", "x")
	assert.ErrorContains(t, err, `unknown update action "nightly"`)

	_, err = executeCommand(rootCmd, "frobnicate")
	assert.ErrorContains(t, err, `unknown action "frobnicate"`)
	assert.Empty(t, r.actions)
}

func TestBenchCommand_PublishWithoutToken(t *testing.T) {
	chdir(t)
	t.Setenv("GH_TOKEN", "")
	r := &fakeRunner{}
	useFakeRunner(t, r)

	_, err := executeCommand(rootCmd, "bench", "abc1234", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GitHub.Token is required when publishing is enabled")
	assert.Empty(t, r.actions)
}

func TestConfigError(t *testing.T) {
	chdir(t)
	t.Setenv("SKYREPORT_BENCH_CONNECTIONS", "0")
	r := &fakeRunner{}
	useFakeRunner(t, r)

	_, err := executeCommand(rootCmd, "update", "next")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bench.Connections must be positive")
	assert.Empty(t, r.actions)
}

func TestShowCommand(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "result.md")
	md := report.RenderMarkdown(report.Input{
		Current:     benchmark.Report{Get: 1, Set: 2, Update: 3},
		Commit:      "abc",
		PullRequest: "9",
	})
	require.NoError(t, os.WriteFile(path, md, 0644))

	out, err := executeCommand(rootCmd, "show", "--no-color", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Skyreport")
	assert.Contains(t, out, "Raw Result")
}

func TestShowCommand_MissingFile(t *testing.T) {
	chdir(t)
	_, err := executeCommand(rootCmd, "show", "nope.md")
	assert.ErrorIs(t, err, perrors.ErrIO)
}

func TestBaselineCommand(t *testing.T) {
	dir := chdir(t)
	store, err := benchmark.NewFileStore(filepath.Join(dir, "preset"))
	require.NoError(t, err)
	require.NoError(t, store.Write(benchmark.SlotRelease, "v0.8.0", benchmark.Report{Get: 1, Set: 2, Update: 3}))

	out, err := executeCommand(rootCmd, "baseline")
	require.NoError(t, err)
	assert.Contains(t, out, "release (v0.8.0)")
	assert.Contains(t, out, "next: not set")

	out, err = executeCommand(rootCmd, "baseline", "release")
	require.NoError(t, err)
	assert.NotContains(t, out, "next")

	_, err = executeCommand(rootCmd, "baseline", "nightly")
	assert.Error(t, err)
}

func TestExecute_ExitsOnError(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Missing Bench Args", []string{"bench"}},
		{"No Action", []string{}},
		{"Unknown Action", []string{"frobnicate"}},
		{"Update Without Action", []string{"update"}},
		{"Unknown Update Action", []string{"update", "foo"}},
		{"Unknown Update Action With Arg", []string{"update", "nightly", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			useFakeRunner(t, &fakeRunner{})
			code := 0
			oldExit := exit
			exit = func(c int) { code = c }
			defer func() { exit = oldExit }()

			rootCmd.SetArgs(tt.args)
			defer rootCmd.SetArgs(nil)
			Execute()

			assert.Equal(t, 1, code)
		})
	}
}

func TestExecute_CleanupErrorIsNotFatal(t *testing.T) {
	chdir(t)
	useFakeRunner(t, &fakeRunner{err: perrors.Cleanup("remove workspace", errors.New("busy"))})
	code := -1
	oldExit := exit
	exit = func(c int) { code = c }
	defer func() { exit = oldExit }()

	rootCmd.SetArgs([]string{"update", "next"})
	defer rootCmd.SetArgs(nil)
	Execute()

	assert.Equal(t, -1, code)
}

func TestShowCommand_HTML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "result.md")
	require.NoError(t, os.WriteFile(path, []byte("# Skyreport\n## Meta\n- **GET**: 1\n"), 0644))

	out, err := executeCommand(rootCmd, "show", "--html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Skyreport</h1>")
	assert.Contains(t, out, "<strong>GET</strong>")
}
