package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"skyreport/internal/benchmark"
	"skyreport/internal/config"
	"skyreport/internal/git"
	"skyreport/internal/notify"
	"skyreport/internal/pipeline"
	"skyreport/internal/publish"
	"skyreport/internal/report"
	"skyreport/internal/telemetry"
	"skyreport/internal/workspace"
)

// runner runs one pipeline action.
type runner interface {
	Run(ctx context.Context, action pipeline.Action) (pipeline.Result, error)
}

// newRunnerFunc is replaced in tests.
var newRunnerFunc = newRunner

// resolve makes p relative to the results repository unless it is absolute.
func resolve(c *config.Config, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Publish.Dir, p)
}

func newStore(c *config.Config) (*benchmark.FileStore, error) {
	return benchmark.NewFileStore(resolve(c, c.Paths.Baselines))
}

func newRunner(c *config.Config, logger *slog.Logger) (runner, error) {
	store, err := newStore(c)
	if err != nil {
		return nil, err
	}

	gitClient := &git.Client{Stdout: os.Stderr, Stderr: os.Stderr}
	metrics := telemetry.NewMetrics()

	notifier := notify.NewManager(notify.Options{
		GitHubAPIURL: c.GitHub.APIURL,
		GitHubToken:  c.GitHub.Token,
		Owner:        c.GitHub.Owner,
		Repo:         c.GitHub.Repo,
		SlackEnabled: c.Notifications.Slack.Enabled,
		SlackToken:   c.Notifications.Slack.Token,
		SlackChannel: c.Notifications.Slack.Channel,
	}, logger)

	pub := publish.New(publish.Options{
		Enabled:     c.Publish.Enabled,
		Dir:         c.Publish.Dir,
		ResultsDir:  c.Paths.Results,
		ReportsDir:  c.Paths.Reports,
		User:        c.Publish.User,
		Token:       c.GitHub.Token,
		Host:        c.Publish.Host,
		Org:         c.Publish.Org,
		Repo:        c.Publish.Repo,
		GitName:     c.Publish.GitName,
		GitEmail:    c.Publish.GitEmail,
		Upstream:    c.GitHub.Owner + "/" + c.GitHub.Repo,
		FileBaseURL: c.Report.FileBaseURL,
		Timeout:     c.Publish.Timeout,
	}, gitClient, notifier, logger)

	newMeasurer := func(runID string) pipeline.Measurer {
		return workspace.New(workspaceOptions(c, runID, metrics), gitClient, logger.With("run_id", runID))
	}

	return pipeline.New(pipeline.Deps{
		NewMeasurer: newMeasurer,
		Store:       store,
		Publisher:   pub,
		Announcer:   notifier,
		Metrics:     metrics,
		Logger:      logger,
		Title:       c.Report.Title,
		Links: report.Links{
			CommitBaseURL: c.Report.CommitBaseURL,
			PRBaseURL:     c.Report.PRBaseURL,
		},
		NextBranch:      c.Source.NextBranch,
		MetricsTextfile: c.Metrics.Textfile,
	}), nil
}

// workspaceOptions maps the configuration onto the orchestrator. Child process
// output goes to stderr so stdout carries only the run summary.
func workspaceOptions(c *config.Config, runID string, metrics *telemetry.Metrics) workspace.Options {
	return workspace.Options{
		Repo:          c.Source.Repo,
		Root:          c.Workspace.Root,
		Name:          "skyreport-" + runID,
		CloneTimeout:  c.Workspace.CloneTimeout,
		BuildCommand:  c.Build.Command,
		BuildOutput:   c.Build.Output,
		BuildTimeout:  c.Build.Timeout,
		ServerBinary:  c.Server.Binary,
		ServerArgs:    c.Server.Args,
		ServerAddress: c.Server.Address,
		ReadyTimeout:  c.Server.ReadyTimeout,
		ProbeInterval: c.Server.ProbeInterval,
		StopTimeout:   c.Server.StopTimeout,
		BenchBinary:   c.Bench.Binary,
		Connections:   c.Bench.Connections,
		Queries:       c.Bench.Queries,
		Size:          c.Bench.Size,
		BenchTimeout:  c.Bench.Timeout,
		Stdout:        os.Stderr,
		Stderr:        os.Stderr,
		PhaseTimer:    metrics.TimePhase,
	}
}
