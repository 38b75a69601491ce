// Package workspace drives one measurement of the engine: clone, build,
// start the server, run the benchmark client, tear everything down.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"skyreport/internal/benchmark"
	perrors "skyreport/internal/errors"
	"skyreport/internal/git"
)

// CommitEnv is exported to every child process once the workspace is prepared.
const CommitEnv = "LATEST_COMMIT"

// Options configures an Orchestrator.
type Options struct {
	Repo         string
	Root         string
	Name         string
	CloneTimeout time.Duration

	BuildCommand []string
	BuildOutput  string
	BuildTimeout time.Duration

	ServerBinary  string
	ServerArgs    []string
	ServerAddress string
	ReadyTimeout  time.Duration
	ProbeInterval time.Duration
	StopTimeout   time.Duration

	BenchBinary  string
	Connections  int
	Queries      int
	Size         int
	BenchTimeout time.Duration

	// Stdout and Stderr receive the output of the build and the server.
	Stdout io.Writer
	Stderr io.Writer

	// PhaseTimer, when set, is called at the start of each phase and the
	// returned func when it ends.
	PhaseTimer func(phase string) func()
}

// Measurement is the outcome of a full run.
type Measurement struct {
	Commit string
	Report benchmark.Report
	Raw    []byte
}

// Orchestrator is a single-use state machine. It is not safe for concurrent
// use.
type Orchestrator struct {
	opts   Options
	git    git.IClient
	logger *slog.Logger
	probe  ProbeFunc

	state   State
	dir     string
	created bool
	commit  string
	handle  *ServerHandle
}

// New creates an Orchestrator in the idle state.
func New(opts Options, g git.IClient, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("skyreport-%d", time.Now().UnixNano())
	}
	root := opts.Root
	if root == "" {
		root = os.TempDir()
	}
	return &Orchestrator{
		opts:   opts,
		git:    g,
		logger: logger.With("component", "workspace"),
		dir:    filepath.Join(root, opts.Name),
	}
}

// SetProbe replaces the readiness probe.
func (o *Orchestrator) SetProbe(p ProbeFunc) {
	o.probe = p
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Dir returns the workspace directory.
func (o *Orchestrator) Dir() string { return o.dir }

// Commit returns the resolved commit, empty before PrepareWorkspace.
func (o *Orchestrator) Commit() string { return o.commit }

func (o *Orchestrator) timePhase(phase string) func() {
	if o.opts.PhaseTimer == nil {
		return func() {}
	}
	return o.opts.PhaseTimer(phase)
}

func (o *Orchestrator) env() []string {
	env := os.Environ()
	if o.commit != "" {
		env = append(env, CommitEnv+"="+o.commit)
	}
	return env
}

func (o *Orchestrator) artifact(name string) string {
	return filepath.Join(o.dir, o.opts.BuildOutput, name)
}

// PrepareWorkspace clones the repository into a fresh directory, checks out
// ref and returns the resolved commit.
func (o *Orchestrator) PrepareWorkspace(ctx context.Context, ref string) (string, error) {
	if err := o.expect("prepare workspace", StateIdle); err != nil {
		return "", err
	}
	defer o.timePhase("clone")()

	if _, err := os.Stat(o.dir); err == nil {
		return "", perrors.Workspace("prepare workspace", fmt.Errorf("directory %s already exists", o.dir))
	}
	o.created = true

	cctx, cancel := context.WithTimeout(ctx, o.opts.CloneTimeout)
	defer cancel()

	o.logger.Info("cloning repository", "repo", o.opts.Repo, "dir", o.dir)
	if err := o.git.Clone(cctx, o.opts.Repo, o.dir); err != nil {
		return "", perrors.Workspace("clone", err)
	}
	if err := o.git.Checkout(cctx, o.dir, ref); err != nil {
		return "", perrors.Workspace("checkout "+ref, err)
	}
	commit, err := o.git.HeadCommit(cctx, o.dir)
	if err != nil {
		return "", perrors.Workspace("resolve commit", err)
	}

	o.commit = commit
	o.state = StateCloned
	o.logger.Info("workspace ready", "ref", ref, "commit", commit)
	return commit, nil
}

// Build compiles the server and benchmark client in the workspace.
func (o *Orchestrator) Build(ctx context.Context) error {
	if err := o.expect("build", StateCloned); err != nil {
		return err
	}
	if len(o.opts.BuildCommand) == 0 {
		return perrors.Workspace("build", fmt.Errorf("no build command configured"))
	}
	defer o.timePhase("build")()

	ctx, cancel := context.WithTimeout(ctx, o.opts.BuildTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, o.opts.BuildCommand[0], o.opts.BuildCommand[1:]...)
	cmd.Dir = o.dir
	cmd.Env = o.env()
	cmd.Stdout = o.opts.Stdout
	cmd.Stderr = o.opts.Stderr

	o.logger.Info("building", "command", strings.Join(o.opts.BuildCommand, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return perrors.Workspace("build", fmt.Errorf("timed out after %s", o.opts.BuildTimeout))
		}
		return perrors.Workspace("build", err)
	}

	for _, name := range []string{o.opts.ServerBinary, o.opts.BenchBinary} {
		if _, err := os.Stat(o.artifact(name)); err != nil {
			return perrors.Workspace("build", fmt.Errorf("missing artifact %s: %w", name, err))
		}
	}

	o.state = StateBuilt
	return nil
}

// BenchArgs returns the fixed benchmark client parameters.
func (o *Orchestrator) BenchArgs() []string {
	return []string{
		fmt.Sprintf("-c%d", o.opts.Connections),
		fmt.Sprintf("-q%d", o.opts.Queries),
		fmt.Sprintf("-s%d", o.opts.Size),
		"--json",
	}
}

// RunBenchmark runs the benchmark client against the running server and
// returns its stdout. Any output on stderr fails the run.
func (o *Orchestrator) RunBenchmark(ctx context.Context) ([]byte, error) {
	if err := o.expect("run benchmark", StateServerRunning); err != nil {
		return nil, err
	}
	defer o.timePhase("benchmark")()

	ctx, cancel := context.WithTimeout(ctx, o.opts.BenchTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.artifact(o.opts.BenchBinary), o.BenchArgs()...)
	cmd.Dir = o.dir
	cmd.Env = o.env()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	o.logger.Info("running benchmark", "args", o.BenchArgs())
	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, perrors.Process("run benchmark", fmt.Errorf("timed out after %s", o.opts.BenchTimeout))
		}
		if stderr.Len() > 0 {
			return nil, perrors.Process("run benchmark", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
		}
		return nil, perrors.Process("run benchmark", err)
	}
	if stderr.Len() > 0 {
		return nil, perrors.Process("run benchmark", fmt.Errorf("benchmark wrote to stderr: %s", strings.TrimSpace(stderr.String())))
	}

	o.state = StateBenchmarkComplete
	return stdout.Bytes(), nil
}

// Cleanup removes the workspace directory. Failures are logged.
func (o *Orchestrator) Cleanup() {
	if o.state == StateCleanedUp {
		return
	}
	if !o.created {
		o.state = StateCleanedUp
		return
	}
	if err := os.RemoveAll(o.dir); err != nil {
		o.logger.Warn("failed to remove workspace", "dir", o.dir, "error", perrors.Cleanup("remove workspace", err))
	} else {
		o.logger.Debug("workspace removed", "dir", o.dir)
	}
	o.state = StateCleanedUp
}

// Measure runs the whole sequence for ref. The server is stopped and the
// workspace removed on every exit path.
func (o *Orchestrator) Measure(ctx context.Context, ref string) (Measurement, error) {
	var handle *ServerHandle
	defer func() {
		o.StopServer(handle)
		o.Cleanup()
	}()

	commit, err := o.PrepareWorkspace(ctx, ref)
	if err != nil {
		return Measurement{}, err
	}
	if err := o.Build(ctx); err != nil {
		return Measurement{}, err
	}
	handle, err = o.StartServer(ctx)
	if err != nil {
		return Measurement{}, err
	}
	raw, err := o.RunBenchmark(ctx)
	if err != nil {
		return Measurement{}, err
	}
	o.StopServer(handle)

	report, err := benchmark.ParseReport(raw)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{Commit: commit, Report: report, Raw: raw}, nil
}
