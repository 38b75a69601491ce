// Package pipeline runs one Action end to end.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"skyreport/internal/benchmark"
	perrors "skyreport/internal/errors"
	"skyreport/internal/notify"
	"skyreport/internal/publish"
	"skyreport/internal/report"
	"skyreport/internal/telemetry"
	"skyreport/internal/workspace"
)

// Measurer builds the engine at ref and benchmarks it.
type Measurer interface {
	Measure(ctx context.Context, ref string) (workspace.Measurement, error)
}

// Publisher stores and announces artifacts.
type Publisher interface {
	Preflight() error
	Persist(jsonData, markdown []byte) (publish.Artifacts, error)
	Announce(ctx context.Context, a publish.Artifacts, pr, commit string) error
	PushBaseline(ctx context.Context, message string) error
}

// Announcer broadcasts run outcomes. Failures are its own concern.
type Announcer interface {
	Announce(ctx context.Context, event notify.Event, message string)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	// NewMeasurer returns a fresh single-use Measurer for a run.
	NewMeasurer func(runID string) Measurer
	Store       benchmark.Store
	Publisher   Publisher
	Announcer   Announcer
	Metrics     *telemetry.Metrics
	Logger      *slog.Logger

	Title      string
	Links      report.Links
	NextBranch string
	// MetricsTextfile, when set, receives the run metrics.
	MetricsTextfile string
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Commit      string
	Report      benchmark.Report
	Comparisons []benchmark.Comparison
	Artifacts   publish.Artifacts
}

// Pipeline executes actions.
type Pipeline struct {
	deps  Deps
	newID func() string
	now   func() time.Time
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NewMetrics()
	}
	if deps.NextBranch == "" {
		deps.NextBranch = string(benchmark.SlotNext)
	}
	return &Pipeline{deps: deps, newID: uuid.NewString, now: time.Now}
}

// Run executes action. The returned error carries its errors.Kind.
func (p *Pipeline) Run(ctx context.Context, action Action) (Result, error) {
	runID := p.newID()
	logger := p.deps.Logger.With("run_id", runID, "action", action.Name())
	logger.Info("run started")

	var (
		res Result
		err error
	)
	switch a := action.(type) {
	case NewBench:
		res, err = p.bench(ctx, logger, runID, a)
	case UpdateNext:
		res, err = p.update(ctx, logger, runID, benchmark.SlotNext, p.deps.NextBranch, publish.NextMessage())
	case UpdateRelease:
		res, err = p.update(ctx, logger, runID, benchmark.SlotRelease, a.Tag, publish.ReleaseMessage(a.Tag))
	default:
		err = fmt.Errorf("unknown action %T", action)
	}
	res.RunID = runID

	p.deps.Metrics.RecordRun(action.Name(), err, p.now())
	if p.deps.MetricsTextfile != "" {
		if werr := p.deps.Metrics.WriteTextfile(p.deps.MetricsTextfile); werr != nil {
			logger.Warn("failed to write metrics", "error", werr)
		}
	}

	if err != nil {
		logger.Error("run failed", "kind", perrors.KindOf(err).String(), "error", err)
		p.announce(ctx, notify.EventFailure, fmt.Sprintf("%s failed: %v", action.Name(), err))
		return res, err
	}
	logger.Info("run finished", "commit", res.Commit)
	return res, nil
}

func (p *Pipeline) measure(ctx context.Context, runID, ref string) (workspace.Measurement, error) {
	m, err := p.deps.NewMeasurer(runID).Measure(ctx, ref)
	if err != nil {
		return m, err
	}
	p.deps.Metrics.SetThroughput(m.Report.Get, m.Report.Set, m.Report.Update)
	return m, nil
}

func (p *Pipeline) readBaseline(slot benchmark.Slot) (benchmark.Baseline, error) {
	b, err := p.deps.Store.Read(slot)
	if err != nil {
		if perrors.KindOf(err) != perrors.KindUnknown {
			return b, err
		}
		return b, perrors.IO("read baseline "+string(slot), err)
	}
	return b, nil
}

func (p *Pipeline) bench(ctx context.Context, logger *slog.Logger, runID string, a NewBench) (Result, error) {
	// Baselines are read before the costly build so a missing slot fails fast.
	next, err := p.readBaseline(benchmark.SlotNext)
	if err != nil {
		return Result{}, err
	}
	release, err := p.readBaseline(benchmark.SlotRelease)
	if err != nil {
		return Result{}, err
	}
	if err := p.deps.Publisher.Preflight(); err != nil {
		return Result{}, err
	}

	m, err := p.measure(ctx, runID, a.Commit)
	if err != nil {
		return Result{}, err
	}

	comparisons := benchmark.CompareBoth(m.Report, next, release)
	for _, c := range comparisons {
		logger.Info("comparison", "against", c.Against, "get", c.Result.Get.String(),
			"set", c.Result.Set.String(), "update", c.Result.Update.String())
	}
	labels := []benchmark.Slot{benchmark.SlotNext, benchmark.SlotRelease}
	for i, c := range comparisons {
		against := string(labels[i])
		p.deps.Metrics.SetDelta(against, "get", c.Result.Get.Value, c.Result.Get.Valid)
		p.deps.Metrics.SetDelta(against, "set", c.Result.Set.Value, c.Result.Set.Valid)
		p.deps.Metrics.SetDelta(against, "update", c.Result.Update.Value, c.Result.Update.Valid)
	}

	in := report.Input{
		Title:          p.deps.Title,
		Current:        m.Report,
		Comparisons:    comparisons,
		Commit:         a.Commit,
		ResolvedCommit: m.Commit,
		PullRequest:    a.PullRequest,
		Links:          p.deps.Links,
	}
	jsonData, err := report.RenderJSON(in)
	if err != nil {
		return Result{}, perrors.Parse("render report", err)
	}
	markdown := report.RenderMarkdown(in)

	res := Result{Commit: m.Commit, Report: m.Report, Comparisons: comparisons}
	res.Artifacts, err = p.deps.Publisher.Persist(jsonData, markdown)
	if err != nil {
		return res, err
	}
	if err := p.deps.Publisher.Announce(ctx, res.Artifacts, a.PullRequest, a.Commit); err != nil {
		return res, err
	}

	p.announce(ctx, notify.EventBenchComplete, fmt.Sprintf("#%s (%s)\n%s\n%s",
		a.PullRequest, a.Commit, comparisons[0], comparisons[1]))
	return res, nil
}

func (p *Pipeline) update(ctx context.Context, logger *slog.Logger, runID string, slot benchmark.Slot, ref, message string) (Result, error) {
	if err := p.deps.Publisher.Preflight(); err != nil {
		return Result{}, err
	}
	m, err := p.measure(ctx, runID, ref)
	if err != nil {
		return Result{}, err
	}

	// Release baselines are named by tag, next by the commit it resolved to.
	commit := m.Commit
	if slot == benchmark.SlotRelease {
		commit = ref
	}
	if err := p.deps.Store.Write(slot, commit, m.Report); err != nil {
		return Result{}, err
	}
	logger.Info("baseline updated", "slot", string(slot), "commit", commit)

	res := Result{Commit: commit, Report: m.Report}
	if err := p.deps.Publisher.PushBaseline(ctx, message); err != nil {
		return res, err
	}

	p.announce(ctx, notify.EventBaselineUpdated, fmt.Sprintf("%s baseline set to %s: get %s, set %s, update %s",
		slot, commit, report.FormatStat(m.Report.Get), report.FormatStat(m.Report.Set), report.FormatStat(m.Report.Update)))
	return res, nil
}

func (p *Pipeline) announce(ctx context.Context, event notify.Event, message string) {
	if p.deps.Announcer == nil {
		return
	}
	p.deps.Announcer.Announce(ctx, event, message)
}
