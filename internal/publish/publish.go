// Package publish stores run artifacts in the results repository and
// announces them upstream.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	perrors "skyreport/internal/errors"
	"skyreport/internal/git"
)

// TimestampLayout formats artifact names as DDMMYYYY-HHMMSS.
const TimestampLayout = "02012006-150405"

// Commenter posts a comment on a pull request.
type Commenter interface {
	Comment(ctx context.Context, pr, body string) error
}

// Options configures a Publisher.
type Options struct {
	// Enabled turns the remote steps (push, comment) on.
	Enabled bool
	// Dir is the local checkout of the results repository.
	Dir        string
	ResultsDir string
	ReportsDir string

	User  string
	Token string
	Host  string
	Org   string
	Repo  string

	GitName  string
	GitEmail string

	// Upstream is the owner/repo of the engine, used in commit titles.
	Upstream    string
	FileBaseURL string
	Timeout     time.Duration
}

// Artifacts are the files written for one bench run.
type Artifacts struct {
	Timestamp    string
	JSONPath     string
	MarkdownPath string
}

// Name returns the shared base name of the artifacts.
func (a Artifacts) Name() string {
	return "result-" + a.Timestamp
}

// Publisher writes artifacts and pushes them.
type Publisher struct {
	opts      Options
	git       git.IClient
	commenter Commenter
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Publisher.
func New(opts Options, g git.IClient, c Commenter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Publisher{
		opts:      opts,
		git:       g,
		commenter: c,
		now:       time.Now,
		logger:    logger.With("component", "publish"),
	}
}

// SetClock replaces the clock used for artifact names.
func (p *Publisher) SetClock(now func() time.Time) {
	p.now = now
}

func (p *Publisher) path(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.opts.Dir, dir)
}

// Persist writes the JSON and Markdown artifacts under timestamped names.
func (p *Publisher) Persist(jsonData, markdown []byte) (Artifacts, error) {
	a := Artifacts{Timestamp: p.now().Format(TimestampLayout)}
	a.JSONPath = filepath.Join(p.path(p.opts.ResultsDir), a.Name()+".json")
	a.MarkdownPath = filepath.Join(p.path(p.opts.ReportsDir), a.Name()+".md")

	for _, f := range []struct {
		path string
		data []byte
	}{{a.JSONPath, jsonData}, {a.MarkdownPath, markdown}} {
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return a, perrors.IO("create artifact directory", err)
		}
		if err := writeFile(f.path, f.data); err != nil {
			return a, perrors.IO("write artifact", err)
		}
		p.logger.Info("wrote artifact", "path", f.path)
	}
	return a, nil
}

// writeFile writes data to a temporary file next to path, syncs it and renames
// it into place, so the artifact is on disk before anything is pushed.
func writeFile(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Preflight checks that the results directory is a git checkout, so a run
// that would fail to push stops before the engine is built.
func (p *Publisher) Preflight() error {
	if !p.opts.Enabled {
		return nil
	}
	if !p.git.RepoExists(p.opts.Dir) {
		return perrors.Workspace("check results repository",
			fmt.Errorf("%s is not a git checkout", p.opts.Dir))
	}
	return nil
}

// ReportURL is where the Markdown report is browsable once pushed.
func (p *Publisher) ReportURL(a Artifacts) string {
	return strings.TrimSuffix(p.opts.FileBaseURL, "/") + "/" + a.Name() + ".md"
}

// CommentBody is the pull request comment announcing a report.
func CommentBody(reportURL string) string {
	return fmt.Sprintf("The benchmark has completed. Review [the benchmark here](%s)", reportURL)
}

// BenchMessages are the commit title and body for a bench run.
func BenchMessages(upstream, pr, commit string) []string {
	return []string{
		fmt.Sprintf("Added result for %s#%s [skip ci]", upstream, pr),
		fmt.Sprintf("Triggered by %s", commit),
	}
}

// ReleaseMessage is the commit title for a release baseline update.
func ReleaseMessage(tag string) string {
	return fmt.Sprintf("Update results for release `%s` [skip ci]", tag)
}

// NextMessage is the commit title for a next baseline update.
func NextMessage() string {
	return "Update results for next [skip ci]"
}

// Announce pushes the artifacts and comments on the pull request. Local
// artifacts are left in place whatever happens.
func (p *Publisher) Announce(ctx context.Context, a Artifacts, pr, commit string) error {
	if !p.opts.Enabled {
		p.logger.Info("publishing disabled, skipping push and comment", "report", a.MarkdownPath)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.push(ctx, BenchMessages(p.opts.Upstream, pr, commit)...); err != nil {
		return err
	}

	url := p.ReportURL(a)
	if err := p.commenter.Comment(ctx, pr, CommentBody(url)); err != nil {
		return perrors.Network("comment on pull request", err)
	}
	p.logger.Info("announced result", "pr", pr, "url", url)
	return nil
}

// PushBaseline commits and pushes the results repository after a baseline
// update.
func (p *Publisher) PushBaseline(ctx context.Context, message string) error {
	if !p.opts.Enabled {
		p.logger.Info("publishing disabled, skipping push", "message", message)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	return p.push(ctx, message)
}

func (p *Publisher) push(ctx context.Context, messages ...string) error {
	if p.opts.GitName != "" {
		if err := p.git.Config(ctx, p.opts.Dir, "user.name", p.opts.GitName); err != nil {
			return perrors.Network("configure git", err)
		}
	}
	if p.opts.GitEmail != "" {
		if err := p.git.Config(ctx, p.opts.Dir, "user.email", p.opts.GitEmail); err != nil {
			return perrors.Network("configure git", err)
		}
	}

	p.logger.Info("committing results", "title", messages[0])
	if err := p.git.Commit(ctx, p.opts.Dir, messages...); err != nil {
		return perrors.Network("commit results", err)
	}
	if err := p.git.PullRebase(ctx, p.opts.Dir); err != nil {
		return perrors.Network("pull results", err)
	}

	url := git.AuthURL(p.opts.User, p.opts.Token, p.opts.Host, p.opts.Org, p.opts.Repo)
	p.logger.Info("pushing results", "remote", git.Mask(url))
	if err := p.git.Push(ctx, p.opts.Dir, url); err != nil {
		return perrors.Network("push results", err)
	}
	return nil
}
