package pipeline

import (
	"fmt"
	"strconv"
)

// Action is what a single invocation does. It is built once from the
// command line.
type Action interface {
	// Name labels the action in logs and metrics.
	Name() string
	action()
}

// NewBench measures a pull request commit against both baselines.
type NewBench struct {
	Commit      string
	PullRequest string
}

// UpdateNext re-measures the head of the mainline branch.
type UpdateNext struct{}

// UpdateRelease re-measures a release tag.
type UpdateRelease struct {
	Tag string
}

func (NewBench) Name() string      { return "bench" }
func (UpdateNext) Name() string    { return "update_next" }
func (UpdateRelease) Name() string { return "update_release" }

func (NewBench) action()      {}
func (UpdateNext) action()    {}
func (UpdateRelease) action() {}

// NewBenchAction validates the arguments of a bench run.
func NewBenchAction(commit, pr string) (NewBench, error) {
	if commit == "" {
		return NewBench{}, fmt.Errorf("commit is required")
	}
	n, err := strconv.ParseUint(pr, 10, 64)
	if err != nil || n == 0 {
		return NewBench{}, fmt.Errorf("pull request id must be a positive integer, got: %q", pr)
	}
	return NewBench{Commit: commit, PullRequest: strconv.FormatUint(n, 10)}, nil
}

// NewUpdateReleaseAction validates the tag of a release update.
func NewUpdateReleaseAction(tag string) (UpdateRelease, error) {
	if tag == "" {
		return UpdateRelease{}, fmt.Errorf("release tag is required")
	}
	return UpdateRelease{Tag: tag}, nil
}
