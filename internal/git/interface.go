package git

import "context"

// IClient is the subset of git the pipeline needs.
type IClient interface {
	Clone(ctx context.Context, repoURL, directory string) error
	Checkout(ctx context.Context, directory, ref string) error
	HeadCommit(ctx context.Context, directory string) (string, error)
	Config(ctx context.Context, directory, key, value string) error
	Commit(ctx context.Context, directory string, messages ...string) error
	PullRebase(ctx context.Context, directory string) error
	Push(ctx context.Context, directory, url string) error
	RepoExists(directory string) bool
}

var _ IClient = (*Client)(nil)
