package git

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock of the git.Client for testing purposes.
type MockGitClient struct {
	mock.Mock
}

var _ IClient = (*MockGitClient)(nil)

func (m *MockGitClient) Clone(ctx context.Context, repoURL, directory string) error {
	args := m.Called(ctx, repoURL, directory)
	return args.Error(0)
}

func (m *MockGitClient) Checkout(ctx context.Context, directory, ref string) error {
	args := m.Called(ctx, directory, ref)
	return args.Error(0)
}

func (m *MockGitClient) HeadCommit(ctx context.Context, directory string) (string, error) {
	args := m.Called(ctx, directory)
	return args.String(0), args.Error(1)
}

func (m *MockGitClient) Config(ctx context.Context, directory, key, value string) error {
	args := m.Called(ctx, directory, key, value)
	return args.Error(0)
}

func (m *MockGitClient) Commit(ctx context.Context, directory string, messages ...string) error {
	args := m.Called(ctx, directory, messages)
	return args.Error(0)
}

func (m *MockGitClient) PullRebase(ctx context.Context, directory string) error {
	args := m.Called(ctx, directory)
	return args.Error(0)
}

func (m *MockGitClient) Push(ctx context.Context, directory, url string) error {
	args := m.Called(ctx, directory, url)
	return args.Error(0)
}

func (m *MockGitClient) RepoExists(directory string) bool {
	args := m.Called(directory)
	return args.Bool(0)
}
