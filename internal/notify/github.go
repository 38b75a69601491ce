package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GitHubCommenter posts pull request comments through the GitHub REST API.
type GitHubCommenter struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Client  *http.Client
}

// NewGitHubCommenter creates a new GitHubCommenter.
func NewGitHubCommenter(baseURL, token, owner, repo string) *GitHubCommenter {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubCommenter{
		BaseURL: baseURL,
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Comment posts body as a new comment on pull request pr.
func (g *GitHubCommenter) Comment(ctx context.Context, pr, body string) error {
	if g.Token == "" {
		return fmt.Errorf("github token is not configured")
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%s/comments", g.BaseURL, g.Owner, g.Repo, pr)
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	g.setHeaders(req)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("github api error: %d %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (g *GitHubCommenter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+g.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "skyreport")
}
