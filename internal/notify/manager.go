package notify

import (
	"context"
	"log/slog"
)

// Options configures a Manager.
type Options struct {
	GitHubAPIURL string
	GitHubToken  string
	Owner        string
	Repo         string

	SlackEnabled bool
	SlackToken   string
	SlackChannel string
}

// Manager routes pull request comments to GitHub and, when enabled,
// announcements to Slack.
type Manager struct {
	commenter Commenter
	announcer Announcer
	logger    *slog.Logger
}

// NewManager creates a new notification Manager.
func NewManager(opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		commenter: NewGitHubCommenter(opts.GitHubAPIURL, opts.GitHubToken, opts.Owner, opts.Repo),
		logger:    logger,
	}

	if opts.SlackEnabled {
		if opts.SlackToken == "" {
			logger.Warn("slack token not set, slack notifications disabled")
		} else {
			m.announcer = NewSlackNotifier(opts.SlackToken, opts.SlackChannel)
		}
	}
	return m
}

// NewManagerWith builds a Manager from explicit providers. A nil announcer
// disables announcements.
func NewManagerWith(commenter Commenter, announcer Announcer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{commenter: commenter, announcer: announcer, logger: logger}
}

// Comment posts a pull request comment. Failures are returned to the caller.
func (m *Manager) Comment(ctx context.Context, pr, body string) error {
	m.logger.Info("posting pull request comment", "pr", pr)
	return m.commenter.Comment(ctx, pr, body)
}

// Announce sends an announcement if a chat provider is configured.
// Failures are logged and never returned.
func (m *Manager) Announce(ctx context.Context, event Event, message string) {
	if m.announcer == nil {
		return
	}
	if err := m.announcer.Announce(ctx, event, message); err != nil {
		m.logger.Warn("failed to send announcement", "event", string(event), "error", err)
	}
}
