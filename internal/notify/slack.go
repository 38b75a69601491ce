package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Event types
const (
	EventBenchComplete   Event = "bench_complete"
	EventBaselineUpdated Event = "baseline_updated"
	EventFailure         Event = "failure"
)

// Event classifies an announcement.
type Event string

// slackPoster is the part of *slack.Client the notifier uses.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts run outcomes to a Slack channel with a bot token.
type SlackNotifier struct {
	client    slackPoster
	channelID string
}

// NewSlackNotifier creates a SlackNotifier. Extra options are passed to
// slack.New (tests point slack.OptionAPIURL at a local server).
func NewSlackNotifier(token, channel string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(token, opts...),
		channelID: channel,
	}
}

// Announce posts message as a coloured attachment.
func (s *SlackNotifier) Announce(ctx context.Context, event Event, message string) error {
	channelID := s.channelID
	if channelID == "" {
		channelID = "#general"
	}

	title, color := getStyle(event)
	attachment := slack.Attachment{
		Color:      color,
		Title:      title,
		Text:       message,
		MarkdownIn: []string{"text"},
	}

	_, _, err := s.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(title, false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

func getStyle(event Event) (string, string) {
	switch event {
	case EventBenchComplete:
		return "Benchmark complete", "#2ecc71"
	case EventBaselineUpdated:
		return "Baseline updated", "#3498db"
	case EventFailure:
		return "Benchmark failed", "#e74c3c"
	default:
		return "Skyreport", "#95a5a6"
	}
}
