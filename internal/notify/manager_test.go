package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommenter struct {
	pr, body string
	err      error
}

func (f *fakeCommenter) Comment(ctx context.Context, pr, body string) error {
	f.pr, f.body = pr, body
	return f.err
}

type fakeAnnouncer struct {
	events []Event
	err    error
}

func (f *fakeAnnouncer) Announce(ctx context.Context, event Event, message string) error {
	f.events = append(f.events, event)
	return f.err
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestManager_Comment(t *testing.T) {
	c := &fakeCommenter{}
	m := NewManagerWith(c, nil, nil)

	require.NoError(t, m.Comment(context.Background(), "7", "done"))
	assert.Equal(t, "7", c.pr)
	assert.Equal(t, "done", c.body)
}

func TestManager_CommentError(t *testing.T) {
	c := &fakeCommenter{err: errors.New("502 bad gateway")}
	m := NewManagerWith(c, nil, nil)

	assert.Error(t, m.Comment(context.Background(), "7", "done"))
}

func TestManager_AnnounceDisabled(t *testing.T) {
	m := NewManagerWith(&fakeCommenter{}, nil, nil)
	m.Announce(context.Background(), EventBenchComplete, "ignored")
}

func TestManager_AnnounceErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	a := &fakeAnnouncer{err: errors.New("rate limited")}
	m := NewManagerWith(&fakeCommenter{}, a, testLogger(&buf))

	m.Announce(context.Background(), EventFailure, "boom")

	assert.Equal(t, []Event{EventFailure}, a.events)
	assert.Contains(t, buf.String(), "failed to send announcement")
	assert.Contains(t, buf.String(), "rate limited")
}

func TestNewManager_SlackWithoutToken(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(Options{SlackEnabled: true, SlackChannel: "#perf"}, testLogger(&buf))

	assert.Nil(t, m.announcer)
	assert.Contains(t, buf.String(), "slack notifications disabled")
}

func TestNewManager_Slack(t *testing.T) {
	m := NewManager(Options{SlackEnabled: true, SlackToken: "xoxb-1", SlackChannel: "#perf"}, nil)
	require.NotNil(t, m.announcer)
	assert.IsType(t, &SlackNotifier{}, m.announcer)
}
