package notify

import "context"

// Commenter posts a comment on a pull request.
type Commenter interface {
	Comment(ctx context.Context, pr, body string) error
}

// Announcer broadcasts a run outcome to a chat channel.
type Announcer interface {
	Announce(ctx context.Context, event Event, message string) error
}
