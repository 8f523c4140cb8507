package intake

import "context"

// Action is one option of a single-choice question. Name identifies the
// option, Value is what gets recorded, Label is what the user reads.
type Action struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Surface is the user-facing side of a session. Every call blocks until
// the user answered or ctx is done; there is no other timeout.
type Surface interface {
	Say(ctx context.Context, text string) error
	Error(ctx context.Context, text string) error
	AskText(ctx context.Context, prompt string) (string, error)
	AskChoice(ctx context.Context, prompt string, actions []Action) (Action, error)
	NewMessage(ctx context.Context) (MessageWriter, error)

	// Next waits for the next free-form message. io.EOF ends the session.
	Next(ctx context.Context) (string, error)
}

// MessageWriter renders one assistant message while it is generated.
type MessageWriter interface {
	StreamToken(ctx context.Context, token string) error
	// Reset discards what was streamed so far.
	Reset(ctx context.Context) error
	Done(ctx context.Context) error
}
