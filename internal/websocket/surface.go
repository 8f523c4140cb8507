package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"ai-act-intake-be/pkg/intake"
)

// InvalidChoice is sent when an answer names none of the offered actions.
const InvalidChoice = "Bitte wähle eine der angebotenen Optionen."

// Surface runs an intake session over one websocket client.
type Surface struct {
	client *Client
	seq    atomic.Uint64
}

var _ intake.Surface = (*Surface)(nil)

func NewSurface(c *Client) *Surface {
	return &Surface{client: c}
}

func (s *Surface) nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.seq.Add(1))
}

// Hello tells the client which session it is talking to.
func (s *Surface) Hello(ctx context.Context) error {
	return s.client.write(ctx, Frame{Type: FrameSession, SessionID: s.client.SessionID})
}

func (s *Surface) Say(ctx context.Context, text string) error {
	return s.client.write(ctx, Frame{Type: FrameMessage, Content: text})
}

func (s *Surface) Error(ctx context.Context, text string) error {
	return s.client.write(ctx, Frame{Type: FrameError, Content: text})
}

// receive blocks for the next inbound frame.
func (s *Surface) receive(ctx context.Context) (Frame, error) {
	select {
	case f := <-s.client.Inbound:
		return f, nil
	case <-s.client.Done():
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// AskText accepts an answer carrying the question id or a plain message.
func (s *Surface) AskText(ctx context.Context, prompt string) (string, error) {
	id := s.nextID("q")
	if err := s.client.write(ctx, Frame{Type: FrameAskText, ID: id, Content: prompt}); err != nil {
		return "", err
	}
	for {
		f, err := s.receive(ctx)
		if err != nil {
			return "", err
		}
		switch {
		case f.Type == FrameAnswer && f.ID == id:
			return f.Value, nil
		case f.Type == FrameMessage:
			return f.Content, nil
		}
	}
}

// AskChoice waits for an answer naming one of the actions, by name or by
// value. Anything else gets an error frame and the question stays open.
func (s *Surface) AskChoice(ctx context.Context, prompt string, actions []intake.Action) (intake.Action, error) {
	id := s.nextID("q")
	if err := s.client.write(ctx, Frame{Type: FrameAskChoice, ID: id, Content: prompt, Actions: actions}); err != nil {
		return intake.Action{}, err
	}
	for {
		f, err := s.receive(ctx)
		if err != nil {
			return intake.Action{}, err
		}

		var value string
		switch {
		case f.Type == FrameAnswer && f.ID == id:
			value = f.Value
		case f.Type == FrameMessage:
			value = f.Content
		default:
			continue
		}

		if a, ok := matchAction(actions, value); ok {
			return a, nil
		}
		if err := s.Error(ctx, InvalidChoice); err != nil {
			return intake.Action{}, err
		}
	}
}

func matchAction(actions []intake.Action, value string) (intake.Action, bool) {
	for _, a := range actions {
		if a.Name == value {
			return a, true
		}
	}
	for _, a := range actions {
		if a.Value == value {
			return a, true
		}
	}
	return intake.Action{}, false
}

// Next returns io.EOF once the connection is gone. Stale answers are dropped.
func (s *Surface) Next(ctx context.Context) (string, error) {
	for {
		f, err := s.receive(ctx)
		if errors.Is(err, ErrClosed) {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if f.Type == FrameMessage {
			return f.Content, nil
		}
	}
}

func (s *Surface) NewMessage(ctx context.Context) (intake.MessageWriter, error) {
	id := s.nextID("m")
	if err := s.client.write(ctx, Frame{Type: FrameStreamStart, ID: id}); err != nil {
		return nil, err
	}
	return &message{client: s.client, id: id}, nil
}

type message struct {
	client *Client
	id     string
}

func (m *message) StreamToken(ctx context.Context, token string) error {
	return m.client.write(ctx, Frame{Type: FrameToken, ID: m.id, Content: token})
}

func (m *message) Reset(ctx context.Context) error {
	return m.client.write(ctx, Frame{Type: FrameStreamReset, ID: m.id})
}

func (m *message) Done(ctx context.Context) error {
	return m.client.write(ctx, Frame{Type: FrameStreamEnd, ID: m.id})
}
