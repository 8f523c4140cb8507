package intake

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"ai-act-intake-be/pkg/llm"
)

// step is one scripted user answer: Text for AskText, Choice (an action name) for AskChoice.
type step struct {
	Text   string
	Choice string
}

func text(s string) step { return step{Text: s} }
func choice(s string) step { return step{Choice: s} }

type askedChoice struct {
	Prompt  string
	Actions []Action
}

type fakeMessage struct {
	content strings.Builder
	resets  int
	done    bool
}

func (m *fakeMessage) StreamToken(ctx context.Context, token string) error {
	m.content.WriteString(token)
	return nil
}

func (m *fakeMessage) Reset(ctx context.Context) error {
	m.content.Reset()
	m.resets++
	return nil
}

func (m *fakeMessage) Done(ctx context.Context) error {
	m.done = true
	return nil
}

// fakeSurface replays a script of answers and records everything shown.
type fakeSurface struct {
	mu       sync.Mutex
	script   []step
	chat     []string
	said     []string
	errors   []string
	texts    []string
	choices  []askedChoice
	messages []*fakeMessage
}

func newFakeSurface(script ...step) *fakeSurface {
	return &fakeSurface{script: script}
}

func (f *fakeSurface) next(kind string) (step, error) {
	if len(f.script) == 0 {
		return step{}, fmt.Errorf("script exhausted at %s: %w", kind, context.Canceled)
	}
	s := f.script[0]
	f.script = f.script[1:]
	return s, nil
}

func (f *fakeSurface) Say(ctx context.Context, text string) error {
	f.said = append(f.said, text)
	return nil
}

func (f *fakeSurface) Error(ctx context.Context, text string) error {
	f.errors = append(f.errors, text)
	return nil
}

func (f *fakeSurface) AskText(ctx context.Context, prompt string) (string, error) {
	f.texts = append(f.texts, prompt)
	s, err := f.next("AskText " + prompt)
	if err != nil {
		return "", err
	}
	if s.Choice != "" {
		return "", fmt.Errorf("script expected choice %q, got text question %q", s.Choice, prompt)
	}
	return s.Text, nil
}

func (f *fakeSurface) AskChoice(ctx context.Context, prompt string, actions []Action) (Action, error) {
	f.choices = append(f.choices, askedChoice{Prompt: prompt, Actions: actions})
	s, err := f.next("AskChoice " + prompt)
	if err != nil {
		return Action{}, err
	}
	for _, a := range actions {
		if a.Name == s.Choice {
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("no action %q in %q", s.Choice, prompt)
}

func (f *fakeSurface) NewMessage(ctx context.Context) (MessageWriter, error) {
	m := &fakeMessage{}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeSurface) Next(ctx context.Context) (string, error) {
	if len(f.chat) == 0 {
		return "", io.EOF
	}
	m := f.chat[0]
	f.chat = f.chat[1:]
	return m, nil
}

func (f *fakeSurface) lastMessage() string {
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1].content.String()
}

type fakeRetriever struct {
	prompts []string
	answer  string
	err     error
}

func (r *fakeRetriever) Query(ctx context.Context, prompt string) (llm.Stream, error) {
	r.prompts = append(r.prompts, prompt)
	if r.err != nil {
		return nil, r.err
	}
	answer := r.answer
	return func(yield func(string, error) bool) {
		for _, w := range strings.SplitAfter(answer, " ") {
			if w == "" {
				continue
			}
			if !yield(w, nil) {
				return
			}
		}
	}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Emit(ctx context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
