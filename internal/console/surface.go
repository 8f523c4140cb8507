package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ai-act-intake-be/pkg/intake"

	"github.com/fatih/color"
)

// ExitCommand ends the chat.
const ExitCommand = "/exit"

const invalidChoice = "Bitte wähle eine der angebotenen Optionen (Nummer oder Name)."

var (
	assistant = color.New(color.FgCyan)
	question  = color.New(color.FgCyan, color.Bold)
	option    = color.New(color.FgYellow)
	failure   = color.New(color.FgRed)
	notice    = color.New(color.FgHiBlack)
)

// Surface runs a session on a terminal.
type Surface struct {
	out   io.Writer
	lines chan string
}

var _ intake.Surface = (*Surface)(nil)

// NewSurface starts reading lines from in right away. The reader goroutine
// ends when in is exhausted.
func NewSurface(in io.Reader, out io.Writer) *Surface {
	s := &Surface{out: out, lines: make(chan string)}
	go func() {
		defer close(s.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
	}()
	return s
}

func (s *Surface) readLine(ctx context.Context) (string, error) {
	fmt.Fprint(s.out, "> ")
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Surface) Say(ctx context.Context, text string) error {
	assistant.Fprintln(s.out, text)
	return nil
}

func (s *Surface) Error(ctx context.Context, text string) error {
	failure.Fprintln(s.out, text)
	return nil
}

func (s *Surface) AskText(ctx context.Context, prompt string) (string, error) {
	question.Fprintln(s.out, prompt)
	return s.readLine(ctx)
}

// AskChoice accepts the option number, its name, value or label.
func (s *Surface) AskChoice(ctx context.Context, prompt string, actions []intake.Action) (intake.Action, error) {
	question.Fprintln(s.out, prompt)
	for i, a := range actions {
		option.Fprintf(s.out, "  [%d] %s\n", i+1, a.Label)
	}

	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return intake.Action{}, err
		}
		if a, ok := pick(actions, line); ok {
			return a, nil
		}
		failure.Fprintln(s.out, invalidChoice)
	}
}

func pick(actions []intake.Action, input string) (intake.Action, bool) {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(actions) {
		return actions[n-1], true
	}
	for _, a := range actions {
		if strings.EqualFold(input, a.Name) || strings.EqualFold(input, a.Value) || strings.EqualFold(input, a.Label) {
			return a, true
		}
	}
	return intake.Action{}, false
}

// Next skips blank lines; ExitCommand or the end of input return io.EOF.
func (s *Surface) Next(ctx context.Context) (string, error) {
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line == ExitCommand {
			return "", io.EOF
		}
		if line != "" {
			return line, nil
		}
	}
}

func (s *Surface) NewMessage(ctx context.Context) (intake.MessageWriter, error) {
	return &message{out: s.out}, nil
}

type message struct {
	out     io.Writer
	written bool
}

func (m *message) StreamToken(ctx context.Context, token string) error {
	m.written = true
	_, err := assistant.Fprint(m.out, token)
	return err
}

// Reset cannot take back printed text, so it marks the restart instead.
func (m *message) Reset(ctx context.Context) error {
	if m.written {
		notice.Fprintln(m.out, "\n[…neuer Versuch]")
	}
	m.written = false
	return nil
}

func (m *message) Done(ctx context.Context) error {
	if m.written {
		fmt.Fprintln(m.out)
	}
	return nil
}
