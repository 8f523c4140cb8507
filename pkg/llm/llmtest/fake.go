// Package llmtest provides a scripted LLMProvider for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"ai-act-intake-be/pkg/llm"
)

// Reply scripts one model call. InitErr fails the call before any chunk;
// StreamErr is yielded after Chunks have been sent.
type Reply struct {
	Chunks    []string
	InitErr   error
	StreamErr error
}

// Text scripts a successful reply streamed word by word.
func Text(s string) Reply {
	var chunks []string
	for i, w := range strings.SplitAfter(s, " ") {
		if w == "" && i > 0 {
			continue
		}
		chunks = append(chunks, w)
	}
	return Reply{Chunks: chunks}
}

type Call struct {
	History []llm.Message
	Options llm.Options
}

// Provider replays Replies in order and records every history it was given.
// Once the script is exhausted it answers with Fallback.
type Provider struct {
	mu       sync.Mutex
	Replies  []Reply
	Fallback string
	Calls    []Call
}

func New(replies ...Reply) *Provider {
	return &Provider{Replies: replies, Fallback: "ok"}
}

func (p *Provider) Stream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.Stream, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{
		History: append([]llm.Message(nil), history...),
		Options: llm.Apply(llm.Options{}, options...),
	})
	reply := Text(p.Fallback)
	if len(p.Replies) > 0 {
		reply = p.Replies[0]
		p.Replies = p.Replies[1:]
	}
	p.mu.Unlock()

	if reply.InitErr != nil {
		return nil, reply.InitErr
	}

	return func(yield func(string, error) bool) {
		for _, c := range reply.Chunks {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(c, nil) {
				return
			}
		}
		if reply.StreamErr != nil {
			yield("", reply.StreamErr)
		}
	}, nil
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	stream, err := p.Stream(ctx, history, options...)
	if err != nil {
		return "", err
	}
	return llm.Collect(stream)
}

// CallCount is safe to use while the provider is in use.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// Last returns the most recent call.
func (p *Provider) Last() Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return Call{}
	}
	return p.Calls[len(p.Calls)-1]
}
