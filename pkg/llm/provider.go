package llm

import (
	"context"
	"iter"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stream is a lazy, finite sequence of generated text chunks. It can be
// ranged over once; cancellation comes from the context it was opened with.
type Stream = iter.Seq2[string, error]

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Model            string // Override default model
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithTopP(p float64) Option {
	return func(o *Options) {
		o.TopP = p
	}
}

func WithPenalties(frequency, presence float64) Option {
	return func(o *Options) {
		o.FrequencyPenalty = frequency
		o.PresencePenalty = presence
	}
}

// Apply folds opts over base.
func Apply(base Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Stream sends a chat history to the model and yields the response as it is generated
	Stream(ctx context.Context, history []Message, options ...Option) (Stream, error)

	// Chat sends a chat history to the model and returns the complete response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)
}

// Collect drains a stream and joins its chunks.
func Collect(stream Stream) (string, error) {
	var b strings.Builder
	for chunk, err := range stream {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}
