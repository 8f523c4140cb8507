package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ai-act-intake-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider streams chat completions from the OpenAI API (or any
// compatible endpoint when BaseURL is overridden).
type OpenAIProvider struct {
	client   *goopenai.Client
	defaults llm.Options
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL string, defaults llm.Options) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:   goopenai.NewClientWithConfig(cfg),
		defaults: defaults,
	}
}

func (p *OpenAIProvider) request(history []llm.Message, opts ...llm.Option) goopenai.ChatCompletionRequest {
	options := llm.Apply(p.defaults, opts...)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "" {
			role = goopenai.ChatMessageRoleUser
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	return goopenai.ChatCompletionRequest{
		Model:            options.Model,
		Messages:         messages,
		MaxTokens:        options.MaxTokens,
		Temperature:      float32(options.Temperature),
		TopP:             float32(options.TopP),
		FrequencyPenalty: float32(options.FrequencyPenalty),
		PresencePenalty:  float32(options.PresencePenalty),
		Stream:           true,
	}
}

func (p *OpenAIProvider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.request(history, opts...))
	if err != nil {
		return nil, fmt.Errorf("openai stream init: %w", err)
	}

	return func(yield func(string, error) bool) {
		defer stream.Close()
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("openai stream recv: %w", err))
				return
			}
			if len(response.Choices) == 0 {
				continue
			}
			chunk := response.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	stream, err := p.Stream(ctx, history, opts...)
	if err != nil {
		return "", err
	}
	return llm.Collect(stream)
}
