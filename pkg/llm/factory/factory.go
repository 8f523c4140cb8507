package factory

import (
	"fmt"

	"ai-act-intake-be/pkg/llm"
	"ai-act-intake-be/pkg/llm/ollama"
	"ai-act-intake-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, baseURL, apiKey string, defaults llm.Options) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(apiKey, baseURL, defaults), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, defaults), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
