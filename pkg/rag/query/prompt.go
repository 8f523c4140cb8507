package query

import (
	"strings"

	"ai-act-intake-be/pkg/rag/index"
)

const systemPrompt = "You are an expert Q&A system that is trusted around the world.\n" +
	"Always answer the query using the provided context information, and not prior knowledge.\n" +
	"Some rules to follow:\n" +
	"1. Never directly reference the given context in your answer.\n" +
	"2. Avoid statements like 'Based on the context, ...' or 'The context information ...' or anything along those lines."

// BuildPrompt renders the context-QA prompt from the retrieved passages.
func BuildPrompt(hits []index.ScoredChunk, query string) string {
	var prompt strings.Builder

	prompt.WriteString("Context information is below.\n")
	prompt.WriteString("---------------------\n")
	for i, hit := range hits {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString("source: ")
		prompt.WriteString(hit.Chunk.Source)
		prompt.WriteString("\n\n")
		prompt.WriteString(hit.Chunk.Text)
	}
	prompt.WriteString("\n---------------------\n")
	prompt.WriteString("Given the context information and not prior knowledge, answer the query.\n")
	prompt.WriteString("Query: ")
	prompt.WriteString(query)
	prompt.WriteString("\nAnswer: ")

	return prompt.String()
}
