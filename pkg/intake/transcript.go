package intake

import "ai-act-intake-be/pkg/llm"

// Transcript is the ordered, append-only conversation sent to the model.
// It always starts with exactly one system message.
type Transcript struct {
	messages []llm.Message
}

func NewTranscript(system string) *Transcript {
	return &Transcript{
		messages: []llm.Message{{Role: llm.RoleSystem, Content: system}},
	}
}

func (t *Transcript) Append(role, content string) {
	t.messages = append(t.messages, llm.Message{Role: role, Content: content})
}

// Messages returns a copy, so callers can hand it to a provider without
// aliasing the log.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	return len(t.messages)
}
