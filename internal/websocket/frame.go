package websocket

import "ai-act-intake-be/pkg/intake"

// Outbound frame types.
const (
	FrameSession     = "session"
	FrameMessage     = "message"
	FrameStreamStart = "stream_start"
	FrameToken       = "token"
	FrameStreamReset = "stream_reset"
	FrameStreamEnd   = "stream_end"
	FrameAskText     = "ask_text"
	FrameAskChoice   = "ask_choice"
	FrameError       = "error"
)

// Inbound frame types. A "message" frame is also accepted from the client.
const (
	FrameAnswer = "answer"
)

// Frame is the single JSON shape on the wire in both directions. ID ties
// answers to questions and tokens to their message.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	Value     string          `json:"value,omitempty"`
	Actions   []intake.Action `json:"actions,omitempty"`
}
