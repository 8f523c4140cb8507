package intake

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Stage string

const (
	StageCollecting    Stage = "collecting"
	StageBrainstorming Stage = "brainstorming"
	StageSummarizing   Stage = "summarizing"
	StageRevising      Stage = "revising"
	StageTranslating   Stage = "translating"
	StageEvaluating    Stage = "evaluating"
	StageChatting      Stage = "chatting"
)

// Session is the state of one conversation. It is owned by the flow driving
// it; the mutex only lets other goroutines take a Snapshot.
type Session struct {
	mu sync.RWMutex

	ID         string
	Transcript *Transcript
	Slots      Slots
	Summary    string // native language, after any revision
	Translated string // English rendering used for retrieval

	UsedBrainstormer bool
	WantsRevision    bool
	Revisions        int
	Evaluated        bool

	Stage     Stage
	StartedAt time.Time
	UpdatedAt time.Time
}

// NewSession starts a session with an empty system message. An empty id gets a fresh UUID.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &Session{
		ID:         id,
		Transcript: NewTranscript(""),
		Stage:      StageCollecting,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *Session) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.UpdatedAt = time.Now()
}

func (s *Session) setStage(stage Stage) {
	s.update(func() { s.Stage = stage })
}

func (s *Session) append(role, content string) {
	s.update(func() { s.Transcript.Append(role, content) })
}

func (s *Session) CurrentStage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stage
}

// Snapshot is a read-only view without any answer text.
type Snapshot struct {
	ID               string          `json:"id"`
	Stage            Stage           `json:"stage"`
	UsedBrainstormer bool            `json:"used_brainstormer"`
	WantsRevision    bool            `json:"wants_revision"`
	Revisions        int             `json:"revisions"`
	Evaluated        bool            `json:"evaluated"`
	Slots            map[string]bool `json:"slots"`
	TranscriptLength int             `json:"transcript_length"`
	StartedAt        time.Time       `json:"started_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:               s.ID,
		Stage:            s.Stage,
		UsedBrainstormer: s.UsedBrainstormer,
		WantsRevision:    s.WantsRevision,
		Revisions:        s.Revisions,
		Evaluated:        s.Evaluated,
		Slots:            s.Slots.Filled(),
		TranscriptLength: s.Transcript.Len(),
		StartedAt:        s.StartedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
