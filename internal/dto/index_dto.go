package dto

import (
	"time"

	"github.com/google/uuid"
)

// PublishRebuildIndexMessage is the payload on the rebuild topic.
type PublishRebuildIndexMessage struct {
	JobId       uuid.UUID `json:"job_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

type RebuildIndexRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

type RebuildIndexResponse struct {
	JobId uuid.UUID `json:"job_id"`
}

type IndexStatusResponse struct {
	Backend     string     `json:"backend"`
	Chunks      int        `json:"chunks"`
	Ready       bool       `json:"ready"`
	Rebuilding  bool       `json:"rebuilding"`
	LastBuiltAt *time.Time `json:"last_built_at"`
	LastError   string     `json:"last_error,omitempty"`
}
