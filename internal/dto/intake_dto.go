package dto

import "ai-act-intake-be/pkg/intake"

type GetAllIntakeSessionsResponse struct {
	Sessions []intake.Snapshot `json:"sessions"`
	Total    int               `json:"total"`
}

type TerminateIntakeSessionResponse struct {
	Id string `json:"id"`
	// Local is false when the session lives on another instance, or nowhere.
	Local bool `json:"local"`
}

type IntakeStatsResponse struct {
	Started          int64 `json:"started"`
	SummaryFinalized int64 `json:"summary_finalized"`
	Evaluated        int64 `json:"evaluated"`
	Ended            int64 `json:"ended"`
	Brainstormed     int64 `json:"brainstormed"`
	Revisions        int64 `json:"revisions"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	IndexReady     bool   `json:"index_ready"`
	ActiveSessions int    `json:"active_sessions"`
	Connections    int    `json:"connections"`
}
