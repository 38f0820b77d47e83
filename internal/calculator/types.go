package calculator

import (
	"time"

	"keypad-calc/internal/calc"
	"keypad-calc/internal/session"
)

// KeysRequest is the JSON body for POST /calculator/evaluate and
// POST /calculator/sessions/{id}/keys. Keys wins over Line when both are set.
type KeysRequest struct {
	Keys []string `json:"keys"` // e.g. ["1", "2", "+", "3", "="]
	Line string   `json:"line"` // e.g. "12 + 3 ="
}

// StepResult records one key and the state it produced.
type StepResult struct {
	Key      string `json:"key"`
	Accepted bool   `json:"accepted"`
	calc.Snapshot
}

// EvaluateResponse is the JSON response for POST /calculator/evaluate.
type EvaluateResponse struct {
	Steps    []StepResult  `json:"steps"`
	Result   calc.Snapshot `json:"result"`
	Digits   int           `json:"digits"`
	Rejected int           `json:"rejected"`
}

// SessionResponse is the JSON view of a stored session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	calc.Snapshot
	Digits    int       `json:"digits"`
	Keys      int       `json:"keys"`
	CreatedAt time.Time `json:"created_at"`
}

// PressResponse is the JSON response for POST /calculator/sessions/{id}/keys.
type PressResponse struct {
	SessionResponse
	Steps    []StepResult `json:"steps"`
	Rejected int          `json:"rejected"`
}

// SessionListResponse is the JSON response for GET /calculator/sessions.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

func newSessionResponse(v session.View) SessionResponse {
	return SessionResponse{
		SessionID: v.ID,
		Snapshot:  v.Snapshot,
		Digits:    v.Digits,
		Keys:      v.Keys,
		CreatedAt: v.CreatedAt,
	}
}

func newStepResults(steps []session.Step) []StepResult {
	out := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepResult{Key: s.Key, Accepted: s.Accepted, Snapshot: s.Snapshot})
	}
	return out
}
