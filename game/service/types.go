package service

import (
	"time"

	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/generator"
)

// SessionInfo is a snapshot of an editing session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	Revision       int                 `json:"revision"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Config         *engine.BoardConfig `json:"config"`
	Rendered       string              `json:"rendered"`
}

// CreateSessionRequest selects the board a new session starts from. An
// inline Config wins over Width/Height, which wins over ConfigID; with none
// of them the default preset is used.
type CreateSessionRequest struct {
	SessionID string              `json:"session_id,omitempty"`
	ConfigID  string              `json:"config_id,omitempty"`
	Config    *engine.BoardConfig `json:"config,omitempty"`
	Width     int                 `json:"width,omitempty"`
	Height    int                 `json:"height,omitempty"`
}

// FieldRequest places one field on a session board
type FieldRequest struct {
	Kind      engine.FieldKind `json:"kind"`
	Position  engine.Position  `json:"position"`
	Direction engine.Direction `json:"direction,omitempty"`
	Amount    int              `json:"amount,omitempty"`
}

// Field converts the request into an engine field
func (r FieldRequest) Field() engine.Field {
	return engine.Field{
		Kind:      r.Kind,
		Position:  r.Position,
		Direction: r.Direction,
		Amount:    r.Amount,
	}
}

// ValidationReport combines connectivity and structure checks
type ValidationReport struct {
	engine.ValidationResult
	// StructureError names a missing eye, start field or checkpoint
	StructureError string `json:"structure_error,omitempty"`
	// Playable is true when both checks pass
	Playable   bool   `json:"playable"`
	SessionID  string `json:"session_id,omitempty"`
	Revision   int    `json:"revision,omitempty"`
	Rendered   string `json:"rendered"`
	DurationMs int64  `json:"duration_ms"`
}

// GenerateRequest asks for a random board. Decode it over NewGenerateRequest
// so omitted fields keep their default density.
type GenerateRequest struct {
	generator.Params
	TimeoutMs   int    `json:"timeout_ms,omitempty"`
	SaveAs      string `json:"save_as,omitempty"`
	OpenSession bool   `json:"open_session,omitempty"`
}

// NewGenerateRequest returns a request with the default parameters
func NewGenerateRequest() GenerateRequest {
	return GenerateRequest{Params: generator.DefaultParams()}
}

// GenerationReport describes a generated board
type GenerationReport struct {
	Config     *engine.BoardConfig `json:"config"`
	Attempts   int                 `json:"attempts"`
	Searches   int                 `json:"searches"`
	DurationMs int64               `json:"duration_ms"`
	Seed       uint64              `json:"seed"`
	Rendered   string              `json:"rendered"`
	SavedAs    string              `json:"saved_as,omitempty"`
	SessionID  string              `json:"session_id,omitempty"`
}

// PathRequest asks for a path on either a session board or an inline board
type PathRequest struct {
	SessionID string              `json:"session_id,omitempty"`
	Config    *engine.BoardConfig `json:"config,omitempty"`
	From      engine.Position     `json:"from"`
	To        engine.Position     `json:"to"`
}

// PathReport is the outcome of a path search
type PathReport struct {
	Found     bool              `json:"found"`
	From      engine.Position   `json:"from"`
	To        engine.Position   `json:"to"`
	Path      []engine.Position `json:"path"`
	Explored  []engine.Position `json:"explored"`
	Cost      int               `json:"cost"`
	Heuristic float64           `json:"heuristic"`
}

// ConfigInfo provides information about a board preset
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	StartFields int    `json:"start_fields"`
	CheckPoints int    `json:"checkpoints"`
	Walls       int    `json:"walls"`
}
