package models

import (
	"time"
)

const (
	// RoleUser marks a turn authored by the user
	RoleUser = "user"
	// RoleModel marks a turn authored by the model
	RoleModel = "model"
)

// ChatSession groups an ordered sequence of turns under an opaque,
// server-generated identifier. Created implicitly on the first message
// of a new conversation; destroyed when documents are cleared.
type ChatSession struct {
	ID        string    `json:"id"` // sess_{uuid}
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is a single message within a session. Turns are strictly ordered
// by Sequence; a session's first turn is always RoleUser.
type Turn struct {
	ID        string    `json:"id"` // {session_id}:{sequence}
	SessionID string    `json:"session_id"`
	Sequence  int       `json:"sequence"`
	Role      string    `json:"role"` // "user" or "model"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is a listing entry for a session: its id, creation
// time, and a preview derived from the first user message.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Preview   string    `json:"preview"`
}
