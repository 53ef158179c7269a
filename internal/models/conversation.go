package models

import "encoding/json"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a chat transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ParsedResponse splits an assistant message into prose and payload items.
// ActionItems is empty, never nil, when no valid payload was found.
type ParsedResponse struct {
	Narrative   string            `json:"narrative"`
	ActionItems []json.RawMessage `json:"actionItems"`
}
