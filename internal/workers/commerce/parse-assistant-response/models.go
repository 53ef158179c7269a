package parseassistantresponse

import "encoding/json"

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	Narrative   string            `json:"narrative"`
	ActionItems []json.RawMessage `json:"actionItems"`
	Outcome     Outcome           `json:"outcome"`
}

type Outcome string

const (
	OutcomeItems     Outcome = "items"
	OutcomeTextOnly  Outcome = "text_only"
	OutcomeMalformed Outcome = "malformed"
)
