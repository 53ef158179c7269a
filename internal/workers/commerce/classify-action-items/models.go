package classifyactionitems

import (
	"encoding/json"

	"commerce-workers/internal/models"
)

type Input struct {
	ActionItems []json.RawMessage `json:"actionItems"`
}

type Output struct {
	Items   []models.ItemView `json:"items"`
	Counts  map[string]int    `json:"counts"`
	Dropped int               `json:"dropped"`
}
