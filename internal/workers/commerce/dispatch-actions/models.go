package dispatchactions

import "commerce-workers/internal/models"

type Input struct {
	SessionID string            `json:"sessionId,omitempty"`
	Items     []models.ItemView `json:"items"`
}

type Output struct {
	Outcomes []Outcome `json:"outcomes"`
	Found    int       `json:"found"`
	NotFound int       `json:"notFound"`
}
