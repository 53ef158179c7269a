package parseassistantresponse

import (
	"encoding/json"
	"regexp"
	"strings"

	"commerce-workers/internal/common/metrics"
	"commerce-workers/internal/models"
)

// fencedBlock matches a ``` fenced segment with an optional json tag.
var fencedBlock = regexp.MustCompile("(?i)```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Extract splits an assistant message into narrative and payload items.
// Only the first fenced segment is considered. When it is missing, is not a
// JSON array, or fails to parse, the message is returned unchanged as the
// narrative with no items. A message that is nothing but the fenced
// segment yields an empty narrative.
func Extract(raw string) models.ParsedResponse {
	parsed, _ := Split(raw)
	return parsed
}

// Split is Extract that also reports which path was taken.
func Split(raw string) (models.ParsedResponse, Outcome) {
	parsed, outcome := extract(raw)
	metrics.PayloadExtractions.WithLabelValues(string(outcome)).Inc()
	return parsed, outcome
}

func extract(raw string) (models.ParsedResponse, Outcome) {
	fallback := models.ParsedResponse{Narrative: raw, ActionItems: []json.RawMessage{}}

	loc := fencedBlock.FindStringSubmatchIndex(raw)
	if loc == nil {
		return fallback, OutcomeTextOnly
	}

	body := strings.TrimSpace(raw[loc[2]:loc[3]])
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return fallback, OutcomeMalformed
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return fallback, OutcomeMalformed
	}
	if items == nil {
		items = []json.RawMessage{}
	}

	return models.ParsedResponse{
		Narrative:   raw[:loc[0]] + raw[loc[1]:],
		ActionItems: items,
	}, OutcomeItems
}
