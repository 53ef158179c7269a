package parseassistantresponse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"commerce-workers/internal/common/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawItems(t *testing.T, items ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = json.RawMessage(item)
	}
	return out
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantNarrative string
		wantItems     []string
	}{
		{
			name:          "flowers example",
			raw:           "Here are some flowers:\n```json\n[{\"name\":\"Rose\",\"price\":10,\"action\":\"buy\"}]\n```",
			wantNarrative: "Here are some flowers:\n",
			wantItems:     []string{`{"name":"Rose","price":10,"action":"buy"}`},
		},
		{
			name:          "no fenced block",
			raw:           "We have roses and tulips in stock.",
			wantNarrative: "We have roses and tulips in stock.",
		},
		{
			name:          "untagged fence",
			raw:           "Tracking:\n```\n[{\"action\":\"track_order\",\"order_id\":\"ORD-1234\"}]\n```\nAnything else?",
			wantNarrative: "Tracking:\n\nAnything else?",
			wantItems:     []string{`{"action":"track_order","order_id":"ORD-1234"}`},
		},
		{
			name:          "tag is case insensitive",
			raw:           "```JSON\n[{\"name\":\"Tulip\"}]\n```",
			wantNarrative: "",
			wantItems:     []string{`{"name":"Tulip"}`},
		},
		{
			name:          "payload only leaves empty narrative",
			raw:           "```JSON\n[{\"action\":\"track_order\",\"order_id\":\"ORD-1234\"}]```",
			wantNarrative: "",
			wantItems:     []string{`{"action":"track_order","order_id":"ORD-1234"}`},
		},
		{
			name:          "text around block kept verbatim",
			raw:           "Before  ```json [1, {\"a\":2}] ```  after",
			wantNarrative: "Before    after",
			wantItems:     []string{`1`, `{"a":2}`},
		},
		{
			name:          "empty array strips block",
			raw:           "Nothing found.\n```json\n[]\n```",
			wantNarrative: "Nothing found.\n",
		},
		{
			name:          "object instead of array",
			raw:           "Here:\n```json\n{\"name\":\"Rose\"}\n```",
			wantNarrative: "Here:\n```json\n{\"name\":\"Rose\"}\n```",
		},
		{
			name:          "invalid json",
			raw:           "Here:\n```json\n[{\"name\":\"Rose\",]\n```",
			wantNarrative: "Here:\n```json\n[{\"name\":\"Rose\",]\n```",
		},
		{
			name:          "other language tag",
			raw:           "```python\n[1,2]\n```",
			wantNarrative: "```python\n[1,2]\n```",
		},
		{
			name:          "unterminated fence",
			raw:           "Here:\n```json\n[{\"name\":\"Rose\"}]",
			wantNarrative: "Here:\n```json\n[{\"name\":\"Rose\"}]",
		},
		{
			name:          "only first block considered",
			raw:           "A\n```json\n[{\"name\":\"Rose\"}]\n```\nB\n```json\n[{\"name\":\"Lily\"}]\n```",
			wantNarrative: "A\n\nB\n```json\n[{\"name\":\"Lily\"}]\n```",
			wantItems:     []string{`{"name":"Rose"}`},
		},
		{
			name:          "first block malformed hides later valid block",
			raw:           "```json\nnot json\n```\n```json\n[{\"name\":\"Lily\"}]\n```",
			wantNarrative: "```json\nnot json\n```\n```json\n[{\"name\":\"Lily\"}]\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw)

			assert.Equal(t, tt.wantNarrative, got.Narrative)
			require.NotNil(t, got.ActionItems)
			if diff := cmp.Diff(rawItems(t, tt.wantItems...), got.ActionItems); diff != "" {
				t.Errorf("action items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_ItemsSerializeAsEmptyArray(t *testing.T) {
	data, err := json.Marshal(Extract("plain text"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"narrative":"plain text","actionItems":[]}`, string(data))
}

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name        string
		message     string
		wantOutcome Outcome
		wantItems   int
	}{
		{"payload", "Pick one:\n```json\n[{\"name\":\"Rose\"},{\"name\":\"Lily\"}]\n```", OutcomeItems, 2},
		{"text only", "Hello! How can I help?", OutcomeTextOnly, 0},
		{"malformed", "```json\n[oops]\n```", OutcomeMalformed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{Message: tt.message})
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, output.Outcome)
			assert.Len(t, output.ActionItems, tt.wantItems)
			if tt.wantOutcome != OutcomeItems {
				assert.Equal(t, tt.message, output.Narrative)
			}
		})
	}
}

func BenchmarkExtract(b *testing.B) {
	raw := "Here are some options for you:\n```json\n" +
		"[" + strings.Repeat(`{"name":"Rose","price":10,"image":"rose.png","shop_name":"Bloom"},`, 20) +
		`{"name":"Lily"}]` + "\n```\nLet me know!"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Extract(raw)
	}
}
