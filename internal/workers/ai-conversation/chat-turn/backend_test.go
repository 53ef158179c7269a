package chatturn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"commerce-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestHTTPBackend_Reply(t *testing.T) {
	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(chatResponse{Response: "Here are some flowers"})
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL+"/", time.Second, 0)
	history := []models.Turn{{Role: models.RoleUser, Content: "hi"}, {Role: models.RoleAssistant, Content: "hello"}}

	reply, err := backend.Reply(context.Background(), history, "flowers please")
	require.NoError(t, err)
	assert.Equal(t, "Here are some flowers", reply)
	assert.Equal(t, "flowers please", received.Message)
	assert.Equal(t, history, received.History)
}

func TestHTTPBackend_Reply_ServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "agent crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewHTTPBackend(server.URL, time.Second, 2).Reply(context.Background(), nil, "hi")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// ==========================
// Fake langchaingo model
// ==========================

type fakeModel struct {
	messages []llms.MessageContent
	content  string
	err      error
	empty    bool
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	part, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestLLMBackend_Reply(t *testing.T) {
	model := &fakeModel{content: "Roses!\n```json\n[{\"name\":\"Rose\",\"price\":10}]\n```"}
	backend := NewLLMBackend(model)

	history := []models.Turn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	reply, err := backend.Reply(context.Background(), history, "roses")
	require.NoError(t, err)
	assert.Equal(t, model.content, reply)

	require.Len(t, model.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Contains(t, textOf(t, model.messages[0]), "track_order")
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, "hi", textOf(t, model.messages[1]))
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[3].Role)
	assert.Equal(t, "roses", textOf(t, model.messages[3]))
}

func TestLLMBackend_Reply_Errors(t *testing.T) {
	_, err := NewLLMBackend(&fakeModel{err: errors.New("rate limited")}).Reply(context.Background(), nil, "x")
	assert.EqualError(t, err, "rate limited")

	_, err = NewLLMBackend(&fakeModel{empty: true}).Reply(context.Background(), nil, "x")
	assert.ErrorIs(t, err, errNoChoices)
}

func TestNewOpenAIModel(t *testing.T) {
	model, err := NewOpenAIModel("sk-test", "gpt-4o-mini", "http://localhost:1/v1")
	require.NoError(t, err)
	assert.NotNil(t, model)
}
