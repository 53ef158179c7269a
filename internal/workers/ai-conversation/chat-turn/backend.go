package chatturn

import (
	"context"
	"strings"
	"time"

	httpclient "commerce-workers/internal/common/http"
	"commerce-workers/internal/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Backend produces the raw assistant text for one user message.
type Backend interface {
	Reply(ctx context.Context, history []models.Turn, message string) (string, error)
}

// HTTPBackend talks to an assistant service exposing POST /chat.
type HTTPBackend struct {
	client  *httpclient.Client
	baseURL string
}

func NewHTTPBackend(baseURL string, timeout time.Duration, maxRetries int) *HTTPBackend {
	return &HTTPBackend{
		client:  httpclient.NewClient(timeout, maxRetries),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type chatRequest struct {
	Message string        `json:"message"`
	History []models.Turn `json:"history,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (b *HTTPBackend) Reply(ctx context.Context, history []models.Turn, message string) (string, error) {
	var resp chatResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/chat", chatRequest{Message: message, History: history}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

const systemPrompt = `You are a shopping assistant for a group of flower and plant shops.

When you recommend products, end your reply with a fenced json block holding an array,
one object per product, so the client can render cards:
` + "```json" + `
[{"id": "product_id", "name": "Product Name", "price": 12.99, "image": "image_url", "shop_name": "Shop Name"}]
` + "```" + `

Before checkout ask for the customer's full name and shipping address. Once you have both,
emit the product with "action": "checkout" and "shipping_details": {"name": "...", "address": "..."}.

If the customer wants to track an order, emit [{"action": "track_order", "order_id": "ORD-1234"}]
with the id taken from their message. If they gave no id, ask for it instead.

Emit at most one json block per reply.`

// LLMBackend asks a langchaingo chat model directly.
type LLMBackend struct {
	model  llms.Model
	prompt string
}

func NewLLMBackend(model llms.Model) *LLMBackend {
	return &LLMBackend{model: model, prompt: systemPrompt}
}

// NewOpenAIModel builds an OpenAI compatible chat model. An empty baseURL
// uses the public endpoint.
func NewOpenAIModel(apiKey, model, baseURL string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	return openai.New(opts...)
}

func (b *LLMBackend) Reply(ctx context.Context, history []models.Turn, message string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, b.prompt))
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	resp, err := b.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Content, nil
}
