package api

import (
	"context"
	"net/http"
	"time"

	"commerce-workers/internal/common/validation"
	"commerce-workers/internal/models"
	classifyactionitems "commerce-workers/internal/workers/commerce/classify-action-items"
	dispatchactions "commerce-workers/internal/workers/commerce/dispatch-actions"
	parseassistantresponse "commerce-workers/internal/workers/commerce/parse-assistant-response"

	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	SessionID string                    `json:"sessionId"`
	Response  string                    `json:"response"`
	Narrative string                    `json:"narrative"`
	Items     []models.ItemView         `json:"items"`
	Outcomes  []dispatchactions.Outcome `json:"outcomes"`
	Degraded  bool                      `json:"degraded"`
}

// handleChat runs one turn and returns the reply split into narrative and
// dispatched action items.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, validation.ChatRequest, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	turn, err := s.deps.Chat.Turn(ctx, sessionID(ctx), req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	parsed := parseassistantresponse.Extract(turn.Response)
	items := classifyactionitems.Classify(parsed.ActionItems)

	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, models.ViewOf(item))
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: turn.SessionID,
		Response:  turn.Response,
		Narrative: parsed.Narrative,
		Items:     views,
		Outcomes:  s.deps.Dispatcher.Present(ctx, items),
		Degraded:  turn.Degraded,
	})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Chat.Reset(r.Context(), sessionID(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Conversation reset"})
}

type checkoutRequest struct {
	Product models.ProductRef     `json:"product"`
	Payment models.PaymentDetails `json:"payment"`
}

// handleCheckout is the catalog entry into the payment workflow. Payment
// fields are accepted and dropped.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, validation.CheckoutRequest, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	output, err := s.deps.Payments.Checkout(r.Context(), req.Product)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

type selectRequest struct {
	Item models.ItemView `json:"item"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, validation.SelectRequest, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := req.Item.ActionItem()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	selection, err := s.deps.Dispatcher.Select(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selection)
}

// handleEndSession tears the session down: its transcript is cleared and
// its order store closed. A later request under the same id starts empty.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	if err := s.deps.Chat.Reset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	released := s.deps.Orders.Release(id)

	s.logger.Info("session ended", map[string]interface{}{"sessionId": id, "hadOrders": released})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Session ended"})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": s.deps.Orders.Orders(r.Context()).Snapshot()})
}

// handleTrack answers 200 for both found and not found orders; only a blank
// id is a client error.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Dispatcher.OpenTracking(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for _, c := range s.deps.Checks {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	writeJSON(w, code, map[string]interface{}{"status": status, "checks": checks})
}
