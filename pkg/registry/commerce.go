package registry

import (
	"commerce-workers/internal/common/errors"
	"commerce-workers/internal/common/validation"
	chatturn "commerce-workers/internal/workers/ai-conversation/chat-turn"
	classifyactionitems "commerce-workers/internal/workers/commerce/classify-action-items"
	dispatchactions "commerce-workers/internal/workers/commerce/dispatch-actions"
	parseassistantresponse "commerce-workers/internal/workers/commerce/parse-assistant-response"
	simulatepayment "commerce-workers/internal/workers/commerce/simulate-payment"
	trackorder "commerce-workers/internal/workers/commerce/track-order"
)

const commerceVersion = "1.0.0"

func codes(cs ...errors.ErrorCode) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}

// Commerce returns the built-in registry of every job type this module serves.
func Commerce() *ActivityRegistry {
	activities := []Activity{
		{
			ID:          parseassistantresponse.TaskType,
			DisplayName: "Parse Assistant Response",
			Description: "Splits an assistant reply into narrative text and structured action items",
			Category:    "commerce",
			TaskType:    parseassistantresponse.TaskType,
			InputSchema: validation.AssistantMessage.Source(),
			ErrorCodes:  codes(errors.ErrCodeInvalidInput),
			Timeout:     "5s",
			Retries:     0,
			Tags:        []string{"parsing"},
		},
		{
			ID:          classifyactionitems.TaskType,
			DisplayName: "Classify Action Items",
			Description: "Types each extracted action item as an offer or a tracking request",
			Category:    "commerce",
			TaskType:    classifyactionitems.TaskType,
			InputSchema: validation.ActionItems.Source(),
			ErrorCodes:  codes(errors.ErrCodeInvalidInput),
			Timeout:     "5s",
			Retries:     0,
			Tags:        []string{"parsing"},
		},
		{
			ID:          trackorder.TaskType,
			DisplayName: "Track Order",
			Description: "Resolves an order id against the order store",
			Category:    "commerce",
			TaskType:    trackorder.TaskType,
			InputSchema: validation.TrackOrder.Source(),
			ErrorCodes:  codes(errors.ErrCodeInvalidInput, errors.ErrCodeTrackingIDRequired, errors.ErrCodeTrackingCancelled),
			Timeout:     "10s",
			Retries:     2,
			Tags:        []string{"orders"},
		},
		{
			ID:          simulatepayment.TaskType,
			DisplayName: "Simulate Payment",
			Description: "Runs one simulated payment attempt and records the resulting order",
			Category:    "commerce",
			TaskType:    simulatepayment.TaskType,
			InputSchema: validation.SimulatePayment.Source(),
			ErrorCodes: codes(
				errors.ErrCodeInvalidInput,
				errors.ErrCodePaymentCancelled,
				errors.ErrCodeOrderIDExhausted,
				errors.ErrCodeOrderStoreClosed,
			),
			Timeout: "30s",
			Retries: 1,
			Tags:    []string{"orders", "payments"},
		},
		{
			ID:          dispatchactions.TaskType,
			DisplayName: "Dispatch Actions",
			Description: "Presents classified items as purchase offers or order status results",
			Category:    "commerce",
			TaskType:    dispatchactions.TaskType,
			InputSchema: validation.ClassifiedItems.Source(),
			ErrorCodes:  codes(errors.ErrCodeInvalidInput, errors.ErrCodeUnknownVariant),
			Timeout:     "5s",
			Retries:     1,
			Tags:        []string{"orders"},
		},
		{
			ID:          chatturn.TaskType,
			DisplayName: "Chat Turn",
			Description: "Sends one user message to the assistant backend with the session history",
			Category:    "ai-conversation",
			TaskType:    chatturn.TaskType,
			InputSchema: validation.ChatTurn.Source(),
			ErrorCodes:  codes(errors.ErrCodeInvalidInput, errors.ErrCodeEmptyMessage),
			Timeout:     "30s",
			Retries:     0,
			Tags:        []string{"assistant"},
		},
	}

	for i := range activities {
		activities[i].Version = commerceVersion
		activities[i].ImplementationStatus = StatusImplemented
	}

	return &ActivityRegistry{
		Version:     commerceVersion,
		LastUpdated: "2026-10-01T00:00:00Z",
		Activities:  activities,
	}
}
