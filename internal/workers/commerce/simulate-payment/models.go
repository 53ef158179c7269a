package simulatepayment

import "commerce-workers/internal/models"

type Input struct {
	SessionID string                `json:"sessionId,omitempty"`
	Product   models.ProductRef     `json:"product"`
	Payment   models.PaymentDetails `json:"payment"`
}

type Output struct {
	AttemptID string       `json:"attemptId"`
	State     State        `json:"state"`
	Order     models.Order `json:"order"`
}
