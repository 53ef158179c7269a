package trackorder

type Input struct {
	SessionID string `json:"sessionId,omitempty"`
	OrderID   string `json:"orderId"`
}

type Output struct {
	Result
}
