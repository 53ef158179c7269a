package chatturn

type Input struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type Output struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
	Degraded  bool   `json:"degraded"`
}
