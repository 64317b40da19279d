// internal/models/message.go
package models

// IncomingMessage is one inbound SMS as delivered by the provider webhook.
// Immutable once parsed; one per request.
type IncomingMessage struct {
	MessageSid  string `json:"messageSid"`
	AccountSid  string `json:"accountSid"`
	From        string `json:"from"`
	To          string `json:"to"`
	Body        string `json:"body"`
	NumMedia    int    `json:"numMedia"`
	NumSegments int    `json:"numSegments"`
}

// HandlerResponse is the terminal artifact of a command handler invocation.
// Message is the user-facing text; Data carries structured results for logging
// and for the orchestrator's context update (resolved book id).
type HandlerResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// BookID extracts the resolved book id a handler surfaced in Data, if any.
func (r *HandlerResponse) BookID() (int, bool) {
	if r == nil || r.Data == nil {
		return 0, false
	}
	switch v := r.Data["bookId"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
