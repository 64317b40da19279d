// internal/sms/intent/intent.go
package intent

// Intent identifies the classified purpose of an inbound message.
type Intent string

const (
	IntentUpdateProgress Intent = "update_progress"
	IntentStartBook      Intent = "start_book"
	IntentFinishBook     Intent = "finish_book"
	IntentGetStatus      Intent = "get_status"
	IntentListReading    Intent = "list_reading"
	IntentSearchBook     Intent = "search_book"
	IntentGetStats       Intent = "get_stats"
	IntentHelp           Intent = "help"
	IntentUnknown        Intent = "unknown"
)

// Parameters carries the sparse fields extracted for the matched intent. Only
// fields relevant to that intent are populated.
type Parameters struct {
	PageNumber      *int     `json:"pageNumber,omitempty"`
	PercentComplete *float64 `json:"percentComplete,omitempty"`
	BookTitle       string   `json:"bookTitle,omitempty"`
	Query           string   `json:"query,omitempty"`
	Genre           string   `json:"genre,omitempty"`
	Author          string   `json:"author,omitempty"`
	BookID          *int     `json:"bookId,omitempty"`
}

// Result is the outcome of classifying one message. Produced fresh per
// message, never persisted.
type Result struct {
	Intent     Intent     `json:"intent"`
	Confidence float64    `json:"confidence"`
	Parameters Parameters `json:"parameters"`
	RawMessage string     `json:"rawMessage"`
}

// Actionable reports whether the classification is confident enough for the
// orchestrator to dispatch to the matched intent rather than the fallback.
func (r Result) Actionable(threshold float64) bool {
	return r.Confidence >= threshold
}
