package orchestrator

// Event types streamed to the client during a turn.
const (
	EventContent = "content"
	EventStatus  = "status"
	EventError   = "error"
	EventDone    = "done"
)

// Event is one streamed turn update. Every turn ends with exactly one
// terminal event: done on success, error on fatal failure.
type Event struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
