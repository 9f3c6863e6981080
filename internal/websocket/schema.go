package websocket

import "github.com/zulumai/exam-portal/internal/service"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionKey      Action = "key"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest selects an option for a specific question.
type AnswerRequest struct {
	Action   Action `json:"action"`
	Question int    `json:"question"`
	Option   int    `json:"option"`
}

// KeyRequest forwards a keyboard shortcut: a-d select an option for the
// question under the cursor, n/p move the cursor.
type KeyRequest struct {
	Action Action `json:"action"`
	Key    string `json:"key"`
}

// NavigateRequest moves the cursor by a relative offset.
type NavigateRequest struct {
	Action Action `json:"action"`
	Delta  int    `json:"delta"`
}

// SubmitRequest finishes the exam and requests the summary.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick    Event = "tick"
	EventCursor  Event = "cursor"
	EventSummary Event = "summary"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// TickResponse carries the countdown once per second. Expired marks the
// final tick; the client should then fetch the summary.
type TickResponse struct {
	Event            Event  `json:"event"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Clock            string `json:"clock"`
	Expired          bool   `json:"expired"`
}

type CursorResponse struct {
	Event  Event `json:"event"`
	Cursor int   `json:"cursor"`
}

type SummaryResponse struct {
	Event   Event                `json:"event"`
	Summary *service.ExamSummary `json:"summary"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
