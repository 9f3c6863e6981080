package model

import (
	"time"

	"github.com/google/uuid"
)

// PassThreshold is the minimum percentage required to pass.
const PassThreshold = 50.0

// ExamResult is the durable outcome of one finished exam session.
// Written once when the session reaches a terminal state, never mutated
// by the student-facing flow.
type ExamResult struct {
	SessionID  uuid.UUID   `json:"session_id"`
	UserID     uuid.UUID   `json:"user_id"`
	UserEmail  string      `json:"user_email"`
	ExamType   ExamType    `json:"exam_type"`
	Score      int         `json:"score"`
	Percentage float64     `json:"percentage"`
	Passed     bool        `json:"passed"`
	Answers    map[int]int `json:"answers"`
	RecordedAt time.Time   `json:"recorded_at"`
}
