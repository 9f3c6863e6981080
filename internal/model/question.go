package model

import (
	"github.com/google/uuid"
)

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// Question represents a single multiple-choice question. Immutable once
// loaded into a question pool.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamType      ExamType  `json:"exam_type"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"` // exactly OptionCount entries
	CorrectOption int       `json:"correct_option"`
}

// QuestionForStudent is a question without the correct answer, sent to
// students during an active session.
type QuestionForStudent struct {
	Number  int      `json:"number"` // 1-based position in the shuffled set
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// SeedQuestion is the JSON shape consumed by cmd/seed-questions.
type SeedQuestion struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctAnswer"`
}
