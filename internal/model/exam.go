package model

import (
	"fmt"
	"time"
)

// ExamType enumerates the two supported exam kinds.
type ExamType string

const (
	ExamTypeStandard             ExamType = "STANDARD"
	ExamTypeContinuousAssessment ExamType = "CONTINUOUS_ASSESSMENT"
)

// Per-type configuration constants. These are fixed, not computed.
const (
	StandardDuration      = 30 * time.Minute
	StandardQuestionCount = 70

	CADuration      = 20 * time.Minute
	CAQuestionCount = 30
)

// ParseExamType validates a raw string into an ExamType.
func ParseExamType(raw string) (ExamType, error) {
	switch ExamType(raw) {
	case ExamTypeStandard:
		return ExamTypeStandard, nil
	case ExamTypeContinuousAssessment:
		return ExamTypeContinuousAssessment, nil
	}
	return "", fmt.Errorf("invalid exam type: %q", raw)
}

// Valid reports whether t is one of the supported exam types.
func (t ExamType) Valid() bool {
	return t == ExamTypeStandard || t == ExamTypeContinuousAssessment
}

// Duration returns the fixed wall-clock duration for the exam type.
func (t ExamType) Duration() time.Duration {
	if t == ExamTypeContinuousAssessment {
		return CADuration
	}
	return StandardDuration
}

// QuestionCount returns the expected pool size for the exam type.
func (t ExamType) QuestionCount() int {
	if t == ExamTypeContinuousAssessment {
		return CAQuestionCount
	}
	return StandardQuestionCount
}
