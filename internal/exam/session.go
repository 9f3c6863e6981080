package exam

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulumai/exam-portal/internal/model"
)

// State enumerates the session lifecycle states.
type State string

const (
	StateActive    State = "ACTIVE"
	StateSubmitted State = "SUBMITTED"
	StateExpired   State = "EXPIRED"
)

// FinalizeReason selects the terminal state a session transitions into.
type FinalizeReason State

const (
	ReasonSubmitted = FinalizeReason(StateSubmitted)
	ReasonExpired   = FinalizeReason(StateExpired)
)

// Session contract errors. These indicate caller sequencing bugs, not
// user-facing failures; correct presenter use never triggers them.
var (
	ErrOutOfRange       = errors.New("answer index out of range")
	ErrNotActive        = errors.New("session is not active")
	ErrAlreadyFinalized = errors.New("session already finalized")
	ErrInvalidReason    = errors.New("invalid finalize reason")
)

// Session is one in-progress exam attempt: a shuffled question set, the
// answers captured so far, and a wall-clock deadline. It transitions from
// ACTIVE to exactly one terminal state (SUBMITTED or EXPIRED), after which
// the answers and the cached score are frozen.
//
// All methods are safe for concurrent use; when a timer-driven expiry and
// a user-driven submit race, whichever acquires the lock first wins and
// the loser observes ErrAlreadyFinalized.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExamType  model.ExamType
	StartTime time.Time
	Deadline  time.Time

	questions []model.Question

	mu      sync.Mutex
	state   State
	answers map[int]int

	// Cached by Finalize.
	score      int
	percentage float64
	passed     bool
}

// NewSession constructs an ACTIVE session over an already-shuffled question
// set. The deadline is derived from the exam type's fixed duration.
func NewSession(userID uuid.UUID, examType model.ExamType, questions []model.Question) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExamType:  examType,
		StartTime: now,
		Deadline:  now.Add(examType.Duration()),
		questions: questions,
		state:     StateActive,
		answers:   make(map[int]int),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QuestionCount returns the size of the session's question set.
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// Questions returns the session's shuffled question set. The returned
// slice must not be mutated.
func (s *Session) Questions() []model.Question {
	return s.questions
}

// RecordAnswer stores the selected option for a question. Re-selecting a
// different option for an already-answered question overwrites the prior
// choice (last write wins). Valid only while ACTIVE; after a terminal
// transition it returns ErrNotActive and leaves the answers untouched.
func (s *Session) RecordAnswer(questionIndex, optionIndex int) error {
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return ErrOutOfRange
	}
	if optionIndex < 0 || optionIndex >= model.OptionCount {
		return ErrOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return ErrNotActive
	}

	s.answers[questionIndex] = optionIndex
	return nil
}

// Answer returns the selected option for a question and whether one exists.
func (s *Session) Answer(questionIndex int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.answers[questionIndex]
	return opt, ok
}

// Answers returns a snapshot copy of the captured answers.
func (s *Session) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		snapshot[k] = v
	}
	return snapshot
}

// Finalize transitions the session from ACTIVE into the given terminal
// state, scoring the captured answers and freezing them. It must be called
// exactly once; a second call returns ErrAlreadyFinalized.
func (s *Session) Finalize(reason FinalizeReason) error {
	if reason != ReasonSubmitted && reason != ReasonExpired {
		return ErrInvalidReason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return ErrAlreadyFinalized
	}

	s.state = State(reason)

	// Unanswered questions count as incorrect.
	score := 0
	for i, q := range s.questions {
		if opt, ok := s.answers[i]; ok && opt == q.CorrectOption {
			score++
		}
	}

	s.score = score
	if n := len(s.questions); n > 0 {
		s.percentage = 100 * float64(score) / float64(n)
	}
	s.passed = s.percentage >= model.PassThreshold

	return nil
}

// Score returns the cached score. Meaningful only after Finalize.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Percentage returns the cached percentage in [0,100]. Meaningful only
// after Finalize.
func (s *Session) Percentage() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percentage
}

// Passed reports whether the cached percentage met the pass threshold.
func (s *Session) Passed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passed
}

// Result derives the durable ExamResult record from a finalized session.
func (s *Session) Result(userEmail string) *model.ExamResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	return &model.ExamResult{
		SessionID:  s.ID,
		UserID:     s.UserID,
		UserEmail:  userEmail,
		ExamType:   s.ExamType,
		Score:      s.score,
		Percentage: s.percentage,
		Passed:     s.passed,
		Answers:    answers,
		RecordedAt: time.Now(),
	}
}
