package exam

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zulumai/exam-portal/internal/model"
)

// makeQuestions builds n questions whose correct option cycles 0..3.
func makeQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uuid.New(),
			ExamType:      model.ExamTypeStandard,
			Text:          "question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i % model.OptionCount,
		}
	}
	return questions
}

func TestNewSessionIsActive(t *testing.T) {
	s := NewSession(uuid.New(), model.ExamTypeStandard, makeQuestions(10))

	require.Equal(t, StateActive, s.State())
	require.Equal(t, 10, s.QuestionCount())
	require.Empty(t, s.Answers())
	require.Equal(t, model.StandardDuration, s.Deadline.Sub(s.StartTime))
}

func TestRecordAnswerLastWriteWins(t *testing.T) {
	s := NewSession(uuid.New(), model.ExamTypeStandard, makeQuestions(10))

	require.NoError(t, s.RecordAnswer(2, 0))
	require.NoError(t, s.RecordAnswer(2, 3))

	opt, ok := s.Answer(2)
	require.True(t, ok)
	require.Equal(t, 3, opt)
	require.Len(t, s.Answers(), 1)
}

func TestRecordAnswerOutOfRange(t *testing.T) {
	s := NewSession(uuid.New(), model.ExamTypeStandard, makeQuestions(10))

	require.ErrorIs(t, s.RecordAnswer(-1, 0), ErrOutOfRange)
	require.ErrorIs(t, s.RecordAnswer(10, 0), ErrOutOfRange)
	require.ErrorIs(t, s.RecordAnswer(0, -1), ErrOutOfRange)
	require.ErrorIs(t, s.RecordAnswer(0, model.OptionCount), ErrOutOfRange)
	require.Empty(t, s.Answers())
}

func TestFinalizeScoresAllCorrect(t *testing.T) {
	questions := makeQuestions(10)
	s := NewSession(uuid.New(), model.ExamTypeStandard, questions)

	for i, q := range questions {
		require.NoError(t, s.RecordAnswer(i, q.CorrectOption))
	}
	require.NoError(t, s.Finalize(ReasonSubmitted))

	require.Equal(t, StateSubmitted, s.State())
	require.Equal(t, 10, s.Score())
	require.InDelta(t, 100.0, s.Percentage(), 1e-9)
	require.True(t, s.Passed())
}

func TestFinalizeScoresPartial(t *testing.T) {
	questions := makeQuestions(10)
	s := NewSession(uuid.New(), model.ExamTypeStandard, questions)

	// 4 correct, 2 wrong, 4 unanswered.
	for i := 0; i < 4; i++ {
		require.NoError(t, s.RecordAnswer(i, questions[i].CorrectOption))
	}
	for i := 4; i < 6; i++ {
		wrong := (questions[i].CorrectOption + 1) % model.OptionCount
		require.NoError(t, s.RecordAnswer(i, wrong))
	}
	require.NoError(t, s.Finalize(ReasonSubmitted))

	require.Equal(t, 4, s.Score())
	require.InDelta(t, 40.0, s.Percentage(), 1e-9)
	require.False(t, s.Passed())
}

func TestFinalizePassBoundary(t *testing.T) {
	questions := makeQuestions(10)
	s := NewSession(uuid.New(), model.ExamTypeStandard, questions)

	// Exactly half correct meets the threshold.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordAnswer(i, questions[i].CorrectOption))
	}
	require.NoError(t, s.Finalize(ReasonSubmitted))

	require.InDelta(t, 50.0, s.Percentage(), 1e-9)
	require.True(t, s.Passed())
}

func TestFinalizeNoAnswers(t *testing.T) {
	s := NewSession(uuid.New(), model.ExamTypeStandard, makeQuestions(10))

	require.NoError(t, s.Finalize(ReasonExpired))

	require.Equal(t, StateExpired, s.State())
	require.Equal(t, 0, s.Score())
	require.Zero(t, s.Percentage())
	require.False(t, s.Passed())
}

func TestFinalizeOnlyOnce(t *testing.T) {
	s := NewSession(uuid.New(), model.ExamTypeStandard, makeQuestions(10))

	require.NoError(t, s.Finalize(ReasonSubmitted))
	require.ErrorIs(t, s.Finalize(ReasonExpired), ErrAlreadyFinalized)

	// First transition sticks.
	require.Equal(t, StateSubmitted, s.State())
}

func TestFinalizeInvalidReason(t *testing.T) {
	s := NewSession(uuid.New(), model.ExamTypeStandard, makeQuestions(10))

	require.ErrorIs(t, s.Finalize(FinalizeReason("BOGUS")), ErrInvalidReason)
	require.Equal(t, StateActive, s.State())
}

func TestRecordAnswerAfterFinalize(t *testing.T) {
	questions := makeQuestions(10)
	s := NewSession(uuid.New(), model.ExamTypeStandard, questions)

	require.NoError(t, s.RecordAnswer(0, questions[0].CorrectOption))
	require.NoError(t, s.Finalize(ReasonSubmitted))

	require.ErrorIs(t, s.RecordAnswer(1, 0), ErrNotActive)
	require.Equal(t, 1, s.Score())
	require.Len(t, s.Answers(), 1)
}

func TestResultSnapshot(t *testing.T) {
	questions := makeQuestions(10)
	userID := uuid.New()
	s := NewSession(userID, model.ExamTypeContinuousAssessment, questions)

	for i := 0; i < 6; i++ {
		require.NoError(t, s.RecordAnswer(i, questions[i].CorrectOption))
	}
	require.NoError(t, s.Finalize(ReasonSubmitted))

	res := s.Result("jdoe@zulumai.com")
	require.Equal(t, s.ID, res.SessionID)
	require.Equal(t, userID, res.UserID)
	require.Equal(t, "jdoe@zulumai.com", res.UserEmail)
	require.Equal(t, model.ExamTypeContinuousAssessment, res.ExamType)
	require.Equal(t, 6, res.Score)
	require.InDelta(t, 60.0, res.Percentage, 1e-9)
	require.True(t, res.Passed)
	require.Len(t, res.Answers, 6)

	// The snapshot is a copy, not a view.
	res.Answers[0] = 99
	opt, _ := s.Answer(0)
	require.NotEqual(t, 99, opt)
}
