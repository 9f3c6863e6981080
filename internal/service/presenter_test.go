package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/exam"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/questionbank"
)

// stubGate toggles exam availability without a database.
type stubGate struct {
	enabled map[model.ExamType]bool
}

func (g *stubGate) IsExamEnabled(_ context.Context, t model.ExamType) (bool, error) {
	return g.enabled[t], nil
}

func testPool(t model.ExamType, n int) []model.Question {
	pool := make([]model.Question, n)
	for i := range pool {
		pool[i] = model.Question{
			ID:            uuid.New(),
			ExamType:      t,
			Text:          "question",
			Options:       []string{"w", "x", "y", "z"},
			CorrectOption: i % model.OptionCount,
		}
	}
	return pool
}

func testPresenter(t *testing.T) (*SessionPresenter, *stubGate) {
	t.Helper()
	_, rdb := testRedis(t)

	bank := questionbank.New(map[model.ExamType][]model.Question{
		model.ExamTypeStandard:             testPool(model.ExamTypeStandard, 10),
		model.ExamTypeContinuousAssessment: testPool(model.ExamTypeContinuousAssessment, 5),
	})
	gate := &stubGate{enabled: map[model.ExamType]bool{
		model.ExamTypeStandard:             true,
		model.ExamTypeContinuousAssessment: true,
	}}
	recorder := NewResultRecorder(rdb, zerolog.Nop())
	return NewSessionPresenter(bank, gate, recorder, zerolog.Nop()), gate
}

func TestStartExamBuildsView(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()

	view, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, view.SessionID)
	require.Equal(t, model.ExamTypeStandard, view.ExamType)
	require.Len(t, view.Questions, 10)
	require.Equal(t, int(model.StandardDuration.Seconds()), view.DurationSeconds)
	require.Equal(t, "30:00", view.Clock)

	// Questions are renumbered from 1 and never expose the correct option.
	require.Equal(t, 1, view.Questions[0].Number)
	require.Equal(t, 10, view.Questions[9].Number)

	require.True(t, p.HasActiveSession(userID))
}

func TestStartExamWhenDisabled(t *testing.T) {
	p, gate := testPresenter(t)
	gate.enabled[model.ExamTypeContinuousAssessment] = false

	_, err := p.StartExam(context.Background(), uuid.New(), "jdoe@zulumai.com", model.ExamTypeContinuousAssessment)
	require.ErrorIs(t, err, ErrExamDisabled)
}

func TestStartExamOneActivePerUser(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()

	_, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)

	_, err = p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeContinuousAssessment)
	require.ErrorIs(t, err, ErrSessionActive)

	// A different user is unaffected.
	_, err = p.StartExam(context.Background(), uuid.New(), "asmith@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)
}

func TestSelectAnswerMovesCursor(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()

	_, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)

	require.NoError(t, p.SelectAnswer(userID, 4, 2))

	view, err := p.GetSessionView(userID)
	require.NoError(t, err)
	require.Equal(t, 4, view.Cursor)
	require.Equal(t, map[int]int{4: 2}, view.Answers)
	require.Equal(t, exam.StateActive, view.State)
}

func TestHandleKeySelectsAtCursor(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()

	_, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)

	// n advances the cursor, then "c" answers option 2 there.
	cursor, err := p.HandleKey(userID, "n")
	require.NoError(t, err)
	require.Equal(t, 1, cursor)

	cursor, err = p.HandleKey(userID, "c")
	require.NoError(t, err)
	require.Equal(t, 1, cursor)

	view, err := p.GetSessionView(userID)
	require.NoError(t, err)
	require.Equal(t, map[int]int{1: 2}, view.Answers)

	// p moves back and clamps at the first question.
	cursor, err = p.HandleKey(userID, "p")
	require.NoError(t, err)
	require.Equal(t, 0, cursor)
	cursor, err = p.HandleKey(userID, "p")
	require.NoError(t, err)
	require.Equal(t, 0, cursor)

	_, err = p.HandleKey(userID, "x")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestNavigateClampsToBounds(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()

	_, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeContinuousAssessment)
	require.NoError(t, err)

	cursor, err := p.Navigate(userID, 100)
	require.NoError(t, err)
	require.Equal(t, 4, cursor)

	cursor, err = p.Navigate(userID, -100)
	require.NoError(t, err)
	require.Equal(t, 0, cursor)
}

func TestSubmitScoresAndRecords(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()
	ctx := context.Background()

	view, err := p.StartExam(ctx, userID, "jdoe@zulumai.com", model.ExamTypeContinuousAssessment)
	require.NoError(t, err)
	require.Len(t, view.Questions, 5)

	// Answer three questions correctly via the presenter's own view of
	// the live session.
	live, err := p.lookup(userID)
	require.NoError(t, err)
	questions := live.session.Questions()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.SelectAnswer(userID, i, questions[i].CorrectOption))
	}

	summary, err := p.Submit(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, exam.StateSubmitted, summary.State)
	require.Equal(t, 3, summary.Score)
	require.Equal(t, 5, summary.Total)
	require.InDelta(t, 60.0, summary.Percentage, 1e-9)
	require.Equal(t, "60.00%", summary.PercentageDisplay)
	require.True(t, summary.Passed)
	require.False(t, summary.RecordingFailed)

	// The session is gone; a second submit finds nothing.
	require.False(t, p.HasActiveSession(userID))
	_, err = p.Submit(ctx, userID)
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSubmitFlagsRecordingFailure(t *testing.T) {
	mr, rdb := testRedis(t)
	bank := questionbank.New(map[model.ExamType][]model.Question{
		model.ExamTypeStandard: testPool(model.ExamTypeStandard, 10),
	})
	gate := &stubGate{enabled: map[model.ExamType]bool{model.ExamTypeStandard: true}}
	p := NewSessionPresenter(bank, gate, NewResultRecorder(rdb, zerolog.Nop()), zerolog.Nop())

	userID := uuid.New()
	_, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)

	mr.Close()

	// The summary is still served from local scores.
	summary, err := p.Submit(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, summary.RecordingFailed)
	require.Equal(t, 10, summary.Total)
}

func TestExpiryStashesSummary(t *testing.T) {
	mr, rdb := testRedis(t)
	bank := questionbank.New(map[model.ExamType][]model.Question{
		model.ExamTypeContinuousAssessment: testPool(model.ExamTypeContinuousAssessment, 5),
	})
	gate := &stubGate{enabled: map[model.ExamType]bool{model.ExamTypeContinuousAssessment: true}}
	p := NewSessionPresenter(bank, gate, NewResultRecorder(rdb, zerolog.Nop()), zerolog.Nop())

	userID := uuid.New()
	ctx := context.Background()

	_, err := p.StartExam(ctx, userID, "jdoe@zulumai.com", model.ExamTypeContinuousAssessment)
	require.NoError(t, err)

	live, err := p.lookup(userID)
	require.NoError(t, err)
	questions := live.session.Questions()
	require.NoError(t, p.SelectAnswer(userID, 0, questions[0].CorrectOption))

	// Drive the deadline path directly.
	live.timer.Cancel()
	p.expire(userID, live)

	require.False(t, p.HasActiveSession(userID))

	summary, err := p.PopSummary(userID)
	require.NoError(t, err)
	require.Equal(t, exam.StateExpired, summary.State)
	require.Equal(t, 1, summary.Score)
	require.False(t, summary.Passed)

	// The summary is single-use.
	_, err = p.PopSummary(userID)
	require.ErrorIs(t, err, ErrNoSummary)

	// Exactly one result hit the queue.
	items, err := mr.List(config.WorkerKey.PersistResultsQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestSubmitAfterExpiryReturnsStashedSummary(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()
	ctx := context.Background()

	_, err := p.StartExam(ctx, userID, "jdoe@zulumai.com", model.ExamTypeContinuousAssessment)
	require.NoError(t, err)

	live, err := p.lookup(userID)
	require.NoError(t, err)
	live.timer.Cancel()
	p.expire(userID, live)

	// A submit arriving just after the deadline still gets a summary.
	summary, err := p.Submit(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, exam.StateExpired, summary.State)
}

func TestTickUpdatesRemainingAndSubscribers(t *testing.T) {
	p, _ := testPresenter(t)
	userID := uuid.New()

	_, err := p.StartExam(context.Background(), userID, "jdoe@zulumai.com", model.ExamTypeStandard)
	require.NoError(t, err)

	ticks, cancel, err := p.Subscribe(userID)
	require.NoError(t, err)
	defer cancel()

	live, err := p.lookup(userID)
	require.NoError(t, err)
	live.onTick(125)

	view, err := p.GetSessionView(userID)
	require.NoError(t, err)
	require.Equal(t, 125, view.RemainingSeconds)
	require.Equal(t, "02:05", view.Clock)

	select {
	case ev := <-ticks:
		require.Equal(t, 125, ev.RemainingSeconds)
		require.Equal(t, "02:05", ev.Clock)
		require.False(t, ev.Expired)
	case <-time.After(time.Second):
		t.Fatal("no tick event delivered")
	}
}

func TestFormatClock(t *testing.T) {
	require.Equal(t, "00:00", FormatClock(0))
	require.Equal(t, "00:09", FormatClock(9))
	require.Equal(t, "01:00", FormatClock(60))
	require.Equal(t, "20:00", FormatClock(1200))
	require.Equal(t, "30:00", FormatClock(1800))
	require.Equal(t, "00:00", FormatClock(-5))
}
