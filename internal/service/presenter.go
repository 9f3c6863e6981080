package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/exam"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/questionbank"
)

// Presenter errors surfaced to the portal boundary.
var (
	ErrSessionActive   = errors.New("an exam session is already active")
	ErrNoActiveSession = errors.New("no active exam session")
	ErrExamDisabled    = errors.New("this exam is not currently available")
	ErrNoSummary       = errors.New("no finished exam summary available")
	ErrUnknownKey      = errors.New("unrecognized key")
)

// SessionPresenter is the single boundary component between the exam core
// and the rendering layer. It owns the in-memory registry of live sessions
// (at most one ACTIVE per user), binds each session to its DeadlineTimer,
// translates user intents into session operations, and finalizes exactly
// once (cancelling the timer together with disabling further submits).
//
// Sessions live only in process memory: once a result is recorded and the
// summary delivered, the session is discarded. There is no resumption
// across restarts.
// ExamGate answers whether an exam type is currently open for new
// sessions. Satisfied by SettingService.
type ExamGate interface {
	IsExamEnabled(ctx context.Context, t model.ExamType) (bool, error)
}

type SessionPresenter struct {
	bank         *questionbank.Bank
	settings     ExamGate
	recorder     *ResultRecorder
	log          zerolog.Logger
	tickInterval time.Duration

	mu       sync.Mutex
	active   map[uuid.UUID]*liveSession
	finished map[uuid.UUID]*ExamSummary
}

// liveSession couples one ACTIVE session with its countdown state.
// remaining and cursor are atomics so timer ticks never contend with the
// session's own mutex.
type liveSession struct {
	session   *exam.Session
	timer     *exam.DeadlineTimer
	userEmail string
	remaining atomic.Int64
	cursor    atomic.Int64

	subMu sync.Mutex
	subs  map[chan TickEvent]struct{}
}

// TickEvent is pushed to stream subscribers once per timer tick, and a
// final time with Expired set when the deadline fires.
type TickEvent struct {
	RemainingSeconds int    `json:"remaining_seconds"`
	Clock            string `json:"clock"`
	Expired          bool   `json:"expired"`
}

// ExamView is the renderable model of a freshly started session.
type ExamView struct {
	SessionID       uuid.UUID                  `json:"session_id"`
	ExamType        model.ExamType             `json:"exam_type"`
	Questions       []model.QuestionForStudent `json:"questions"`
	DurationSeconds int                        `json:"duration_seconds"`
	Clock           string                     `json:"clock"`
}

// SessionView is the renderable model of an in-progress session.
type SessionView struct {
	SessionID        uuid.UUID      `json:"session_id"`
	ExamType         model.ExamType `json:"exam_type"`
	State            exam.State     `json:"state"`
	Answers          map[int]int    `json:"answers"`
	Cursor           int            `json:"cursor"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Clock            string         `json:"clock"`
}

// ExamSummary is the renderable model of a finished session. Score,
// percentage, and pass/fail are computed locally and authoritative
// regardless of the persistence outcome.
type ExamSummary struct {
	ExamType          model.ExamType `json:"exam_type"`
	State             exam.State     `json:"state"`
	Score             int            `json:"score"`
	Total             int            `json:"total"`
	Percentage        float64        `json:"percentage"`
	PercentageDisplay string         `json:"percentage_display"`
	Passed            bool           `json:"passed"`
	RecordingFailed   bool           `json:"recording_failed,omitempty"`
}

// NewSessionPresenter creates a presenter ticking once per second.
func NewSessionPresenter(bank *questionbank.Bank, settings ExamGate, recorder *ResultRecorder, log zerolog.Logger) *SessionPresenter {
	return newSessionPresenter(bank, settings, recorder, log, time.Second)
}

func newSessionPresenter(bank *questionbank.Bank, settings ExamGate, recorder *ResultRecorder, log zerolog.Logger, tickInterval time.Duration) *SessionPresenter {
	return &SessionPresenter{
		bank:         bank,
		settings:     settings,
		recorder:     recorder,
		log:          log.With().Str("component", "session_presenter").Logger(),
		tickInterval: tickInterval,
		active:       make(map[uuid.UUID]*liveSession),
		finished:     make(map[uuid.UUID]*ExamSummary),
	}
}

// StartExam begins a new session: availability gate, fresh shuffled
// question set, session construction, timer start. Refused while the user
// already has an ACTIVE session.
func (p *SessionPresenter) StartExam(ctx context.Context, userID uuid.UUID, userEmail string, examType model.ExamType) (*ExamView, error) {
	if !examType.Valid() {
		return nil, fmt.Errorf("%w: %q", questionbank.ErrInvalidExamType, examType)
	}

	enabled, err := p.settings.IsExamEnabled(ctx, examType)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !enabled {
		return nil, ErrExamDisabled
	}

	questions, err := p.bank.GetQuestionSet(examType)
	if err != nil {
		return nil, err
	}

	session := exam.NewSession(userID, examType, questions)
	live := &liveSession{
		session:   session,
		timer:     exam.NewDeadlineTimerInterval(p.tickInterval),
		userEmail: userEmail,
		subs:      make(map[chan TickEvent]struct{}),
	}

	durationSeconds := int(examType.Duration().Seconds())
	live.remaining.Store(int64(durationSeconds))

	p.mu.Lock()
	if _, exists := p.active[userID]; exists {
		p.mu.Unlock()
		return nil, ErrSessionActive
	}
	p.active[userID] = live
	delete(p.finished, userID) // a new attempt supersedes a stale summary
	p.mu.Unlock()

	if err := live.timer.Start(durationSeconds, live.onTick, func() {
		p.expire(userID, live)
	}); err != nil {
		// Unreachable for a fresh timer; undo the registration.
		p.mu.Lock()
		delete(p.active, userID)
		p.mu.Unlock()
		return nil, err
	}

	p.log.Info().
		Str("user_id", userID.String()).
		Str("session_id", session.ID.String()).
		Str("exam_type", string(examType)).
		Int("questions", len(questions)).
		Msg("Exam session started")

	return &ExamView{
		SessionID:       session.ID,
		ExamType:        examType,
		Questions:       studentQuestions(questions),
		DurationSeconds: durationSeconds,
		Clock:           FormatClock(durationSeconds),
	}, nil
}

// SelectAnswer records the chosen option for a question and moves the
// navigation cursor onto it.
func (p *SessionPresenter) SelectAnswer(userID uuid.UUID, questionIndex, optionIndex int) error {
	live, err := p.lookup(userID)
	if err != nil {
		return err
	}
	if err := live.session.RecordAnswer(questionIndex, optionIndex); err != nil {
		return err
	}
	live.cursor.Store(int64(questionIndex))
	return nil
}

// HandleKey maps a keyboard shortcut onto a session intent: keys a-d
// select options 0-3 for the question under the cursor, n/p move the
// cursor forward/back. Returns the resulting cursor position.
func (p *SessionPresenter) HandleKey(userID uuid.UUID, key string) (int, error) {
	live, err := p.lookup(userID)
	if err != nil {
		return 0, err
	}

	switch key {
	case "a", "b", "c", "d":
		optionIndex := int(key[0] - 'a')
		cursor := int(live.cursor.Load())
		if err := live.session.RecordAnswer(cursor, optionIndex); err != nil {
			return cursor, err
		}
		return cursor, nil
	case "n":
		return p.moveCursor(live, +1), nil
	case "p":
		return p.moveCursor(live, -1), nil
	}
	return int(live.cursor.Load()), fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Navigate moves the cursor by delta, clamped to the question set bounds,
// and returns the new position.
func (p *SessionPresenter) Navigate(userID uuid.UUID, delta int) (int, error) {
	live, err := p.lookup(userID)
	if err != nil {
		return 0, err
	}
	return p.moveCursor(live, delta), nil
}

// Submit finalizes the user's ACTIVE session as SUBMITTED, records the
// outcome, and returns the summary. The timer is cancelled first so an
// expiry can never fire after a successful manual submit; if the expiry
// won the race, the expiry's summary is returned instead.
func (p *SessionPresenter) Submit(ctx context.Context, userID uuid.UUID) (*ExamSummary, error) {
	live, err := p.lookup(userID)
	if err != nil {
		// The session may have just expired; fall back to its summary.
		if summary, popErr := p.PopSummary(userID); popErr == nil {
			return summary, nil
		}
		return nil, err
	}

	live.timer.Cancel()

	if err := live.session.Finalize(exam.ReasonSubmitted); err != nil {
		if errors.Is(err, exam.ErrAlreadyFinalized) {
			// Expiry won; its summary is already stashed.
			if summary, popErr := p.PopSummary(userID); popErr == nil {
				return summary, nil
			}
		}
		return nil, err
	}

	return p.finish(ctx, userID, live), nil
}

// GetSessionView returns the renderable state of the user's ACTIVE session.
func (p *SessionPresenter) GetSessionView(userID uuid.UUID) (*SessionView, error) {
	live, err := p.lookup(userID)
	if err != nil {
		return nil, err
	}

	remaining := int(live.remaining.Load())
	return &SessionView{
		SessionID:        live.session.ID,
		ExamType:         live.session.ExamType,
		State:            live.session.State(),
		Answers:          live.session.Answers(),
		Cursor:           int(live.cursor.Load()),
		RemainingSeconds: remaining,
		Clock:            FormatClock(remaining),
	}, nil
}

// PopSummary returns and discards the stashed summary of a session that
// ended by expiry (or a submit raced by one).
func (p *SessionPresenter) PopSummary(userID uuid.UUID) (*ExamSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	summary, ok := p.finished[userID]
	if !ok {
		return nil, ErrNoSummary
	}
	delete(p.finished, userID)
	return summary, nil
}

// HasActiveSession reports whether the user currently has an ACTIVE session.
func (p *SessionPresenter) HasActiveSession(userID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[userID]
	return ok
}

// Subscribe registers a tick stream for the user's ACTIVE session. The
// returned cancel func must be called when the stream closes.
func (p *SessionPresenter) Subscribe(userID uuid.UUID) (<-chan TickEvent, func(), error) {
	live, err := p.lookup(userID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan TickEvent, 8)
	live.subMu.Lock()
	live.subs[ch] = struct{}{}
	live.subMu.Unlock()

	cancel := func() {
		live.subMu.Lock()
		delete(live.subs, ch)
		live.subMu.Unlock()
	}
	return ch, cancel, nil
}

// expire is the timer's deadline callback: finalize as EXPIRED, record,
// stash the summary for the student's next fetch.
func (p *SessionPresenter) expire(userID uuid.UUID, live *liveSession) {
	if err := live.session.Finalize(exam.ReasonExpired); err != nil {
		// A submit won the race; nothing to do.
		return
	}

	live.remaining.Store(0)
	summary := p.finish(context.Background(), userID, live)

	p.mu.Lock()
	p.finished[userID] = summary
	p.mu.Unlock()

	live.broadcast(TickEvent{RemainingSeconds: 0, Clock: FormatClock(0), Expired: true})
}

// finish records the finalized session's outcome, deregisters it, and
// builds the summary. The session object is dropped here; persistence
// failure only flags the summary, it never blocks or retries.
func (p *SessionPresenter) finish(ctx context.Context, userID uuid.UUID, live *liveSession) *ExamSummary {
	session := live.session
	result := session.Result(live.userEmail)

	recordingFailed := false
	if err := p.recorder.Record(ctx, result); err != nil {
		recordingFailed = true
		p.log.Warn().Err(err).
			Str("session_id", session.ID.String()).
			Msg("Result not recorded; summary still served from local scores")
	}

	p.mu.Lock()
	delete(p.active, userID)
	p.mu.Unlock()

	p.log.Info().
		Str("user_id", userID.String()).
		Str("session_id", session.ID.String()).
		Str("state", string(session.State())).
		Int("score", session.Score()).
		Float64("percentage", session.Percentage()).
		Bool("passed", session.Passed()).
		Msg("Exam session finished")

	return &ExamSummary{
		ExamType:          session.ExamType,
		State:             session.State(),
		Score:             session.Score(),
		Total:             session.QuestionCount(),
		Percentage:        session.Percentage(),
		PercentageDisplay: fmt.Sprintf("%.2f%%", session.Percentage()),
		Passed:            session.Passed(),
		RecordingFailed:   recordingFailed,
	}
}

func (p *SessionPresenter) lookup(userID uuid.UUID) (*liveSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	live, ok := p.active[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return live, nil
}

func (p *SessionPresenter) moveCursor(live *liveSession, delta int) int {
	max := live.session.QuestionCount() - 1
	for {
		cur := live.cursor.Load()
		next := cur + int64(delta)
		if next < 0 {
			next = 0
		}
		if next > int64(max) {
			next = int64(max)
		}
		if live.cursor.CompareAndSwap(cur, next) {
			return int(next)
		}
	}
}

func (l *liveSession) onTick(remainingSeconds int) {
	l.remaining.Store(int64(remainingSeconds))
	l.broadcast(TickEvent{
		RemainingSeconds: remainingSeconds,
		Clock:            FormatClock(remainingSeconds),
	})
}

// broadcast pushes a tick to all subscribers without blocking; a slow
// stream just misses ticks.
func (l *liveSession) broadcast(ev TickEvent) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// FormatClock renders whole seconds as MM:SS, both fields zero-padded.
func FormatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}

func studentQuestions(questions []model.Question) []model.QuestionForStudent {
	out := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		out[i] = model.QuestionForStudent{
			Number:  i + 1,
			Text:    q.Text,
			Options: q.Options,
		}
	}
	return out
}
