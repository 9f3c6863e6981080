// Package questionbank holds the fixed per-type question pools and hands
// out freshly shuffled copies for new exam sessions.
package questionbank

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/model"
)

// ErrInvalidExamType is returned for an unsupported exam type.
var ErrInvalidExamType = errors.New("invalid exam type")

// QuestionLister is the read surface the bank loads its pools from.
type QuestionLister interface {
	ListByExamType(ctx context.Context, t model.ExamType) ([]model.Question, error)
}

// Bank owns the immutable question pools, loaded once at startup and
// never mutated afterwards.
type Bank struct {
	pools map[model.ExamType][]model.Question
}

// New constructs a Bank over in-memory pools. Used directly by tests;
// production code goes through Load.
func New(pools map[model.ExamType][]model.Question) *Bank {
	return &Bank{pools: pools}
}

// Load reads both pools from storage. A pool whose size differs from the
// type's fixed expected count is still served, with a warning.
func Load(ctx context.Context, lister QuestionLister, log zerolog.Logger) (*Bank, error) {
	pools := make(map[model.ExamType][]model.Question, 2)

	for _, t := range []model.ExamType{model.ExamTypeStandard, model.ExamTypeContinuousAssessment} {
		questions, err := lister.ListByExamType(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("load %s pool: %w", t, err)
		}
		if len(questions) != t.QuestionCount() {
			log.Warn().
				Str("exam_type", string(t)).
				Int("expected", t.QuestionCount()).
				Int("loaded", len(questions)).
				Msg("Question pool size differs from expected count")
		}
		pools[t] = questions
	}

	log.Info().
		Int("standard", len(pools[model.ExamTypeStandard])).
		Int("continuous_assessment", len(pools[model.ExamTypeContinuousAssessment])).
		Msg("Question pools loaded")

	return &Bank{pools: pools}, nil
}

// GetQuestionSet returns a full copy of the pool for the exam type in a
// uniformly random permutation. Every call re-shuffles, so two concurrent
// sessions of the same type see independent orders.
func (b *Bank) GetQuestionSet(t model.ExamType) ([]model.Question, error) {
	pool, ok := b.pools[t]
	if !ok || !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExamType, t)
	}

	set := make([]model.Question, len(pool))
	copy(set, pool)

	// Fisher-Yates, last index down, uniform earlier-or-equal swap.
	for i := len(set) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		set[i], set[j] = set[j], set[i]
	}

	return set, nil
}

// PoolSize returns the loaded pool size for the exam type.
func (b *Bank) PoolSize(t model.ExamType) int {
	return len(b.pools[t])
}
