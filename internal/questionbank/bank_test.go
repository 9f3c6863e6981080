package questionbank

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zulumai/exam-portal/internal/model"
)

func makePool(t model.ExamType, n int) []model.Question {
	pool := make([]model.Question, n)
	for i := range pool {
		pool[i] = model.Question{
			ID:            uuid.New(),
			ExamType:      t,
			Text:          fmt.Sprintf("question %d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i % model.OptionCount,
		}
	}
	return pool
}

func TestGetQuestionSetIsPermutation(t *testing.T) {
	pool := makePool(model.ExamTypeStandard, 70)
	bank := New(map[model.ExamType][]model.Question{
		model.ExamTypeStandard: pool,
	})

	set, err := bank.GetQuestionSet(model.ExamTypeStandard)
	require.NoError(t, err)
	require.Len(t, set, 70)

	// Same questions, possibly different order.
	seen := make(map[uuid.UUID]int, len(set))
	for _, q := range set {
		seen[q.ID]++
	}
	for _, q := range pool {
		require.Equal(t, 1, seen[q.ID], "question %s missing or duplicated", q.ID)
	}
}

func TestGetQuestionSetDoesNotMutatePool(t *testing.T) {
	pool := makePool(model.ExamTypeContinuousAssessment, 30)
	original := make([]uuid.UUID, len(pool))
	for i, q := range pool {
		original[i] = q.ID
	}

	bank := New(map[model.ExamType][]model.Question{
		model.ExamTypeContinuousAssessment: pool,
	})

	for i := 0; i < 20; i++ {
		_, err := bank.GetQuestionSet(model.ExamTypeContinuousAssessment)
		require.NoError(t, err)
	}

	for i, q := range pool {
		require.Equal(t, original[i], q.ID)
	}
}

func TestGetQuestionSetShufflesIndependently(t *testing.T) {
	pool := makePool(model.ExamTypeStandard, 70)
	bank := New(map[model.ExamType][]model.Question{
		model.ExamTypeStandard: pool,
	})

	// With 70 elements, ten identical consecutive shuffles are
	// astronomically unlikely. Count how many draws match the first.
	first, err := bank.GetQuestionSet(model.ExamTypeStandard)
	require.NoError(t, err)

	identical := 0
	for i := 0; i < 10; i++ {
		set, err := bank.GetQuestionSet(model.ExamTypeStandard)
		require.NoError(t, err)

		same := true
		for j := range set {
			if set[j].ID != first[j].ID {
				same = false
				break
			}
		}
		if same {
			identical++
		}
	}
	require.Less(t, identical, 10, "shuffle produced identical order every time")
}

func TestGetQuestionSetInvalidType(t *testing.T) {
	bank := New(map[model.ExamType][]model.Question{})

	_, err := bank.GetQuestionSet(model.ExamType("MIDTERM"))
	require.ErrorIs(t, err, ErrInvalidExamType)
}

func TestPoolSize(t *testing.T) {
	bank := New(map[model.ExamType][]model.Question{
		model.ExamTypeStandard:             makePool(model.ExamTypeStandard, 70),
		model.ExamTypeContinuousAssessment: makePool(model.ExamTypeContinuousAssessment, 30),
	})

	require.Equal(t, 70, bank.PoolSize(model.ExamTypeStandard))
	require.Equal(t, 30, bank.PoolSize(model.ExamTypeContinuousAssessment))
}
