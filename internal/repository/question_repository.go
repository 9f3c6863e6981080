package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zulumai/exam-portal/internal/model"
)

// QuestionRepository handles question pool data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExamType retrieves the full question pool for an exam type.
func (r *QuestionRepository) ListByExamType(ctx context.Context, t model.ExamType) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_type, question_text, options, correct_option
		 FROM questions
		 WHERE exam_type = $1
		 ORDER BY created_at ASC`, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamType, &q.Text, &q.Options, &q.CorrectOption); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateBatch inserts a batch of questions for one exam type. Used by the
// seeding command.
func (r *QuestionRepository) CreateBatch(ctx context.Context, t model.ExamType, questions []model.SeedQuestion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, q := range questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (exam_type, question_text, options, correct_option)
			 VALUES ($1, $2, $3, $4)`,
			t, q.Text, q.Options, q.CorrectOption,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CountByExamType returns the pool size for an exam type.
func (r *QuestionRepository) CountByExamType(ctx context.Context, t model.ExamType) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_type = $1`, t).Scan(&count)
	return count, err
}

// DeleteByExamType clears a pool before re-seeding.
func (r *QuestionRepository) DeleteByExamType(ctx context.Context, t model.ExamType) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE exam_type = $1`, t)
	return err
}
