package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zulumai/exam-portal/internal/model"
)

// ResultRepository handles exam result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert writes a single result row. The session id is the primary key,
// so replays are no-ops (write-once).
func (r *ResultRepository) Insert(ctx context.Context, res *model.ExamResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results (session_id, user_id, user_email, exam_type, score, percentage, passed, answers, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.UserID, res.UserEmail, res.ExamType,
		res.Score, res.Percentage, res.Passed, answers, res.RecordedAt,
	)
	return err
}

// ListByUser retrieves a user's results, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, user_id, user_email, exam_type, score, percentage, passed, answers, recorded_at
		 FROM exam_results
		 WHERE user_id = $1
		 ORDER BY recorded_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// ListAll retrieves a page of recorded results, newest first.
func (r *ResultRepository) ListAll(ctx context.Context, limit, offset int) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, user_id, user_email, exam_type, score, percentage, passed, answers, recorded_at
		 FROM exam_results
		 ORDER BY recorded_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// CountAll returns the total number of recorded results.
func (r *ResultRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_results`).Scan(&count)
	return count, err
}

// DeleteByUser purges all of a user's results. Admin reset action.
func (r *ResultRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_results WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type resultRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanResults(rows resultRows) ([]model.ExamResult, error) {
	var results []model.ExamResult
	for rows.Next() {
		var (
			res     model.ExamResult
			answers []byte
		)
		if err := rows.Scan(&res.SessionID, &res.UserID, &res.UserEmail, &res.ExamType,
			&res.Score, &res.Percentage, &res.Passed, &answers, &res.RecordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
