package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zulumai/exam-portal/internal/model"
)

// PaymentRepository handles payment confirmation data access.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a new pending payment.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO payments (user_id, user_email, transaction_id, amount, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, submitted_at`,
		p.UserID, p.UserEmail, p.TransactionID, p.Amount, model.PaymentStatusPending,
	).Scan(&p.ID, &p.SubmittedAt)
}

// GetByID retrieves a single payment.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p := &model.Payment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, user_email, transaction_id, amount, balance, status, submitted_at, verified_at
		 FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.UserEmail, &p.TransactionID, &p.Amount, &p.Balance, &p.Status, &p.SubmittedAt, &p.VerifiedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByUser retrieves a user's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	return r.list(ctx,
		`SELECT id, user_id, user_email, transaction_id, amount, balance, status, submitted_at, verified_at
		 FROM payments WHERE user_id = $1 ORDER BY submitted_at DESC`, userID)
}

// ListByStatus retrieves payments in a given review state, newest first.
func (r *PaymentRepository) ListByStatus(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	return r.list(ctx,
		`SELECT id, user_id, user_email, transaction_id, amount, balance, status, submitted_at, verified_at
		 FROM payments WHERE status = $1 ORDER BY submitted_at DESC`, status)
}

// ListAll retrieves every payment, newest first.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]model.Payment, error) {
	return r.list(ctx,
		`SELECT id, user_id, user_email, transaction_id, amount, balance, status, submitted_at, verified_at
		 FROM payments ORDER BY submitted_at DESC`)
}

// SettleStatus marks a pending payment as complete or partial and stamps
// the verification time.
func (r *PaymentRepository) SettleStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, balance float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $1, balance = $2, verified_at = $3 WHERE id = $4`,
		status, balance, time.Now(), id)
	return err
}

// Delete removes a payment. Admin reject action.
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return err
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserEmail, &p.TransactionID, &p.Amount,
			&p.Balance, &p.Status, &p.SubmittedAt, &p.VerifiedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
