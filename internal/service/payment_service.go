package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/repository"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentSettled  = errors.New("payment has already been reviewed")
	ErrInvalidSettle   = errors.New("invalid settlement status")
)

// PaymentService handles transfer confirmations: students submit them,
// admins review them. A rejected confirmation is removed outright so the
// student can resubmit.
type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	log         zerolog.Logger
}

func NewPaymentService(paymentRepo *repository.PaymentRepository, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		log:         log.With().Str("component", "payment_service").Logger(),
	}
}

// Submit records a student's transfer confirmation in the pending state.
func (s *PaymentService) Submit(ctx context.Context, userID uuid.UUID, userEmail string, req *model.SubmitPaymentRequest) (*model.Payment, error) {
	payment := &model.Payment{
		UserID:        userID,
		UserEmail:     userEmail,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Status:        model.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("user_id", userID.String()).
		Float64("amount", payment.Amount).
		Msg("Payment confirmation submitted")
	return payment, nil
}

// History returns the student's own confirmations, newest first.
func (s *PaymentService) History(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}

// Status reports the student's effective payment standing: the status of
// the most recently reviewed confirmation, or pending when one awaits
// review, or empty when nothing was submitted.
func (s *PaymentService) Status(ctx context.Context, userID uuid.UUID) (model.PaymentStatus, float64, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	if len(payments) == 0 {
		return "", 0, nil
	}

	// Lists are newest first; a complete settlement wins over anything
	// later resubmitted.
	for _, p := range payments {
		if p.Status == model.PaymentStatusComplete {
			return p.Status, 0, nil
		}
	}
	latest := payments[0]
	return latest.Status, latest.Balance, nil
}

// ListPending returns confirmations awaiting admin review.
func (s *PaymentService) ListPending(ctx context.Context) ([]model.Payment, error) {
	return s.paymentRepo.ListByStatus(ctx, model.PaymentStatusPending)
}

// ListAll returns every confirmation on record.
func (s *PaymentService) ListAll(ctx context.Context) ([]model.Payment, error) {
	return s.paymentRepo.ListAll(ctx)
}

// Confirm settles a pending confirmation as complete or partial. A
// partial settlement carries the outstanding balance.
func (s *PaymentService) Confirm(ctx context.Context, id uuid.UUID, req *model.ConfirmPaymentRequest) (*model.Payment, error) {
	payment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusPending {
		return nil, ErrPaymentSettled
	}

	balance := 0.0
	switch req.Status {
	case model.PaymentStatusComplete:
	case model.PaymentStatusPartial:
		balance = req.Balance
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSettle, req.Status)
	}

	if err := s.paymentRepo.SettleStatus(ctx, id, req.Status, balance); err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}

	s.log.Info().
		Str("payment_id", id.String()).
		Str("status", string(req.Status)).
		Float64("balance", balance).
		Msg("Payment settled")
	return s.get(ctx, id)
}

// Reject removes a pending confirmation entirely.
func (s *PaymentService) Reject(ctx context.Context, id uuid.UUID) error {
	payment, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if payment.Status != model.PaymentStatusPending {
		return ErrPaymentSettled
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	s.log.Info().
		Str("payment_id", id.String()).
		Str("user_id", payment.UserID.String()).
		Msg("Payment confirmation rejected")
	return nil
}

func (s *PaymentService) get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
