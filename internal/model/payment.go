package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enumerates the payment review states.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusComplete PaymentStatus = "complete"
)

// Payment represents a student's transfer confirmation awaiting admin review.
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	UserEmail     string        `json:"user_email"`
	TransactionID string        `json:"transaction_id"`
	Amount        float64       `json:"amount"`
	Balance       float64       `json:"balance"`
	Status        PaymentStatus `json:"status"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	VerifiedAt    *time.Time    `json:"verified_at,omitempty"`
}

// SubmitPaymentRequest is the payload for a student submitting a
// transfer confirmation.
type SubmitPaymentRequest struct {
	TransactionID string  `json:"transaction_id" binding:"required,min=4,max=64"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
}

// ConfirmPaymentRequest is the admin payload for settling a pending payment.
type ConfirmPaymentRequest struct {
	Status  PaymentStatus `json:"status" binding:"required,oneof=complete partial"`
	Balance float64       `json:"balance" binding:"omitempty,gte=0"`
}
