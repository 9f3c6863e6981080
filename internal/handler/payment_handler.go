package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zulumai/exam-portal/internal/middleware"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/response"
	"github.com/zulumai/exam-portal/internal/service"
	"github.com/zulumai/exam-portal/internal/validator"
)

// PaymentHandler handles transfer confirmations on both sides of the
// review: students submit and track, admins settle or reject.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Submit godoc
// POST /api/v1/portal/payments
// Records the caller's transfer confirmation as pending review.
func (h *PaymentHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	claims := middleware.GetClaims(c)

	var req model.SubmitPaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payment, err := h.paymentService.Submit(c.Request.Context(), userID, claims.Email, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": payment})
}

// History godoc
// GET /api/v1/portal/payments
// Returns the caller's confirmations, newest first.
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	payments, err := h.paymentService.History(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

// Status godoc
// GET /api/v1/portal/payments/status
// Reports the caller's effective payment standing.
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status, balance, err := h.paymentService.Status(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  status,
		"balance": balance,
	})
}

// ─── Admin review ───────────────────────────────────────────────────

// ListPending godoc
// GET /api/v1/admin/payments/pending
func (h *PaymentHandler) ListPending(c *gin.Context) {
	payments, err := h.paymentService.ListPending(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

// ListAll godoc
// GET /api/v1/admin/payments
func (h *PaymentHandler) ListAll(c *gin.Context) {
	payments, err := h.paymentService.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

// Confirm godoc
// POST /api/v1/admin/payments/:id/confirm
// Settles a pending confirmation as complete or partial.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ConfirmPaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payment, err := h.paymentService.Confirm(c.Request.Context(), id, &req)
	if err != nil {
		h.failReviewError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": payment})
}

// Reject godoc
// DELETE /api/v1/admin/payments/:id
// Removes a pending confirmation so the student can resubmit.
func (h *PaymentHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.paymentService.Reject(c.Request.Context(), id); err != nil {
		h.failReviewError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func (h *PaymentHandler) failReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrPaymentSettled):
		response.Fail(c, http.StatusConflict, response.ErrPaymentSettled)
	case errors.Is(err, service.ErrInvalidSettle):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
