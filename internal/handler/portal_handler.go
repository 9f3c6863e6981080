package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulumai/exam-portal/internal/exam"
	"github.com/zulumai/exam-portal/internal/middleware"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/questionbank"
	"github.com/zulumai/exam-portal/internal/response"
	"github.com/zulumai/exam-portal/internal/service"
	"github.com/zulumai/exam-portal/internal/validator"
)

// PortalHandler handles the student-facing exam flow.
type PortalHandler struct {
	presenter      *service.SessionPresenter
	accountService *service.AccountService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(presenter *service.SessionPresenter, accountService *service.AccountService) *PortalHandler {
	return &PortalHandler{
		presenter:      presenter,
		accountService: accountService,
	}
}

type startExamRequest struct {
	ExamType string `json:"exam_type" binding:"required"`
}

type answerRequest struct {
	Question int `json:"question" binding:"min=0"`
	Option   int `json:"option" binding:"min=0"`
}

type keyRequest struct {
	Key string `json:"key" binding:"required,len=1"`
}

type navigateRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// StartExam godoc
// POST /api/v1/portal/exam/start
// Begins a new exam session with a freshly shuffled question set.
func (h *PortalHandler) StartExam(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	claims := middleware.GetClaims(c)

	var req startExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	examType, err := model.ParseExamType(req.ExamType)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"exam_type": err.Error()})
		return
	}

	view, err := h.presenter.StartExam(c.Request.Context(), userID, claims.Email, examType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamDisabled):
			response.Fail(c, http.StatusForbidden, response.ErrExamDisabled)
		case errors.Is(err, service.ErrSessionActive):
			response.Fail(c, http.StatusConflict, response.ErrExamInProgress)
		case errors.Is(err, questionbank.ErrInvalidExamType):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// GetSession godoc
// GET /api/v1/portal/exam/session
// Returns the caller's in-progress session state for rendering.
func (h *PortalHandler) GetSession(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.presenter.GetSessionView(userID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Answer godoc
// POST /api/v1/portal/exam/answer
// Selects an option for a question. Reselecting overwrites.
func (h *PortalHandler) Answer(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req answerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.presenter.SelectAnswer(userID, req.Question, req.Option); err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Key godoc
// POST /api/v1/portal/exam/key
// Applies a keyboard shortcut: a-d select options, n/p move the cursor.
func (h *PortalHandler) Key(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req keyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cursor, err := h.presenter.HandleKey(userID, req.Key)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cursor": cursor})
}

// Navigate godoc
// POST /api/v1/portal/exam/navigate
// Moves the cursor by a relative offset, clamped to the question set.
func (h *PortalHandler) Navigate(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req navigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cursor, err := h.presenter.Navigate(userID, req.Delta)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cursor": cursor})
}

// Submit godoc
// POST /api/v1/portal/exam/submit
// Finalizes the caller's session and returns the scored summary.
func (h *PortalHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	summary, err := h.presenter.Submit(c.Request.Context(), userID)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// Summary godoc
// GET /api/v1/portal/exam/summary
// Returns and discards the summary of a session that ended by expiry.
func (h *PortalHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	summary, err := h.presenter.PopSummary(userID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoSummary)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// Results godoc
// GET /api/v1/portal/results
// Returns the caller's recorded exam history, newest first.
func (h *PortalHandler) Results(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.accountService.Results(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

func (h *PortalHandler) failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
	case errors.Is(err, exam.ErrOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerOutOfRange)
	case errors.Is(err, exam.ErrNotActive), errors.Is(err, exam.ErrAlreadyFinalized):
		response.Fail(c, http.StatusConflict, response.ErrExamFinished)
	case errors.Is(err, service.ErrUnknownKey):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownKey)
	case errors.Is(err, service.ErrNoSummary):
		response.Fail(c, http.StatusNotFound, response.ErrNoSummary)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
