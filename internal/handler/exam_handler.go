package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/backend/internal/catalog"
	"github.com/quantprep/backend/internal/exam"
	"github.com/quantprep/backend/internal/middleware"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/response"
	"github.com/quantprep/backend/internal/service"
	"github.com/quantprep/backend/internal/validator"
)

// ExamHandler handles session lifecycle endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// StartPractice godoc
// POST /api/v1/exams/practice
// Starts an untimed practice session from the catalog filters.
func (h *ExamHandler) StartPractice(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartPracticeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user := &model.User{ID: claims.UserID, Subscription: claims.Subscription}
	e, err := h.examService.StartPractice(c.Request.Context(), user, req)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, sessionView(e))
}

// StartMock godoc
// POST /api/v1/exams/mock
// Starts a timed mock exam with the configured length and duration.
func (h *ExamHandler) StartMock(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user := &model.User{ID: claims.UserID, Subscription: claims.Subscription}
	e, err := h.examService.StartMock(c.Request.Context(), user)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, sessionView(e))
}

// SelectAnswer godoc
// POST /api/v1/exams/:sessionID/answer
// Records the answer for the session's current question. In a mock exam the
// correctness verdict is withheld until submission.
func (h *ExamHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessionID := c.Param("sessionID")
	answer, err := h.examService.SelectAnswer(c.Request.Context(), claims.UserID, sessionID, req.Option)
	if err != nil {
		failExamError(c, err)
		return
	}

	e, err := h.examService.Engine(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failExamError(c, err)
		return
	}

	body := gin.H{
		"question_id": answer.QuestionID,
		"selected":    answer.SelectedAnswer,
		"is_flagged":  answer.IsFlagged,
	}
	if e.SolutionRevealed(answer.QuestionID) {
		q := e.CurrentQuestion()
		body["is_correct"] = answer.IsCorrect
		body["correct_answer"] = q.CorrectAnswer
		body["solution_text"] = q.SolutionText
	}

	response.Success(c, http.StatusOK, body)
}

// ToggleFlag godoc
// POST /api/v1/exams/:sessionID/flag
// Flips the review flag on the session's current question.
func (h *ExamHandler) ToggleFlag(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	flagged, err := h.examService.ToggleFlag(c.Request.Context(), claims.UserID, c.Param("sessionID"))
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"flagged": flagged})
}

// Navigate godoc
// POST /api/v1/exams/:sessionID/navigate
// Moves the current-question pointer by direction or to an absolute index.
func (h *ExamHandler) Navigate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessionID := c.Param("sessionID")
	index, err := h.examService.Navigate(c.Request.Context(), claims.UserID, sessionID, req)
	if err != nil {
		failExamError(c, err)
		return
	}

	e, err := h.examService.Engine(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"index":    index,
		"question": e.CurrentQuestion().ForStudent(),
	})
}

// Submit godoc
// POST /api/v1/exams/:sessionID/submit
// Finalizes the session and returns its graded results. Submitting twice
// returns the same results.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.examService.Submit(c.Request.Context(), claims.UserID, c.Param("sessionID"))
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// State godoc
// GET /api/v1/exams/:sessionID/state
// Returns the session's current state for rendering or resuming. Questions
// are stripped of grading fields while the session is in progress.
func (h *ExamHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, err := h.examService.State(c.Request.Context(), claims.UserID, c.Param("sessionID"))
	if err != nil {
		failExamError(c, err)
		return
	}

	body := gin.H{
		"session_id": snap.SessionID,
		"mode":       snap.Mode,
		"state":      snap.State,
		"index":      snap.Index,
		"total":      len(snap.Questions),
		"answers":    sanitizedAnswers(snap),
	}
	if snap.State == model.SessionSubmitted {
		body["questions"] = snap.Questions
		body["results"] = snap.Results
	} else {
		body["questions"] = model.StripQuestions(snap.Questions)
		if snap.DurationSeconds > 0 {
			body["duration_seconds"] = snap.DurationSeconds
		}
	}

	response.Success(c, http.StatusOK, body)
}

// Results godoc
// GET /api/v1/exams/:sessionID/results
// Returns the graded results for a submitted session, falling back to the
// durable mirror when no local checkpoint exists.
func (h *ExamHandler) Results(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.examService.Results(c.Request.Context(), claims.UserID, c.Param("sessionID"))
	if err != nil {
		failExamError(c, err)
		return
	}
	if results == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// sessionView renders a freshly started or resumed session for the client.
func sessionView(e *exam.Engine) gin.H {
	body := gin.H{
		"session_id": e.SessionID(),
		"mode":       e.Mode(),
		"state":      e.State(),
		"index":      e.Index(),
		"total":      len(e.Questions()),
		"questions":  model.StripQuestions(e.Questions()),
	}
	if remaining := e.Remaining(); remaining > 0 {
		body["remaining_seconds"] = remaining
	}
	return body
}

// sanitizedAnswers hides correctness verdicts for an in-progress mock exam.
func sanitizedAnswers(snap *model.SessionSnapshot) []model.UserAnswer {
	if snap.Answers == nil {
		return []model.UserAnswer{}
	}
	answers := snap.Answers.Entries()
	if snap.State == model.SessionSubmitted || snap.ShowSolutions {
		return answers
	}
	for i := range answers {
		answers[i].IsCorrect = false
	}
	return answers
}

// failExamError maps service and engine errors to API error codes.
func failExamError(c *gin.Context, err error) {
	var premium *service.PremiumRequiredError
	switch {
	case errors.As(err, &premium):
		response.FailWithFields(c, http.StatusForbidden, response.ErrPremiumRequired, map[string]string{
			"feature": string(premium.Feature),
			"upgrade": "/pricing",
		})
	case errors.Is(err, catalog.ErrInsufficientPool):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInsufficientPool)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, exam.ErrSessionSubmitted):
		response.Fail(c, http.StatusConflict, response.ErrSessionSubmitted)
	case errors.Is(err, exam.ErrInvalidOption):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidOption)
	case errors.Is(err, exam.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrIndexOutOfRange)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
