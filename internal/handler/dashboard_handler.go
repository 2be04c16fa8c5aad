package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/backend/internal/catalog"
	"github.com/quantprep/backend/internal/middleware"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/response"
	"github.com/quantprep/backend/internal/service"
)

// Weak-area reporting thresholds.
const (
	weakAreaThreshold   = 60.0
	weakAreaMinAttempts = 3
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// DashboardHandler serves the user's performance dashboard from the
// durable result mirror.
type DashboardHandler struct {
	syncService *service.SyncService
	questions   []model.Question
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(syncService *service.SyncService, questions []model.Question) *DashboardHandler {
	return &DashboardHandler{syncService: syncService, questions: questions}
}

// History godoc
// GET /api/v1/dashboard/history?limit=
// Returns the user's mirrored results, newest first.
func (h *DashboardHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		limit = parsed
	}

	history := h.syncService.History(c.Request.Context(), claims.UserID, limit)
	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// Summary godoc
// GET /api/v1/dashboard/summary
// Returns lifetime aggregates: exam count, average score, accuracy.
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	summary := h.syncService.Summary(c.Request.Context(), claims.UserID)
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// Categories godoc
// GET /api/v1/dashboard/categories
// Returns per-subcategory correct/total tallies across all history.
func (h *DashboardHandler) Categories(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	perf := h.syncService.CategoryPerformance(c.Request.Context(), claims.UserID)
	response.Success(c, http.StatusOK, gin.H{"categories": perf})
}

// WeakAreas godoc
// GET /api/v1/dashboard/weak-areas
// Returns subcategories below the accuracy threshold, weakest first.
// Premium-gated in the router.
func (h *DashboardHandler) WeakAreas(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	weak := h.syncService.WeakAreas(c.Request.Context(), claims.UserID, weakAreaThreshold, weakAreaMinAttempts)
	response.Success(c, http.StatusOK, gin.H{"weak_areas": weak})
}

// WrongQuestions godoc
// GET /api/v1/dashboard/wrong-questions
// Returns the catalog questions the user has previously gotten wrong, with
// solutions, for review. Premium-gated in the router.
func (h *DashboardHandler) WrongQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ids := h.syncService.WrongAnswerIDs(c.Request.Context(), claims.UserID)
	questions := catalog.ByIDs(h.questions, ids)
	response.Success(c, http.StatusOK, gin.H{
		"questions": questions,
		"total":     len(questions),
	})
}
