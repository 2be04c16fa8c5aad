package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/backend/internal/catalog"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/response"
)

// CatalogHandler serves the read-only question catalog surface. The catalog
// itself is loaded once at startup and never changes while serving.
type CatalogHandler struct {
	questions []model.Question
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(questions []model.Question) *CatalogHandler {
	return &CatalogHandler{questions: questions}
}

// Browse godoc
// GET /api/v1/questions?sub_category=&difficulty=&mode=
// Lists catalog questions matching the filters, stripped of answers and
// solutions. Grading fields never leave the server outside a results view.
func (h *CatalogHandler) Browse(c *gin.Context) {
	criteria := catalog.Criteria{
		SubCategory: c.Query("sub_category"),
		Difficulty:  model.Difficulty(c.Query("difficulty")),
		Mode:        model.Mode(c.Query("mode")),
	}

	matched := catalog.Filter(h.questions, criteria)
	response.Success(c, http.StatusOK, gin.H{
		"questions": model.StripQuestions(matched),
		"total":     len(matched),
	})
}

// Meta godoc
// GET /api/v1/questions/meta
// Returns the filter vocabulary: distinct categories, subcategories, and
// difficulties present in the catalog, in first-seen order.
func (h *CatalogHandler) Meta(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"categories":     catalog.UniqueCategories(h.questions),
		"sub_categories": catalog.UniqueSubCategories(h.questions),
		"difficulties":   catalog.UniqueDifficulties(h.questions),
		"total":          len(h.questions),
	})
}

// Pricing godoc
// GET /api/v1/pricing
// Returns the feature matrix per subscription tier. Public so the upgrade
// page can render without an account.
func (h *CatalogHandler) Pricing(c *gin.Context) {
	features := []model.Feature{
		model.FeatureMockExam,
		model.FeatureUnlimitedPractice,
		model.FeatureHardQuestions,
		model.FeatureAIAnalytics,
	}

	matrix := make(map[string]map[string]bool, len(features))
	for _, f := range features {
		matrix[string(f)] = map[string]bool{
			string(model.SubscriptionFree):    model.CanAccess(model.SubscriptionFree, f),
			string(model.SubscriptionPremium): model.CanAccess(model.SubscriptionPremium, f),
		}
	}

	response.Success(c, http.StatusOK, gin.H{"features": matrix})
}
