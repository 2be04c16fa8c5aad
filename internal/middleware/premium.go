package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/response"
)

// RequireFeature gates a route group behind a feature. An unauthenticated
// request gets 401 with the login path a client should send the user to;
// an authenticated free account hitting a premium feature gets 403 with the
// feature tag and the upgrade path.
func RequireFeature(feature model.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFailWithFields(c, http.StatusUnauthorized, response.ErrTokenRequired, map[string]string{
				"redirect": "/login",
			})
			return
		}

		if !model.CanAccess(claims.Subscription, feature) {
			response.AbortFailWithFields(c, http.StatusForbidden, response.ErrPremiumRequired, map[string]string{
				"feature": string(feature),
				"upgrade": "/pricing",
			})
			return
		}

		c.Next()
	}
}
