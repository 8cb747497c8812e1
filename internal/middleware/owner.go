package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/service"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
	"github.com/orkestre/orkestre-api/pkg/response"
)

// ContextEstablishmentKey is the gin context key holding the establishment
// resolved by RequireEstablishmentOwner.
const ContextEstablishmentKey = "currentEstablishment"

// CurrentUser extracts the JWT claims set by the JWT middleware.
func CurrentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

// CurrentEstablishment extracts the establishment resolved by
// RequireEstablishmentOwner.
func CurrentEstablishment(c *gin.Context) (*models.Establishment, bool) {
	value, ok := c.Get(ContextEstablishmentKey)
	if !ok {
		return nil, false
	}
	est, ok := value.(*models.Establishment)
	return est, ok
}

// RequireEstablishmentOwner verifies that the authenticated user owns the
// establishment named in the :id path parameter. Foreign establishments
// return 404 rather than 403 so the route does not confirm their existence.
func RequireEstablishmentOwner(establishments *service.EstablishmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "establishment id must be an integer"))
			c.Abort()
			return
		}

		est, err := establishments.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if est.OwnerID != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "establishment not found"))
			c.Abort()
			return
		}

		c.Set(ContextEstablishmentKey, est)
		c.Next()
	}
}
