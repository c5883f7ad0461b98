package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-matcher/internal/infra/admintoken"
)

const adminClaimsKey = "admin_claims"

// TokenValidator verifies admin bearer tokens.
type TokenValidator interface {
	Validate(token string) (admintoken.Claims, error)
}

func adminAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			abortWithError(c, NewHTTPError(http.StatusForbidden, "admin_disabled", "admin endpoints are disabled", nil))
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authorization header", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		claims, err := validator.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

func getAdminClaims(c *gin.Context) (admintoken.Claims, bool) {
	value, ok := c.Get(adminClaimsKey)
	if !ok {
		return admintoken.Claims{}, false
	}
	claims, ok := value.(admintoken.Claims)
	return claims, ok
}
