package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/internal/resputil"
	"github.com/talent-lab/sourcedash/internal/util"
)

// AuthProtected verifies the bearer access token and attaches the identity to
// the request context.
func AuthProtected(tm *util.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		t := strings.Split(authHeader, " ")
		if len(t) < 2 || t[0] != "Bearer" {
			resputil.HTTPError(c, http.StatusUnauthorized, "Invalid token", resputil.TokenInvalid)
			c.Abort()
			return
		}

		token, err := tm.CheckAccessToken(t[1])
		if err != nil {
			resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), resputil.TokenExpired)
			c.Abort()
			return
		}

		util.SetJWTContext(c, token)
		c.Next()
	}
}

// RoleRequired rejects authenticated callers whose role is outside the
// permitted set.
func RoleRequired(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := util.GetToken(c)
		if !ok {
			resputil.HTTPError(c, http.StatusUnauthorized, "Not authenticated", resputil.TokenInvalid)
			c.Abort()
			return
		}
		for _, role := range roles {
			if token.Role == role {
				c.Next()
				return
			}
		}
		resputil.HTTPError(c, http.StatusForbidden, "Insufficient role", resputil.UserNotAllowed)
		c.Abort()
	}
}

// AuthAdmin guards the admin route group.
func AuthAdmin() gin.HandlerFunc {
	return RoleRequired(model.RoleAdmin)
}
