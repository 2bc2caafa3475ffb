package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/entity"
)

// RequireRole allows the request through only when the role BearerAuth put
// on the context is in the allow-list. An authenticated request with an
// unlisted role is 403, not 401.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		roleVal, exists := c.Get(CtxRole)
		if !exists {
			entity.JSONMsg(c, http.StatusUnauthorized, false, "token is missing")
			c.Abort()
			return
		}
		role, ok := roleVal.(string)
		if !ok || !allowed[role] {
			entity.JSONMsg(c, http.StatusForbidden, false, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}
