package destination

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/database/model"
	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/logger"
	"github.com/tripgate/tripgate/token"
)

// AdminGuard is the resource service's own enforcement point. It does not
// trust the gateway: the bearer token is re-verified here and the role must
// be Admin. Every failure collapses into one 403 so resource clients learn
// nothing about which part of the check failed; the cause is only logged.
func AdminGuard(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		reject := func(cause string) {
			logger.Debugf("admin guard rejected %s %s: %s", c.Request.Method, c.Request.URL.Path, cause)
			entity.JSONMsg(c, http.StatusForbidden, false, "admin token required")
			c.Abort()
		}

		tokenStr, err := token.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			reject("no bearer token")
			return
		}

		claims, err := codec.Verify(tokenStr)
		if err != nil {
			reject(err.Error())
			return
		}

		if claims.Role != model.RoleAdmin {
			reject("role is " + claims.Role)
			return
		}

		c.Next()
	}
}
