// Package middleware holds the gin middleware shared by the tripgate
// services: bearer authentication, role gating and request throttling.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/token"
)

// Context keys set by BearerAuth for downstream handlers.
const (
	CtxClaims = "claims"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// BearerAuth verifies the Authorization header against codec and stores the
// claims in the request context. The three authentication failure kinds stay
// distinct in the response: a missing credential, a malformed token and an
// expired token each get their own message.
func BearerAuth(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := token.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			entity.JSONMsg(c, http.StatusUnauthorized, false, "token is missing")
			c.Abort()
			return
		}

		claims, err := codec.Verify(tokenStr)
		if err != nil {
			entity.JSONMsg(c, http.StatusUnauthorized, false, authFailureMsg(err))
			c.Abort()
			return
		}

		c.Set(CtxClaims, claims)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

func authFailureMsg(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "token has expired"
	case errors.Is(err, token.ErrMissing):
		return "token is missing"
	default:
		return "invalid token"
	}
}

// GetClaims returns the verified claims BearerAuth stored on the context.
func GetClaims(c *gin.Context) *token.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*token.Claims)
	return claims
}
