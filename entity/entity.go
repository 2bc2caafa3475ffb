// Package entity defines the JSON envelope shared by every tripgate
// service and the helpers that write it.
package entity

import (
	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/logger"
)

// Msg is the standard API response envelope.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj,omitempty"`
}

// JSONMsg writes a response with the given status, success flag and message.
func JSONMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, Msg{
		Success: success,
		Msg:     msg,
	})
}

// JSONObj writes a successful response carrying obj.
func JSONObj(c *gin.Context, statusCode int, obj any) {
	c.JSON(statusCode, Msg{
		Success: true,
		Obj:     obj,
	})
}

// JSONErr writes a failure response with a fixed client-facing message.
// The underlying error goes to the log, never to the body.
func JSONErr(c *gin.Context, statusCode int, msg string, err error) {
	if err != nil {
		logger.Warning(msg+":", err)
	}
	c.JSON(statusCode, Msg{
		Success: false,
		Msg:     msg,
	})
}
