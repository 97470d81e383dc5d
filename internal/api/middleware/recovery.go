package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/utils"
)

// Recovery logs panics with their stack and answers a generic 500.
func Recovery(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID, _ := c.Get(KeyRequestID)
			l.WithFields(logrus.Fields{
				"request_id": reqID,
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"panic":      rec,
				"stack":      string(debug.Stack()),
			}).Error("panic recovered")
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "internal server error",
			})
		}()
		c.Next()
	}
}
