package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/api/middleware"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	_ = c.Error(err)
	c.JSON(status, APIError{
		Code:    utils.CodeOf(err),
		Message: http.StatusText(status),
	})
}

func requirePrincipal(c *gin.Context) (auth.Principal, bool) {
	if p, ok := middleware.PrincipalFrom(c); ok {
		return p, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return auth.Principal{}, false
}

func requireUserID(c *gin.Context) (int64, bool) {
	p, ok := requirePrincipal(c)
	return p.UserID, ok
}

func paramID(c *gin.Context, name, op string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid "+name, err))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any, op string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return false
	}
	return true
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name, op string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, name+" must be YYYY-MM-DD", err))
		return nil, false
	}
	return &t, true
}
