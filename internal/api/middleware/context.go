package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/auth"
)

// Context keys set by Authenticate.
const (
	KeyUserID    = "user_id"
	KeyUsername  = "username"
	KeyRole      = "role"
	KeyPrincipal = "principal"
	KeyToken     = "token"
	KeyRequestID = "request_id"
)

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok && p.UserID > 0
}

func setPrincipal(c *gin.Context, p auth.Principal, raw string) {
	c.Set(KeyPrincipal, p)
	c.Set(KeyUserID, p.UserID)
	c.Set(KeyUsername, p.Username)
	c.Set(KeyRole, p.Role)
	c.Set(KeyToken, raw)
}
