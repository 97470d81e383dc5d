package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/auth"
)

var (
	gateSkipExact = map[string]struct{}{
		"/": {}, "/home": {}, "/login": {}, "/register": {},
		"/ping": {}, "/health": {}, "/favicon.ico": {}, "/users/register": {},
	}
	gateSkipPrefix = []string{"/css/", "/js/", "/images/", "/swagger-ui/", "/v3/api-docs/", "/auth/"}
	// GET /job* is public except these, which read the caller's identity.
	gateJobPersonal = map[string]struct{}{"/job/employer": {}, "/job/recommended": {}}
)

func skipGate(method, path string) bool {
	if _, ok := gateSkipExact[path]; ok {
		return true
	}
	for _, p := range gateSkipPrefix {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	if method == http.MethodGet && strings.HasPrefix(path, "/job") {
		path = strings.TrimSuffix(path, "/")
		_, personal := gateJobPersonal[path]
		return !personal && !strings.HasSuffix(path, "/applications")
	}
	return false
}

// Authenticate resolves the caller from a bearer token. It never aborts:
// requests without a valid token continue unauthenticated and the
// authorization policy decides what they may reach.
func Authenticate(tokens auth.Codec, l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipGate(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			l.WithError(err).WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("rejected bearer token")
			c.Next()
			return
		}
		if claims.TokenType != auth.Access {
			l.WithField("path", c.Request.URL.Path).Warn("refresh token used as access token")
			c.Next()
			return
		}

		setPrincipal(c, claims.Principal(), raw)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// browsers cannot set headers on websocket upgrades
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return strings.TrimSpace(c.Query("access_token"))
	}
	return ""
}
