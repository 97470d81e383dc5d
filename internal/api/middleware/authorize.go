package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
)

// Rule grants access to routes matching Method and Pattern.
// Pattern is a gin route template, matched exactly or, when it ends in
// "/*", as a prefix. An empty Method matches any method.
// A rule with no Roles and Public unset admits any authenticated caller.
type Rule struct {
	Method  string
	Pattern string
	Public  bool
	Roles   []string
}

func (r Rule) matches(method, route string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		return route == prefix || strings.HasPrefix(route, prefix+"/")
	}
	return route == r.Pattern
}

func (r Rule) allows(role string) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Policy is an ordered rule list; the first matching rule decides.
type Policy []Rule

// Lookup returns the rule for a request, or false when nothing matches.
func (p Policy) Lookup(method, route string) (Rule, bool) {
	for _, r := range p {
		if r.matches(method, route) {
			return r, true
		}
	}
	return Rule{}, false
}

func public(method, pattern string) Rule { return Rule{Method: method, Pattern: pattern, Public: true} }

func authenticated(method, pattern string) Rule { return Rule{Method: method, Pattern: pattern} }

func roles(method, pattern string, rs ...string) Rule {
	return Rule{Method: method, Pattern: pattern, Roles: rs}
}

const (
	get       = http.MethodGet
	post      = http.MethodPost
	put       = http.MethodPut
	del       = http.MethodDelete
	anyMethod = ""
)

// DefaultPolicy is the access matrix for every route the API registers.
func DefaultPolicy() Policy {
	const (
		applicant = models.RoleApplicant
		employer  = models.RoleEmployer
		admin     = models.RoleAdmin
	)
	return Policy{
		// pages, assets, health checks
		public(get, "/"),
		public(get, "/home"),
		public(get, "/jobs"),
		public(get, "/jobs/:id"),
		public(get, "/login"),
		public(get, "/register"),
		public(get, "/ping"),
		public(get, "/health"),
		public(anyMethod, "/css/*"),
		public(anyMethod, "/js/*"),
		public(anyMethod, "/images/*"),
		public(get, "/favicon.ico"),

		public(anyMethod, "/auth/*"),
		public(post, "/users/register"),

		// jobs
		roles(get, "/job/employer", employer),
		roles(get, "/job/recommended", applicant),
		roles(get, "/job/:id/applications", employer, admin),
		roles(put, "/job/applications/:appId/status", employer),
		public(get, "/job"),
		public(get, "/job/:id"),
		public(get, "/job/user/:userId"),
		roles(post, "/job", employer),
		roles(put, "/job/:id", employer),
		roles(del, "/job/:id", employer, admin),

		// applications
		roles(get, "/applications/count", applicant, admin),
		authenticated(get, "/applications/:id"),
		roles(anyMethod, "/applications/*", applicant),

		// users and roles
		authenticated(anyMethod, "/users/me"),
		roles(post, "/users/me/resume", applicant),
		roles(get, "/users", admin),
		roles(get, "/users/email/:email", admin),
		roles(post, "/role", admin),
		authenticated(get, "/role/:name"),

		// reporting
		roles(anyMethod, "/dashboard/user/*", applicant),
		roles(anyMethod, "/dashboard/employer/*", employer),
		roles(anyMethod, "/dashboard/admin/*", admin),
		roles(get, "/analytics/employer", employer, admin),
		roles(get, "/analytics/applicant", applicant),

		roles(anyMethod, "/admin/*", admin),

		authenticated(get, "/ws/notifications"),
		authenticated(get, "/notifications"),
	}
}

// Authorize enforces p once per request against the matched route.
// Routes no rule covers require an authenticated caller.
func Authorize(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			// unmatched; gin answers 404
			c.Next()
			return
		}

		rule, ok := p.Lookup(c.Request.Method, route)
		if ok && rule.Public {
			c.Next()
			return
		}

		principal, authed := PrincipalFrom(c)
		if !authed {
			abortWith(c, utils.E(utils.CodeUnauthorized, "Authorize", "authentication required", nil))
			return
		}
		if ok && !rule.allows(principal.Role) {
			abortWith(c, utils.E(utils.CodeForbidden, "Authorize", "access denied", nil))
			return
		}
		c.Next()
	}
}

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func abortWith(c *gin.Context, err error) {
	msg := http.StatusText(utils.HTTPStatus(err))
	var ae *utils.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{Code: utils.CodeOf(err), Message: msg})
}
