package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yoockh/jobber/config"
	"github.com/yoockh/jobber/internal/repositories/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTAccessTTL:        time.Hour,
		JWTRefreshTTL:       24 * time.Hour,
		RateLimitEnabled:    true,
		RateLimitMaxBuckets: 1000,
		JobCacheTTL:         time.Minute,
	}
}

type client struct {
	t   *testing.T
	h   http.Handler
	ip  string
	tok string
}

func newClient(t *testing.T, cfg *config.Config) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	a, err := New(cfg, Infra{Repos: memory.New()}, log, WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, a.Start(ctx))

	return &client{t: t, h: a.Router, ip: "203.0.113.10"}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", c.ip)
	if c.tok != "" {
		req.Header.Set("Authorization", "Bearer "+c.tok)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (c *client) register(username, role string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/users/register", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
}

func (c *client) login(username string) {
	c.t.Helper()
	c.tok = ""
	w := c.do(http.MethodPost, "/auth/login", map[string]string{"username": username, "password": "secret123"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](c.t, w)
	assert.Equal(c.t, "Bearer", body["tokenType"])
	c.tok = body["accessToken"].(string)
}

func TestApplyAndCountEndToEnd(t *testing.T) {
	c := newClient(t, testConfig())

	c.register("acme", "EMPLOYER")
	c.register("alice", "APPLICANT")

	c.login("acme")
	var jobIDs []int64
	for i := 1; i <= 5; i++ {
		w := c.do(http.MethodPost, "/job", map[string]any{
			"title":       fmt.Sprintf("Engineer %d", i),
			"description": "Java, Spring Boot and PostgreSQL",
			"location":    "Remote",
			"salary":      5000,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		jobIDs = append(jobIDs, int64(decode[map[string]any](t, w)["id"].(float64)))
	}
	require.Equal(t, int64(5), jobIDs[4])

	c.login("alice")
	w := c.do(http.MethodPost, "/applications/apply", map[string]any{"jobId": 5, "coverLetter": "Hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/applications/count?username=alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"PENDING":1,"ACCEPTED":0,"REJECTED":0}`, w.Body.String())

	w = c.do(http.MethodPost, "/applications/apply", map[string]any{"jobId": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "You have already applied for this job.", decode[map[string]any](t, w)["message"])
}

func TestEmployerReviewsApplication(t *testing.T) {
	c := newClient(t, testConfig())
	c.register("acme", "EMPLOYER")
	c.register("globex", "EMPLOYER")
	c.register("alice", "APPLICANT")

	c.login("acme")
	w := c.do(http.MethodPost, "/job", map[string]any{"title": "Backend"})
	require.Equal(t, http.StatusCreated, w.Code)
	jobID := int64(decode[map[string]any](t, w)["id"].(float64))

	c.login("alice")
	w = c.do(http.MethodPost, "/applications/apply", map[string]any{"jobId": jobID})
	require.Equal(t, http.StatusCreated, w.Code)
	appID := int64(decode[map[string]any](t, w)["id"].(float64))
	statusPath := "/job/applications/" + strconv.FormatInt(appID, 10) + "/status"

	// applicants are stopped by the policy before reaching the service
	w = c.do(http.MethodPut, statusPath, map[string]string{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	c.login("globex")
	w = c.do(http.MethodPut, statusPath, map[string]string{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	c.login("acme")
	w = c.do(http.MethodPut, statusPath, map[string]string{"status": "ACCEPTED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ACCEPTED", decode[map[string]any](t, w)["status"])

	w = c.do(http.MethodGet, "/analytics/employer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	an := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), an["acceptedApplications"])

	c.login("alice")
	w = c.do(http.MethodGet, "/analytics/applicant?startDate=2000-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decode[map[string]any](t, w)["successRate"])

	w = c.do(http.MethodGet, "/analytics/applicant?startDate=01-01-2000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccessPolicy(t *testing.T) {
	c := newClient(t, testConfig())
	c.register("alice", "APPLICANT")

	cases := []struct {
		name   string
		token  bool
		method string
		path   string
		want   int
	}{
		{"public job list", false, http.MethodGet, "/job", http.StatusOK},
		{"public page", false, http.MethodGet, "/jobs", http.StatusOK},
		{"missing job", false, http.MethodGet, "/job/42", http.StatusNotFound},
		{"profile needs token", false, http.MethodGet, "/users/me", http.StatusUnauthorized},
		{"unknown route", false, http.MethodGet, "/nope", http.StatusNotFound},
		{"profile", true, http.MethodGet, "/users/me", http.StatusOK},
		{"admin dashboard", true, http.MethodGet, "/dashboard/admin", http.StatusForbidden},
		{"employer jobs", true, http.MethodGet, "/job/employer", http.StatusForbidden},
		{"post job", true, http.MethodPost, "/job", http.StatusForbidden},
		{"user listing", true, http.MethodGet, "/users", http.StatusForbidden},
		{"own dashboard", true, http.MethodGet, "/dashboard/user", http.StatusOK},
		{"recommendations", true, http.MethodGet, "/job/recommended", http.StatusOK},
	}

	c.login("alice")
	tok := c.tok
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c.tok = ""
			if tc.token {
				c.tok = tok
			}
			w := c.do(tc.method, tc.path, nil)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestInvalidTokenIsTreatedAsAnonymous(t *testing.T) {
	c := newClient(t, testConfig())
	c.tok = "not-a-jwt"

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/job", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/users/me", nil).Code)
}

func TestAdminCannotSelfRegister(t *testing.T) {
	c := newClient(t, testConfig())
	w := c.do(http.MethodPost, "/users/register", map[string]any{
		"username": "mallory", "email": "m@example.com", "password": "secret123", "role": "ADMIN",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	c := newClient(t, testConfig())
	c.ip = "198.51.100.7"

	for i := 0; i < 5; i++ {
		w := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "ghost", "password": "x"})
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	w := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "ghost", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "Too many login attempts. Please try again in 1 minute.", decode[map[string]string](t, w)["error"])

	// another client is unaffected
	c.ip = "198.51.100.8"
	w = c.do(http.MethodPost, "/auth/login", map[string]string{"username": "ghost", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// general traffic from the throttled client still flows
	c.ip = "198.51.100.7"
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/job", nil).Code)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	c := newClient(t, testConfig())
	c.register("alice", "")

	w := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	refresh := body["refreshToken"].(string)
	access := body["accessToken"].(string)

	w = c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": access})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c.tok = decode[map[string]any](t, w)["accessToken"].(string)

	w = c.do(http.MethodGet, "/auth/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	validated := decode[map[string]any](t, w)
	assert.Equal(t, "APPLICANT", validated["role"])
	assert.Equal(t, false, validated["shouldRefresh"])

	// refresh tokens do not authenticate API calls
	c.tok = refresh
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/users/me", nil).Code)
}

func TestValidateFlagsShortLivedToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTAccessTTL = 5 * time.Minute
	c := newClient(t, cfg)
	c.register("alice", "")
	c.login("alice")

	w := c.do(http.MethodGet, "/auth/validate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, true, body["shouldRefresh"])
	assert.LessOrEqual(t, body["expiresIn"].(float64), float64(300))
}
