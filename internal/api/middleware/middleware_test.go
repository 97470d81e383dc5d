package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/ratelimit"
)

func init() { gin.SetMode(gin.TestMode) }

func TestPolicyLookup(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		method, route string
		public        bool
		roles         []string
	}{
		{http.MethodGet, "/job", true, nil},
		{http.MethodGet, "/job/:id", true, nil},
		{http.MethodPost, "/job", false, []string{models.RoleEmployer}},
		{http.MethodDelete, "/job/:id", false, []string{models.RoleEmployer, models.RoleAdmin}},
		{http.MethodGet, "/job/employer", false, []string{models.RoleEmployer}},
		{http.MethodGet, "/applications/count", false, []string{models.RoleApplicant, models.RoleAdmin}},
		{http.MethodGet, "/applications/:id", false, nil},
		{http.MethodDelete, "/applications/:id", false, []string{models.RoleApplicant}},
		{http.MethodPut, "/admin/jobs/:id/status", false, []string{models.RoleAdmin}},
		{http.MethodGet, "/dashboard/employer", false, []string{models.RoleEmployer}},
		{http.MethodGet, "/css/*filepath", true, nil},
		{http.MethodPost, "/auth/login", true, nil},
	}
	for _, tc := range cases {
		rule, ok := p.Lookup(tc.method, tc.route)
		require.True(t, ok, "%s %s", tc.method, tc.route)
		assert.Equal(t, tc.public, rule.Public, "%s %s", tc.method, tc.route)
		assert.ElementsMatch(t, tc.roles, rule.Roles, "%s %s", tc.method, tc.route)
	}

	_, ok := p.Lookup(http.MethodGet, "/unlisted")
	assert.False(t, ok)
}

func TestRuleMatchesPrefix(t *testing.T) {
	r := Rule{Pattern: "/admin/*"}
	assert.True(t, r.matches(http.MethodGet, "/admin"))
	assert.True(t, r.matches(http.MethodDelete, "/admin/users/:id"))
	assert.False(t, r.matches(http.MethodGet, "/administrator"))

	r = Rule{Method: http.MethodPost, Pattern: "/job"}
	assert.False(t, r.matches(http.MethodGet, "/job"))
	assert.False(t, r.matches(http.MethodPost, "/job/:id"))
}

func newCodec(t *testing.T) auth.Codec {
	t.Helper()
	c, err := auth.NewCodec("k", time.Hour, 2*time.Hour)
	require.NoError(t, err)
	return c
}

func router(t *testing.T, codec auth.Codec, p Policy) *gin.Engine {
	t.Helper()
	log, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(Authenticate(codec, log), Authorize(p))
	ok := func(c *gin.Context) {
		pr, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"user": pr.Username})
	}
	r.GET("/open", ok)
	r.GET("/me", ok)
	r.GET("/boss/report", ok)
	r.GET("/job/:id", ok)
	r.GET("/ws", ok)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthorizeOutcomes(t *testing.T) {
	codec := newCodec(t)
	p := Policy{
		{Pattern: "/open", Public: true},
		{Pattern: "/boss/*", Roles: []string{models.RoleAdmin}},
		{Pattern: "/ws"},
	}
	r := router(t, codec, p)

	applicant, err := codec.Issue(auth.Principal{UserID: 1, Username: "alice", Role: models.RoleApplicant}, auth.Access)
	require.NoError(t, err)
	admin, err := codec.Issue(auth.Principal{UserID: 2, Username: "root", Role: models.RoleAdmin}, auth.Access)
	require.NoError(t, err)
	refresh, err := codec.Issue(auth.Principal{UserID: 2, Username: "root", Role: models.RoleAdmin}, auth.Refresh)
	require.NoError(t, err)

	get := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, get("/open", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/me", ""), "unmatched routes need a principal")
	assert.Equal(t, http.StatusOK, get("/me", applicant))
	assert.Equal(t, http.StatusForbidden, get("/boss/report", applicant))
	assert.Equal(t, http.StatusOK, get("/boss/report", admin))
	assert.Equal(t, http.StatusUnauthorized, get("/boss/report", refresh))
	assert.Equal(t, http.StatusUnauthorized, get("/boss/report", "garbage"))
}

func TestQueryTokenOnlyOnUpgrade(t *testing.T) {
	codec := newCodec(t)
	r := router(t, codec, Policy{{Pattern: "/ws"}})
	tok, err := codec.Issue(auth.Principal{UserID: 1, Username: "alice", Role: models.RoleApplicant}, auth.Access)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws?access_token="+tok, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/ws?access_token="+tok, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestSkipGate(t *testing.T) {
	assert.True(t, skipGate(http.MethodGet, "/css/app.css"))
	assert.True(t, skipGate(http.MethodPost, "/auth/login"))
	assert.True(t, skipGate(http.MethodGet, "/job/12"))
	assert.False(t, skipGate(http.MethodGet, "/job/employer"))
	assert.False(t, skipGate(http.MethodGet, "/job/12/applications"))
	assert.False(t, skipGate(http.MethodPost, "/job"))
	assert.False(t, skipGate(http.MethodGet, "/users/me"))
}

func TestRateLimitMiddleware(t *testing.T) {
	log, hook := test.NewNullLogger()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := ratelimit.NewStore(ratelimit.WithClock(func() time.Time { return now }))
	classes := ratelimit.NewClassifier(map[string]ratelimit.Override{
		ratelimit.ClassLogin: {Limit: 2, Window: time.Minute},
	})

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{Store: store, Classifier: classes, Log: log}))
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/css/app.css", func(c *gin.Context) { c.Status(http.StatusOK) })

	login := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		return serve(r, req)
	}

	assert.Equal(t, http.StatusOK, login("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, login("10.0.0.1").Code)

	w := login("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many login attempts. Please try again in 1 minute."}`, w.Body.String())
	assert.Equal(t, "rate limit exceeded", hook.LastEntry().Message)

	assert.Equal(t, http.StatusOK, login("10.0.0.2").Code)

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/css/app.css", nil)
		assert.Equal(t, http.StatusOK, serve(r, req).Code)
	}

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, login("10.0.0.1").Code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 12, retryAfterSeconds(12*time.Second))
	assert.Equal(t, 13, retryAfterSeconds(12*time.Second+time.Millisecond))
}

func TestRecoveryAnswers500(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(Recovery(log))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"INTERNAL","message":"internal server error"}`, w.Body.String())
	assert.Equal(t, "panic recovered", hook.LastEntry().Message)
}

func TestRequestLoggerLevelsAndRequestID(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/job/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/css/app.css", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/job/9", nil)
	req.Header.Set("X-Request-Id", "req-1")
	w := serve(r, req)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "/job/:id", entry.Data["route"])
	assert.Equal(t, "req-1", entry.Data["request_id"])

	w = serve(r, httptest.NewRequest(http.MethodGet, "/css/app.css", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

type eventLog struct {
	mu     sync.Mutex
	events []ratelimit.Event
}

func (l *eventLog) Record(_ context.Context, ev ratelimit.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) snapshot() []ratelimit.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ratelimit.Event(nil), l.events...)
}

func TestRateLimitStatsUseRouteTemplate(t *testing.T) {
	log, _ := test.NewNullLogger()
	rec := &eventLog{}
	q := ratelimit.NewStatsQueue(rec, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx, nil)

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Store:      ratelimit.NewStore(),
		Classifier: ratelimit.NewClassifier(nil),
		Stats:      q,
		Log:        log,
	}))
	r.GET("/job/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"123", "456"} {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/job/"+id, nil)).Code)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	for _, ev := range rec.snapshot() {
		assert.Equal(t, "/job/:id", ev.Route)
		assert.Equal(t, http.MethodGet, ev.Method)
		assert.Equal(t, ratelimit.ClassGeneral, ev.Class)
		assert.True(t, ev.Allowed)
	}
}
