package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/api/handlers"
	"github.com/yoockh/jobber/internal/api/middleware"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/views"
)

type Deps struct {
	Log    *logrus.Logger
	Tokens auth.Codec
	Policy middleware.Policy

	// nil disables rate limiting
	RateLimit *middleware.RateLimitConfig

	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Resume       *handlers.ResumeHandler
	Role         *handlers.RoleHandler
	Job          *handlers.JobHandler
	Application  *handlers.ApplicationHandler
	Report       *handlers.ReportHandler
	Notification *handlers.NotificationHandler
	View         *handlers.ViewHandler
	Health       *handlers.HealthHandler
}

// NewRouter builds the engine with the middleware chain and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Policy == nil {
		d.Policy = middleware.DefaultPolicy()
	}

	r.Use(middleware.RequestLogger(d.Log), middleware.Recovery(d.Log))
	if d.RateLimit != nil {
		r.Use(middleware.RateLimit(*d.RateLimit))
	}
	r.Use(middleware.Authenticate(d.Tokens, d.Log), middleware.Authorize(d.Policy))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.APIError{Code: "NOT_FOUND", Message: "route not found"})
	})

	// Health-ish
	r.GET("/ping", d.Health.Ping)
	r.GET("/health", d.Health.Health)

	// Pages
	r.SetHTMLTemplate(views.Templates())
	r.StaticFS("/css", http.FS(views.CSS()))
	r.GET("/", d.View.Home)
	r.GET("/home", d.View.Home)
	r.GET("/jobs", d.View.Jobs)
	r.GET("/jobs/:id", d.View.Job)
	r.GET("/login", d.View.Login)
	r.GET("/register", d.View.Register)

	authGroup := r.Group("/auth")
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/refresh", d.Auth.Refresh)
	authGroup.POST("/logout", d.Auth.Logout)
	authGroup.GET("/validate", d.Auth.Validate)

	users := r.Group("/users")
	users.POST("/register", d.User.Register)
	users.GET("", d.User.List)
	users.GET("/email/:email", d.User.ByEmail)
	users.GET("/me", d.User.Me)
	users.PUT("/me", d.User.UpdateMe)
	users.POST("/me/resume", d.Resume.Upload)

	roles := r.Group("/role")
	roles.POST("", d.Role.Create)
	roles.GET("/:name", d.Role.Get)

	jobs := r.Group("/job")
	jobs.GET("", d.Job.List)
	jobs.GET("/employer", d.Job.Mine)
	jobs.GET("/recommended", d.Job.Recommended)
	jobs.GET("/user/:userId", d.Job.ByUser)
	jobs.GET("/:id", d.Job.Get)
	jobs.POST("", d.Job.Create)
	jobs.PUT("/:id", d.Job.Update)
	jobs.DELETE("/:id", d.Job.Delete)
	jobs.GET("/:id/applications", d.Job.Applications)
	jobs.PUT("/applications/:appId/status", d.Job.SetApplicationStatus)

	apps := r.Group("/applications")
	apps.POST("/apply", d.Application.Apply)
	apps.GET("/me", d.Application.Mine)
	apps.GET("/count", d.Application.Count)
	apps.GET("/filter", d.Application.Filter)
	apps.GET("/:id", d.Application.Get)
	apps.DELETE("/:id", d.Application.Cancel)

	r.GET("/analytics/employer", d.Report.EmployerAnalytics)
	r.GET("/analytics/applicant", d.Report.ApplicantAnalytics)

	r.GET("/dashboard/user", d.Report.UserDashboard)
	r.GET("/dashboard/employer", d.Report.EmployerDashboard)
	r.GET("/dashboard/admin", d.Report.AdminDashboard)

	admin := r.Group("/admin")
	admin.GET("/users", d.User.List)
	admin.DELETE("/users/:id", d.User.AdminDelete)
	admin.GET("/applications", d.Application.All)
	admin.DELETE("/jobs/:id", d.Job.Delete)
	admin.PUT("/jobs/:id/status", d.Job.SetStatus)

	r.GET("/notifications", d.Notification.List)

	// WebSocket
	r.GET("/ws/notifications", d.Notification.Stream)
}
