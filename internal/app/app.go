// Package app assembles services, handlers and middleware into a router.
package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/jobber/config"
	"github.com/yoockh/jobber/internal/api/handlers"
	"github.com/yoockh/jobber/internal/api/middleware"
	"github.com/yoockh/jobber/internal/api/routes"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/cache"
	"github.com/yoockh/jobber/internal/providers/llm"
	"github.com/yoockh/jobber/internal/ratelimit"
	mongorepo "github.com/yoockh/jobber/internal/repositories/mongo"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/storage"
)

// Infra holds the backing stores and clients. Only Repos is required.
type Infra struct {
	Repos         pgrepo.Repositories
	Redis         *redis.Client
	Notifications mongorepo.NotificationRepository
	Uploader      storage.Uploader
	Extractor     llm.TextExtractor
	HealthChecks  map[string]handlers.HealthCheck
}

type App struct {
	Router  *gin.Engine
	Buckets *ratelimit.Store
	Stats   *ratelimit.StatsQueue
	Roles   services.RoleService

	log *logrus.Logger
}

type Option func(*options)

type options struct {
	hashCost int
}

// WithHashCost lowers the bcrypt cost; used by tests.
func WithHashCost(cost int) Option {
	return func(o *options) { o.hashCost = cost }
}

func New(cfg *config.Config, in Infra, log *logrus.Logger, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if log == nil {
		log = logrus.New()
	}

	tokens, err := auth.NewCodec(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		return nil, err
	}

	var jobCache cache.Cache
	if in.Redis != nil {
		jobCache = cache.NewRedisCache(in.Redis, "jobber:")
	}

	var notifier services.Notifier
	var notifications services.NotificationService
	if in.Notifications != nil && in.Redis != nil {
		notifications = services.NewNotificationService(in.Notifications, in.Redis)
		notifier = notifications
	}

	r := in.Repos
	jobSvc := services.NewJobService(r.Jobs, r.Users, jobCache, cfg.JobCacheTTL, log)

	userOpts := []services.UserOption{services.WithUserLogger(log), services.WithJobCacheEvicter(jobSvc)}
	if o.hashCost > 0 {
		userOpts = append(userOpts, services.WithHashCost(o.hashCost))
	}

	roleSvc := services.NewRoleService(r.Roles)
	userSvc := services.NewUserService(r.Users, r.Roles, userOpts...)
	authSvc := services.NewAuthService(userSvc, tokens)
	appSvc := services.NewApplicationService(r.Applications, r.Jobs, r.Users, notifier, log)
	analyticsSvc := services.NewAnalyticsService(r.Jobs, r.Applications, r.Users)
	dashboardSvc := services.NewDashboardService(r.Users, r.Jobs, r.Applications)
	resumeSvc := services.NewResumeService(userSvc, in.Uploader, in.Extractor, log)

	deps := routes.Deps{
		Log:    log,
		Tokens: tokens,
		Policy: middleware.DefaultPolicy(),

		Auth:         handlers.NewAuthHandler(authSvc),
		User:         handlers.NewUserHandler(userSvc),
		Resume:       handlers.NewResumeHandler(resumeSvc),
		Role:         handlers.NewRoleHandler(roleSvc),
		Job:          handlers.NewJobHandler(jobSvc, appSvc),
		Application:  handlers.NewApplicationHandler(appSvc),
		Report:       handlers.NewReportHandler(analyticsSvc, dashboardSvc),
		Notification: handlers.NewNotificationHandler(notifications, in.Redis, log),
		View:         handlers.NewViewHandler(jobSvc),
		Health:       handlers.NewHealthHandler(in.HealthChecks),
	}

	var (
		buckets *ratelimit.Store
		stats   *ratelimit.StatsQueue
	)
	if cfg.RateLimitEnabled {
		buckets = ratelimit.NewStore(ratelimit.WithMaxEntries(cfg.RateLimitMaxBuckets))
		rl := &middleware.RateLimitConfig{
			Store:      buckets,
			Classifier: ratelimit.NewClassifier(cfg.RateLimits),
			Log:        log,
		}
		if cfg.RateLimitStats && in.Redis != nil {
			stats = ratelimit.NewStatsQueue(ratelimit.NewRedisStats(in.Redis), 0)
			rl.Stats = stats
		}
		deps.RateLimit = rl
	}

	return &App{
		Router:  routes.NewRouter(deps),
		Buckets: buckets,
		Stats:   stats,
		Roles:   roleSvc,
		log:     log,
	}, nil
}

// Start seeds the default roles and runs the bucket janitor and the stats
// recorder until ctx ends.
func (a *App) Start(ctx context.Context) error {
	if err := a.Roles.EnsureDefaults(ctx); err != nil {
		return err
	}
	if a.Buckets != nil {
		a.Buckets.StartJanitor(ctx)
	}
	if a.Stats != nil {
		a.Stats.Start(ctx, func(err error) {
			a.log.WithError(err).Debug("rate limit stats not recorded")
		})
	}
	return nil
}
