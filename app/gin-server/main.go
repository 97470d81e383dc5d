package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/jobber/config"
	"github.com/yoockh/jobber/internal/api/handlers"
	"github.com/yoockh/jobber/internal/app"
	"github.com/yoockh/jobber/internal/logger"
	"github.com/yoockh/jobber/internal/mailer"
	"github.com/yoockh/jobber/internal/providers/llm"
	"github.com/yoockh/jobber/internal/repositories/memory"
	mongorepo "github.com/yoockh/jobber/internal/repositories/mongo"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/storage"
	"github.com/yoockh/jobber/internal/workers"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra := app.Infra{HealthChecks: map[string]handlers.HealthCheck{}}

	// Relational store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("STORE_DRIVER=memory: data is not persisted")
		infra.Repos = memory.New()
	default:
		db, err := config.OpenPostgres(cfg.PostgresURI)
		if err != nil {
			return err
		}
		if err := config.Migrate(db); err != nil {
			return err
		}
		log.Info("PostgreSQL connected")
		infra.Repos = pgrepo.New(db)
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		infra.HealthChecks["postgres"] = func(ctx context.Context) error { return sqlDB.PingContext(ctx) }
	}

	// Redis: job cache, notification stream, live feed, limiter stats
	if rdb, err := config.OpenRedis(ctx, cfg.RedisAddr); err != nil {
		log.WithError(err).Warn("Redis unavailable; caching and notifications disabled")
	} else {
		log.Info("Redis connected")
		infra.Redis = rdb
		defer infra.Redis.Close()
		infra.HealthChecks["redis"] = func(ctx context.Context) error { return infra.Redis.Ping(ctx).Err() }
	}

	// Mongo: notification outbox
	if mc, err := config.OpenMongo(ctx, cfg.MongoURI); err != nil {
		log.WithError(err).Warn("MongoDB unavailable; notifications disabled")
	} else {
		db := mc.Database(cfg.MongoDB)
		if err := config.EnsureNotificationIndexes(ctx, db); err != nil {
			log.WithError(err).Warn("mongo index setup failed")
		}
		log.Info("MongoDB connected")
		infra.Notifications = mongorepo.NewNotificationRepo(db)
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mc.Disconnect(c)
		}()
		infra.HealthChecks["mongo"] = func(ctx context.Context) error { return mc.Ping(ctx, nil) }
	}

	// Resume storage and text extraction
	if cfg.GCSBucket != "" {
		up, err := storage.NewGCSUploader(ctx, cfg.GCSBucket, true)
		if err != nil {
			log.WithError(err).Warn("GCS unavailable; resume upload disabled")
		} else {
			defer up.Close()
			infra.Uploader = up
		}
	}
	if cfg.VertexProject != "" {
		ex, err := llm.NewVertexGemini(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel)
		if err != nil {
			log.WithError(err).Warn("Vertex unavailable; resume skill extraction disabled")
		} else {
			defer ex.Close()
			infra.Extractor = ex
		}
	}

	a, err := app.New(cfg, infra, log)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	if infra.Redis != nil && infra.Notifications != nil {
		pool := &workers.NotificationWorkerPool{
			Redis:      infra.Redis,
			Outbox:     infra.Notifications,
			Mailer:     newMailer(cfg, log),
			NumWorkers: cfg.NotificationWorkers,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMailer(cfg *config.Config, log *logrus.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		return mailer.NewLogMailer(log)
	}
	m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.WithError(err).Warn("SMTP misconfigured; emails will only be logged")
		return mailer.NewLogMailer(log)
	}
	return m
}
