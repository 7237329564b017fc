package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/roleboard/internal/assignment"
	"github.com/geocoder89/roleboard/internal/attachments"
	"github.com/geocoder89/roleboard/internal/auth"
	"github.com/geocoder89/roleboard/internal/auth/revocation"
	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/credentials"
	"github.com/geocoder89/roleboard/internal/db"
	httpx "github.com/geocoder89/roleboard/internal/http"
	"github.com/geocoder89/roleboard/internal/http/handlers"
	"github.com/geocoder89/roleboard/internal/http/middlewares"
	"github.com/geocoder89/roleboard/internal/janitor"
	"github.com/geocoder89/roleboard/internal/notifications"
	"github.com/geocoder89/roleboard/internal/observability"
	"github.com/geocoder89/roleboard/internal/redisclient"
	"github.com/geocoder89/roleboard/internal/repo/memory"
	"github.com/geocoder89/roleboard/internal/repo/postgres"
	"github.com/geocoder89/roleboard/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type userStore interface {
	credentials.Store
	stats.UserLister
	db.AdminStore
}

type taskStore interface {
	assignment.Store
	attachments.TaskStore
	stats.TaskLister
}

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	readyChecks := map[string]handlers.Pinger{}

	// stores
	var (
		users userStore
		tasks taskStore
	)

	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		mem := memory.NewDB()
		users = memory.NewUsersRepo(mem)
		tasks = memory.NewTasksRepo(mem)
	default:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		schemaCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
		err = db.EnsureSchema(schemaCtx, pool)
		cancel()
		if err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}

		users = postgres.NewUsersRepo(pool, prom)
		tasks = postgres.NewTasksRepo(pool, prom)
		readyChecks["db"] = pool
	}

	jan := janitor.New(janitor.Config{Interval: time.Minute}, log)

	// revocation list for logout and spent reset tokens
	var revoked revocation.Store
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		revoked = revocation.NewRedisStore(rdb)
		readyChecks["redis"] = rdb
	} else {
		mem := revocation.NewMemoryStore()
		jan.Register("revocations", mem)
		revoked = mem
	}

	// mail
	var notifier notifications.Notifier = notifications.NewLogNotifier(log)
	if cfg.SMTPHost != "" {
		notifier = notifications.NewEmailNotifier(notifications.EmailConfig{
			SMTPHost:  cfg.SMTPHost,
			SMTPPort:  cfg.SMTPPort,
			SMTPUser:  cfg.SMTPUser,
			SMTPPass:  cfg.SMTPPass,
			FromEmail: cfg.FromEmail,
		}, log)
	} else {
		log.Warn("SMTP_HOST not set; reset links are logged instead of mailed")
	}
	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	})

	files, err := attachments.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Error("upload dir unusable", "dir", cfg.UploadDir, "err", err)
		os.Exit(1)
	}
	log.Info("serving uploads", "dir", files.Dir())

	credSvc := credentials.NewService(users)

	seedCtx, cancel := config.WithTimeout(ctx, 5*time.Second)
	err = db.EnsureAdminUser(seedCtx, users, cfg)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	authLimiter := middlewares.NewRateLimiter(10, time.Minute)
	uploadLimiter := middlewares.NewRateLimiter(30, time.Minute)
	jan.Register("auth_rate_limiter", authLimiter)
	jan.Register("upload_rate_limiter", uploadLimiter)
	go jan.Run(ctx)

	router := httpx.NewRouter(httpx.Dependencies{
		Config:        cfg,
		Log:           log,
		Prom:          prom,
		Gatherer:      reg,
		JWT:           auth.NewManager(cfg.JWTSecret, cfg.SessionTTL, cfg.ResetTTL),
		Revocations:   revoked,
		Notifier:      notifier,
		Users:         credSvc,
		Tasks:         assignment.NewService(tasks),
		Attachments:   attachments.NewManager(tasks, files, cfg.UploadMaxBytes, log),
		Stats:         stats.NewAggregator(users, tasks),
		UploadRoot:    files.Dir(),
		ReadyChecks:   readyChecks,
		AuthLimiter:   authLimiter,
		UploadLimiter: uploadLimiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdown(log, srv, shutdownTracer)
}

func shutdown(log *slog.Logger, srv *http.Server, shutdownTracer func(context.Context) error) {
	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
