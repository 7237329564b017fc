package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/roleboard/internal/assignment"
	"github.com/geocoder89/roleboard/internal/attachments"
	"github.com/geocoder89/roleboard/internal/auth"
	"github.com/geocoder89/roleboard/internal/auth/revocation"
	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/credentials"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/http/handlers"
	"github.com/geocoder89/roleboard/internal/http/middlewares"
	"github.com/geocoder89/roleboard/internal/notifications"
	"github.com/geocoder89/roleboard/internal/observability"
	"github.com/geocoder89/roleboard/internal/stats"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

// Dependencies is built once in main and shared by every request.
type Dependencies struct {
	Config config.Config
	Log    *slog.Logger

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	JWT         *auth.Manager
	Revocations revocation.Store
	Notifier    notifications.Notifier

	Users       *credentials.Service
	Tasks       *assignment.Service
	Attachments *attachments.Manager
	Stats       *stats.Aggregator

	// UploadRoot is the directory served under /uploads, normally the
	// attachment DiskStore's Dir. Empty falls back to Config.UploadDir.
	UploadRoot string

	ReadyChecks map[string]handlers.Pinger

	// AuthLimiter throttles login and password reset per IP, UploadLimiter
	// throttles attachment uploads per user. nil builds the defaults.
	AuthLimiter   *middlewares.RateLimiter
	UploadLimiter *middlewares.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(deps.Prom.GinHandleMiddleware())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	// ops
	health := handlers.NewHealthHandler(deps.ReadyChecks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	uploadRoot := deps.UploadRoot
	if uploadRoot == "" {
		uploadRoot = cfg.UploadDir
	}
	if uploadRoot != "" {
		r.Static("/uploads", uploadRoot)
	}

	limiter := deps.AuthLimiter
	if limiter == nil {
		limiter = middlewares.NewRateLimiter(10, time.Minute)
	}
	uploadLimiter := deps.UploadLimiter
	if uploadLimiter == nil {
		uploadLimiter = middlewares.NewRateLimiter(30, time.Minute)
	}

	authMW := middlewares.NewAuthMiddleware(deps.JWT, deps.Revocations, deps.Users)
	requireAdmin := middlewares.RequireRole(user.RoleAdmin)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT, deps.Revocations, deps.Notifier, deps.Prom, cfg.FrontendURL, log)
	usersHandler := handlers.NewUsersHandler(deps.Users, log)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks, cfg.PublicBaseURL, log)
	attachmentsHandler := handlers.NewAttachmentsHandler(deps.Tasks, deps.Attachments, cfg.PublicBaseURL, log)
	dashboardHandler := handlers.NewDashboardHandler(deps.Stats, cfg.PublicBaseURL, log)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		limited := authGroup.Group("", limiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON())
		limited.POST("/login", authHandler.Login)
		limited.POST("/forgot-password", authHandler.ForgotPassword)
		limited.PUT("/reset-password/:token", authHandler.ResetPassword)

		authGroup.POST("/logout", authMW.RequireAuth(), authHandler.Logout)
	}

	protected := api.Group("", authMW.RequireAuth())

	profile := protected.Group("/profile", middlewares.RequireJSON())
	{
		profile.GET("", usersHandler.GetProfile)
		profile.PUT("", usersHandler.UpdateProfile)
	}

	users := protected.Group("/users", requireAdmin, middlewares.RequireJSON())
	{
		users.POST("", usersHandler.Create)
		users.GET("", usersHandler.List)
		users.PUT("/:id", usersHandler.Update)
		users.DELETE("/:id", usersHandler.Delete)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.POST("/assign", requireAdmin, middlewares.RequireJSON(), tasksHandler.Assign)
		tasks.GET("", requireAdmin, tasksHandler.List)
		tasks.GET("/my-tasks", tasksHandler.MyTasks)
		tasks.GET("/:id", tasksHandler.Get)
		tasks.PUT("/:id", middlewares.RequireJSON(), tasksHandler.Update)
		tasks.DELETE("/:id", requireAdmin, tasksHandler.Delete)

		maxUpload := cfg.UploadMaxBytes
		if maxUpload <= 0 {
			maxUpload = 10 << 20
		}
		tasks.POST("/:id/upload",
			uploadLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
			middlewares.RequireContentType("multipart/form-data"),
			middlewares.MaxBodyBytes(maxUpload+uploadOverhead),
			attachmentsHandler.Upload,
		)
		tasks.DELETE("/:id/attachment", attachmentsHandler.Delete)
	}

	dashboard := protected.Group("/dashboard", requireAdmin)
	{
		dashboard.GET("/admin-stats", dashboardHandler.AdminStats)
		dashboard.GET("/users", dashboardHandler.Users)
		dashboard.GET("/pending-tasks", dashboardHandler.PendingTasks())
		dashboard.GET("/in-progress-tasks", dashboardHandler.InProgressTasks())
		dashboard.GET("/completed-tasks", dashboardHandler.CompletedTasks())
		dashboard.GET("/task-distribution", dashboardHandler.TaskDistribution)
		dashboard.GET("/top-performers", dashboardHandler.TopPerformers)
	}

	return r
}
