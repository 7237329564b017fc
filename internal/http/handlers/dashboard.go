package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/roleboard/internal/attachments"
	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/stats"
	"github.com/gin-gonic/gin"
)

type StatsSource interface {
	AdminStats(ctx context.Context) (stats.AdminStats, error)
	Distribution(ctx context.Context) ([]stats.StatusCount, error)
	TopPerformers(ctx context.Context) ([]stats.Performer, error)
	Users(ctx context.Context) ([]user.User, error)
	TasksByStatus(ctx context.Context, status task.Status) ([]task.Task, error)
}

// DashboardHandler serves admin aggregates. Responses carry an ETag so the
// dashboard can poll cheaply.
type DashboardHandler struct {
	stats         StatsSource
	publicBaseURL string
	log           *slog.Logger
}

func NewDashboardHandler(s StatsSource, publicBaseURL string, log *slog.Logger) *DashboardHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardHandler{stats: s, publicBaseURL: publicBaseURL, log: log}
}

func (h *DashboardHandler) fail(ctx *gin.Context, op string, err error) {
	h.log.ErrorContext(ctx.Request.Context(), "dashboard_failed", "op", op, "err", err)
	RespondInternal(ctx, "Failed to fetch dashboard data")
}

func (h *DashboardHandler) AdminStats(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.stats.AdminStats(cctx)
	if err != nil {
		h.fail(ctx, "admin_stats", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *DashboardHandler) Users(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.stats.Users(cctx)
	if err != nil {
		h.fail(ctx, "users", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *DashboardHandler) tasksWithStatus(status task.Status) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.stats.TasksByStatus(cctx, status)
		if err != nil {
			h.fail(ctx, "tasks_by_status", err)
			return
		}

		RespondJSONWithETag(ctx, http.StatusOK, attachments.WithAbsoluteURLs(h.publicBaseURL, out))
	}
}

func (h *DashboardHandler) PendingTasks() gin.HandlerFunc {
	return h.tasksWithStatus(task.StatusPending)
}

func (h *DashboardHandler) InProgressTasks() gin.HandlerFunc {
	return h.tasksWithStatus(task.StatusInProgress)
}

func (h *DashboardHandler) CompletedTasks() gin.HandlerFunc {
	return h.tasksWithStatus(task.StatusComplete)
}

func (h *DashboardHandler) TaskDistribution(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.stats.Distribution(cctx)
	if err != nil {
		h.fail(ctx, "task_distribution", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *DashboardHandler) TopPerformers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.stats.TopPerformers(cctx)
	if err != nil {
		h.fail(ctx, "top_performers", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}
