package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/roleboard/internal/attachments"
	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TaskGetter interface {
	Get(ctx context.Context, id string) (task.Task, error)
}

type TaskService interface {
	Assign(ctx context.Context, req task.AssignTaskRequest) (task.Task, error)
	Get(ctx context.Context, id string) (task.Task, error)
	UpdateFields(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Reassign(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
	ListByAssignee(ctx context.Context, userID string) ([]task.Task, error)
	List(ctx context.Context, status *task.Status) ([]task.Task, error)
}

type TasksHandler struct {
	tasks         TaskService
	publicBaseURL string
	log           *slog.Logger
}

func NewTasksHandler(tasks TaskService, publicBaseURL string, log *slog.Logger) *TasksHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TasksHandler{tasks: tasks, publicBaseURL: publicBaseURL, log: log}
}

func respondTaskError(ctx *gin.Context, log *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, "Task not found")
	case errors.Is(err, task.ErrAssigneeNotFound):
		RespondBadRequestCode(ctx, "assignee_not_found", "Assigned user does not exist")
	case errors.Is(err, task.ErrInvalidStatus):
		RespondBadRequestCode(ctx, "invalid_status", "Status must be one of Pending, In Progress, Complete")
	case errors.Is(err, task.ErrMissingTitle):
		RespondBadRequestCode(ctx, "invalid_request", "Title is required")
	default:
		log.ErrorContext(ctx.Request.Context(), "task_op_failed", "err", err)
		RespondInternal(ctx, fallback)
	}
}

// canAccess reports whether u may read or change t: its assignee or any admin.
func canAccess(u user.User, t task.Task) bool {
	return u.IsAdmin() || t.AssignedTo == u.ID
}

func (h *TasksHandler) withURL(t task.Task) task.Task {
	return taskWithURL(h.publicBaseURL, t)
}

func (h *TasksHandler) Assign(ctx *gin.Context) {
	var req task.AssignTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Assign(cctx, req)
	if err != nil {
		respondTaskError(ctx, h.log, err, "Could not assign task")
		return
	}

	ctx.JSON(http.StatusCreated, h.withURL(t))
}

// List is the admin view of every task, optionally one status column.
func (h *TasksHandler) List(ctx *gin.Context) {
	var status *task.Status
	if raw := ctx.Query("status"); raw != "" {
		s := task.Status(raw)
		if !s.IsValid() {
			respondTaskError(ctx, h.log, task.ErrInvalidStatus, "")
			return
		}
		status = &s
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	tasks, err := h.tasks.List(cctx, status)
	if err != nil {
		respondTaskError(ctx, h.log, err, "Could not list tasks")
		return
	}

	ctx.JSON(http.StatusOK, attachments.WithAbsoluteURLs(h.publicBaseURL, tasks))
}

func (h *TasksHandler) MyTasks(ctx *gin.Context) {
	me, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	tasks, err := h.tasks.ListByAssignee(cctx, me.ID)
	if err != nil {
		respondTaskError(ctx, h.log, err, "Could not list tasks")
		return
	}

	ctx.JSON(http.StatusOK, attachments.WithAbsoluteURLs(h.publicBaseURL, tasks))
}

// loadAccessible fetches the task named in the path and checks the caller
// may touch it. It writes the error response itself and returns false.
func loadAccessible(cctx context.Context, ctx *gin.Context, tasks TaskGetter, log *slog.Logger) (user.User, task.Task, bool) {
	me, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return user.User{}, task.Task{}, false
	}

	t, err := tasks.Get(cctx, ctx.Param("id"))
	if err != nil {
		respondTaskError(ctx, log, err, "Could not load task")
		return user.User{}, task.Task{}, false
	}

	if !canAccess(me, t) {
		RespondForbidden(ctx, "You can only access your own tasks")
		return user.User{}, task.Task{}, false
	}
	return me, t, true
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	_, t, ok := loadAccessible(cctx, ctx, h.tasks, h.log)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, h.withURL(t))
}

// Update changes the supplied fields. Moving the task to another user is
// admin only.
func (h *TasksHandler) Update(ctx *gin.Context) {
	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}
	if req.IsEmpty() {
		RespondBadRequestCode(ctx, "invalid_request", "No fields to update")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	me, t, ok := loadAccessible(cctx, ctx, h.tasks, h.log)
	if !ok {
		return
	}

	var (
		updated task.Task
		err     error
	)

	if req.AssignedTo != nil {
		if !me.IsAdmin() {
			RespondForbidden(ctx, "Only admins can reassign tasks")
			return
		}
		updated, err = h.tasks.Reassign(cctx, t.ID, req.Patch())
	} else {
		updated, err = h.tasks.UpdateFields(cctx, t.ID, req.Patch())
	}

	if err != nil {
		respondTaskError(ctx, h.log, err, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, h.withURL(updated))
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.tasks.Delete(cctx, ctx.Param("id")); err != nil {
		respondTaskError(ctx, h.log, err, "Could not delete task")
		return
	}

	RespondMessage(ctx, http.StatusOK, "Task deleted")
}
