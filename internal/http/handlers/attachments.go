package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/roleboard/internal/attachments"
	"github.com/geocoder89/roleboard/internal/config"
	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/gin-gonic/gin"
)

const attachmentField = "attachment"

type AttachmentManager interface {
	Upload(ctx context.Context, taskID, filename string, r io.Reader) (task.Task, error)
	Delete(ctx context.Context, taskID string) (task.Task, error)
}

type AttachmentsHandler struct {
	tasks         TaskGetter
	files         AttachmentManager
	publicBaseURL string
	log           *slog.Logger
}

func NewAttachmentsHandler(tasks TaskGetter, files AttachmentManager, publicBaseURL string, log *slog.Logger) *AttachmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AttachmentsHandler{tasks: tasks, files: files, publicBaseURL: publicBaseURL, log: log}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, attachments.ErrTooLarge)
}

// Upload stores the multipart field "attachment" on the task, replacing any
// earlier file.
func (h *AttachmentsHandler) Upload(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 30*time.Second)
	defer cancel()

	_, t, ok := loadAccessible(cctx, ctx, h.tasks, h.log)
	if !ok {
		return
	}

	fh, err := ctx.FormFile(attachmentField)
	if err != nil {
		if isTooLarge(err) {
			RespondTooLarge(ctx, "Attachment is too large")
			return
		}
		RespondBadRequest(ctx, "Missing file field \"attachment\"", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		RespondInternal(ctx, "Could not read upload")
		return
	}
	defer f.Close()

	updated, err := h.files.Upload(cctx, t.ID, fh.Filename, f)
	if err != nil {
		if isTooLarge(err) {
			RespondTooLarge(ctx, "Attachment is too large")
			return
		}
		respondTaskError(ctx, h.log, err, "Could not store attachment")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "File uploaded",
		"task":    taskWithURL(h.publicBaseURL, updated),
	})
}

func (h *AttachmentsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	_, t, ok := loadAccessible(cctx, ctx, h.tasks, h.log)
	if !ok {
		return
	}

	updated, err := h.files.Delete(cctx, t.ID)
	if err != nil {
		if errors.Is(err, attachments.ErrNoAttachment) {
			RespondBadRequestCode(ctx, "no_attachment", "No attachment to delete")
			return
		}
		respondTaskError(ctx, h.log, err, "Could not delete attachment")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted",
		"task":    updated,
	})
}

func taskWithURL(baseURL string, t task.Task) task.Task {
	t.Attachment = attachments.Absolute(baseURL, t.Attachment)
	return t
}
