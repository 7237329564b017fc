// Package attachments stores one uploaded file per task and keeps the task's
// reference to it in step with what is on disk.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/google/uuid"
)

// PublicPrefix is the path files are served under and the prefix of every
// stored reference.
const PublicPrefix = "/uploads/"

var ErrNoAttachment = errors.New("task has no attachment")

type TaskStore interface {
	GetByID(ctx context.Context, id string) (task.Task, error)
	SetAttachment(ctx context.Context, id, ref string) (task.Task, string, error)
}

type Manager struct {
	tasks    TaskStore
	files    FileStore
	maxBytes int64
	log      *slog.Logger
	newID    func() string
}

func NewManager(tasks TaskStore, files FileStore, maxBytes int64, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		tasks:    tasks,
		files:    files,
		maxBytes: maxBytes,
		log:      log,
		newID:    uuid.NewString,
	}
}

// Upload saves r as the task's attachment. The previous file, if any, is
// removed once the new reference is stored.
func (m *Manager) Upload(ctx context.Context, taskID, filename string, r io.Reader) (task.Task, error) {
	if _, err := m.tasks.GetByID(ctx, taskID); err != nil {
		return task.Task{}, err
	}

	name := m.newID() + "-" + SanitizeFilename(filename)

	if err := m.files.Save(name, r, m.maxBytes); err != nil {
		return task.Task{}, fmt.Errorf("save attachment: %w", err)
	}

	t, prev, err := m.tasks.SetAttachment(ctx, taskID, PublicPrefix+name)
	if err != nil {
		if rmErr := m.files.Remove(name); rmErr != nil {
			m.log.Error("attachment_cleanup_failed", "task_id", taskID, "file", name, "err", rmErr)
		}
		return task.Task{}, err
	}

	if old := NameFromRef(prev); old != "" && old != name {
		if err := m.files.Remove(old); err != nil {
			m.log.Warn("attachment_previous_remove_failed", "task_id", taskID, "file", old, "err", err)
		}
	}

	return t, nil
}

// Delete clears the task's reference and removes the file behind it. Once the
// reference is cleared the delete has happened; a file that cannot be removed
// is logged and left behind.
func (m *Manager) Delete(ctx context.Context, taskID string) (task.Task, error) {
	t, err := m.tasks.GetByID(ctx, taskID)
	if err != nil {
		return task.Task{}, err
	}
	if t.Attachment == "" {
		return task.Task{}, ErrNoAttachment
	}

	t, prev, err := m.tasks.SetAttachment(ctx, taskID, "")
	if err != nil {
		return task.Task{}, err
	}

	if name := NameFromRef(prev); name != "" {
		if err := m.files.Remove(name); err != nil {
			m.log.WarnContext(ctx, "attachment_remove_failed", "task_id", taskID, "file", name, "err", err)
		}
	}
	return t, nil
}

// SanitizeFilename drops any directory part of a client supplied name and
// replaces whitespace with underscores.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}

// NameFromRef maps a stored reference back to its file name. Absolute URLs
// are accepted when their path sits under PublicPrefix; anything else yields "".
func NameFromRef(ref string) string {
	if ref == "" {
		return ""
	}

	p := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		p = u.Path
	}

	if !strings.HasPrefix(p, PublicPrefix) {
		return ""
	}

	name := strings.TrimPrefix(p, PublicPrefix)
	if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return ""
	}
	return name
}

// Absolute resolves a stored reference against baseURL. References that
// already carry a scheme are returned untouched.
func Absolute(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}

// WithAbsoluteURLs returns a copy of tasks with attachment references resolved.
func WithAbsoluteURLs(baseURL string, tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		t.Attachment = Absolute(baseURL, t.Attachment)
		out[i] = t
	}
	return out
}
