// Package assignment creates, updates, moves and removes tasks. The task's
// assignee is the only stored link between a task and a user; user task
// lists are read back from it.
package assignment

import (
	"context"
	"strings"

	"github.com/geocoder89/roleboard/internal/domain/task"
)

type Store interface {
	Assign(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f task.Filter) ([]task.Task, error)
}

type Service struct {
	tasks Store
}

func NewService(tasks Store) *Service {
	return &Service{tasks: tasks}
}

// Assign creates a Pending task for an existing user.
func (s *Service) Assign(ctx context.Context, req task.AssignTaskRequest) (task.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return task.Task{}, task.ErrMissingTitle
	}
	return s.tasks.Assign(ctx, task.NewFromAssignRequest(req))
}

func (s *Service) Get(ctx context.Context, id string) (task.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// UpdateFields changes status, title, description or deadline. Any
// AssignedTo in p is ignored; moving a task goes through Reassign.
func (s *Service) UpdateFields(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	p.AssignedTo = nil
	return s.update(ctx, id, p)
}

// Reassign applies p including a new assignee in one store write. Repeating
// it with the same target leaves the task unchanged apart from UpdatedAt.
func (s *Service) Reassign(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	return s.update(ctx, id, p)
}

func (s *Service) update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	if p.Status != nil && !p.Status.IsValid() {
		return task.Task{}, task.ErrInvalidStatus
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return task.Task{}, task.ErrMissingTitle
		}
		p.Title = &title
	}
	return s.tasks.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}

func (s *Service) ListByAssignee(ctx context.Context, userID string) ([]task.Task, error) {
	return s.tasks.List(ctx, task.Filter{AssignedTo: &userID})
}

func (s *Service) ListByStatus(ctx context.Context, status task.Status) ([]task.Task, error) {
	if !status.IsValid() {
		return nil, task.ErrInvalidStatus
	}

	out, err := s.tasks.List(ctx, task.Filter{Status: &status})
	if err != nil {
		return nil, err
	}

	task.SortForStatus(status, out)
	return out, nil
}

// List returns every task, or the status board when status is set.
func (s *Service) List(ctx context.Context, status *task.Status) ([]task.Task, error) {
	if status != nil {
		return s.ListByStatus(ctx, *status)
	}
	return s.tasks.List(ctx, task.Filter{})
}
