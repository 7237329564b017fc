package memory

import (
	"context"

	"github.com/geocoder89/roleboard/internal/domain/task"
)

type TasksRepo struct {
	db *DB
}

func NewTasksRepo(db *DB) *TasksRepo {
	return &TasksRepo{db: db}
}

// Assign stores t after confirming its assignee exists. The check and the
// insert share the write lock.
func (r *TasksRepo) Assign(_ context.Context, t task.Task) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[t.AssignedTo]; !ok {
		return task.Task{}, task.ErrAssigneeNotFound
	}

	r.db.tasks[t.ID] = t
	r.db.taskOrder = append(r.db.taskOrder, t.ID)
	return t, nil
}

func (r *TasksRepo) GetByID(_ context.Context, id string) (task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// Update applies p. A changed AssignedTo must name an existing user.
func (r *TasksRepo) Update(_ context.Context, id string, p task.Patch) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	if p.AssignedTo != nil && *p.AssignedTo != t.AssignedTo {
		if _, ok := r.db.users[*p.AssignedTo]; !ok {
			return task.Task{}, task.ErrAssigneeNotFound
		}
	}

	p.Apply(&t, r.db.now())
	r.db.tasks[id] = t
	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.db.tasks, id)
	r.db.taskOrder = removeID(r.db.taskOrder, id)
	return nil
}

// List returns matching tasks in insertion order.
func (r *TasksRepo) List(_ context.Context, f task.Filter) ([]task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, id := range r.db.taskOrder {
		t := r.db.tasks[id]
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// SetAttachment records ref and returns the reference it replaced, if any.
func (r *TasksRepo) SetAttachment(_ context.Context, id, ref string) (task.Task, string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return task.Task{}, "", task.ErrNotFound
	}
	prev := t.Attachment
	t.Attachment = ref
	t.UpdatedAt = r.db.now()
	r.db.tasks[id] = t
	return t, prev, nil
}
