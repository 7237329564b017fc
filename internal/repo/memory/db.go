package memory

import (
	"sync"
	"time"

	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/geocoder89/roleboard/internal/domain/user"
)

// DB holds users and tasks under one lock so cross-record checks (does the
// assignee exist?) and the write that depends on them happen atomically.
type DB struct {
	mu sync.RWMutex

	users     map[string]user.User
	userOrder []string

	tasks     map[string]task.Task
	taskOrder []string

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users: make(map[string]user.User),
		tasks: make(map[string]task.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// taskIDsFor derives a user's task list from task assignees. Caller holds mu.
func (db *DB) taskIDsFor(userID string) []string {
	ids := make([]string, 0)
	for _, id := range db.taskOrder {
		if db.tasks[id].AssignedTo == userID {
			ids = append(ids, id)
		}
	}
	return ids
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
