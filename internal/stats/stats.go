// Package stats computes dashboard figures on demand from the user and task
// stores. Nothing is cached.
package stats

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/geocoder89/roleboard/internal/domain/user"
)

const (
	topPerformersLimit = 5
	unknownName        = "Unknown"
)

type UserLister interface {
	List(ctx context.Context, role *user.Role) ([]user.User, error)
}

type TaskLister interface {
	List(ctx context.Context, f task.Filter) ([]task.Task, error)
}

type AdminStats struct {
	TotalUsers      int `json:"totalUsers"`
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	OverdueTasks    int `json:"overdueTasks"`
	TasksToday      int `json:"tasksToday"`
	CompletionRate  int `json:"completionRate"`
}

type StatusCount struct {
	Status task.Status `json:"status"`
	Count  int         `json:"count"`
}

type Performer struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	CompletedTasks int    `json:"completedTasks"`
}

type Aggregator struct {
	users UserLister
	tasks TaskLister
	now   func() time.Time
	loc   *time.Location
}

func NewAggregator(users UserLister, tasks TaskLister) *Aggregator {
	return &Aggregator{
		users: users,
		tasks: tasks,
		now:   time.Now,
		loc:   time.Local,
	}
}

// WithClock returns a copy reading time from now and computing the day
// boundary in loc.
func (a *Aggregator) WithClock(now func() time.Time, loc *time.Location) *Aggregator {
	cp := *a
	cp.now = now
	cp.loc = loc
	return &cp
}

func (a *Aggregator) AdminStats(ctx context.Context) (AdminStats, error) {
	role := user.RoleUser
	users, err := a.users.List(ctx, &role)
	if err != nil {
		return AdminStats{}, err
	}

	tasks, err := a.tasks.List(ctx, task.Filter{})
	if err != nil {
		return AdminStats{}, err
	}

	now := a.now().In(a.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)

	out := AdminStats{
		TotalUsers: len(users),
		TotalTasks: len(tasks),
	}

	for _, t := range tasks {
		switch t.Status {
		case task.StatusComplete:
			out.CompletedTasks++
		case task.StatusPending:
			out.PendingTasks++
		case task.StatusInProgress:
			out.InProgressTasks++
		}
		if t.IsOverdue(now) {
			out.OverdueTasks++
		}
		if !t.CreatedAt.Before(midnight) {
			out.TasksToday++
		}
	}

	out.CompletionRate = CompletionRate(out.CompletedTasks, out.TotalTasks)
	return out, nil
}

// CompletionRate is completed/total as a rounded percentage, 0 for no tasks.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// Distribution counts tasks per status. Every status is present, in board order.
func (a *Aggregator) Distribution(ctx context.Context) ([]StatusCount, error) {
	tasks, err := a.tasks.List(ctx, task.Filter{})
	if err != nil {
		return nil, err
	}

	counts := make(map[task.Status]int, len(task.Statuses))
	for _, t := range tasks {
		counts[t.Status]++
	}

	out := make([]StatusCount, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out, nil
}

// TopPerformers ranks assignees by completed tasks. Ties keep the order in
// which the assignee first appears in the task store.
func (a *Aggregator) TopPerformers(ctx context.Context) ([]Performer, error) {
	done := task.StatusComplete
	tasks, err := a.tasks.List(ctx, task.Filter{Status: &done})
	if err != nil {
		return nil, err
	}

	users, err := a.users.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	order := make([]string, 0)
	counts := make(map[string]int)
	for _, t := range tasks {
		if t.AssignedTo == "" {
			continue
		}
		if _, seen := counts[t.AssignedTo]; !seen {
			order = append(order, t.AssignedTo)
		}
		counts[t.AssignedTo]++
	}

	ranked := make([]Performer, 0, len(order))
	for _, id := range order {
		p := Performer{UserID: id, Name: unknownName, CompletedTasks: counts[id]}
		if u, ok := byID[id]; ok {
			p.Name = u.Name
			p.Email = u.Email
		}
		ranked = append(ranked, p)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompletedTasks > ranked[j].CompletedTasks
	})

	if len(ranked) > topPerformersLimit {
		ranked = ranked[:topPerformersLimit]
	}
	return ranked, nil
}

// Users lists accounts with role user.
func (a *Aggregator) Users(ctx context.Context) ([]user.User, error) {
	role := user.RoleUser
	return a.users.List(ctx, &role)
}

// TasksByStatus is the dashboard list for one status column.
func (a *Aggregator) TasksByStatus(ctx context.Context, status task.Status) ([]task.Task, error) {
	out, err := a.tasks.List(ctx, task.Filter{Status: &status})
	if err != nil {
		return nil, err
	}
	task.SortForStatus(status, out)
	return out, nil
}
