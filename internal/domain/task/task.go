package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusComplete   Status = "Complete"
)

// Statuses is the fixed display order used by boards and the distribution chart.
var Statuses = []Status{StatusPending, StatusInProgress, StatusComplete}

// Any status may move to any other; there is no transition graph.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound         = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assignee not found")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrMissingTitle     = errors.New("task title is required")
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Attachment  string     `json:"attachment,omitempty"`
	AssignedTo  string     `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != StatusComplete
}

type AssignTaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required,max=5000"`
	AssignedTo  string `json:"assignedTo" binding:"required,uuid"`
	Deadline    *Date  `json:"deadline" binding:"required"`
}

// UpdateTaskRequest carries only the fields the caller wants changed.
// AssignedTo turns the update into a reassignment and is admin only.
type UpdateTaskRequest struct {
	Status      *Status `json:"status" binding:"omitempty,taskstatus"`
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Deadline    *Date   `json:"deadline"`
	AssignedTo  *string `json:"assignedTo" binding:"omitempty,uuid"`
}

func (r UpdateTaskRequest) Patch() Patch {
	p := Patch{
		Status:      r.Status,
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
	}
	if r.Deadline != nil {
		d := r.Deadline.Time()
		p.Deadline = &d
	}
	return p
}

func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Status == nil && r.Title == nil && r.Description == nil && r.Deadline == nil && r.AssignedTo == nil
}

// Patch is the store-level partial update.
type Patch struct {
	Status      *Status
	Title       *string
	Description *string
	Deadline    *time.Time
	AssignedTo  *string
}

// Apply copies the set fields onto t and bumps UpdatedAt.
func (p Patch) Apply(t *Task, now time.Time) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Deadline != nil {
		d := *p.Deadline
		t.Deadline = &d
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	t.UpdatedAt = now
}

func NewFromAssignRequest(req AssignTaskRequest) Task {
	now := time.Now().UTC()

	t := Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusPending,
		AssignedTo:  req.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Deadline != nil {
		d := req.Deadline.Time()
		t.Deadline = &d
	}
	return t
}

// Filter narrows task listings; nil fields match everything.
type Filter struct {
	AssignedTo *string
	Status     *Status
}

func (f Filter) Matches(t Task) bool {
	if f.AssignedTo != nil && t.AssignedTo != *f.AssignedTo {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	return true
}
