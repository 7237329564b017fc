package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/geocoder89/roleboard/internal/domain/user"
)

func seedUser(t *testing.T, repo *UsersRepo, id, email string) user.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := repo.Create(context.Background(), user.User{
		ID: id, Name: "n-" + id, Email: email, PasswordHash: "h", Role: user.RoleUser,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	db := NewDB()
	users := NewUsersRepo(db)
	seedUser(t, users, "u1", "a@example.com")

	_, err := users.Create(context.Background(), user.User{ID: "u2", Email: "a@example.com"})
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	seedUser(t, users, "u3", "b@example.com")
	taken := "a@example.com"
	if _, err := users.Update(context.Background(), "u3", user.Patch{Email: &taken}); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on update, got %v", err)
	}
}

func TestTasksRepo_AssignmentBackReference(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	users := NewUsersRepo(db)
	tasks := NewTasksRepo(db)

	seedUser(t, users, "u1", "a@example.com")
	seedUser(t, users, "u2", "b@example.com")

	if _, err := tasks.Assign(ctx, task.Task{ID: "t1", AssignedTo: "u1", Status: task.StatusPending}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := tasks.Assign(ctx, task.Task{ID: "t2", AssignedTo: "ghost"}); !errors.Is(err, task.ErrAssigneeNotFound) {
		t.Fatalf("expected ErrAssigneeNotFound, got %v", err)
	}

	u1, _ := users.GetByID(ctx, "u1")
	if len(u1.Tasks) != 1 || u1.Tasks[0] != "t1" {
		t.Fatalf("u1 tasks = %v", u1.Tasks)
	}

	to := "u2"
	if _, err := tasks.Update(ctx, "t1", task.Patch{AssignedTo: &to}); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	u1, _ = users.GetByID(ctx, "u1")
	u2, _ := users.GetByID(ctx, "u2")
	if len(u1.Tasks) != 0 {
		t.Fatalf("u1 should have no tasks, got %v", u1.Tasks)
	}
	if len(u2.Tasks) != 1 || u2.Tasks[0] != "t1" {
		t.Fatalf("u2 tasks = %v", u2.Tasks)
	}

	if err := tasks.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	u2, _ = users.GetByID(ctx, "u2")
	if len(u2.Tasks) != 0 {
		t.Fatalf("deleted task still listed: %v", u2.Tasks)
	}
}

func TestUsersRepo_DeleteLeavesTasks(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	users := NewUsersRepo(db)
	tasks := NewTasksRepo(db)

	seedUser(t, users, "u1", "a@example.com")
	_, _ = tasks.Assign(ctx, task.Task{ID: "t1", AssignedTo: "u1"})

	if err := users.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := tasks.GetByID(ctx, "t1")
	if err != nil || got.AssignedTo != "u1" {
		t.Fatalf("task should keep dangling assignee, got %+v err=%v", got, err)
	}
}

func TestTasksRepo_SetAttachmentReturnsPrevious(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	users := NewUsersRepo(db)
	tasks := NewTasksRepo(db)
	seedUser(t, users, "u1", "a@example.com")
	_, _ = tasks.Assign(ctx, task.Task{ID: "t1", AssignedTo: "u1"})

	_, prev, _ := tasks.SetAttachment(ctx, "t1", "/uploads/a.pdf")
	if prev != "" {
		t.Fatalf("expected no previous ref, got %q", prev)
	}
	got, prev, _ := tasks.SetAttachment(ctx, "t1", "/uploads/b.pdf")
	if prev != "/uploads/a.pdf" || got.Attachment != "/uploads/b.pdf" {
		t.Fatalf("prev=%q got=%q", prev, got.Attachment)
	}
}
