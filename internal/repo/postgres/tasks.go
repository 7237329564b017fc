package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/roleboard/internal/domain/task"
	"github.com/geocoder89/roleboard/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (repo *TasksRepo) observe(op string, fn func() error) error {
	return repo.prom.ObserveDB(op, fn)
}

const taskColumns = `id, title, description, status, deadline, attachment, assigned_to, created_at, updated_at`

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t      task.Task
		status string
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&t.Deadline,
		&t.Attachment,
		&t.AssignedTo,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	t.Status = task.Status(status)
	return t, err
}

// lockAssignee holds a share lock on the user row so it cannot be deleted
// before the transaction that references it commits.
func (repo *TasksRepo) lockAssignee(ctx context.Context, tx pgx.Tx, userID string) error {
	var dummy string
	err := repo.observe("tasks.lock_assignee", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR SHARE`, userID).Scan(&dummy)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return task.ErrAssigneeNotFound
	}
	return err
}

func (repo *TasksRepo) Assign(ctx context.Context, t task.Task) (out task.Task, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err = repo.lockAssignee(ctx, tx, t.AssignedTo); err != nil {
		return
	}

	err = repo.observe("tasks.assign.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, t.ID, t.Title, t.Description, string(t.Status), t.Deadline, t.Attachment, t.AssignedTo, t.CreatedAt, t.UpdatedAt)
		return e
	})
	if err != nil {
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	out = t
	return
}

func (repo *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task

	err := repo.observe("tasks.get_by_id", func() error {
		var err error
		t, err = scanTask(repo.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return task.ErrNotFound
		}
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// Update applies p inside one transaction. When p moves the task to a new
// assignee that user is locked and verified first.
func (repo *TasksRepo) Update(ctx context.Context, id string, p task.Patch) (out task.Task, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var t task.Task
	err = repo.observe("tasks.update.lock", func() error {
		var e error
		t, e = scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(e, pgx.ErrNoRows) {
			return task.ErrNotFound
		}
		return e
	})
	if err != nil {
		return
	}

	if p.AssignedTo != nil && *p.AssignedTo != t.AssignedTo {
		if err = repo.lockAssignee(ctx, tx, *p.AssignedTo); err != nil {
			return
		}
	}

	p.Apply(&t, time.Now().UTC())

	err = repo.observe("tasks.update.write", func() error {
		_, e := tx.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, deadline = $5, assigned_to = $6, updated_at = $7
		WHERE id = $1
		`, t.ID, t.Title, t.Description, string(t.Status), t.Deadline, t.AssignedTo, t.UpdatedAt)
		return e
	})
	if err != nil {
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	out = t
	return
}

func (repo *TasksRepo) Delete(ctx context.Context, id string) error {
	return repo.observe("tasks.delete", func() error {
		tag, err := repo.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}
		return nil
	})
}

func (repo *TasksRepo) List(ctx context.Context, f task.Filter) ([]task.Task, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if f.AssignedTo != nil {
		args = append(args, *f.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	out := make([]task.Task, 0)

	err := repo.observe("tasks.list", func() error {
		rows, err := repo.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetAttachment swaps the stored reference and returns the one it replaced.
func (repo *TasksRepo) SetAttachment(ctx context.Context, id, ref string) (out task.Task, prev string, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var t task.Task
	err = repo.observe("tasks.set_attachment.lock", func() error {
		var e error
		t, e = scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(e, pgx.ErrNoRows) {
			return task.ErrNotFound
		}
		return e
	})
	if err != nil {
		return
	}

	prev = t.Attachment
	t.Attachment = ref
	t.UpdatedAt = time.Now().UTC()

	err = repo.observe("tasks.set_attachment.write", func() error {
		_, e := tx.Exec(ctx, `UPDATE tasks SET attachment = $2, updated_at = $3 WHERE id = $1`, t.ID, t.Attachment, t.UpdatedAt)
		return e
	})
	if err != nil {
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	out = t
	return
}
