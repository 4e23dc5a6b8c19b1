package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

var ErrTaskNotFound = fmt.Errorf("task %w", perrors.ErrNotFound)

// Repository is the persistence contract of the task store. Each call is atomic on its own;
// nothing spans calls.
type Repository interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, f Filter) ([]*Task, error)
	Update(ctx context.Context, id uuid.UUID, upd Update, now time.Time) (*Task, error)
	// BulkMarkOverdue flips every pending task of the scoped filter whose due date is before now
	// and returns the flipped rows.
	BulkMarkOverdue(ctx context.Context, f Filter, now time.Time) ([]*Task, error)
	AppendComment(ctx context.Context, id uuid.UUID, c Comment, now time.Time) (*Task, error)
	AppendAttachment(ctx context.Context, id uuid.UUID, a Attachment, now time.Time) (*Task, error)
	// Delete removes the task and strips it from the dependency lists of other tasks.
	Delete(ctx context.Context, id uuid.UUID, now time.Time) error
}

const (
	deleteTask = `DELETE FROM tasks WHERE id = $1`

	// detachDependents strips a deleted id ($1) from every dependency list, stamping $2.
	detachDependents = `UPDATE tasks SET dependencies = array_remove(dependencies, $1), updated_at = $2 WHERE $1 = ANY(dependencies)`
)

const taskColumns = `id, title, description, assigned_to, created_by, due_date, status, priority, category,
        tags, estimated_hours, dependencies, attachments, comments, created_at, updated_at`

// BreakerSettings configures the circuit breaker guarding the database
type BreakerSettings struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// TaskRepo handles database operations for tasks
type TaskRepo struct {
	db *sqlx.DB
	cb *gobreaker.CircuitBreaker
}

// NewTaskRepo creates a new task repository whose calls run through a circuit breaker.
func NewTaskRepo(db *sqlx.DB, bs BreakerSettings) *TaskRepo {
	if bs.MaxFailures == 0 {
		bs.MaxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TaskStore",
		MaxRequests: 1,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.MaxFailures
		},
		IsSuccessful: isHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &TaskRepo{db: db, cb: cb}
}

// isHealthy keeps domain outcomes and caller cancellations from tripping the breaker.
func isHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, perrors.ErrNotFound) ||
		errors.Is(err, perrors.ErrValidationFailed) ||
		errors.Is(err, context.Canceled)
}

func execute[T any](r *TaskRepo, fn func() (T, error)) (T, error) {
	out, err := r.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("task store: %w: %v", perrors.ErrServiceUnavailable, err)
		}
		return zero, err
	}
	return out.(T), nil
}

func (r *TaskRepo) Create(ctx context.Context, t *Task) (*Task, error) {
	return execute(r, func() (*Task, error) {
		t.normalize()
		query := `
        INSERT INTO tasks (title, description, assigned_to, created_by, due_date, status, priority, category,
            tags, estimated_hours, dependencies, attachments, comments, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
        RETURNING ` + taskColumns

		var created Task
		err := r.db.GetContext(ctx, &created, query,
			t.Title, t.Description, t.AssignedTo, t.CreatedBy, t.DueDate, t.Status, t.Priority, t.Category,
			t.Tags, t.EstimatedHours, t.Dependencies, t.Attachments, t.Comments, t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}

		created.normalize()
		return &created, nil
	})
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return execute(r, func() (*Task, error) {
		query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

		var t Task
		err := r.db.GetContext(ctx, &t, query, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTaskNotFound
			}
			return nil, fmt.Errorf("failed to get task: %w", err)
		}

		t.normalize()
		return &t, nil
	})
}

func (r *TaskRepo) List(ctx context.Context, f Filter) ([]*Task, error) {
	return execute(r, func() ([]*Task, error) {
		where, args := buildWhere(f, nil)
		query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY due_date ASC, created_at ASC`

		var tasks []*Task
		if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}

		for _, t := range tasks {
			t.normalize()
		}
		return tasks, nil
	})
}

func (r *TaskRepo) Update(ctx context.Context, id uuid.UUID, upd Update, now time.Time) (*Task, error) {
	return execute(r, func() (*Task, error) {
		setParts := []string{}
		args := []interface{}{}

		set := func(column string, value interface{}) {
			args = append(args, value)
			setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
		}

		if upd.Title != nil {
			set("title", *upd.Title)
		}
		if upd.Description != nil {
			set("description", *upd.Description)
		}
		if upd.AssignedTo != nil {
			set("assigned_to", *upd.AssignedTo)
		}
		if upd.DueDate != nil {
			set("due_date", *upd.DueDate)
		}
		if upd.Status != nil {
			set("status", *upd.Status)
		}
		if upd.Priority != nil {
			set("priority", *upd.Priority)
		}
		if upd.Category != nil {
			set("category", *upd.Category)
		}
		if upd.Tags != nil {
			set("tags", pq.StringArray(*upd.Tags))
		}
		if upd.EstimatedHours != nil {
			set("estimated_hours", *upd.EstimatedHours)
		}
		if upd.Dependencies != nil {
			set("dependencies", IDList(*upd.Dependencies))
		}

		set("updated_at", now)
		args = append(args, id)

		query := fmt.Sprintf(`
        UPDATE tasks
        SET %s
        WHERE id = $%d
        RETURNING %s
    `, strings.Join(setParts, ", "), len(args), taskColumns)

		var t Task
		err := r.db.GetContext(ctx, &t, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTaskNotFound
			}
			return nil, fmt.Errorf("failed to update task: %w", err)
		}

		t.normalize()
		return &t, nil
	})
}

func (r *TaskRepo) BulkMarkOverdue(ctx context.Context, f Filter, now time.Time) ([]*Task, error) {
	if !f.Scoped() {
		return nil, fmt.Errorf("refusing unscoped overdue sweep: %w", perrors.ErrValidationFailed)
	}

	return execute(r, func() ([]*Task, error) {
		query, args := overdueSweep(f, now)

		var flipped []*Task
		if err := r.db.SelectContext(ctx, &flipped, query, args...); err != nil {
			return nil, fmt.Errorf("failed to mark tasks overdue: %w", err)
		}

		for _, t := range flipped {
			t.normalize()
		}
		return flipped, nil
	})
}

// overdueSweep renders the sweep statement. $1 and $2 are the new status and timestamp; the
// filter placeholders follow.
func overdueSweep(f Filter, now time.Time) (string, []interface{}) {
	f.Statuses = []Status{StatusPending}
	f.DueBefore = &now

	where, args := buildWhere(f, []interface{}{StatusOverdue, now})
	return `UPDATE tasks SET status = $1, updated_at = $2` + where + ` RETURNING ` + taskColumns, args
}

func (r *TaskRepo) AppendComment(ctx context.Context, id uuid.UUID, c Comment, now time.Time) (*Task, error) {
	payload, err := json.Marshal(Comments{c})
	if err != nil {
		return nil, fmt.Errorf("failed to encode comment: %w", err)
	}
	return r.appendJSON(ctx, "comments", id, payload, now)
}

func (r *TaskRepo) AppendAttachment(ctx context.Context, id uuid.UUID, a Attachment, now time.Time) (*Task, error) {
	payload, err := json.Marshal(Attachments{a})
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachment: %w", err)
	}
	return r.appendJSON(ctx, "attachments", id, payload, now)
}

func (r *TaskRepo) appendJSON(ctx context.Context, column string, id uuid.UUID, payload []byte, now time.Time) (*Task, error) {
	return execute(r, func() (*Task, error) {
		query := fmt.Sprintf(`
        UPDATE tasks
        SET %[1]s = %[1]s || $1::jsonb, updated_at = $2
        WHERE id = $3
        RETURNING %[2]s
    `, column, taskColumns)

		var t Task
		err := r.db.GetContext(ctx, &t, query, string(payload), now, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTaskNotFound
			}
			return nil, fmt.Errorf("failed to append %s: %w", column, err)
		}

		t.normalize()
		return &t, nil
	})
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := execute(r, func() (struct{}, error) {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		result, err := tx.ExecContext(ctx, deleteTask, id)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to delete task: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return struct{}{}, ErrTaskNotFound
		}

		_, err = tx.ExecContext(ctx, detachDependents, id, now)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to detach dependents: %w", err)
		}

		return struct{}{}, tx.Commit()
	})
	return err
}

// buildWhere renders f as a WHERE clause whose placeholders continue after args.
func buildWhere(f Filter, args []interface{}) (string, []interface{}) {
	var clauses []string

	add := func(format string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if len(f.IDs) > 0 {
		add("id = ANY($%d::uuid[])", IDList(f.IDs))
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", *f.AssignedTo)
	}
	if f.CreatedBy != nil {
		add("created_by = $%d", *f.CreatedBy)
	}
	if len(f.Statuses) > 0 {
		statuses := make(pq.StringArray, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		add("status = ANY($%d::text[])", statuses)
	}
	if f.Priority != nil {
		add("priority = $%d", *f.Priority)
	}
	if f.DueBefore != nil {
		add("due_date < $%d", *f.DueBefore)
	}
	if f.Window != nil {
		args = append(args, f.Window.Start, f.Window.until())
		s, u := len(args)-1, len(args)
		clauses = append(clauses, fmt.Sprintf(
			"((created_at >= $%[1]d AND created_at < $%[2]d) OR (due_date >= $%[1]d AND due_date < $%[2]d))", s, u))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
