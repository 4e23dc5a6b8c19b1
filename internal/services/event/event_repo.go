package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrEventNotFound = fmt.Errorf("event %w", perrors.ErrNotFound)

// Repository is the storage contract for events. Every lookup is scoped to the owner, so another
// user's event reads as not found.
type Repository interface {
	Create(ctx context.Context, e *Event) (*Event, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*Event, error)
	ListByUser(ctx context.Context, userID uuid.UUID, r Range) ([]*Event, error)
	Update(ctx context.Context, id, userID uuid.UUID, upd UpdateEventRequest, now time.Time) (*Event, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

const eventColumns = `id, user_id, title, description, date, time, reminder, created_at, updated_at`

// EventRepo handles database operations for events
type EventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Create(ctx context.Context, e *Event) (*Event, error) {
	query := `
		INSERT INTO events (user_id, title, description, date, time, reminder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + eventColumns

	var created Event
	err := r.db.GetContext(ctx, &created, query, e.UserID, e.Title, e.Description, e.Date, e.Time, e.Reminder, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &created, nil
}

func (r *EventRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND user_id = $2`

	var e Event
	if err := r.db.GetContext(ctx, &e, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

func (r *EventRepo) ListByUser(ctx context.Context, userID uuid.UUID, rng Range) ([]*Event, error) {
	query, args := listQuery(userID, rng)

	var out []*Event
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

func listQuery(userID uuid.UUID, rng Range) (string, []interface{}) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}

	if rng.From != nil {
		args = append(args, *rng.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		where = append(where, fmt.Sprintf("date < $%d", len(args)))
	}

	return `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date ASC, time ASC`, args
}

func (r *EventRepo) Update(ctx context.Context, id, userID uuid.UUID, upd UpdateEventRequest, now time.Time) (*Event, error) {
	setParts := []string{}
	args := []interface{}{}

	set := func(column string, v interface{}) {
		args = append(args, v)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Date != nil {
		set("date", *upd.Date)
	}
	if upd.Time != nil {
		set("time", *upd.Time)
	}
	if upd.Reminder != nil {
		set("reminder", *upd.Reminder)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id, userID)
	}
	set("updated_at", now)

	args = append(args, id, userID)
	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s
	`, strings.Join(setParts, ", "), len(args)-1, len(args), eventColumns)

	var e Event
	if err := r.db.GetContext(ctx, &e, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &e, nil
}

func (r *EventRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
