package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process Repository used by tests and `server --memory`.
type MemoryRepo struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*Event
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{events: make(map[uuid.UUID]*Event)}
}

func (r *MemoryRepo) Create(ctx context.Context, e *Event) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := *e
	created.ID = uuid.New()
	created.UpdatedAt = created.CreatedAt
	r.events[created.ID] = &created

	out := created
	return &out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok || e.UserID != userID {
		return nil, ErrEventNotFound
	}
	out := *e
	return &out, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, rng Range) ([]*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Event
	for _, e := range r.events {
		if e.UserID == userID && rng.contains(e.Date) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id, userID uuid.UUID, upd UpdateEventRequest, now time.Time) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok || e.UserID != userID {
		return nil, ErrEventNotFound
	}

	changed := false
	if upd.Title != nil {
		e.Title, changed = *upd.Title, true
	}
	if upd.Description != nil {
		e.Description, changed = *upd.Description, true
	}
	if upd.Date != nil {
		e.Date, changed = *upd.Date, true
	}
	if upd.Time != nil {
		e.Time, changed = *upd.Time, true
	}
	if upd.Reminder != nil {
		e.Reminder, changed = *upd.Reminder, true
	}
	if changed {
		e.UpdatedAt = now
	}

	out := *e
	return &out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok || e.UserID != userID {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}
