package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MemoryRepo is an in-process Repository used by tests and `server --memory`. Every method
// holds the lock for its whole body, which gives the same per-call atomicity as a single
// SQL statement.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: make(map[uuid.UUID]*Task)}
}

func (r *MemoryRepo) Create(ctx context.Context, t *Task) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := t.clone()
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.UpdatedAt = created.CreatedAt
	created.normalize()
	r.tasks[created.ID] = created

	return created.clone(), nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t.clone(), nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Task
	for _, t := range r.tasks {
		if f.Matches(t) {
			out = append(out, t.clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id uuid.UUID, upd Update, now time.Time) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.AssignedTo != nil {
		a := *upd.AssignedTo
		t.AssignedTo = &a
	}
	if upd.DueDate != nil {
		t.DueDate = *upd.DueDate
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.Tags != nil {
		t.Tags = append(pq.StringArray{}, *upd.Tags...)
	}
	if upd.EstimatedHours != nil {
		h := *upd.EstimatedHours
		t.EstimatedHours = &h
	}
	if upd.Dependencies != nil {
		t.Dependencies = append(IDList{}, *upd.Dependencies...)
	}
	t.UpdatedAt = now

	return t.clone(), nil
}

func (r *MemoryRepo) BulkMarkOverdue(ctx context.Context, f Filter, now time.Time) ([]*Task, error) {
	if !f.Scoped() {
		return nil, fmt.Errorf("refusing unscoped overdue sweep: %w", perrors.ErrValidationFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.Statuses = []Status{StatusPending}
	f.DueBefore = &now

	r.mu.Lock()
	defer r.mu.Unlock()

	var flipped []*Task
	for _, t := range r.tasks {
		if f.Matches(t) {
			t.Status = StatusOverdue
			t.UpdatedAt = now
			flipped = append(flipped, t.clone())
		}
	}
	return flipped, nil
}

func (r *MemoryRepo) AppendComment(ctx context.Context, id uuid.UUID, c Comment, now time.Time) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	t.Comments = append(t.Comments, c)
	t.UpdatedAt = now
	return t.clone(), nil
}

func (r *MemoryRepo) AppendAttachment(ctx context.Context, id uuid.UUID, a Attachment, now time.Time) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	t.Attachments = append(t.Attachments, a)
	t.UpdatedAt = now
	return t.clone(), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id uuid.UUID, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)

	for _, t := range r.tasks {
		if !t.Dependencies.Contains(id) {
			continue
		}
		kept := make(IDList, 0, len(t.Dependencies)-1)
		for _, dep := range t.Dependencies {
			if dep != id {
				kept = append(kept, dep)
			}
		}
		t.Dependencies = kept
		t.UpdatedAt = now
	}
	return nil
}
