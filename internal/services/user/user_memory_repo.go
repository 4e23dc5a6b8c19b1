package user

import (
	"context"
	"sync"

	"github.com/curaious/tasky/internal/clock"
	"github.com/google/uuid"
)

// MemoryRepo is an in-process Repository used by tests and `server --memory`.
type MemoryRepo struct {
	clock   clock.Clock
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
}

func NewMemoryRepo(clk clock.Clock) *MemoryRepo {
	return &MemoryRepo{
		clock:   clk,
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, u *User) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return nil, ErrEmailTaken
	}

	now := r.clock.Now()
	created := *u
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.byID[created.ID] = &created
	r.byEmail[created.Email] = created.ID

	out := created
	return &out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *MemoryRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[uuid.UUID]*User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out := *u
			result[id] = &out
		}
	}
	return result, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id uuid.UUID, upd profileUpdate) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := r.byEmail[*upd.Email]; taken {
			return nil, ErrEmailTaken
		}
		delete(r.byEmail, u.Email)
		u.Email = *upd.Email
		r.byEmail[u.Email] = u.ID
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = r.clock.Now()

	out := *u
	return &out, nil
}
