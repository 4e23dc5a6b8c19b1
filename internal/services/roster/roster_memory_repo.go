package roster

import (
	"context"
	"sort"
	"sync"

	"github.com/curaious/tasky/internal/clock"
	"github.com/google/uuid"
)

type pair struct {
	adminID uuid.UUID
	userID  uuid.UUID
}

// MemoryRepo is an in-process Repository used by tests and `server --memory`.
type MemoryRepo struct {
	clock  clock.Clock
	mu     sync.RWMutex
	edges  map[uuid.UUID]*RosterEdge
	byPair map[pair]uuid.UUID
	order  []uuid.UUID
}

func NewMemoryRepo(clk clock.Clock) *MemoryRepo {
	return &MemoryRepo{
		clock:  clk,
		edges:  make(map[uuid.UUID]*RosterEdge),
		byPair: make(map[pair]uuid.UUID),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, edge *RosterEdge) (*RosterEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pair{adminID: edge.AdminID, userID: edge.UserID}
	if _, ok := r.byPair[key]; ok {
		return nil, ErrAlreadyOnRoster
	}

	created := &RosterEdge{
		ID:      uuid.New(),
		UserID:  edge.UserID,
		AdminID: edge.AdminID,
		AddedAt: r.clock.Now(),
	}
	r.edges[created.ID] = created
	r.byPair[key] = created.ID
	r.order = append(r.order, created.ID)

	out := *created
	return &out, nil
}

func (r *MemoryRepo) GetByPair(ctx context.Context, adminID, userID uuid.UUID) (*RosterEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[pair{adminID: adminID, userID: userID}]
	if !ok {
		return nil, ErrMemberNotFound
	}
	out := *r.edges[id]
	return &out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id, adminID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	edge, ok := r.edges[id]
	if !ok || edge.AdminID != adminID {
		return ErrMemberNotFound
	}
	delete(r.edges, id)
	delete(r.byPair, pair{adminID: edge.AdminID, userID: edge.UserID})
	return nil
}

func (r *MemoryRepo) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*RosterEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// order keeps ties on added_at in insertion order
	var edges []*RosterEdge
	for _, id := range r.order {
		if e, ok := r.edges[id]; ok && e.AdminID == adminID {
			out := *e
			edges = append(edges, &out)
		}
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].AddedAt.Before(edges[j].AddedAt) })
	return edges, nil
}
