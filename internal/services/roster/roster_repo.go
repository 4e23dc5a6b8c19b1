package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrMemberNotFound  = fmt.Errorf("team member %w", perrors.ErrNotFound)
	ErrAlreadyOnRoster = fmt.Errorf("user is already a team member: %w", perrors.ErrConflict)
)

// Repository is the storage contract for roster edges
type Repository interface {
	Create(ctx context.Context, edge *RosterEdge) (*RosterEdge, error)
	GetByPair(ctx context.Context, adminID, userID uuid.UUID) (*RosterEdge, error)
	// Delete removes the edge only when it belongs to adminID.
	Delete(ctx context.Context, id, adminID uuid.UUID) error
	ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*RosterEdge, error)
}

// RosterRepo handles database operations for roster edges
type RosterRepo struct {
	db *sqlx.DB
}

func NewRosterRepo(db *sqlx.DB) *RosterRepo {
	return &RosterRepo{db: db}
}

func (r *RosterRepo) Create(ctx context.Context, edge *RosterEdge) (*RosterEdge, error) {
	query := `
		INSERT INTO roster_edges (user_id, admin_id)
		VALUES ($1, $2)
		RETURNING id, user_id, admin_id, added_at
	`

	var created RosterEdge
	err := r.db.GetContext(ctx, &created, query, edge.UserID, edge.AdminID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyOnRoster
		}
		return nil, fmt.Errorf("failed to create roster edge: %w", err)
	}

	return &created, nil
}

func (r *RosterRepo) GetByPair(ctx context.Context, adminID, userID uuid.UUID) (*RosterEdge, error) {
	query := `
		SELECT id, user_id, admin_id, added_at
		FROM roster_edges
		WHERE admin_id = $1 AND user_id = $2
	`

	var edge RosterEdge
	err := r.db.GetContext(ctx, &edge, query, adminID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get roster edge: %w", err)
	}

	return &edge, nil
}

func (r *RosterRepo) Delete(ctx context.Context, id, adminID uuid.UUID) error {
	query := `DELETE FROM roster_edges WHERE id = $1 AND admin_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, adminID)
	if err != nil {
		return fmt.Errorf("failed to delete roster edge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

func (r *RosterRepo) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*RosterEdge, error) {
	query := `
		SELECT id, user_id, admin_id, added_at
		FROM roster_edges
		WHERE admin_id = $1
		ORDER BY added_at ASC
	`

	var edges []*RosterEdge
	if err := r.db.SelectContext(ctx, &edges, query, adminID); err != nil {
		return nil, fmt.Errorf("failed to list roster edges: %w", err)
	}

	return edges, nil
}
