package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/curaious/tasky/internal/validation"
	"github.com/google/uuid"
)

// UserDirectory is the subset of the user service the roster needs
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error)
}

var ErrNotAdmin = fmt.Errorf("only admins manage a roster: %w", perrors.ErrForbidden)

// RosterService manages admin to member edges
type RosterService struct {
	repo  Repository
	users UserDirectory
}

func NewRosterService(repo Repository, users UserDirectory) *RosterService {
	return &RosterService{repo: repo, users: users}
}

// AddMember puts an already registered user on the admin's roster.
func (s *RosterService) AddMember(ctx context.Context, adminID uuid.UUID, req *AddMemberRequest) (*Member, error) {
	in := AddMemberRequest{Email: strings.ToLower(strings.TrimSpace(req.Email))}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	if target.ID == adminID {
		return nil, fmt.Errorf("an admin cannot add themselves to their roster: %w", perrors.ErrValidationFailed)
	}

	if _, err := s.repo.GetByPair(ctx, adminID, target.ID); err == nil {
		return nil, ErrAlreadyOnRoster
	} else if !errors.Is(err, ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check roster: %w", err)
	}

	edge, err := s.repo.Create(ctx, &RosterEdge{UserID: target.ID, AdminID: adminID})
	if err != nil {
		return nil, err
	}

	return &Member{ID: edge.ID, AddedAt: edge.AddedAt, User: target.Summary()}, nil
}

// RemoveMember deletes an edge owned by adminID. Edges of other admins are reported as not found.
func (s *RosterService) RemoveMember(ctx context.Context, adminID, edgeID uuid.UUID) error {
	return s.repo.Delete(ctx, edgeID, adminID)
}

// ListMembers returns the admin's roster with member details resolved
func (s *RosterService) ListMembers(ctx context.Context, adminID uuid.UUID) ([]*Member, error) {
	edges, err := s.repo.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.UserID)
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team members: %w", err)
	}

	members := make([]*Member, 0, len(edges))
	for _, e := range edges {
		u, ok := users[e.UserID]
		if !ok {
			continue
		}
		members = append(members, &Member{ID: e.ID, AddedAt: e.AddedAt, User: u.Summary()})
	}

	return members, nil
}

// AssignableUsers lists the users an admin may assign tasks to: the roster, never the admin itself.
func (s *RosterService) AssignableUsers(ctx context.Context, adminID uuid.UUID) ([]*user.Summary, error) {
	members, err := s.ListMembers(ctx, adminID)
	if err != nil {
		return nil, err
	}

	out := make([]*user.Summary, 0, len(members))
	for _, m := range members {
		if m.User.ID == adminID {
			continue
		}
		out = append(out, m.User)
	}
	return out, nil
}

// IsMember reports whether userID sits on adminID's roster
func (s *RosterService) IsMember(ctx context.Context, adminID, userID uuid.UUID) (bool, error) {
	if adminID == userID {
		return false, nil
	}

	_, err := s.repo.GetByPair(ctx, adminID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrMemberNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *RosterService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}
