package roster

import (
	"context"
	"testing"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)

type fixture struct {
	clock  *clock.Fixed
	users  *user.UserService
	repo   *MemoryRepo
	roster *RosterService
}

func newFixture() *fixture {
	clk := clock.NewFixed(now)
	users := user.NewUserService(user.NewMemoryRepo(clk))
	repo := NewMemoryRepo(clk)
	return &fixture{clock: clk, users: users, repo: repo, roster: NewRosterService(repo, users)}
}

func (f *fixture) register(t *testing.T, email string, role user.UserRole) *user.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), &user.RegisterRequest{
		Name:     email,
		Email:    email,
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := f.register(t, "admin@example.com", user.RoleAdmin)
	member := f.register(t, "u1@example.com", user.RoleUser)

	m, err := f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "U1@example.com"})
	require.NoError(t, err)
	assert.Equal(t, member.ID, m.User.ID)
	assert.Equal(t, "u1@example.com", m.User.Email)
	assert.Equal(t, now, m.AddedAt)

	ok, err := f.roster.IsMember(ctx, admin.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddMemberTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := f.register(t, "admin@example.com", user.RoleAdmin)
	f.register(t, "u1@example.com", user.RoleUser)

	_, err := f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "u1@example.com"})
	require.NoError(t, err)

	_, err = f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "u1@example.com"})
	assert.ErrorIs(t, err, perrors.ErrConflict)

	edges, err := f.repo.ListByAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestAddMemberFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := f.register(t, "admin@example.com", user.RoleAdmin)
	plain := f.register(t, "u1@example.com", user.RoleUser)

	_, err := f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "admin@example.com"})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	_, err = f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	_, err = f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "  "})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	_, err = f.roster.AddMember(ctx, admin.ID, &AddMemberRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	_, err = f.roster.AddMember(ctx, plain.ID, &AddMemberRequest{Email: "admin@example.com"})
	assert.ErrorIs(t, err, perrors.ErrForbidden)
}

func TestMembershipIsNotExclusive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.register(t, "a@example.com", user.RoleAdmin)
	b := f.register(t, "b@example.com", user.RoleAdmin)
	u1 := f.register(t, "u1@example.com", user.RoleUser)

	_, err := f.roster.AddMember(ctx, a.ID, &AddMemberRequest{Email: u1.Email})
	require.NoError(t, err)
	_, err = f.roster.AddMember(ctx, b.ID, &AddMemberRequest{Email: u1.Email})
	require.NoError(t, err)

	for _, adminID := range []uuid.UUID{a.ID, b.ID} {
		ok, err := f.roster.IsMember(ctx, adminID, u1.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestAssignableUsersTenancy(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.register(t, "a@example.com", user.RoleAdmin)
	b := f.register(t, "b@example.com", user.RoleAdmin)
	u1 := f.register(t, "u1@example.com", user.RoleUser)
	u2 := f.register(t, "u2@example.com", user.RoleUser)
	f.register(t, "stranger@example.com", user.RoleUser)

	_, err := f.roster.AddMember(ctx, a.ID, &AddMemberRequest{Email: u1.Email})
	require.NoError(t, err)
	_, err = f.roster.AddMember(ctx, b.ID, &AddMemberRequest{Email: u2.Email})
	require.NoError(t, err)
	// Another admin on A's roster is still a valid assignee; A itself never is.
	_, err = f.roster.AddMember(ctx, a.ID, &AddMemberRequest{Email: b.Email})
	require.NoError(t, err)

	assignable, err := f.roster.AssignableUsers(ctx, a.ID)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(assignable))
	for _, s := range assignable {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{u1.ID, b.ID}, ids)
	assert.NotContains(t, ids, a.ID)
	assert.NotContains(t, ids, u2.ID)

	self, err := f.roster.IsMember(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, self)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.register(t, "a@example.com", user.RoleAdmin)
	b := f.register(t, "b@example.com", user.RoleAdmin)
	u1 := f.register(t, "u1@example.com", user.RoleUser)

	m, err := f.roster.AddMember(ctx, a.ID, &AddMemberRequest{Email: u1.Email})
	require.NoError(t, err)

	err = f.roster.RemoveMember(ctx, b.ID, m.ID)
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	require.NoError(t, f.roster.RemoveMember(ctx, a.ID, m.ID))

	members, err := f.roster.ListMembers(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.NotNil(t, members)
}
