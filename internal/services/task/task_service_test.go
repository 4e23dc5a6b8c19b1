package task

import (
	"context"
	"testing"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/roster"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)

type fixture struct {
	clock  *clock.Fixed
	users  *user.UserService
	roster *roster.RosterService
	repo   *MemoryRepo
	notes  *assignments
	tasks  *TaskService

	admin  *user.User
	member *user.User
}

// assignments records the (task, assignee) pairs it is told about
type assignments struct {
	got map[uuid.UUID]uuid.UUID
}

func (a *assignments) TaskAssigned(_ context.Context, t *Task) error {
	a.got[t.ID] = *t.AssignedTo
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{clock: clock.NewFixed(now), repo: NewMemoryRepo(), notes: &assignments{got: map[uuid.UUID]uuid.UUID{}}}
	f.users = user.NewUserService(user.NewMemoryRepo(f.clock))
	f.roster = roster.NewRosterService(roster.NewMemoryRepo(f.clock), f.users)
	f.tasks = NewTaskService(f.repo, f.users, f.roster, f.notes, f.clock)

	f.admin = f.register(t, "admin@example.com", user.RoleAdmin)
	f.member = f.register(t, "u1@example.com", user.RoleUser)
	_, err := f.roster.AddMember(context.Background(), f.admin.ID, &roster.AddMemberRequest{Email: f.member.Email})
	require.NoError(t, err)

	return f
}

func (f *fixture) register(t *testing.T, email string, role user.UserRole) *user.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), &user.RegisterRequest{
		Name: email, Email: email, Password: "secret1", Role: role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) create(t *testing.T, req CreateTaskRequest) *TaskDetails {
	t.Helper()
	if req.Title == "" {
		req.Title = "Write report"
	}
	if req.Description == "" {
		req.Description = "Quarterly numbers"
	}
	if req.DueDate == nil {
		due := now.Add(48 * time.Hour)
		req.DueDate = &due
	}
	d, err := f.tasks.Create(context.Background(), f.admin.ID, &req)
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T { return &v }

func TestCreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)

	d := f.create(t, CreateTaskRequest{
		AssignedTo: &f.member.ID,
		Tags:       []string{" urgent ", "urgent", ""},
	})

	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, PriorityMedium, d.Priority)
	assert.Equal(t, CategoryOther, d.Category)
	assert.Equal(t, []string{"urgent"}, []string(d.Tags))
	assert.Equal(t, f.admin.ID, d.CreatedBy)
	assert.True(t, d.CreatedAt.Equal(now))
	require.NotNil(t, d.Assignee)
	assert.Equal(t, f.member.Email, d.Assignee.Email)
	require.NotNil(t, d.Creator)
	assert.Equal(t, f.admin.ID, d.Creator.ID)
	assert.NotNil(t, d.DependencyTasks)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := now.Add(time.Hour)

	tests := []struct {
		name string
		req  CreateTaskRequest
		want error
	}{
		{"missing title", CreateTaskRequest{Description: "d", DueDate: &due}, perrors.ErrValidationFailed},
		{"blank title", CreateTaskRequest{Title: "   ", Description: "d", DueDate: &due}, perrors.ErrValidationFailed},
		{"zero due date", CreateTaskRequest{Title: "t", Description: "d", DueDate: &time.Time{}}, perrors.ErrValidationFailed},
		{"unknown priority", CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, Priority: ptr(Priority("someday"))}, perrors.ErrValidationFailed},
		{"unknown category", CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, Category: ptr(Category("ops"))}, perrors.ErrValidationFailed},
		{"missing description", CreateTaskRequest{Title: "t", DueDate: &due}, perrors.ErrValidationFailed},
		{"missing due date", CreateTaskRequest{Title: "t", Description: "d"}, perrors.ErrValidationFailed},
		{"negative hours", CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, EstimatedHours: ptr(-1.0)}, perrors.ErrValidationFailed},
		{"overdue status", CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, Status: ptr(StatusOverdue)}, ErrOverdueIsAutomatic},
		{"unknown assignee", CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, AssignedTo: ptr(uuid.New())}, perrors.ErrInvalidReference},
		{"unknown dependency", CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, Dependencies: []uuid.UUID{uuid.New()}}, perrors.ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.Create(ctx, f.admin.ID, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateRequiresAdminAndRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := now.Add(time.Hour)
	stranger := f.register(t, "stranger@example.com", user.RoleUser)

	_, err := f.tasks.Create(ctx, f.member.ID, &CreateTaskRequest{Title: "t", Description: "d", DueDate: &due})
	assert.ErrorIs(t, err, perrors.ErrForbidden)

	_, err = f.tasks.Create(ctx, f.admin.ID, &CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, AssignedTo: &stranger.ID})
	assert.ErrorIs(t, err, ErrAssigneeNotOnRoster)
	assert.ErrorIs(t, err, perrors.ErrInvalidReference)

	_, err = f.tasks.Create(ctx, f.admin.ID, &CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, AssignedTo: &f.admin.ID})
	assert.ErrorIs(t, err, perrors.ErrInvalidReference)
}

func TestDependenciesOfAnotherAdminDoNotResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.register(t, "other@example.com", user.RoleAdmin)
	due := now.Add(time.Hour)

	foreign, err := f.tasks.Create(ctx, other.ID, &CreateTaskRequest{Title: "t", Description: "d", DueDate: &due})
	require.NoError(t, err)

	_, err = f.tasks.Create(ctx, f.admin.ID, &CreateTaskRequest{Title: "t", Description: "d", DueDate: &due, Dependencies: []uuid.UUID{foreign.ID}})
	assert.ErrorIs(t, err, ErrUnknownDependency)
}

func TestSetDependenciesRejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, CreateTaskRequest{Title: "A"})
	b := f.create(t, CreateTaskRequest{Title: "B", Dependencies: []uuid.UUID{a.ID}})
	c := f.create(t, CreateTaskRequest{Title: "C", Dependencies: []uuid.UUID{b.ID}})

	_, err := f.tasks.SetDependencies(ctx, f.admin.ID, a.ID, []uuid.UUID{a.ID})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	_, err = f.tasks.SetDependencies(ctx, f.admin.ID, a.ID, []uuid.UUID{c.ID})
	assert.ErrorIs(t, err, ErrDependencyCycle)

	d, err := f.tasks.SetDependencies(ctx, f.admin.ID, c.ID, []uuid.UUID{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, IDList{a.ID, b.ID}, d.Dependencies)
	require.Len(t, d.DependencyTasks, 2)
	assert.Equal(t, "A", d.DependencyTasks[0].Title)
}

func TestDeleteStripsDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, CreateTaskRequest{Title: "A"})
	b := f.create(t, CreateTaskRequest{Title: "B", Dependencies: []uuid.UUID{a.ID}})

	require.NoError(t, f.tasks.Delete(ctx, f.admin.ID, a.ID))

	_, err := f.tasks.Get(ctx, user.Principal{ID: f.admin.ID, Role: user.RoleAdmin}, a.ID)
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	got, err := f.tasks.Get(ctx, user.Principal{ID: f.admin.ID, Role: user.RoleAdmin}, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)
}

func TestTenancyHidesForeignTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.register(t, "other@example.com", user.RoleAdmin)
	outsider := f.register(t, "outsider@example.com", user.RoleUser)

	d := f.create(t, CreateTaskRequest{AssignedTo: &f.member.ID})

	_, err := f.tasks.Get(ctx, user.Principal{ID: f.member.ID, Role: user.RoleUser}, d.ID)
	assert.NoError(t, err)

	_, err = f.tasks.Get(ctx, user.Principal{ID: outsider.ID, Role: user.RoleUser}, d.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.tasks.Update(ctx, other.ID, d.ID, &UpdateTaskRequest{Title: ptr("stolen")})
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	err = f.tasks.Delete(ctx, other.ID, d.ID)
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, CreateTaskRequest{AssignedTo: &f.member.ID})
	assignee := user.Principal{ID: f.member.ID, Role: user.RoleUser}

	f.clock.Advance(time.Minute)
	updated, err := f.tasks.UpdateStatus(ctx, assignee, d.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.True(t, updated.UpdatedAt.Equal(now.Add(time.Minute)))

	// No transition rules: completed can go back to pending.
	updated, err = f.tasks.UpdateStatus(ctx, assignee, d.ID, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)

	_, err = f.tasks.UpdateStatus(ctx, assignee, d.ID, StatusOverdue)
	assert.ErrorIs(t, err, ErrOverdueIsAutomatic)

	_, err = f.tasks.UpdateStatus(ctx, assignee, d.ID, Status("archived"))
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestUpdateAndAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, CreateTaskRequest{})
	second := f.register(t, "u2@example.com", user.RoleUser)

	updated, err := f.tasks.Update(ctx, f.admin.ID, d.ID, &UpdateTaskRequest{
		Title:    ptr("Renamed"),
		Priority: ptr(PriorityUrgent),
		Tags:     &[]string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, PriorityUrgent, updated.Priority)
	assert.Equal(t, []string{"a", "b"}, []string(updated.Tags))
	assert.Equal(t, "Quarterly numbers", updated.Description)

	_, err = f.tasks.Assign(ctx, f.admin.ID, d.ID, second.ID)
	assert.ErrorIs(t, err, ErrAssigneeNotOnRoster)

	_, err = f.roster.AddMember(ctx, f.admin.ID, &roster.AddMemberRequest{Email: second.Email})
	require.NoError(t, err)

	assigned, err := f.tasks.Assign(ctx, f.admin.ID, d.ID, second.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.Assignee)
	assert.Equal(t, second.ID, assigned.Assignee.ID)
}

func TestCommentsAndAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, CreateTaskRequest{AssignedTo: &f.member.ID})
	assignee := user.Principal{ID: f.member.ID, Role: user.RoleUser}

	withComment, err := f.tasks.AddComment(ctx, assignee, d.ID, " on it ")
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	assert.Equal(t, "on it", withComment.Comments[0].Content)
	assert.Equal(t, f.member.ID, withComment.Comments[0].UserID)

	_, err = f.tasks.AddComment(ctx, assignee, d.ID, "  ")
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	_, err = f.tasks.AddAttachment(ctx, assignee, d.ID, &AddAttachmentRequest{Path: " ", Filename: "brief.pdf"})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	withFile, err := f.tasks.AddAttachment(ctx, assignee, d.ID, &AddAttachmentRequest{Path: "uploads/2025/brief.pdf"})
	require.NoError(t, err)
	require.Len(t, withFile.Attachments, 1)
	assert.Equal(t, "brief.pdf", withFile.Attachments[0].Filename)
	assert.Equal(t, "brief.pdf", withFile.Attachments[0].OriginalName)
	assert.Len(t, withFile.Comments, 1)
}

func TestListByCreatorFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, CreateTaskRequest{Title: "mine", AssignedTo: &f.member.ID, Priority: ptr(PriorityHigh)})
	f.create(t, CreateTaskRequest{Title: "unassigned"})

	all, err := f.tasks.ListByCreator(ctx, f.admin.ID, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	high, err := f.tasks.ListByCreator(ctx, f.admin.ID, ListOptions{Priority: ptr(PriorityHigh)})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "mine", high[0].Title)

	assigned, err := f.tasks.ListByAssignee(ctx, f.member.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	none, err := f.tasks.ListByAssignee(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBulkMarkOverdueRequiresScope(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.BulkMarkOverdue(context.Background(), Filter{}, now)
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create(t, CreateTaskRequest{})

	tests := []struct {
		name string
		req  UpdateTaskRequest
	}{
		{"blank title", UpdateTaskRequest{Title: ptr("  ")}},
		{"blank description", UpdateTaskRequest{Description: ptr("")}},
		{"zero due date", UpdateTaskRequest{DueDate: &time.Time{}}},
		{"negative hours", UpdateTaskRequest{EstimatedHours: ptr(-0.5)}},
		{"unknown category", UpdateTaskRequest{Category: ptr(Category("ops"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.Update(ctx, f.admin.ID, d.ID, &tt.req)
			assert.ErrorIs(t, err, perrors.ErrValidationFailed)
		})
	}

	unchanged, err := f.tasks.Get(ctx, user.Principal{ID: f.admin.ID, Role: user.RoleAdmin}, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", unchanged.Title)
}

func TestRescheduleClearsOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := user.Principal{ID: f.admin.ID, Role: user.RoleAdmin}

	late := f.create(t, CreateTaskRequest{DueDate: ptr(now.Add(-time.Hour))})
	done := f.create(t, CreateTaskRequest{DueDate: ptr(now.Add(-time.Hour)), Status: ptr(StatusCompleted)})

	flipped, err := f.tasks.BulkMarkOverdue(ctx, Filter{CreatedBy: &f.admin.ID}, now)
	require.NoError(t, err)
	require.Len(t, flipped, 1)
	assert.Equal(t, late.ID, flipped[0].ID)
	assert.Equal(t, StatusOverdue, flipped[0].Status)

	// Still in the past: the task stays overdue.
	updated, err := f.tasks.Update(ctx, f.admin.ID, late.ID, &UpdateTaskRequest{DueDate: ptr(now.Add(-time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, updated.Status)

	// Other edits leave the status alone.
	updated, err = f.tasks.Update(ctx, f.admin.ID, late.ID, &UpdateTaskRequest{Title: ptr("Late report")})
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, updated.Status)

	updated, err = f.tasks.Update(ctx, f.admin.ID, late.ID, &UpdateTaskRequest{DueDate: ptr(now.Add(48 * time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)

	// The rescheduled task is not swept again.
	flipped, err = f.tasks.BulkMarkOverdue(ctx, Filter{CreatedBy: &f.admin.ID}, now)
	require.NoError(t, err)
	assert.Empty(t, flipped)

	// Only overdue tasks are put back to pending.
	updated, err = f.tasks.Update(ctx, f.admin.ID, done.ID, &UpdateTaskRequest{DueDate: ptr(now.Add(48 * time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	got, err := f.tasks.Get(ctx, admin, late.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestAssignmentsNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assigned := f.create(t, CreateTaskRequest{AssignedTo: &f.member.ID})
	open := f.create(t, CreateTaskRequest{})
	assert.Equal(t, map[uuid.UUID]uuid.UUID{assigned.ID: f.member.ID}, f.notes.got)

	_, err := f.tasks.Assign(ctx, f.admin.ID, open.ID, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, f.member.ID, f.notes.got[open.ID])

	_, err = f.tasks.Assign(ctx, f.admin.ID, open.ID, uuid.Nil)
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
	assert.Len(t, f.notes.got, 2)
}
