package notification

import (
	"context"
	"testing"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)

func newService() (*NotificationService, *clock.Fixed) {
	clk := clock.NewFixed(now)
	return NewNotificationService(NewMemoryRepo(), clk), clk
}

func TestTaskAssigned(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	member := uuid.New()

	tk := &task.Task{ID: uuid.New(), Title: "Ship it", CreatedBy: uuid.New(), AssignedTo: &member}
	require.NoError(t, svc.TaskAssigned(ctx, tk))

	got, err := svc.List(ctx, member, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, KindTaskAssigned, got[0].Kind)
	assert.Equal(t, tk.ID, *got[0].TaskID)
	assert.Equal(t, `You have been assigned "Ship it"`, got[0].Message)
	assert.Equal(t, now, got[0].CreatedAt)
	assert.False(t, got[0].IsRead)

	require.NoError(t, svc.TaskAssigned(ctx, &task.Task{ID: uuid.New(), Title: "Nobody"}))
	got, err = svc.List(ctx, member, false)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTasksOverdueFallsBackToCreator(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	admin, member := uuid.New(), uuid.New()
	due := now.Add(-time.Hour)

	require.NoError(t, svc.TasksOverdue(ctx, []*task.Task{
		{ID: uuid.New(), Title: "assigned", CreatedBy: admin, AssignedTo: &member, DueDate: due},
		{ID: uuid.New(), Title: "unassigned", CreatedBy: admin, DueDate: due},
	}))

	forMember, err := svc.List(ctx, member, false)
	require.NoError(t, err)
	require.Len(t, forMember, 1)
	assert.Equal(t, KindTaskOverdue, forMember[0].Kind)
	assert.Equal(t, `"assigned" was due 2025-06-03 14:00 and is now overdue`, forMember[0].Message)

	forAdmin, err := svc.List(ctx, admin, false)
	require.NoError(t, err)
	require.Len(t, forAdmin, 1)
	assert.Contains(t, forAdmin[0].Message, `"unassigned"`)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService()
	member := uuid.New()

	first := &task.Task{ID: uuid.New(), Title: "first", AssignedTo: &member}
	second := &task.Task{ID: uuid.New(), Title: "second", AssignedTo: &member}
	require.NoError(t, svc.TaskAssigned(ctx, first))
	clk.Advance(time.Minute)
	require.NoError(t, svc.TaskAssigned(ctx, second))

	got, err := svc.List(ctx, member, false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, *got[0].TaskID)
	assert.Equal(t, first.ID, *got[1].TaskID)

	empty, err := svc.List(ctx, uuid.New(), false)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	member, stranger := uuid.New(), uuid.New()

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, svc.TaskAssigned(ctx, &task.Task{ID: uuid.New(), Title: title, AssignedTo: &member}))
	}
	all, err := svc.List(ctx, member, false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	err = svc.MarkRead(ctx, stranger, all[0].ID)
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, member, all[0].ID))
	unread, err := svc.List(ctx, member, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := svc.MarkAllRead(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = svc.List(ctx, member, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	n, err = svc.MarkAllRead(ctx, member)
	require.NoError(t, err)
	assert.Zero(t, n)
}
