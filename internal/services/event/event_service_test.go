package event

import (
	"context"
	"testing"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func newService() (*EventService, *clock.Fixed) {
	clk := clock.NewFixed(now)
	return NewEventService(NewMemoryRepo(), clk), clk
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	owner := uuid.New()

	e, err := svc.Create(ctx, owner, &CreateEventRequest{
		Title:    "  Standup ",
		Date:     day(4),
		Time:     "09:30",
		Reminder: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Standup", e.Title)
	assert.Equal(t, owner, e.UserID)
	assert.Equal(t, "09:30", e.Time)
	assert.True(t, e.Reminder)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, now, e.UpdatedAt)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	cases := []struct {
		name string
		req  CreateEventRequest
		msg  string
	}{
		{name: "blank title", req: CreateEventRequest{Title: "   ", Date: day(4)}, msg: "title is required"},
		{name: "missing date", req: CreateEventRequest{Title: "Standup"}, msg: "date is required"},
		{name: "bad time", req: CreateEventRequest{Title: "Standup", Date: day(4), Time: "25:00"}, msg: "time must match the layout 15:04"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, uuid.New(), &tc.req)
			assert.ErrorIs(t, err, perrors.ErrValidationFailed)
			assert.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestEventsArePrivate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	owner, other := uuid.New(), uuid.New()

	e, err := svc.Create(ctx, owner, &CreateEventRequest{Title: "Dentist", Date: day(5)})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, e.ID)
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	title := "Mine now"
	_, err = svc.Update(ctx, other, e.ID, &UpdateEventRequest{Title: &title})
	assert.ErrorIs(t, err, perrors.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, other, e.ID), perrors.ErrNotFound)

	list, err := svc.List(ctx, other, Range{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	got, err := svc.Get(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Title)
}

func TestListRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	owner := uuid.New()

	mk := func(title string, d int, at string) {
		_, err := svc.Create(ctx, owner, &CreateEventRequest{Title: title, Date: day(d), Time: at})
		require.NoError(t, err)
	}
	mk("late", 6, "17:00")
	mk("early", 6, "08:00")
	mk("before", 2, "")
	mk("after", 9, "")

	from, to := day(3), day(9)
	got, err := svc.List(ctx, owner, Range{From: &from, To: &to})
	require.NoError(t, err)

	var titles []string
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"early", "late"}, titles)

	all, err := svc.List(ctx, owner, Range{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "before", all[0].Title)

	_, err = svc.List(ctx, owner, Range{From: &to, To: &from})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService()
	owner := uuid.New()

	e, err := svc.Create(ctx, owner, &CreateEventRequest{Title: "Review", Date: day(4), Time: "10:00"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	moved, noReminder := day(7), false
	at := " 14:15 "
	got, err := svc.Update(ctx, owner, e.ID, &UpdateEventRequest{Date: &moved, Time: &at, Reminder: &noReminder})
	require.NoError(t, err)
	assert.Equal(t, moved, got.Date)
	assert.Equal(t, "14:15", got.Time)
	assert.Equal(t, "Review", got.Title)
	assert.Equal(t, now.Add(time.Hour), got.UpdatedAt)
	assert.Equal(t, now, got.CreatedAt)

	blank := "  "
	_, err = svc.Update(ctx, owner, e.ID, &UpdateEventRequest{Title: &blank})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	var zero time.Time
	_, err = svc.Update(ctx, owner, e.ID, &UpdateEventRequest{Date: &zero})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)

	bad := "7pm"
	_, err = svc.Update(ctx, owner, e.ID, &UpdateEventRequest{Time: &bad})
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	owner := uuid.New()

	e, err := svc.Create(ctx, owner, &CreateEventRequest{Title: "Gym", Date: day(4)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, e.ID))
	_, err = svc.Get(ctx, owner, e.ID)
	assert.ErrorIs(t, err, perrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner, e.ID), perrors.ErrNotFound)
}

func TestListQuery(t *testing.T) {
	owner := uuid.New()
	from, to := day(3), day(9)

	q, args := listQuery(owner, Range{To: &to})
	assert.Contains(t, q, "WHERE user_id = $1 AND date < $2 ORDER BY date ASC, time ASC")
	assert.Equal(t, []interface{}{owner, to}, args)

	q, args = listQuery(owner, Range{From: &from, To: &to})
	assert.Contains(t, q, "WHERE user_id = $1 AND date >= $2 AND date < $3 ORDER BY")
	assert.Equal(t, []interface{}{owner, from, to}, args)
}
