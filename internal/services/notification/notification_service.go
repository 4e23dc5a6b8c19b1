package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/services/task"
	"github.com/google/uuid"
)

// NotificationService records in-app notifications about task assignment and overdue sweeps.
// It satisfies task.AssignmentNotifier and sweeper.OverdueNotifier.
type NotificationService struct {
	repo  Repository
	clock clock.Clock
}

func NewNotificationService(repo Repository, clk clock.Clock) *NotificationService {
	return &NotificationService{repo: repo, clock: clk}
}

// TaskAssigned tells the assignee about the task. Unassigned tasks are ignored.
func (s *NotificationService) TaskAssigned(ctx context.Context, t *task.Task) error {
	if t.AssignedTo == nil {
		return nil
	}
	return s.push(ctx, *t.AssignedTo, KindTaskAssigned, t.ID, fmt.Sprintf("You have been assigned %q", t.Title))
}

// TasksOverdue tells each task's assignee, or its creator when nobody is assigned, that it is past due.
func (s *NotificationService) TasksOverdue(ctx context.Context, tasks []*task.Task) error {
	var errs []error
	for _, t := range tasks {
		to := t.CreatedBy
		if t.AssignedTo != nil {
			to = *t.AssignedTo
		}
		msg := fmt.Sprintf("%q was due %s and is now overdue", t.Title, t.DueDate.Format("2006-01-02 15:04"))
		if err := s.push(ctx, to, KindTaskOverdue, t.ID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*Notification, error) {
	out, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Notification{}
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) push(ctx context.Context, userID uuid.UUID, kind Kind, taskID uuid.UUID, msg string) error {
	_, err := s.repo.Create(ctx, &Notification{
		UserID:    userID,
		Kind:      kind,
		TaskID:    &taskID,
		Message:   msg,
		CreatedAt: s.clock.Now(),
	})
	return err
}
