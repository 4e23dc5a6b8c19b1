package notification

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTaskAssigned Kind = "task_assigned"
	KindTaskOverdue  Kind = "task_overdue"
)

// Notification is an in-app message addressed to one user. TaskID is cleared when the task is deleted.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Kind      Kind       `db:"kind" json:"kind"`
	TaskID    *uuid.UUID `db:"task_id" json:"task_id"`
	Message   string     `db:"message" json:"message"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
