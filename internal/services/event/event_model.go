package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a personal calendar entry. Time is an optional "HH:MM" wall clock time on Date.
type Event struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	Time        string    `db:"time" json:"time"`
	Reminder    bool      `db:"reminder" json:"reminder"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time" validate:"omitempty,datetime=15:04"`
	Reminder    bool      `json:"reminder"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Time        *string    `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Reminder    *bool      `json:"reminder,omitempty"`
}

// Range bounds ListByUser on Date; either end may be open. To is exclusive.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}
