package task

import (
	"fmt"
	"time"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/google/uuid"
)

// TimeRange is a closed instant range [Start, End] at millisecond resolution
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// until is the exclusive upper bound equivalent to the inclusive End.
func (r TimeRange) until() time.Time {
	return r.End.Add(time.Millisecond).Truncate(time.Millisecond)
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.until())
}

type ScopeKind int

const (
	ScopeAssignee ScopeKind = iota + 1
	ScopeCreator
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAssignee:
		return "assignee"
	case ScopeCreator:
		return "creator"
	default:
		return "none"
	}
}

// Scope binds a sweep or report to a single tenant: the tasks assigned to a user, or the tasks
// authored by an admin. The zero Scope is invalid.
type Scope struct {
	Kind   ScopeKind
	UserID uuid.UUID
}

func AssigneeScope(userID uuid.UUID) Scope {
	return Scope{Kind: ScopeAssignee, UserID: userID}
}

func CreatorScope(adminID uuid.UUID) Scope {
	return Scope{Kind: ScopeCreator, UserID: adminID}
}

func (s Scope) Validate() error {
	if (s.Kind != ScopeAssignee && s.Kind != ScopeCreator) || s.UserID == uuid.Nil {
		return fmt.Errorf("scope must be bound to an assignee or a creator: %w", perrors.ErrValidationFailed)
	}
	return nil
}

// Filter returns the ownership filter of the scope
func (s Scope) Filter() Filter {
	id := s.UserID
	switch s.Kind {
	case ScopeAssignee:
		return Filter{AssignedTo: &id}
	case ScopeCreator:
		return Filter{CreatedBy: &id}
	default:
		return Filter{}
	}
}

func (s Scope) String() string {
	return fmt.Sprintf("%s=%s", s.Kind, s.UserID)
}

// Filter selects tasks. Every set field must match; Window matches when either createdAt or
// dueDate falls inside it.
type Filter struct {
	IDs        []uuid.UUID
	AssignedTo *uuid.UUID
	CreatedBy  *uuid.UUID
	Statuses   []Status
	Priority   *Priority
	DueBefore  *time.Time
	Window     *TimeRange
}

// Scoped reports whether the filter is bound to an owner column.
func (f Filter) Scoped() bool {
	return f.AssignedTo != nil || f.CreatedBy != nil
}

func (f Filter) Matches(t *Task) bool {
	if len(f.IDs) > 0 && !IDList(f.IDs).Contains(t.ID) {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.DueBefore != nil && !t.DueDate.Before(*f.DueBefore) {
		return false
	}
	if f.Window != nil && !f.Window.Contains(t.CreatedAt) && !f.Window.Contains(t.DueDate) {
		return false
	}
	return true
}

func containsStatus(statuses []Status, s Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
