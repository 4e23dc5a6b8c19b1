package task

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status is the closed set of task lifecycle states. Overdue is only ever written by the sweeper.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

// ParseStatus accepts the canonical names plus the spaced and dashed spellings of inProgress.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, nil
	case "inprogress", "in progress", "in-progress", "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "overdue":
		return StatusOverdue, nil
	}
	return "", fmt.Errorf("unknown status %q: %w", raw, perrors.ErrValidationFailed)
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan rejects stored values outside the closed set instead of passing them through.
func (s *Status) Scan(value interface{}) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(raw))
}

func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Priorities {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q: %w", raw, perrors.ErrValidationFailed)
}

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *Priority) Scan(value interface{}) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	return p.UnmarshalText([]byte(raw))
}

func (p Priority) Value() (driver.Value, error) {
	return string(p), nil
}

type Category string

const (
	CategoryDevelopment   Category = "development"
	CategoryDesign        Category = "design"
	CategoryTesting       Category = "testing"
	CategoryDocumentation Category = "documentation"
	CategoryOther         Category = "other"
)

var Categories = []Category{CategoryDevelopment, CategoryDesign, CategoryTesting, CategoryDocumentation, CategoryOther}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q: %w", raw, perrors.ErrValidationFailed)
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Category) Scan(value interface{}) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	return c.UnmarshalText([]byte(raw))
}

func (c Category) Value() (driver.Value, error) {
	return string(c), nil
}

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T for enum column", value)
	}
}

// Attachment is metadata pointing into the external blob store
type Attachment struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Attachments []Attachment

// Scan implements the sql.Scanner interface for database/sql
func (a *Attachments) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// Value implements the driver.Valuer interface for database/sql
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		a = Attachments{}
	}
	return json.Marshal(a)
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Comments []Comment

func (c *Comments) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func (c Comments) Value() (driver.Value, error) {
	if c == nil {
		c = Comments{}
	}
	return json.Marshal(c)
}

func scanJSON(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, target)
}

// IDList is a uuid[] column
type IDList []uuid.UUID

func (l *IDList) Scan(value interface{}) error {
	var raw pq.StringArray
	if err := raw.Scan(value); err != nil {
		return err
	}

	ids := make(IDList, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid uuid in array: %w", err)
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

func (l IDList) Value() (driver.Value, error) {
	raw := make(pq.StringArray, 0, len(l))
	for _, id := range l {
		raw = append(raw, id.String())
	}
	return raw.Value()
}

func (l IDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

type Task struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	AssignedTo     *uuid.UUID     `db:"assigned_to" json:"assigned_to"`
	CreatedBy      uuid.UUID      `db:"created_by" json:"created_by"`
	DueDate        time.Time      `db:"due_date" json:"due_date"`
	Status         Status         `db:"status" json:"status"`
	Priority       Priority       `db:"priority" json:"priority"`
	Category       Category       `db:"category" json:"category"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	EstimatedHours *float64       `db:"estimated_hours" json:"estimated_hours,omitempty"`
	Dependencies   IDList         `db:"dependencies" json:"dependencies"`
	Attachments    Attachments    `db:"attachments" json:"attachments"`
	Comments       Comments       `db:"comments" json:"comments"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// IsAssignedTo reports whether id is the task's assignee
func (t *Task) IsAssignedTo(id uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == id
}

// VisibleTo reports whether the principal is the task's creator or assignee
func (t *Task) VisibleTo(p user.Principal) bool {
	return t.CreatedBy == p.ID || t.IsAssignedTo(p.ID)
}

// normalize replaces nil collections with empty ones so JSON never carries null arrays
func (t *Task) normalize() {
	if t.Tags == nil {
		t.Tags = pq.StringArray{}
	}
	if t.Dependencies == nil {
		t.Dependencies = IDList{}
	}
	if t.Attachments == nil {
		t.Attachments = Attachments{}
	}
	if t.Comments == nil {
		t.Comments = Comments{}
	}
}

func (t *Task) clone() *Task {
	out := *t
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		out.AssignedTo = &a
	}
	if t.EstimatedHours != nil {
		h := *t.EstimatedHours
		out.EstimatedHours = &h
	}
	out.Tags = append(pq.StringArray{}, t.Tags...)
	out.Dependencies = append(IDList{}, t.Dependencies...)
	out.Attachments = append(Attachments{}, t.Attachments...)
	out.Comments = append(Comments{}, t.Comments...)
	return &out
}

// DependencySummary is the resolved view of a dependency
type DependencySummary struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Status  Status    `json:"status"`
	DueDate time.Time `json:"due_date"`
}

// TaskDetails is a task with its assignee, creator and dependencies resolved
type TaskDetails struct {
	*Task
	Assignee        *user.Summary        `json:"assignee"`
	Creator         *user.Summary        `json:"creator"`
	DependencyTasks []*DependencySummary `json:"dependency_tasks"`
}

// CreateTaskRequest captures payload for creating a task
type CreateTaskRequest struct {
	Title          string      `json:"title" validate:"required"`
	Description    string      `json:"description" validate:"required"`
	AssignedTo     *uuid.UUID  `json:"assigned_to,omitempty"`
	DueDate        *time.Time  `json:"due_date" validate:"required"`
	Status         *Status     `json:"status,omitempty" validate:"omitempty,oneof=pending inProgress completed overdue"`
	Priority       *Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Category       *Category   `json:"category,omitempty" validate:"omitempty,oneof=development design testing documentation other"`
	Tags           []string    `json:"tags,omitempty"`
	EstimatedHours *float64    `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	Dependencies   []uuid.UUID `json:"dependencies,omitempty"`
}

// UpdateTaskRequest captures payload for editing a task; nil fields are left untouched
type UpdateTaskRequest struct {
	Title          *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Priority       *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Category       *Category  `json:"category,omitempty" validate:"omitempty,oneof=development design testing documentation other"`
	Tags           *[]string  `json:"tags,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

type AssignRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type SetDependenciesRequest struct {
	Dependencies []uuid.UUID `json:"dependencies"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// AddAttachmentRequest references a blob that was already stored elsewhere
type AddAttachmentRequest struct {
	Filename     string `json:"filename" validate:"omitempty,max=255"`
	OriginalName string `json:"original_name" validate:"omitempty,max=255"`
	Path         string `json:"path" validate:"required"`
}

// ListOptions narrows listByCreator
type ListOptions struct {
	AssignedTo *uuid.UUID
	Priority   *Priority
	Status     *Status
}

// Update is the storage level patch applied by Repository.Update
type Update struct {
	Title          *string
	Description    *string
	AssignedTo     *uuid.UUID
	DueDate        *time.Time
	Status         *Status
	Priority       *Priority
	Category       *Category
	Tags           *[]string
	EstimatedHours *float64
	Dependencies   *[]uuid.UUID
}
