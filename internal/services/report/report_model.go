package report

import (
	"fmt"
	"math"
	"time"

	"github.com/curaious/tasky/internal/services/task"
	"github.com/google/uuid"
)

// Histogram counts tasks per status. Every task lands in exactly one bucket.
type Histogram struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Overdue    int `json:"overdue"`
}

func (h *Histogram) add(s task.Status) error {
	switch s {
	case task.StatusCompleted:
		h.Completed++
	case task.StatusPending:
		h.Pending++
	case task.StatusInProgress:
		h.InProgress++
	case task.StatusOverdue:
		h.Overdue++
	default:
		return fmt.Errorf("unclassifiable task status %q", s)
	}
	h.Total++
	return nil
}

// CompletionRate is the rounded completed share in percent, 0 for an empty set.
func (h Histogram) CompletionRate() int {
	return CompletionRate(h.Completed, h.Total)
}

func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

type PriorityHistogram struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Urgent int `json:"urgent"`
}

func (h *PriorityHistogram) add(p task.Priority) error {
	switch p {
	case task.PriorityLow:
		h.Low++
	case task.PriorityMedium:
		h.Medium++
	case task.PriorityHigh:
		h.High++
	case task.PriorityUrgent:
		h.Urgent++
	default:
		return fmt.Errorf("unclassifiable task priority %q", p)
	}
	return nil
}

// Report is the windowed dashboard of one principal
type Report struct {
	Type           ReportType          `json:"type"`
	ReferenceDate  time.Time           `json:"reference_date"`
	Window         task.TimeRange      `json:"window"`
	Scope          string              `json:"scope"`
	Tasks          []*task.TaskDetails `json:"tasks"`
	Histogram      Histogram           `json:"histogram"`
	CompletionRate int                 `json:"completion_rate"`
	InProgress     []*task.TaskDetails `json:"in_progress"`
}

// AssigneeStats is one row of the per-assignee rollup
type AssigneeStats struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Total      int       `json:"total"`
	Completed  int       `json:"completed"`
	Pending    int       `json:"pending"`
	InProgress int       `json:"in_progress"`
	Overdue    int       `json:"overdue"`
}

// Summary is the admin wide aggregation over every authored task
type Summary struct {
	GeneratedAt      time.Time           `json:"generated_at"`
	Total            int                 `json:"total"`
	CompletionRate   int                 `json:"completion_rate"`
	StatusCounts     Histogram           `json:"status_counts"`
	PriorityCounts   PriorityHistogram   `json:"priority_counts"`
	OverdueTasks     []*task.TaskDetails `json:"overdue_tasks"`
	Assignees        []*AssigneeStats    `json:"assignees"`
	Unassigned       int                 `json:"unassigned"`
	CreatedLast7Days int                 `json:"created_last_7_days"`
}

// SummaryOptions narrows the summary to one assignee and/or priority
type SummaryOptions struct {
	UserID   *uuid.UUID
	Priority *task.Priority
}

// Stats is the instantaneous status breakdown of one assignee
type Stats struct {
	UserID uuid.UUID `json:"user_id"`
	Histogram
	CompletionRate int `json:"completion_rate"`
}
