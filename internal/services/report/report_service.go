package report

import (
	"context"
	"fmt"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/task"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("Reports")

var (
	ErrAdminOnly     = fmt.Errorf("summary is only available to admins: %w", perrors.ErrForbidden)
	ErrStatsNotFound = fmt.Errorf("no statistics for this user: %w", perrors.ErrNotFound)
)

const createdRecentlyWindow = 7 * 24 * time.Hour

// TaskFinder reads tasks with their references resolved
type TaskFinder interface {
	Find(ctx context.Context, f task.Filter) ([]*task.TaskDetails, error)
}

// Reconciler brings the statuses of one scope up to date before a read
type Reconciler interface {
	Reconcile(ctx context.Context, scope task.Scope)
}

// RosterReader answers which users belong to an admin
type RosterReader interface {
	AssignableUsers(ctx context.Context, adminID uuid.UUID) ([]*user.Summary, error)
	IsMember(ctx context.Context, adminID, userID uuid.UUID) (bool, error)
}

// ReportService aggregates the tasks of one tenant into reports and statistics
type ReportService struct {
	tasks   TaskFinder
	sweeper Reconciler
	roster  RosterReader
	clock   clock.Clock
	timeout time.Duration
}

func NewReportService(tasks TaskFinder, sweeper Reconciler, roster RosterReader, clk clock.Clock, timeout time.Duration) *ReportService {
	return &ReportService{tasks: tasks, sweeper: sweeper, roster: roster, clock: clk, timeout: timeout}
}

// ScopeOf returns the tenant a principal's reports are computed over: admins see what they
// authored, users what is assigned to them.
func ScopeOf(p user.Principal) task.Scope {
	if p.IsAdmin() {
		return task.CreatorScope(p.ID)
	}
	return task.AssigneeScope(p.ID)
}

// Generate builds the report of the given type for the window containing ref. The report is
// computed in full or not at all.
func (s *ReportService) Generate(ctx context.Context, p user.Principal, rt ReportType, ref time.Time) (*Report, error) {
	window, err := Window(rt, ref)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	scope := ScopeOf(p)
	ctx, span := tracer.Start(ctx, "ReportService.Generate", trace.WithAttributes(
		attribute.String("report.type", string(rt)),
		attribute.String("report.scope", scope.String()),
		attribute.String("report.window.start", window.Start.Format(time.RFC3339)),
	))
	defer span.End()

	s.sweeper.Reconcile(ctx, scope)

	f := scope.Filter()
	f.Window = &window
	details, err := s.tasks.Find(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	report := &Report{
		Type:          rt,
		ReferenceDate: ref.UTC(),
		Window:        window,
		Scope:         scope.Kind.String(),
		Tasks:         make([]*task.TaskDetails, 0, len(details)),
		InProgress:    make([]*task.TaskDetails, 0),
	}
	for _, d := range details {
		if err := report.Histogram.add(d.Status); err != nil {
			return nil, s.fail(ctx, span, err)
		}
		report.Tasks = append(report.Tasks, d)
		if d.Status == task.StatusInProgress {
			report.InProgress = append(report.InProgress, d)
		}
	}
	report.CompletionRate = report.Histogram.CompletionRate()

	span.SetAttributes(attribute.Int("report.total", report.Histogram.Total))
	return report, nil
}

// Summary aggregates every task authored by an admin, optionally narrowed to one assignee or
// priority.
func (s *ReportService) Summary(ctx context.Context, p user.Principal, opts SummaryOptions) (*Summary, error) {
	if !p.IsAdmin() {
		return nil, ErrAdminOnly
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	scope := task.CreatorScope(p.ID)
	ctx, span := tracer.Start(ctx, "ReportService.Summary", trace.WithAttributes(
		attribute.String("report.scope", scope.String()),
	))
	defer span.End()

	s.sweeper.Reconcile(ctx, scope)

	f := scope.Filter()
	f.AssignedTo = opts.UserID
	f.Priority = opts.Priority
	details, err := s.tasks.Find(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	assignable, err := s.roster.AssignableUsers(ctx, p.ID)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	now := s.clock.Now()
	recent := Trailing(now, createdRecentlyWindow)
	sum := &Summary{
		GeneratedAt:  now,
		OverdueTasks: make([]*task.TaskDetails, 0),
		Assignees:    make([]*AssigneeStats, 0, len(assignable)),
	}

	rows := make(map[uuid.UUID]*AssigneeStats, len(assignable))
	addRow := func(u *user.Summary) *AssigneeStats {
		row := &AssigneeStats{UserID: u.ID, Name: u.Name, Email: u.Email}
		rows[u.ID] = row
		sum.Assignees = append(sum.Assignees, row)
		return row
	}
	for _, u := range assignable {
		if opts.UserID != nil && u.ID != *opts.UserID {
			continue
		}
		addRow(u)
	}

	for _, d := range details {
		if err := sum.StatusCounts.add(d.Status); err != nil {
			return nil, s.fail(ctx, span, err)
		}
		if err := sum.PriorityCounts.add(d.Priority); err != nil {
			return nil, s.fail(ctx, span, err)
		}
		if d.Status != task.StatusCompleted && d.DueDate.Before(now) {
			sum.OverdueTasks = append(sum.OverdueTasks, d)
		}
		if recent.Contains(d.CreatedAt) {
			sum.CreatedLast7Days++
		}

		if d.AssignedTo == nil {
			sum.Unassigned++
			continue
		}
		row, ok := rows[*d.AssignedTo]
		if !ok {
			// Assigned before the user left the roster.
			assignee := d.Assignee
			if assignee == nil {
				assignee = &user.Summary{ID: *d.AssignedTo}
			}
			row = addRow(assignee)
		}
		row.Total++
		switch d.Status {
		case task.StatusCompleted:
			row.Completed++
		case task.StatusPending:
			row.Pending++
		case task.StatusInProgress:
			row.InProgress++
		case task.StatusOverdue:
			row.Overdue++
		}
	}

	sum.Total = sum.StatusCounts.Total
	sum.CompletionRate = sum.StatusCounts.CompletionRate()
	span.SetAttributes(attribute.Int("report.total", sum.Total))
	return sum, nil
}

// Stats returns the status breakdown of the tasks assigned to userID. A user may read their
// own statistics; an admin may read those of a roster member, restricted to the tasks the admin
// authored.
func (s *ReportService) Stats(ctx context.Context, p user.Principal, userID uuid.UUID) (*Stats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "ReportService.Stats")
	defer span.End()

	var scope task.Scope
	f := task.Filter{AssignedTo: &userID}
	switch {
	case userID == p.ID:
		scope = task.AssigneeScope(userID)
	case p.IsAdmin():
		member, err := s.roster.IsMember(ctx, p.ID, userID)
		if err != nil {
			return nil, s.fail(ctx, span, err)
		}
		if !member {
			return nil, ErrStatsNotFound
		}
		scope = task.CreatorScope(p.ID)
		f.CreatedBy = &p.ID
	default:
		return nil, ErrStatsNotFound
	}
	span.SetAttributes(attribute.String("report.scope", scope.String()))

	s.sweeper.Reconcile(ctx, scope)

	details, err := s.tasks.Find(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	stats := &Stats{UserID: userID}
	for _, d := range details {
		if err := stats.add(d.Status); err != nil {
			return nil, s.fail(ctx, span, err)
		}
	}
	stats.CompletionRate = stats.Histogram.CompletionRate()
	return stats, nil
}

func (s *ReportService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail records err on the span. When the report's deadline has passed the error becomes a
// retryable unavailability.
func (s *ReportService) fail(ctx context.Context, span trace.Span, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("report aborted (%v): %w", ctxErr, perrors.ErrServiceUnavailable)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
