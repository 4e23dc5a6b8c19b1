// Package sweeper reconciles pending tasks whose due date has passed into the overdue state.
//
// There is no background job: every tenant scoped read calls Reconcile first, so staleness is
// bounded by the time since that tenant's previous read. A sweep only ever matches
// status = pending AND due_date < now within one scope, which makes it idempotent and safe to
// race with concurrent edits of the same rows.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/services/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("Sweeper")

// OverdueMarker is the task store operation the sweeper drives
type OverdueMarker interface {
	BulkMarkOverdue(ctx context.Context, f task.Filter, now time.Time) ([]*task.Task, error)
}

// OverdueNotifier is told about the tasks a sweep flipped
type OverdueNotifier interface {
	TasksOverdue(ctx context.Context, tasks []*task.Task) error
}

type Sweeper struct {
	store  OverdueMarker
	notify OverdueNotifier
	clock  clock.Clock
}

// New builds a sweeper over store. notify may be nil.
func New(store OverdueMarker, notify OverdueNotifier, clk clock.Clock) *Sweeper {
	return &Sweeper{store: store, notify: notify, clock: clk}
}

// Sweep marks the scope's pending tasks that are past due as overdue and returns how many rows
// changed. An unscoped call is rejected.
func (s *Sweeper) Sweep(ctx context.Context, scope task.Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	ctx, span := tracer.Start(ctx, "Sweeper.Sweep")
	defer span.End()

	now := s.clock.Now()
	span.SetAttributes(
		attribute.String("scope.kind", scope.Kind.String()),
		attribute.String("scope.user_id", scope.UserID.String()),
	)

	flipped, err := s.store.BulkMarkOverdue(ctx, scope.Filter(), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	n := int64(len(flipped))
	span.SetAttributes(attribute.Int64("sweep.marked", n))
	if n == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Marked tasks overdue", slog.String("scope", scope.String()), slog.Int64("count", n))
	// The flip is committed; a lost notification is not worth failing the read that triggered it.
	if s.notify != nil {
		if err := s.notify.TasksOverdue(ctx, flipped); err != nil {
			slog.WarnContext(ctx, "Unable to send overdue notifications",
				slog.String("scope", scope.String()),
				slog.Any("error", err))
		}
	}
	return n, nil
}

// Reconcile is the read path form of Sweep: a failure is logged and swallowed so the caller can
// go on to serve possibly stale data.
func (s *Sweeper) Reconcile(ctx context.Context, scope task.Scope) {
	if _, err := s.Sweep(ctx, scope); err != nil {
		slog.WarnContext(ctx, "Overdue sweep failed, serving possibly stale statuses",
			slog.String("scope", scope.String()),
			slog.Any("error", err))
	}
}
