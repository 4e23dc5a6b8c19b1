package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/curaious/tasky/internal/validation"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrCreatorNotAdmin     = fmt.Errorf("only admins author tasks: %w", perrors.ErrForbidden)
	ErrAssigneeNotOnRoster = fmt.Errorf("assignee is not on the admin's roster: %w", perrors.ErrInvalidReference)
	ErrUnknownDependency   = fmt.Errorf("dependency does not resolve to a task of this admin: %w", perrors.ErrInvalidReference)
	ErrDependencyCycle     = fmt.Errorf("dependencies would form a cycle: %w", perrors.ErrValidationFailed)
	ErrOverdueIsAutomatic  = fmt.Errorf("overdue is set automatically once the due date passes: %w", perrors.ErrValidationFailed)
)

// UserDirectory resolves user references
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error)
}

// RosterDirectory answers tenancy questions
type RosterDirectory interface {
	IsMember(ctx context.Context, adminID, userID uuid.UUID) (bool, error)
}

// AssignmentNotifier is told about every task handed to a user, after the change is stored
type AssignmentNotifier interface {
	TaskAssigned(ctx context.Context, t *Task) error
}

// TaskService contains business logic for tasks
type TaskService struct {
	repo   Repository
	users  UserDirectory
	roster RosterDirectory
	notify AssignmentNotifier
	clock  clock.Clock
}

// NewTaskService wires the task logic. notify may be nil.
func NewTaskService(repo Repository, users UserDirectory, roster RosterDirectory, notify AssignmentNotifier, clk clock.Clock) *TaskService {
	return &TaskService{repo: repo, users: users, roster: roster, notify: notify, clock: clk}
}

// Create authors a task on behalf of an admin, applying defaults for every optional field.
func (s *TaskService) Create(ctx context.Context, adminID uuid.UUID, req *CreateTaskRequest) (*TaskDetails, error) {
	in := *req
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	status, priority, category := StatusPending, PriorityMedium, CategoryOther
	if in.Status != nil {
		if *in.Status == StatusOverdue {
			return nil, ErrOverdueIsAutomatic
		}
		status = *in.Status
	}
	if in.Priority != nil {
		priority = *in.Priority
	}
	if in.Category != nil {
		category = *in.Category
	}

	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	if in.AssignedTo != nil {
		if err := s.validateAssignee(ctx, adminID, *in.AssignedTo); err != nil {
			return nil, err
		}
	}

	deps := dedupeIDs(in.Dependencies)
	if err := s.validateDependencies(ctx, adminID, uuid.Nil, deps); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	created, err := s.repo.Create(ctx, &Task{
		Title:          in.Title,
		Description:    in.Description,
		AssignedTo:     in.AssignedTo,
		CreatedBy:      adminID,
		DueDate:        in.DueDate.UTC(),
		Status:         status,
		Priority:       priority,
		Category:       category,
		Tags:           normalizeTags(in.Tags),
		EstimatedHours: in.EstimatedHours,
		Dependencies:   deps,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if created.AssignedTo != nil {
		s.notifyAssigned(ctx, created)
	}
	return s.resolveOne(ctx, created)
}

// ListByAssignee returns the tasks assigned to userID with details resolved
func (s *TaskService) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]*TaskDetails, error) {
	return s.Find(ctx, Filter{AssignedTo: &userID})
}

// ListByCreator returns the tasks authored by adminID, optionally narrowed
func (s *TaskService) ListByCreator(ctx context.Context, adminID uuid.UUID, opts ListOptions) ([]*TaskDetails, error) {
	f := Filter{CreatedBy: &adminID, AssignedTo: opts.AssignedTo, Priority: opts.Priority}
	if opts.Status != nil {
		f.Statuses = []Status{*opts.Status}
	}
	return s.Find(ctx, f)
}

// Find reads the tasks matching f and resolves their details. Callers are responsible for
// scoping f to a tenant.
func (s *TaskService) Find(ctx context.Context, f Filter) ([]*TaskDetails, error) {
	tasks, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return s.resolve(ctx, tasks)
}

// Get returns a task visible to the principal. Tasks of other tenants are reported as not found.
func (s *TaskService) Get(ctx context.Context, p user.Principal, id uuid.UUID) (*TaskDetails, error) {
	t, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, t)
}

// UpdateStatus sets the status unconditionally. Only the sweeper may move a task to overdue.
func (s *TaskService) UpdateStatus(ctx context.Context, p user.Principal, id uuid.UUID, status Status) (*TaskDetails, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	if status == StatusOverdue {
		return nil, ErrOverdueIsAutomatic
	}

	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, Update{Status: &status}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, updated)
}

// Update edits the descriptive fields of a task owned by adminID. Moving the due date of an
// overdue task to now or later puts it back to pending.
func (s *TaskService) Update(ctx context.Context, adminID, id uuid.UUID, req *UpdateTaskRequest) (*TaskDetails, error) {
	in := *req
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		in.Description = &description
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		return nil, fmt.Errorf("due_date cannot be empty: %w", perrors.ErrValidationFailed)
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	upd := Update{
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		Category:       in.Category,
		EstimatedHours: in.EstimatedHours,
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		upd.DueDate = &due
	}
	if in.Tags != nil {
		tags := []string(normalizeTags(*in.Tags))
		upd.Tags = &tags
	}

	t, err := s.owned(ctx, adminID, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if upd.DueDate != nil && t.Status == StatusOverdue && !upd.DueDate.Before(now) {
		pending := StatusPending
		upd.Status = &pending
	}

	updated, err := s.repo.Update(ctx, id, upd, now)
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, updated)
}

// Assign hands an admin's task to a member of that admin's roster
func (s *TaskService) Assign(ctx context.Context, adminID, id, userID uuid.UUID) (*TaskDetails, error) {
	if err := validation.Var("user_id", userID, "required"); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, adminID, id); err != nil {
		return nil, err
	}
	if err := s.validateAssignee(ctx, adminID, userID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, Update{AssignedTo: &userID}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.notifyAssigned(ctx, updated)
	return s.resolveOne(ctx, updated)
}

// SetDependencies replaces the dependency list, rejecting self references and cycles
func (s *TaskService) SetDependencies(ctx context.Context, adminID, id uuid.UUID, ids []uuid.UUID) (*TaskDetails, error) {
	if _, err := s.owned(ctx, adminID, id); err != nil {
		return nil, err
	}

	deps := dedupeIDs(ids)
	if err := s.validateDependencies(ctx, adminID, id, deps); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, Update{Dependencies: &deps}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, updated)
}

func (s *TaskService) AddComment(ctx context.Context, p user.Principal, id uuid.UUID, content string) (*TaskDetails, error) {
	content = strings.TrimSpace(content)
	if err := validation.Var("content", content, "required"); err != nil {
		return nil, err
	}

	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	updated, err := s.repo.AppendComment(ctx, id, Comment{
		ID:        uuid.New(),
		UserID:    p.ID,
		Content:   content,
		CreatedAt: now,
	}, now)
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, updated)
}

// AddAttachment records a reference to an already stored blob
func (s *TaskService) AddAttachment(ctx context.Context, p user.Principal, id uuid.UUID, req *AddAttachmentRequest) (*TaskDetails, error) {
	in := AddAttachmentRequest{
		Filename:     strings.TrimSpace(req.Filename),
		OriginalName: strings.TrimSpace(req.OriginalName),
		Path:         strings.TrimSpace(req.Path),
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}

	filename := in.Filename
	if filename == "" {
		filename = in.Path[strings.LastIndex(in.Path, "/")+1:]
	}
	originalName := in.OriginalName
	if originalName == "" {
		originalName = filename
	}

	now := s.clock.Now()
	updated, err := s.repo.AppendAttachment(ctx, id, Attachment{
		ID:           uuid.New(),
		Filename:     filename,
		OriginalName: originalName,
		Path:         in.Path,
		UploadedBy:   p.ID,
		UploadedAt:   now,
	}, now)
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, updated)
}

// Delete hard-deletes a task owned by adminID. Dependents lose the reference.
func (s *TaskService) Delete(ctx context.Context, adminID, id uuid.UUID) error {
	if _, err := s.owned(ctx, adminID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, s.clock.Now())
}

// BulkMarkOverdue flips pending tasks of the scoped filter whose due date is before now and
// returns the flipped tasks.
func (s *TaskService) BulkMarkOverdue(ctx context.Context, f Filter, now time.Time) ([]*Task, error) {
	return s.repo.BulkMarkOverdue(ctx, f, now)
}

// notifyAssigned is best effort: the assignment is already stored.
func (s *TaskService) notifyAssigned(ctx context.Context, t *Task) {
	if s.notify == nil {
		return
	}
	if err := s.notify.TaskAssigned(ctx, t); err != nil {
		slog.WarnContext(ctx, "Unable to notify assignee",
			slog.String("task_id", t.ID.String()),
			slog.Any("error", err))
	}
}

func (s *TaskService) visible(ctx context.Context, p user.Principal, id uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(p) {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (s *TaskService) owned(ctx context.Context, adminID, id uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy != adminID {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (s *TaskService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, perrors.ErrNotFound) {
			return fmt.Errorf("creator %s: %w", adminID, perrors.ErrInvalidReference)
		}
		return err
	}
	if !admin.IsAdmin() {
		return ErrCreatorNotAdmin
	}
	return nil
}

func (s *TaskService) validateAssignee(ctx context.Context, adminID, userID uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, perrors.ErrNotFound) {
			return fmt.Errorf("assignee %s: %w", userID, perrors.ErrInvalidReference)
		}
		return err
	}

	ok, err := s.roster.IsMember(ctx, adminID, userID)
	if err != nil {
		return fmt.Errorf("failed to check roster: %w", err)
	}
	if !ok {
		return ErrAssigneeNotOnRoster
	}
	return nil
}

// validateDependencies checks that deps resolve to tasks of the same admin and that adding them to
// taskID would not close a cycle. taskID is uuid.Nil for a task that does not exist yet.
func (s *TaskService) validateDependencies(ctx context.Context, adminID, taskID uuid.UUID, deps []uuid.UUID) error {
	if len(deps) == 0 {
		return nil
	}

	for _, d := range deps {
		if taskID != uuid.Nil && d == taskID {
			return fmt.Errorf("a task cannot depend on itself: %w", perrors.ErrValidationFailed)
		}
	}

	found, err := s.repo.List(ctx, Filter{IDs: deps, CreatedBy: &adminID})
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	if len(found) != len(deps) {
		return ErrUnknownDependency
	}

	if taskID == uuid.Nil {
		return nil
	}

	// Walk the dependency graph breadth first; reaching taskID means a cycle.
	visited := map[uuid.UUID]bool{}
	frontier := found
	for len(frontier) > 0 {
		var next []uuid.UUID
		for _, t := range frontier {
			if visited[t.ID] {
				continue
			}
			visited[t.ID] = true
			for _, d := range t.Dependencies {
				if d == taskID {
					return ErrDependencyCycle
				}
				if !visited[d] {
					next = append(next, d)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		frontier, err = s.repo.List(ctx, Filter{IDs: dedupeIDs(next)})
		if err != nil {
			return fmt.Errorf("failed to walk dependencies: %w", err)
		}
	}

	return nil
}

func (s *TaskService) resolveOne(ctx context.Context, t *Task) (*TaskDetails, error) {
	details, err := s.resolve(ctx, []*Task{t})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// resolve batches the user and dependency lookups for a set of tasks
func (s *TaskService) resolve(ctx context.Context, tasks []*Task) ([]*TaskDetails, error) {
	out := make([]*TaskDetails, 0, len(tasks))
	if len(tasks) == 0 {
		return out, nil
	}

	var userIDs, depIDs []uuid.UUID
	for _, t := range tasks {
		userIDs = append(userIDs, t.CreatedBy)
		if t.AssignedTo != nil {
			userIDs = append(userIDs, *t.AssignedTo)
		}
		depIDs = append(depIDs, t.Dependencies...)
	}

	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}

	deps := map[uuid.UUID]*Task{}
	if len(depIDs) > 0 {
		found, err := s.repo.List(ctx, Filter{IDs: dedupeIDs(depIDs)})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dependencies: %w", err)
		}
		for _, d := range found {
			deps[d.ID] = d
		}
	}

	for _, t := range tasks {
		d := &TaskDetails{
			Task:            t,
			Creator:         users[t.CreatedBy].Summary(),
			DependencyTasks: make([]*DependencySummary, 0, len(t.Dependencies)),
		}
		if t.AssignedTo != nil {
			d.Assignee = users[*t.AssignedTo].Summary()
		}
		for _, id := range t.Dependencies {
			if dep, ok := deps[id]; ok {
				d.DependencyTasks = append(d.DependencyTasks, &DependencySummary{
					ID:      dep.ID,
					Title:   dep.Title,
					Status:  dep.Status,
					DueDate: dep.DueDate,
				})
			}
		}
		out = append(out, d)
	}

	return out, nil
}

func normalizeTags(tags []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
