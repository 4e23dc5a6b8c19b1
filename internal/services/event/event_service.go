package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/perrors"
	"github.com/curaious/tasky/internal/validation"
	"github.com/google/uuid"
)

// EventService manages each user's personal calendar. Events are private to their owner.
type EventService struct {
	repo  Repository
	clock clock.Clock
}

func NewEventService(repo Repository, clk clock.Clock) *EventService {
	return &EventService{repo: repo, clock: clk}
}

func (s *EventService) Create(ctx context.Context, userID uuid.UUID, req *CreateEventRequest) (*Event, error) {
	in := *req
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Time = strings.TrimSpace(in.Time)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &Event{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date.UTC(),
		Time:        in.Time,
		Reminder:    in.Reminder,
		CreatedAt:   s.clock.Now(),
	})
}

func (s *EventService) Get(ctx context.Context, userID, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// List returns the user's events ordered by date then time.
func (s *EventService) List(ctx context.Context, userID uuid.UUID, rng Range) ([]*Event, error) {
	if rng.From != nil && rng.To != nil && !rng.From.Before(*rng.To) {
		return nil, fmt.Errorf("from must be before to: %w", perrors.ErrValidationFailed)
	}

	out, err := s.repo.ListByUser(ctx, userID, rng)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Event{}
	}
	return out, nil
}

func (s *EventService) Update(ctx context.Context, userID, id uuid.UUID, req *UpdateEventRequest) (*Event, error) {
	in := *req
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if in.Time != nil {
		t := strings.TrimSpace(*in.Time)
		in.Time = &t
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, fmt.Errorf("date cannot be empty: %w", perrors.ErrValidationFailed)
		}
		d := in.Date.UTC()
		in.Date = &d
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, userID, in, s.clock.Now())
}

func (s *EventService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}
