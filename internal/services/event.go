package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"volunteerhub/internal/domain"
	"volunteerhub/internal/recurrence"
)

type eventService struct {
	eventRepo      domain.EventRepository
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
	newGroupID     func() (string, error)
}

func NewEventService(eventRepo domain.EventRepository, logger *slog.Logger, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
		newGroupID:     recurrence.NewGroupID,
	}
}

func validateSchedule(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_time and end_time are required", domain.ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end_time must not be before start_time", domain.ErrInvalidInput)
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required")
	}
	if err := validateSchedule(event.StartTime, event.EndTime); err != nil {
		return err
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.RecurrenceGroupID = nil

	return s.eventRepo.Create(ctx, event)
}

// CreateRecurringEvent materializes rule from the template's start/end and
// writes every occurrence, tagged with a fresh group id, in one transaction.
func (s *eventService) CreateRecurringEvent(ctx context.Context, template *domain.Event, rule domain.RecurrenceRule) ([]*domain.Event, *domain.RecurrenceGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if template.OwnerID == "" {
		return nil, nil, fmt.Errorf("event owner is required")
	}
	if err := validateSchedule(template.StartTime, template.EndTime); err != nil {
		return nil, nil, err
	}
	if errs := rule.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}

	intervals := recurrence.Generate(template.StartTime, template.EndTime, rule)
	if len(intervals) == 0 {
		return nil, nil, fmt.Errorf("%w: recurrence rule produces no occurrences", domain.ErrInvalidInput)
	}

	rruleText, err := recurrence.FormatRRule(rule)
	if err != nil {
		return nil, nil, err
	}
	groupID, err := s.newGroupID()
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	group := &domain.RecurrenceGroup{ID: groupID, OwnerID: template.OwnerID, RRule: rruleText, CreatedAt: now}
	events := make([]*domain.Event, len(intervals))
	for i, iv := range intervals {
		e := *template
		e.ID = ""
		e.StartTime = iv.Start
		e.EndTime = iv.End
		e.RecurrenceGroupID = &group.ID
		e.CreatedAt = now
		e.UpdatedAt = now
		events[i] = &e
	}

	if err := s.eventRepo.CreateSeries(ctx, group, events); err != nil {
		return nil, nil, fmt.Errorf("create series: %w", err)
	}
	s.logger.InfoContext(ctx, "recurring event created",
		"group_id", group.ID, "owner_id", group.OwnerID, "rrule", group.RRule, "occurrences", len(events))
	return events, group, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.getOwned(ctx, eventID, callerID)
}

// getOwned loads an event and checks that callerID owns it.
func (s *eventService) getOwned(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListByOwnerID(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

// ListSeries returns the current members of a recurrence group. A group whose
// occurrences were all deleted is reported as not found.
func (s *eventService) ListSeries(ctx context.Context, groupID, callerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !recurrence.ValidGroupID(groupID) {
		return nil, domain.ErrNotFound
	}
	events, err := s.eventRepo.ListByRecurrenceGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	if len(events) == 0 {
		return nil, domain.ErrNotFound
	}
	if events[0].OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return events, nil
}

// targets resolves the identifiers a scoped mutation on event applies to.
func (s *eventService) targets(ctx context.Context, event *domain.Event, scope domain.Scope) ([]string, error) {
	if !event.IsRecurring() {
		// A standalone event is a series of one.
		return recurrence.Plan([]domain.OccurrenceRef{event.Ref()}, event.ID, scope)
	}
	members, err := s.eventRepo.ListByRecurrenceGroup(ctx, *event.RecurrenceGroupID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	refs := make([]domain.OccurrenceRef, len(members))
	for i, m := range members {
		refs[i] = m.Ref()
	}
	return recurrence.Plan(refs, event.ID, scope)
}

// UpdateEvent applies patch to the occurrences selected by scope and returns
// them. Start and end may only change for a single occurrence: materialized
// dates of other occurrences are never regenerated.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, patch domain.EventPatch, scope domain.Scope) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}
	if patch.ChangesSchedule() && scope != domain.ScopeThisOnly {
		return nil, fmt.Errorf("%w: start_time and end_time can only be changed with scope %s", domain.ErrInvalidInput, domain.ScopeThisOnly)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
	}

	event, err := s.getOwned(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.ChangesSchedule() {
		start, end := event.StartTime, event.EndTime
		if patch.StartTime != nil {
			start = *patch.StartTime
		}
		if patch.EndTime != nil {
			end = *patch.EndTime
		}
		if err := validateSchedule(start, end); err != nil {
			return nil, err
		}
	}

	ids, err := s.targets(ctx, event, scope)
	if err != nil {
		return nil, err
	}
	updated, err := s.eventRepo.UpdateMany(ctx, ids, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update events: %w", err)
	}
	s.logger.InfoContext(ctx, "events updated", "event_id", eventID, "scope", scope, "count", len(updated))
	return updated, nil
}

// DeleteEvent deletes the occurrences selected by scope and returns their ids.
func (s *eventService) DeleteEvent(ctx context.Context, eventID, ownerID string, scope domain.Scope) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getOwned(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}
	ids, err := s.targets(ctx, event, scope)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.DeleteMany(ctx, ids); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete events: %w", err)
	}
	s.logger.InfoContext(ctx, "events deleted", "event_id", eventID, "scope", scope, "count", len(ids))
	return ids, nil
}
