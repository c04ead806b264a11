package domain

import (
	"context"
	"time"
)

// Event is one concrete, independently addressable occurrence of a volunteering event.
// Occurrences created from a recurrence rule share a RecurrenceGroupID; the group owns
// nothing and is only used to query its members.
// swagger:model Event
type Event struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description,omitempty"`
	Location          *string   `json:"location,omitempty"`
	LocationLat       *float64  `json:"location_lat,omitempty"`
	LocationLng       *float64  `json:"location_lng,omitempty"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	RecurrenceGroupID *string   `json:"recurrence_group_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(ownerID, title string, startTime, endTime, createdAt, updatedAt time.Time) *Event {
	return &Event{
		OwnerID:   ownerID,
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// IsRecurring reports whether the event was materialized from a recurrence rule.
func (e *Event) IsRecurring() bool {
	return e.RecurrenceGroupID != nil && *e.RecurrenceGroupID != ""
}

// Ref returns the planner view of the event.
func (e *Event) Ref() OccurrenceRef {
	return OccurrenceRef{ID: e.ID, Start: e.StartTime}
}

// RecurrenceGroup records the rule application a series was materialized from.
// It is a correlation key only: members are found by querying events with the
// same RecurrenceGroupID, and the record outlives its last occurrence so the
// identifier is never reused.
// swagger:model RecurrenceGroup
type RecurrenceGroup struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	RRule     string    `json:"rrule"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPatch holds the fields of a partial update. Nil fields are unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	LocationLat *float64
	LocationLng *float64
	StartTime   *time.Time
	EndTime     *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil &&
		p.LocationLat == nil && p.LocationLng == nil &&
		p.StartTime == nil && p.EndTime == nil
}

// ChangesSchedule reports whether the patch moves start or end.
func (p EventPatch) ChangesSchedule() bool {
	return p.StartTime != nil || p.EndTime != nil
}

// EventRepository defines the interface for event occurrence storage.
// CreateSeries, UpdateMany and DeleteMany are all-or-nothing.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	CreateSeries(ctx context.Context, group *RecurrenceGroup, events []*Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string, params PaginationParams) ([]*Event, int, error)
	ListByRecurrenceGroup(ctx context.Context, groupID string) ([]*Event, error)
	UpdateMany(ctx context.Context, ids []string, patch EventPatch) ([]*Event, error)
	DeleteMany(ctx context.Context, ids []string) error
}

// EventService defines the business logic for single and recurring events.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	CreateRecurringEvent(ctx context.Context, template *Event, rule RecurrenceRule) ([]*Event, *RecurrenceGroup, error)
	GetEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	ListEvents(ctx context.Context, ownerID string, params PaginationParams) ([]*Event, int, error)
	ListSeries(ctx context.Context, groupID, callerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, patch EventPatch, scope Scope) ([]*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string, scope Scope) ([]string, error)
}

// SeriesCalendarRenderer renders a series of occurrences as an iCalendar document.
type SeriesCalendarRenderer interface {
	Render(groupID string, events []*Event) (string, error)
}
