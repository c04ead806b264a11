// Package icalendar renders recurrence series as iCalendar documents.
package icalendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"volunteerhub/internal/domain"
)

const productID = "-//VolunteerHub//Series Export//EN"

type calendarRenderer struct {
	now func() time.Time
}

// NewCalendarRenderer returns a renderer that writes one VEVENT per
// occurrence, linked to the series by RELATED-TO. No RRULE is emitted.
func NewCalendarRenderer() domain.SeriesCalendarRenderer {
	return &calendarRenderer{now: time.Now}
}

func (r *calendarRenderer) Render(groupID string, events []*domain.Event) (string, error) {
	if groupID == "" {
		return "", fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := r.now().UTC()
	for _, e := range events {
		if e.ID == "" {
			return "", fmt.Errorf("%w: occurrence without id", domain.ErrInvalidInput)
		}
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp)
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetModifiedAt(e.UpdatedAt)
		ve.SetStartAt(e.StartTime)
		ve.SetEndAt(e.EndTime)
		ve.SetSummary(e.Title)
		if e.Description != nil {
			ve.SetDescription(*e.Description)
		}
		if e.Location != nil {
			ve.SetLocation(*e.Location)
		}
		if e.LocationLat != nil && e.LocationLng != nil {
			ve.AddProperty(ical.ComponentProperty("GEO"), fmt.Sprintf("%f;%f", *e.LocationLat, *e.LocationLng))
		}
		ve.AddProperty(ical.ComponentProperty("RELATED-TO"), groupID)
	}
	return cal.Serialize(), nil
}
