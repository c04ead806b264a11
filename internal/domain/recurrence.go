package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxOccurrences is the hard upper bound on the number of occurrences
// materialized from a single recurrence rule.
const MaxOccurrences = 52

// MaxInterval is the largest accepted recurrence interval.
const MaxInterval = 1000

// Frequency is the unit a recurrence rule steps by.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// EndType selects how a recurrence rule terminates.
type EndType string

const (
	EndOnDate           EndType = "on_date"
	EndAfterOccurrences EndType = "after_occurrences"
)

// Weekday is a weekday index, Sunday = 0 through Saturday = 6 (same numbering as time.Weekday).
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayTags = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Valid reports whether d is in the range Sunday..Saturday.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// String returns the short lowercase tag ("mon", "tue", ...).
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayTags[d]
}

// ParseWeekday parses a short weekday tag such as "mon" (case-insensitive).
func ParseWeekday(s string) (Weekday, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for i, t := range weekdayTags {
		if t == tag {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, s)
}

// MarshalText encodes the weekday as its short tag.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: weekday %d out of range", ErrInvalidInput, int(d))
	}
	return []byte(weekdayTags[d]), nil
}

// UnmarshalText decodes a short weekday tag.
func (d *Weekday) UnmarshalText(b []byte) error {
	w, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = w
	return nil
}

// RecurrenceRule describes how a template occurrence repeats.
// EndDate is set iff EndType is EndOnDate; OccurrenceCount is set iff EndType is EndAfterOccurrences.
// swagger:model RecurrenceRule
type RecurrenceRule struct {
	Frequency       Frequency  `json:"frequency"`
	Interval        int        `json:"interval"`
	WeekDays        []Weekday  `json:"week_days,omitempty"`
	EndType         EndType    `json:"end_type"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	OccurrenceCount *int       `json:"occurrence_count,omitempty"`
}

// Validate checks the structural shape of the rule. Boundary values that the
// generator resolves by policy (empty weekdays, a non-positive count, an end
// date before the template) are not rejected here.
func (r RecurrenceRule) Validate() []string {
	var errs []string
	if !r.Frequency.Valid() {
		errs = append(errs, fmt.Sprintf("frequency must be one of daily, weekly, monthly, yearly (got %q)", r.Frequency))
	}
	if r.Interval < 1 || r.Interval > MaxInterval {
		errs = append(errs, fmt.Sprintf("interval must be between 1 and %d", MaxInterval))
	}
	for _, d := range r.WeekDays {
		if !d.Valid() {
			errs = append(errs, fmt.Sprintf("week day %d out of range", int(d)))
		}
	}
	switch r.EndType {
	case EndOnDate:
		if r.EndDate == nil {
			errs = append(errs, "end_date is required when end_type is on_date")
		}
		if r.OccurrenceCount != nil {
			errs = append(errs, "occurrence_count must be omitted when end_type is on_date")
		}
	case EndAfterOccurrences:
		if r.OccurrenceCount == nil {
			errs = append(errs, "occurrence_count is required when end_type is after_occurrences")
		}
		if r.EndDate != nil {
			errs = append(errs, "end_date must be omitted when end_type is after_occurrences")
		}
	default:
		errs = append(errs, fmt.Sprintf("end_type must be on_date or after_occurrences (got %q)", r.EndType))
	}
	return errs
}

// OccurrenceInterval is one generated (start, end) pair.
// swagger:model OccurrenceInterval
type OccurrenceInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Scope selects which occurrences of a series a mutation applies to.
type Scope string

const (
	ScopeThisOnly         Scope = "this_only"
	ScopeThisAndFollowing Scope = "this_and_following"
	ScopeAll              Scope = "all"
)

// ParseScope parses a scope literal. The empty string means ScopeThisOnly.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeThisOnly, nil
	case ScopeThisOnly, ScopeThisAndFollowing, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, s)
}

// OccurrenceRef is the minimal view of a materialized occurrence the series planner needs.
type OccurrenceRef struct {
	ID    string
	Start time.Time
}
