// Package recurrence materializes recurrence rules into concrete occurrences
// and plans scoped mutations over a materialized series.
//
// All calendar arithmetic happens in the template start's location. The
// duration of every occurrence is the raw clock delta of the template
// (templateEnd - templateStart), so an occurrence that crosses a DST
// transition keeps the same elapsed duration while its local wall-clock span
// differs from the template's by the size of the shift.
package recurrence

import (
	"slices"
	"time"

	"volunteerhub/internal/domain"
)

// weeklySafetyCeiling bounds the number of week blocks the weekly enumerator
// visits, independent of the occurrence cap. Reaching it returns whatever was
// collected so far. With at least one valid weekday every block past the first
// yields an occurrence, so a count or until rule ends long before the ceiling;
// it only matters for callers passing a larger limit.
const weeklySafetyCeiling = 200

// Generate expands rule, anchored on the template interval, into an ordered
// list of at most domain.MaxOccurrences occurrences. It never fails: degenerate
// rules (non-positive count, end date before the template, no occurrences in
// range) produce an empty, non-nil slice. The interval is clamped to
// 1..domain.MaxInterval.
//
// Monthly and yearly occurrences are computed from the template's day of month
// and clamp to the last day of a shorter target month: a series anchored on
// Jan 31 yields Feb 29 (or 28) and then Mar 31 again.
func Generate(templateStart, templateEnd time.Time, rule domain.RecurrenceRule) []domain.OccurrenceInterval {
	out := make([]domain.OccurrenceInterval, 0)

	limit, ok := occurrenceLimit(rule)
	if !ok {
		return out
	}
	if rule.EndType == domain.EndOnDate && rule.EndDate.Before(templateStart) {
		return out
	}

	duration := templateEnd.Sub(templateStart)
	interval := min(max(rule.Interval, 1), domain.MaxInterval)

	if rule.Frequency == domain.FrequencyWeekly {
		if days := sortedWeekdays(rule.WeekDays); len(days) > 0 {
			return generateWeekdays(out, templateStart, duration, interval, limit, days, rule)
		}
	}

	for n := 0; len(out) < limit; n++ {
		candidate := nthStep(templateStart, rule.Frequency, interval, n)
		if pastEnd(rule, candidate) || !movesForward(out, candidate) {
			break
		}
		out = append(out, domain.OccurrenceInterval{Start: candidate, End: candidate.Add(duration)})
	}
	return out
}

// movesForward reports whether candidate starts strictly after the last
// collected occurrence.
func movesForward(out []domain.OccurrenceInterval, candidate time.Time) bool {
	return len(out) == 0 || candidate.After(out[len(out)-1].Start)
}

// occurrenceLimit returns the effective cap for rule, or false when the rule
// can produce nothing.
func occurrenceLimit(rule domain.RecurrenceRule) (int, bool) {
	switch rule.EndType {
	case domain.EndAfterOccurrences:
		if rule.OccurrenceCount == nil || *rule.OccurrenceCount <= 0 {
			return 0, false
		}
		return min(*rule.OccurrenceCount, domain.MaxOccurrences), true
	case domain.EndOnDate:
		if rule.EndDate == nil {
			return 0, false
		}
		return domain.MaxOccurrences, true
	}
	return 0, false
}

func pastEnd(rule domain.RecurrenceRule, t time.Time) bool {
	return rule.EndType == domain.EndOnDate && t.After(*rule.EndDate)
}

// nthStep returns templateStart advanced by n*interval units of freq. A weekly
// rule without weekdays steps by whole weeks from the template's own weekday.
func nthStep(templateStart time.Time, freq domain.Frequency, interval, n int) time.Time {
	switch freq {
	case domain.FrequencyWeekly:
		return templateStart.AddDate(0, 0, 7*interval*n)
	case domain.FrequencyMonthly:
		return addMonthsClamped(templateStart, interval*n)
	case domain.FrequencyYearly:
		return addMonthsClamped(templateStart, 12*interval*n)
	default:
		return templateStart.AddDate(0, 0, interval*n)
	}
}

// addMonthsClamped adds months to t keeping its time of day. When the target
// month is shorter than t's day of month the result falls on the target's last day.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	year += total / 12
	target := time.Month(total%12 + 1)
	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// generateWeekdays enumerates a weekly rule block by block. Each block starts
// interval weeks after the previous one and emits the selected weekdays in
// ascending order, shifted relative to the template's weekday.
func generateWeekdays(out []domain.OccurrenceInterval, templateStart time.Time, duration time.Duration, interval, limit int, days []domain.Weekday, rule domain.RecurrenceRule) []domain.OccurrenceInterval {
	templateDate := dateOf(templateStart)
	templateWeekday := int(templateStart.Weekday())

	for weekOffset := 0; weekOffset < weeklySafetyCeiling; weekOffset++ {
		anchorOffset := weekOffset * interval * 7
		for _, d := range days {
			candidate := templateStart.AddDate(0, 0, anchorOffset+int(d)-templateWeekday)
			if dateOf(candidate).Before(templateDate) {
				continue
			}
			if pastEnd(rule, candidate) || !movesForward(out, candidate) {
				return out
			}
			if len(out) >= limit {
				return out
			}
			out = append(out, domain.OccurrenceInterval{Start: candidate, End: candidate.Add(duration)})
		}
	}
	return out
}

// sortedWeekdays returns the valid weekdays of days in ascending order without duplicates.
func sortedWeekdays(days []domain.Weekday) []domain.Weekday {
	out := make([]domain.Weekday, 0, len(days))
	for _, d := range days {
		if d.Valid() {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
