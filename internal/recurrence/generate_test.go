package recurrence

import (
	"math"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"

	"volunteerhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRule(freq domain.Frequency, interval, count int, days ...domain.Weekday) domain.RecurrenceRule {
	return domain.RecurrenceRule{
		Frequency:       freq,
		Interval:        interval,
		WeekDays:        days,
		EndType:         domain.EndAfterOccurrences,
		OccurrenceCount: &count,
	}
}

func untilRule(freq domain.Frequency, interval int, until time.Time, days ...domain.Weekday) domain.RecurrenceRule {
	return domain.RecurrenceRule{
		Frequency: freq,
		Interval:  interval,
		WeekDays:  days,
		EndType:   domain.EndOnDate,
		EndDate:   &until,
	}
}

func starts(occ []domain.OccurrenceInterval) []time.Time {
	out := make([]time.Time, len(occ))
	for i, o := range occ {
		out[i] = o.Start
	}
	return out
}

func TestGenerate_WeeklyMultipleWeekdays(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday
	end := start.Add(time.Hour)

	got := Generate(start, end, countRule(domain.FrequencyWeekly, 1, 4, domain.Monday, domain.Wednesday))

	want := []domain.OccurrenceInterval{
		{Start: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{Start: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)},
		{Start: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)},
		{Start: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)},
	}
	require.Equal(t, want, got)
}

func TestGenerate_MonthlyClampsToShortMonth(t *testing.T) {
	start := time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	got := Generate(start, end, countRule(domain.FrequencyMonthly, 1, 3))

	require.Equal(t, []time.Time{
		time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 18, 30, 0, 0, time.UTC),
		// Each month is computed from the template's 31st, not from the clamped 29th.
		time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_MonthlyClampNonLeapYear(t *testing.T) {
	start := time.Date(2023, 1, 31, 8, 0, 0, 0, time.UTC)

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyMonthly, 1, 2))

	require.Equal(t, []time.Time{
		time.Date(2023, 1, 31, 8, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 28, 8, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_YearlyFromLeapDay(t *testing.T) {
	start := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyYearly, 1, 3))

	require.Equal(t, []time.Time{
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
	}, starts(got))

	got = Generate(start, start.Add(time.Hour), countRule(domain.FrequencyYearly, 4, 2))
	assert.Equal(t, time.Date(2028, 2, 29, 12, 0, 0, 0, time.UTC), got[1].Start)
}

func TestGenerate_MonthlyIntervalCrossesYear(t *testing.T) {
	start := time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyMonthly, 2, 3))

	require.Equal(t, []time.Time{
		time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_EmptyResults(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name string
		rule domain.RecurrenceRule
	}{
		{"end date before template start", untilRule(domain.FrequencyDaily, 1, start.AddDate(0, 0, -1))},
		{"zero occurrence count", countRule(domain.FrequencyDaily, 1, 0)},
		{"negative occurrence count", countRule(domain.FrequencyWeekly, 1, -3, domain.Monday)},
		{"missing count", domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, EndType: domain.EndAfterOccurrences}},
		{"missing end date", domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, EndType: domain.EndOnDate}},
		{"unknown end type", domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(start, end, tt.rule)
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestGenerate_EndDateIsInclusive(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	got := Generate(start, start.Add(time.Hour), untilRule(domain.FrequencyDaily, 2, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)))

	require.Equal(t, []time.Time{
		time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_EndDateEqualToTemplateStart(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	got := Generate(start, start.Add(time.Hour), untilRule(domain.FrequencyWeekly, 1, start, domain.Monday, domain.Friday))

	require.Equal(t, []time.Time{start}, starts(got))
}

func TestGenerate_WeeklyEndDateCutsMidBlock(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday

	got := Generate(start, start.Add(time.Hour), untilRule(domain.FrequencyWeekly, 1, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		domain.Monday, domain.Wednesday, domain.Friday))

	require.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_WeeklyDiscardsDaysBeforeTemplate(t *testing.T) {
	start := time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC) // Wednesday

	got := Generate(start, start.Add(90*time.Minute), countRule(domain.FrequencyWeekly, 2, 4, domain.Sunday, domain.Monday, domain.Saturday))

	require.Equal(t, []time.Time{
		time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC),  // Sat, same block as template
		time.Date(2024, 1, 14, 18, 0, 0, 0, time.UTC), // Sun, two weeks later
		time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC), // Mon
		time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC), // Sat
	}, starts(got))
}

func TestGenerate_WeeklyTemplateDayNotSelected(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) // Tuesday

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyWeekly, 1, 2, domain.Thursday))

	require.Equal(t, []time.Time{
		time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_WeeklyUnsortedDuplicateWeekdays(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyWeekly, 1, 3, domain.Friday, domain.Monday, domain.Friday))

	require.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_WeeklyWithoutWeekdaysUsesTemplateWeekday(t *testing.T) {
	start := time.Date(2024, 1, 4, 19, 0, 0, 0, time.UTC) // Thursday

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyWeekly, 2, 3))

	require.Equal(t, []time.Time{
		time.Date(2024, 1, 4, 19, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 18, 19, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 19, 0, 0, 0, time.UTC),
	}, starts(got))
}

func TestGenerate_HardBound(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	farAway := time.Date(2124, 1, 1, 0, 0, 0, 0, time.UTC)

	rules := map[string]domain.RecurrenceRule{
		"daily huge count":     countRule(domain.FrequencyDaily, 1, 1_000_000),
		"weekly all days":      countRule(domain.FrequencyWeekly, 1, 500, domain.Sunday, domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday, domain.Friday, domain.Saturday),
		"monthly far end date": untilRule(domain.FrequencyMonthly, 1, farAway),
		"yearly far end date":  untilRule(domain.FrequencyYearly, 1, farAway),
		"weekly days far end":  untilRule(domain.FrequencyWeekly, 3, farAway, domain.Tuesday),
		"zero interval":        countRule(domain.FrequencyDaily, 0, 100),
	}
	for name, rule := range rules {
		t.Run(name, func(t *testing.T) {
			got := Generate(start, end, rule)
			assert.Len(t, got, domain.MaxOccurrences)
		})
	}
}

func TestGenerate_OversizedIntervalStaysOrdered(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday
	end := start.Add(time.Hour)
	huge := math.MaxInt64/2 + 1

	rules := map[string]domain.RecurrenceRule{
		"daily":        countRule(domain.FrequencyDaily, huge, 3),
		"weekly":       countRule(domain.FrequencyWeekly, huge, 3),
		"weekly days":  countRule(domain.FrequencyWeekly, huge, 3, domain.Monday),
		"monthly":      countRule(domain.FrequencyMonthly, huge, 3),
		"yearly":       countRule(domain.FrequencyYearly, huge, 3),
		"max interval": countRule(domain.FrequencyYearly, domain.MaxInterval, domain.MaxOccurrences),
	}
	for name, rule := range rules {
		t.Run(name, func(t *testing.T) {
			got := Generate(start, end, rule)
			require.NotEmpty(t, got)
			assert.Equal(t, start, got[0].Start)
			for i := 1; i < len(got); i++ {
				assert.True(t, got[i].Start.After(got[i-1].Start), "occurrence %d not after %d", i, i-1)
			}
		})
	}

	got := Generate(start, end, countRule(domain.FrequencyDaily, huge, 2))
	require.Len(t, got, 2)
	assert.Equal(t, start.AddDate(0, 0, domain.MaxInterval), got[1].Start, "interval is capped at the largest accepted value")
}

func TestGenerateWeekdays_StopsAtSafetyCeiling(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday
	rule := untilRule(domain.FrequencyWeekly, 1, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC), domain.Monday)

	got := generateWeekdays(nil, start, time.Hour, 1, 10*weeklySafetyCeiling, []domain.Weekday{domain.Monday}, rule)

	require.Len(t, got, weeklySafetyCeiling)
	assert.Equal(t, start.AddDate(0, 0, 7*(weeklySafetyCeiling-1)), got[len(got)-1].Start)
}

func TestGenerate_CountBelowBound(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyDaily, 1, 7))

	assert.Len(t, got, 7)
	assert.Equal(t, time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC), got[6].Start)
}

func TestGenerate_Properties(t *testing.T) {
	start := time.Date(2024, 3, 5, 7, 45, 12, 500_000_000, time.UTC) // Tuesday
	end := start.Add(3*time.Hour + 15*time.Minute)
	until := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	rules := map[string]domain.RecurrenceRule{
		"daily":           countRule(domain.FrequencyDaily, 3, 40),
		"weekly weekdays": countRule(domain.FrequencyWeekly, 1, 60, domain.Thursday, domain.Tuesday, domain.Saturday),
		"weekly biweekly": untilRule(domain.FrequencyWeekly, 2, until, domain.Sunday, domain.Friday),
		"monthly":         untilRule(domain.FrequencyMonthly, 1, until),
		"yearly":          countRule(domain.FrequencyYearly, 1, 5),
	}
	for name, rule := range rules {
		t.Run(name, func(t *testing.T) {
			got := Generate(start, end, rule)
			require.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got), domain.MaxOccurrences)

			for i, o := range got {
				assert.Equal(t, end.Sub(start), o.End.Sub(o.Start), "duration of occurrence %d", i)
				assert.Equal(t, start.Hour(), o.Start.Hour())
				assert.Equal(t, start.Minute(), o.Start.Minute())
				assert.Equal(t, start.Second(), o.Start.Second())
				assert.Equal(t, start.Nanosecond(), o.Start.Nanosecond())
				if i > 0 {
					assert.True(t, o.Start.After(got[i-1].Start), "occurrence %d not after %d", i, i-1)
				}
				if len(rule.WeekDays) > 0 {
					assert.True(t, slices.Contains(rule.WeekDays, domain.Weekday(o.Start.Weekday())), "weekday %s not selected", o.Start.Weekday())
				}
			}

			assert.Equal(t, got, Generate(start, end, rule), "generation must be deterministic")
		})
	}
}

// Durations are raw clock deltas: an occurrence crossing a DST switch keeps the
// template's elapsed duration, so its local end time shifts by the DST offset.
func TestGenerate_DurationIsNotAdjustedForDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2024, 3, 9, 1, 30, 0, 0, ny) // EST, the night before spring forward
	end := time.Date(2024, 3, 9, 3, 30, 0, 0, ny)

	got := Generate(start, end, countRule(domain.FrequencyDaily, 1, 2))
	require.Len(t, got, 2)

	crossing := got[1]
	assert.Equal(t, time.Date(2024, 3, 10, 1, 30, 0, 0, ny), crossing.Start)
	assert.Equal(t, 2*time.Hour, crossing.End.Sub(crossing.Start))
	// Local wall clock reads 01:30 -> 04:30, one hour longer than the template's 01:30 -> 03:30.
	assert.Equal(t, 4, crossing.End.In(ny).Hour())
	assert.Equal(t, 30, crossing.End.In(ny).Minute())
}

func TestGenerate_KeepsWallClockAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	start := time.Date(2024, 3, 25, 18, 0, 0, 0, berlin) // Monday, CET

	got := Generate(start, start.Add(time.Hour), countRule(domain.FrequencyWeekly, 1, 2, domain.Monday))
	require.Len(t, got, 2)

	// April 1st is CEST; the occurrence still starts at 18:00 local time.
	assert.Equal(t, time.Date(2024, 4, 1, 18, 0, 0, 0, berlin), got[1].Start)
	assert.Equal(t, 18, got[1].Start.Hour())
	assert.Equal(t, time.Hour, got[1].End.Sub(got[1].Start))
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{"plain", time.Date(2024, 4, 10, 6, 15, 0, 0, time.UTC), 1, time.Date(2024, 5, 10, 6, 15, 0, 0, time.UTC)},
		{"to short month", time.Date(2024, 3, 31, 6, 15, 0, 0, time.UTC), 1, time.Date(2024, 4, 30, 6, 15, 0, 0, time.UTC)},
		{"year rollover", time.Date(2024, 12, 31, 6, 15, 0, 0, time.UTC), 2, time.Date(2025, 2, 28, 6, 15, 0, 0, time.UTC)},
		{"twelve months", time.Date(2024, 2, 29, 6, 15, 0, 0, time.UTC), 12, time.Date(2025, 2, 28, 6, 15, 0, 0, time.UTC)},
		{"forty eight months keeps leap day", time.Date(2024, 2, 29, 6, 15, 0, 0, time.UTC), 48, time.Date(2028, 2, 29, 6, 15, 0, 0, time.UTC)},
		{"zero months", time.Date(2024, 1, 31, 6, 15, 0, 0, time.UTC), 0, time.Date(2024, 1, 31, 6, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, addMonthsClamped(tt.from, tt.months))
		})
	}
}
