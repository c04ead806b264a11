package recurrence

import (
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"

	"volunteerhub/internal/domain"
)

// rruleWeekdays maps domain weekdays (Sunday = 0) to rrule weekdays.
var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

var toRRuleFreq = map[domain.Frequency]rrule.Frequency{
	domain.FrequencyDaily:   rrule.DAILY,
	domain.FrequencyWeekly:  rrule.WEEKLY,
	domain.FrequencyMonthly: rrule.MONTHLY,
	domain.FrequencyYearly:  rrule.YEARLY,
}

// FormatRRule renders rule as an RFC 5545 RRULE value (without the "RRULE:" prefix).
func FormatRRule(rule domain.RecurrenceRule) (string, error) {
	if errs := rule.Validate(); len(errs) > 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}
	opt := rrule.ROption{
		Freq:     toRRuleFreq[rule.Frequency],
		Interval: rule.Interval,
	}
	if rule.Frequency == domain.FrequencyWeekly {
		for _, d := range sortedWeekdays(rule.WeekDays) {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	}
	switch rule.EndType {
	case domain.EndAfterOccurrences:
		// Generate never materializes more than MaxOccurrences.
		opt.Count = min(*rule.OccurrenceCount, domain.MaxOccurrences)
	case domain.EndOnDate:
		opt.Until = rule.EndDate.UTC()
	}
	return opt.RRuleString(), nil
}

// ParseRRule parses the subset of RFC 5545 RRULE values a RecurrenceRule can
// express: FREQ of DAILY, WEEKLY, MONTHLY or YEARLY, INTERVAL, BYDAY without
// ordinals (WEEKLY only) and exactly one of COUNT or UNTIL.
func ParseRRule(s string) (domain.RecurrenceRule, error) {
	value := strings.TrimSpace(s)
	if len(value) >= 6 && strings.EqualFold(value[:6], "RRULE:") {
		value = value[6:]
	}
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: parse rrule: %v", domain.ErrInvalidInput, err)
	}

	var rule domain.RecurrenceRule
	for f, rf := range toRRuleFreq {
		if rf == opt.Freq {
			rule.Frequency = f
		}
	}
	if rule.Frequency == "" {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: unsupported rrule frequency %v", domain.ErrInvalidInput, opt.Freq)
	}

	rule.Interval = opt.Interval
	if rule.Interval == 0 {
		rule.Interval = 1
	}

	if len(opt.Bysetpos)+len(opt.Bymonth)+len(opt.Bymonthday)+len(opt.Byyearday)+len(opt.Byweekno)+
		len(opt.Byhour)+len(opt.Byminute)+len(opt.Bysecond)+len(opt.Byeaster) > 0 {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: only FREQ, INTERVAL, BYDAY, COUNT and UNTIL are supported", domain.ErrInvalidInput)
	}
	if len(opt.Byweekday) > 0 && rule.Frequency != domain.FrequencyWeekly {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: BYDAY is only supported with FREQ=WEEKLY", domain.ErrInvalidInput)
	}
	for _, wd := range opt.Byweekday {
		if wd.N() != 0 {
			return domain.RecurrenceRule{}, fmt.Errorf("%w: ordinal BYDAY values are not supported", domain.ErrInvalidInput)
		}
		rule.WeekDays = append(rule.WeekDays, domain.Weekday((wd.Day()+1)%7))
	}

	hasCount, hasUntil := opt.Count > 0, !opt.Until.IsZero()
	switch {
	case hasCount && hasUntil:
		return domain.RecurrenceRule{}, fmt.Errorf("%w: COUNT and UNTIL are mutually exclusive", domain.ErrInvalidInput)
	case hasCount:
		count := opt.Count
		rule.EndType = domain.EndAfterOccurrences
		rule.OccurrenceCount = &count
	case hasUntil:
		until := opt.Until
		rule.EndType = domain.EndOnDate
		rule.EndDate = &until
	default:
		return domain.RecurrenceRule{}, fmt.Errorf("%w: rrule must end with COUNT or UNTIL", domain.ErrInvalidInput)
	}
	return rule, nil
}
