package domain

import (
	"fmt"
	"time"
)

type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

func (i RecurringInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// NextRecurringDate returns the next occurrence strictly after from.
// Monthly and yearly additions follow calendar semantics (time.AddDate),
// so Jan 31 + 1 month normalizes past the end of February.
func NextRecurringDate(from time.Time, interval RecurringInterval) (time.Time, error) {
	switch interval {
	case IntervalDaily:
		return from.AddDate(0, 0, 1), nil
	case IntervalWeekly:
		return from.AddDate(0, 0, 7), nil
	case IntervalMonthly:
		return from.AddDate(0, 1, 0), nil
	case IntervalYearly:
		return from.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown recurring interval: %q", interval)
	}
}

// IsDue reports whether a recurring transaction should be processed.
// A never-processed transaction is always due; otherwise the next due
// date must have been reached.
func (t *Transaction) IsDue(now time.Time) bool {
	if t.LastProcessed == nil {
		return true
	}
	if t.NextRecurringDate == nil {
		return false
	}
	return !t.NextRecurringDate.After(now)
}
